package streets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/georgia-utilities/alertbot/internal/lib/geo"
	"github.com/georgia-utilities/alertbot/internal/lib/places"
)

// nameProperties are checked in order for a feature's street name
var nameProperties = []string{"name", "name:ka", "name:en", "name:ru"}

type cityIndex struct {
	name           string
	entitiesByName map[string]*MatcherStreet
	streetsByType  map[StreetType][]*MatcherStreet
	order          []*MatcherStreet
}

func newCityIndex(name string) *cityIndex {
	return &cityIndex{
		name:           name,
		entitiesByName: make(map[string]*MatcherStreet),
		streetsByType:  make(map[StreetType][]*MatcherStreet),
	}
}

func (ci *cityIndex) add(street *MatcherStreet) {
	if existing, ok := ci.entitiesByName[street.Name]; ok {
		existing.Combine(street)
		return
	}
	ci.entitiesByName[street.Name] = street
	ci.streetsByType[street.Type] = append(ci.streetsByType[street.Type], street)
	ci.order = append(ci.order, street)
}

// Corpus is the per-city street index. Loading takes the write lock; once
// loaded it is only read.
type Corpus struct {
	mu      sync.RWMutex
	cities  map[string]*cityIndex
	order   []string
	weights ScoreWeights
}

// NewCorpus creates an empty corpus scored with the given weights
func NewCorpus(weights ScoreWeights) *Corpus {
	return &Corpus{
		cities:  make(map[string]*cityIndex),
		weights: weights,
	}
}

// CityKey maps a city name in any known spelling to its corpus key
func CityKey(city string) string {
	city = strings.TrimSpace(city)
	if en, ok := places.English(city); ok {
		city = en
	}
	return strings.ToLower(city)
}

// LoadCity parses one GeoJSON FeatureCollection into the city's index and
// returns the number of features accepted
func (c *Corpus) LoadCity(city string, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read street data for %s: %w", city, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return 0, fmt.Errorf("failed to parse street data for %s: %w", city, err)
	}

	key := CityKey(city)

	c.mu.Lock()
	defer c.mu.Unlock()

	index, ok := c.cities[key]
	if !ok {
		index = newCityIndex(key)
		c.cities[key] = index
		c.order = append(c.order, key)
	}

	accepted := 0
	for _, feature := range fc.Features {
		street := streetFromFeature(feature, key)
		if street == nil {
			continue
		}
		index.add(street)
		accepted++
	}
	return accepted, nil
}

// LoadDir loads every <city>.geojson file in dir, in name order
func (c *Corpus) LoadDir(dir string) (map[string]int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.geojson"))
	if err != nil {
		return nil, fmt.Errorf("failed to list street data in %s: %w", dir, err)
	}
	sort.Strings(files)

	loaded := make(map[string]int, len(files))
	for _, file := range files {
		city := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		f, err := os.Open(file)
		if err != nil {
			return loaded, fmt.Errorf("failed to open %s: %w", file, err)
		}
		n, err := c.LoadCity(city, f)
		f.Close()
		if err != nil {
			return loaded, err
		}
		loaded[CityKey(city)] = n
	}
	return loaded, nil
}

func streetFromFeature(feature *geojson.Feature, city string) *MatcherStreet {
	if feature == nil {
		return nil
	}
	if route, ok := feature.Properties["route"]; ok && route != nil && route != "" {
		return nil
	}

	var name string
	for _, key := range nameProperties {
		if v, ok := feature.Properties[key].(string); ok && strings.TrimSpace(v) != "" {
			name = v
			break
		}
	}
	if name == "" {
		return nil
	}

	var lines []orb.LineString
	switch g := feature.Geometry.(type) {
	case orb.LineString:
		lines = append(lines, g)
	case orb.MultiLineString:
		lines = append(lines, g...)
	default:
		return nil
	}

	street := NewMatcherStreet(name, city)
	if street.Name == "" {
		return nil
	}
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		street.Geometries = append(street.Geometries, geo.NewGeometry(line))
	}
	street.Features = append(street.Features, feature)
	return street
}

// Cities returns the loaded city keys in load order
func (c *Corpus) Cities() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Street looks up a street by its cleaned name
func (c *Corpus) Street(city, name string) (*MatcherStreet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	index, ok := c.cities[CityKey(city)]
	if !ok {
		return nil, false
	}
	street, ok := index.entitiesByName[CleanName(name)]
	return street, ok
}

// Streets returns a city's streets in load order
func (c *Corpus) Streets(city string) []*MatcherStreet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	index, ok := c.cities[CityKey(city)]
	if !ok {
		return nil
	}
	out := make([]*MatcherStreet, len(index.order))
	copy(out, index.order)
	return out
}

// Len returns the number of distinct streets across all cities
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0
	for _, index := range c.cities {
		total += len(index.order)
	}
	return total
}

// candidates returns the streets of the requested cities (all when none are
// given) bucket by bucket
func (c *Corpus) candidates(cities []string) []*MatcherStreet {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := c.order
	if len(cities) > 0 {
		keys = make([]string, 0, len(cities))
		seen := make(map[string]bool, len(cities))
		for _, city := range cities {
			key := CityKey(city)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			keys = append(keys, key)
		}
	}

	var out []*MatcherStreet
	for _, key := range keys {
		index, ok := c.cities[key]
		if !ok {
			continue
		}
		for _, streetType := range AllStreetTypes {
			out = append(out, index.streetsByType[streetType]...)
		}
	}
	return out
}
