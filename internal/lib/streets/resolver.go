package streets

import (
	"math"

	"github.com/georgia-utilities/alertbot/internal/lib/areatree"
	"github.com/georgia-utilities/alertbot/internal/lib/geo"
)

// OrderedSet is a string set that remembers insertion order
type OrderedSet struct {
	items []string
	index map[string]struct{}
}

// NewOrderedSet creates an empty set
func NewOrderedSet() *OrderedSet {
	return &OrderedSet{index: make(map[string]struct{})}
}

// Add inserts s unless already present
func (s *OrderedSet) Add(items ...string) {
	for _, item := range items {
		if _, ok := s.index[item]; ok {
			continue
		}
		s.index[item] = struct{}{}
		s.items = append(s.items, item)
	}
}

// Has reports membership
func (s *OrderedSet) Has(item string) bool {
	_, ok := s.index[item]
	return ok
}

// Len returns the number of items
func (s *OrderedSet) Len() int { return len(s.items) }

// Items returns the items in insertion order
func (s *OrderedSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// GetStreets collects the area names below the city level of tree. With a
// non-empty city only that branch is walked. level is the depth of tree
// itself, 0 for a root.
func GetStreets(tree *areatree.AreaTree, city string, level int) *OrderedSet {
	out := NewOrderedSet()
	collectStreets(tree, city, level, out)
	return out
}

func collectStreets(tree *areatree.AreaTree, city string, level int, out *OrderedSet) {
	if tree == nil || level > areatree.MaxDepth {
		return
	}

	switch {
	case level == 1:
		if city != "" && tree.NameGe != city {
			return
		}
		if city != "" && tree.IsLeaf() {
			out.Add(tree.NameGe)
			return
		}
	case level >= 2:
		out.Add(tree.NameGe)
	}

	for _, child := range tree.Children() {
		collectStreets(child, city, level+1, out)
	}
}

// Resolver turns area names into accepted corpus streets and their geometry
type Resolver struct {
	matcher Matcher
	opts    ResolverOptions
}

// NewResolver creates a resolver. Zero options fall back to the defaults.
func NewResolver(matcher Matcher, opts ResolverOptions) *Resolver {
	defaults := DefaultResolverOptions()
	if opts.AcceptanceThreshold <= 0 {
		opts.AcceptanceThreshold = defaults.AcceptanceThreshold
	}
	if opts.NormalizationWeight <= 0 {
		opts.NormalizationWeight = defaults.NormalizationWeight
	}
	return &Resolver{matcher: matcher, opts: opts}
}

// Options returns the effective options
func (r *Resolver) Options() ResolverOptions {
	return r.opts
}

// Rating normalizes a raw match score into [0,1]
func (r *Resolver) Rating(result MatchResult) float64 {
	if result.QueryLength == 0 {
		return 0
	}
	return math.Min(1, result.Similarity/(float64(result.QueryLength)*r.opts.NormalizationWeight))
}

// GetRealStreets matches each name against the corpus of the hinted cities.
// Accepted matches are appended to result when it is non-nil; the canonical
// names of the matched streets are returned. Names without an accepted match
// are dropped.
func (r *Resolver) GetRealStreets(streets []string, cities []string, result *[]StreetFinderResult) *OrderedSet {
	out := NewOrderedSet()
	for _, input := range streets {
		for _, m := range r.matcher.GetBestMatches(input, cities...) {
			rating := r.Rating(m.Result)
			if rating <= r.opts.AcceptanceThreshold || m.Street == nil {
				continue
			}
			if result != nil {
				*result = append(*result, StreetFinderResult{
					Input:  input,
					Match:  m.Street.Name,
					Rating: rating,
					Street: m.Street,
				})
			}
			out.Add(m.Street.Name)
		}
	}
	return out
}

// CreateGeometryFromStreetFinderResults clones the geometry of every matched
// street and stamps it with the match rating, keeping the higher one
func CreateGeometryFromStreetFinderResults(results []StreetFinderResult) []geo.Geometry {
	out := make([]geo.Geometry, 0)
	for _, result := range results {
		if result.Street == nil {
			continue
		}
		for _, g := range result.Street.Geometries {
			clone := g.Clone()
			clone.RaiseRating(result.Rating)
			out = append(out, clone)
		}
	}
	return out
}

// OptimizeGeometries drops geometries with identical coordinates, keeping the
// better rated one at the position of the first occurrence
func OptimizeGeometries(geometries []geo.Geometry) []geo.Geometry {
	out := make([]geo.Geometry, 0, len(geometries))
	positions := make(map[string]int, len(geometries))
	for _, g := range geometries {
		key := g.Key()
		if i, ok := positions[key]; ok {
			if g.Outranks(out[i]) {
				out[i] = g
			}
			continue
		}
		positions[key] = len(out)
		out = append(out, g)
	}
	return out
}

// Resolution is the outcome of resolving one area tree
type Resolution struct {
	Areas      []string
	Streets    []string
	Results    []StreetFinderResult
	Geometries []geo.Geometry
}

// Unmatched returns the area names that produced no accepted street
func (res Resolution) Unmatched() []string {
	matched := make(map[string]bool, len(res.Results))
	for _, r := range res.Results {
		matched[r.Input] = true
	}
	var out []string
	for _, area := range res.Areas {
		if !matched[area] {
			out = append(out, area)
		}
	}
	return out
}

// Resolve runs the whole pipeline for one tree: collect area names, match
// them, and build the deduplicated rated geometry
func (r *Resolver) Resolve(tree *areatree.AreaTree, city string, cities []string) Resolution {
	areas := GetStreets(tree, city, 0)

	var results []StreetFinderResult
	matched := r.GetRealStreets(areas.Items(), cities, &results)

	return Resolution{
		Areas:      areas.Items(),
		Streets:    matched.Items(),
		Results:    results,
		Geometries: OptimizeGeometries(CreateGeometryFromStreetFinderResults(results)),
	}
}
