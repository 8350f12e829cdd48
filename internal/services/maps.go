package services

import (
	"fmt"
	"io"

	"github.com/georgia-utilities/alertbot/internal/lib/alerts"
	"github.com/georgia-utilities/alertbot/internal/lib/areatree"
	"github.com/georgia-utilities/alertbot/internal/lib/geo"
	"github.com/georgia-utilities/alertbot/internal/lib/mapimage"
	"github.com/georgia-utilities/alertbot/internal/lib/streets"
)

// MapService turns alert areas into street geometry, static map URLs and KML
type MapService struct {
	resolver   *streets.Resolver
	builder    mapimage.URLBuilder
	kml        mapimage.KMLWriter
	gradient   mapimage.Gradient
	pathWeight int
	metrics    *Metrics
}

// NewMapService creates a new MapService over matcher
func NewMapService(matcher streets.Matcher, resolverOpts streets.ResolverOptions, imageOpts mapimage.Options, metrics *Metrics) *MapService {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	gradient := mapimage.DefaultGradient()
	weight := imageOpts.PathWeight
	if weight <= 0 {
		weight = mapimage.DefaultOptions().PathWeight
	}
	return &MapService{
		resolver:   streets.NewResolver(matcher, resolverOpts),
		builder:    mapimage.NewStaticMapBuilder(imageOpts, geo.NewGeoUtils()),
		kml:        mapimage.NewKMLExporter(gradient, float64(weight)),
		gradient:   gradient,
		pathWeight: weight,
		metrics:    metrics,
	}
}

// Resolve matches the streets of every city of tree against that city's
// corpus and returns the combined result with deduplicated geometry
func (m *MapService) Resolve(tree *areatree.AreaTree) streets.Resolution {
	var combined streets.Resolution
	var geometries []geo.Geometry

	for _, cityGe := range tree.Names() {
		res := m.resolver.Resolve(tree, cityGe, []string{cityGe})
		combined.Areas = append(combined.Areas, res.Areas...)
		combined.Streets = append(combined.Streets, res.Streets...)
		combined.Results = append(combined.Results, res.Results...)
		geometries = append(geometries, res.Geometries...)

		unmatched := len(res.Unmatched())
		m.metrics.StreetMatches.WithLabelValues("matched").Add(float64(len(res.Areas) - unmatched))
		m.metrics.StreetMatches.WithLabelValues("unmatched").Add(float64(unmatched))
	}
	combined.Geometries = streets.OptimizeGeometries(geometries)
	return combined
}

// ResolveAlert resolves the disconnection area of a
func (m *MapService) ResolveAlert(a alerts.Alert) streets.Resolution {
	return m.Resolve(a.Areas())
}

// ImageURL renders the alert's streets as a static map. It returns an empty
// string when no street was matched.
func (m *MapService) ImageURL(a alerts.Alert) string {
	res := m.ResolveAlert(a)
	if len(res.Geometries) == 0 {
		return ""
	}
	return m.builder.Build(mapimage.PathsFor(res.Geometries, m.gradient, m.pathWeight))
}

// WriteKML exports the alert's matched streets
func (m *MapService) WriteKML(w io.Writer, a alerts.Alert) error {
	res := m.ResolveAlert(a)
	name := fmt.Sprintf("Alert %d", a.TaskID)
	if err := m.kml.WriteKML(w, name, res.Geometries); err != nil {
		return fmt.Errorf("failed to write KML for alert %d: %w", a.TaskID, err)
	}
	return nil
}

// WriteDayKML exports the matched streets of every alert in list, resolved
// once over their merged areas
func (m *MapService) WriteDayKML(w io.Writer, name string, list []alerts.Alert) error {
	res := m.Resolve(alerts.DayAreas(list).AreaTree)
	if err := m.kml.WriteKML(w, name, res.Geometries); err != nil {
		return fmt.Errorf("failed to write KML for %s: %w", name, err)
	}
	return nil
}

// Match scores one free-text street name, optionally within cities
func (m *MapService) Match(query string, cities ...string) []streets.StreetFinderResult {
	var results []streets.StreetFinderResult
	m.resolver.GetRealStreets([]string{query}, cities, &results)
	return results
}
