package mapimage

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/georgia-utilities/alertbot/internal/lib/geo"
)

// staticMapBuilder implements URLBuilder for Google-style static map APIs
type staticMapBuilder struct {
	opts     Options
	geoUtils geo.GeoUtils
}

// NewStaticMapBuilder creates a new URLBuilder
func NewStaticMapBuilder(opts Options, geoUtils geo.GeoUtils) URLBuilder {
	defaults := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = defaults.BaseURL
	}
	if opts.Size == "" {
		opts.Size = defaults.Size
	}
	if opts.MaxURLLength <= 0 {
		opts.MaxURLLength = defaults.MaxURLLength
	}
	if geoUtils == nil {
		geoUtils = geo.NewGeoUtils()
	}
	return &staticMapBuilder{opts: opts, geoUtils: geoUtils}
}

// Build renders paths longest first and stops at the first one that does not
// fit, so the shortest streets are the ones dropped. When any path is
// dropped the map is still framed around all of them.
func (b *staticMapBuilder) Build(paths []Path) string {
	if len(paths) == 0 {
		return PlaceholderURL
	}

	query := url.Values{}
	query.Set("size", b.opts.Size)
	if b.opts.APIKey != "" {
		query.Set("key", b.opts.APIKey)
	}

	drawable := make([]Path, 0, len(paths))
	for _, p := range paths {
		if len(p.Geometry.Coordinates) >= 2 {
			drawable = append(drawable, p)
		}
	}
	sort.SliceStable(drawable, func(i, j int) bool {
		return b.geoUtils.LineLength(drawable[i].Geometry) > b.geoUtils.LineLength(drawable[j].Geometry)
	})

	segments := make([]string, 0, len(drawable))
	total := len(b.opts.BaseURL) + 1 + len(query.Encode())
	for _, p := range drawable {
		segment := "&path=" + url.QueryEscape(b.pathSpec(p))
		segments = append(segments, segment)
		total += len(segment)
	}
	if total > b.opts.MaxURLLength {
		if visible, ok := b.visible(drawable); ok {
			query.Set("visible", visible)
		}
	}

	var sb strings.Builder
	sb.WriteString(b.opts.BaseURL)
	sb.WriteByte('?')
	sb.WriteString(query.Encode())
	for _, segment := range segments {
		if sb.Len()+len(segment) > b.opts.MaxURLLength {
			break
		}
		sb.WriteString(segment)
	}
	return sb.String()
}

// visible is the bounding box of paths as the static map "visible" value
func (b *staticMapBuilder) visible(paths []Path) (string, bool) {
	geometries := make([]geo.Geometry, 0, len(paths))
	for _, p := range paths {
		geometries = append(geometries, p.Geometry)
	}
	bounds, ok := b.geoUtils.Bounds(geometries)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%.6f,%.6f|%.6f,%.6f",
		bounds.Min.Latitude, bounds.Min.Longitude, bounds.Max.Latitude, bounds.Max.Longitude), true
}

func (b *staticMapBuilder) pathSpec(p Path) string {
	weight := p.Weight
	if weight <= 0 {
		weight = DefaultOptions().PathWeight
	}
	return fmt.Sprintf("color:%s|weight:%d|enc:%s", StaticColor(p.Color), weight, b.geoUtils.EncodeGeometry(p.Geometry))
}
