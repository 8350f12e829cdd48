package mapimage

import (
	"image/color"
	"io"

	"github.com/georgia-utilities/alertbot/internal/lib/geo"
)

// PlaceholderURL is shown when no street of an alert could be drawn
const PlaceholderURL = "https://via.placeholder.com/640x640.png?text=Map+Unavailable"

// Path is one colored overlay of a static map
type Path struct {
	Color    color.RGBA
	Weight   int
	Geometry geo.Geometry
}

// Options configure the static map URL builder
type Options struct {
	BaseURL      string `yaml:"baseUrl" koanf:"baseUrl"`
	APIKey       string `yaml:"apiKey" koanf:"apiKey"`
	Size         string `yaml:"size" koanf:"size"`
	MaxURLLength int    `yaml:"maxUrlLength" koanf:"maxUrlLength"`
	PathWeight   int    `yaml:"pathWeight" koanf:"pathWeight"`
}

// DefaultOptions returns the Google Static Maps defaults
func DefaultOptions() Options {
	return Options{
		BaseURL:      "https://maps.googleapis.com/maps/api/staticmap",
		Size:         "640x640",
		MaxURLLength: 8192,
		PathWeight:   4,
	}
}

// URLBuilder renders paths into a static map image URL
type URLBuilder interface {
	// Build returns the image URL. Paths that would push the URL past the
	// length ceiling are dropped whole.
	Build(paths []Path) string
}

// KMLWriter exports rated geometry as a KML document
type KMLWriter interface {
	WriteKML(w io.Writer, name string, geometries []geo.Geometry) error
}

// NewStaticMapBuilder is implemented in static.go
// NewKMLExporter is implemented in kml.go
