package mapimage

import (
	"fmt"
	"io"

	"github.com/twpayne/go-kml"

	"github.com/georgia-utilities/alertbot/internal/lib/geo"
)

// kmlBuckets is the number of shared line styles in an export
const kmlBuckets = 5

// kmlExporter implements KMLWriter
type kmlExporter struct {
	gradient Gradient
	width    float64
}

// NewKMLExporter creates a new KMLWriter
func NewKMLExporter(gradient Gradient, width float64) KMLWriter {
	if width <= 0 {
		width = float64(DefaultOptions().PathWeight)
	}
	return &kmlExporter{gradient: gradient, width: width}
}

// WriteKML writes one placemark per geometry, styled by rating bucket
func (e *kmlExporter) WriteKML(w io.Writer, name string, geometries []geo.Geometry) error {
	styles := make([]*kml.SharedElement, kmlBuckets)
	for i := range styles {
		c := e.gradient.At(float64(i) / float64(kmlBuckets-1))
		styles[i] = kml.SharedStyle(
			fmt.Sprintf("rating-%d", i),
			kml.LineStyle(kml.Color(c), kml.Width(e.width)),
		)
	}

	children := []kml.Element{kml.Name(name)}
	for _, s := range styles {
		children = append(children, s)
	}

	for i, g := range geometries {
		if len(g.Coordinates) == 0 {
			continue
		}
		coords := make([]kml.Coordinate, 0, len(g.Coordinates))
		for _, c := range g.Coordinates {
			coords = append(coords, kml.Coordinate{Lon: c.Lon(), Lat: c.Lat()})
		}

		placemarkName := fmt.Sprintf("%s #%d", name, i+1)
		if g.HasRating() {
			placemarkName = fmt.Sprintf("%s (%.2f)", placemarkName, g.RatingValue())
		}
		children = append(children, kml.Placemark(
			kml.Name(placemarkName),
			kml.StyleURL(styles[Bucket(g, kmlBuckets)].URL()),
			kml.LineString(kml.Coordinates(coords...)),
		))
	}

	if err := kml.KML(kml.Document(children...)).WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("failed to write KML: %w", err)
	}
	return nil
}
