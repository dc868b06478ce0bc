package scene

import (
	"time"

	"github.com/woozymasta/quakemap/internal/style"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/samber/lo"
)

// Document is the JSON shape served to the map page.
type Document struct {
	BuiltAt     time.Time                  `json:"built_at"`
	FetchedAt   time.Time                  `json:"fetched_at"`
	Earthquakes *geojson.FeatureCollection `json:"earthquakes"`
	Plates      *geojson.FeatureCollection `json:"plates"`
	Counts      map[style.Color]int        `json:"counts"`
	ID          string                     `json:"id"`
	Skipped     []Skipped                  `json:"skipped"`
}

// Document converts the scene into two styled FeatureCollections.
func (s *Scene) Document() Document {
	skipped := s.Skipped
	if skipped == nil {
		skipped = []Skipped{}
	}

	return Document{
		ID:          s.ID.String(),
		BuiltAt:     s.BuiltAt,
		FetchedAt:   s.FetchedAt,
		Earthquakes: s.EarthquakesGeoJSON(),
		Plates:      s.PlatesGeoJSON(),
		Counts:      s.MarkerCount(),
		Skipped:     skipped,
	}
}

// EarthquakesGeoJSON returns one Point feature per marker. Marker options
// are carried in the properties under their Leaflet names.
func (s *Scene) EarthquakesGeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = lo.Map(s.Markers, func(m Marker, _ int) *geojson.Feature {
		f := geojson.NewFeature(m.Point)
		f.ID = m.ID
		f.Properties = markerProperties(m)
		return f
	})

	if b, ok := s.markerBound(); ok {
		fc.BBox = geojson.NewBBox(b)
	}
	return fc
}

// PlatesGeoJSON returns one LineString feature per boundary path.
func (s *Scene) PlatesGeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = lo.Map(s.Lines, func(l Line, _ int) *geojson.Feature {
		f := geojson.NewFeature(l.Path)
		f.Properties = geojson.Properties{
			"name":    l.Name,
			"color":   l.Style.Color,
			"weight":  l.Style.Weight,
			"opacity": l.Style.Opacity,
		}
		return f
	})
	return fc
}

func markerProperties(m Marker) geojson.Properties {
	return geojson.Properties{
		"mag":         m.Mag,
		"depth":       m.Depth,
		"time":        m.Time,
		"place":       m.Place,
		"radius":      m.Style.Radius,
		"fillColor":   string(m.Style.FillColor),
		"color":       m.Style.Color,
		"weight":      m.Style.Weight,
		"opacity":     m.Style.Opacity,
		"fillOpacity": m.Style.FillOpacity,
		"stroke":      m.Style.Stroke,
		"popup":       m.Style.Popup,
	}
}

func (s *Scene) markerBound() (b orb.Bound, ok bool) {
	if len(s.Markers) == 0 {
		return b, false
	}

	b = s.Markers[0].Point.Bound()
	for _, m := range s.Markers[1:] {
		b = b.Extend(m.Point)
	}
	return b, true
}

// MarkerCount reports markers per fill color.
func (s *Scene) MarkerCount() map[style.Color]int {
	return lo.CountValuesBy(s.Markers, func(m Marker) style.Color { return m.Style.FillColor })
}
