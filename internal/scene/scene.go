// Package scene applies marker and line styles to a loaded pair of feeds.
package scene

import (
	"time"

	"github.com/woozymasta/quakemap/internal/feed"
	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/metrics"
	"github.com/woozymasta/quakemap/internal/style"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

// Layer names used for skips and metrics.
const (
	LayerEarthquakes = "earthquakes"
	LayerPlates      = "plates"
)

// Marker is one styled earthquake.
type Marker struct {
	ID    string
	Point orb.Point
	Depth float64
	Mag   float64
	Time  int64
	Place string
	Style style.Marker
}

// Line is one plate boundary path.
type Line struct {
	Name  string
	Path  orb.LineString
	Style style.Line
}

// Skipped records a feature excluded from a layer.
type Skipped struct {
	Layer  string `json:"layer"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Scene is the immutable result of one render pass.
type Scene struct {
	BuiltAt   time.Time
	FetchedAt time.Time
	Markers   []Marker
	Lines     []Line
	Skipped   []Skipped
	ID        uuid.UUID
}

// Build styles every earthquake and plate boundary in the feeds.
// Features with unusable fields are skipped and reported, never rendered.
func Build(f *feed.Feeds, m style.Mapper) *Scene {
	s := &Scene{
		ID:        uuid.New(),
		BuiltAt:   time.Now(),
		FetchedAt: f.FetchedAt,
		Markers:   make([]Marker, 0, len(f.Earthquakes.Features)),
		Lines:     make([]Line, 0, len(f.Plates.Features)),
	}

	for i, feature := range f.Earthquakes.Features {
		key := feature.Key(i)

		res := m.MarkerOf(feature)
		if !res.OK() {
			s.skip(LayerEarthquakes, key, res.Skip)
			continue
		}

		s.Markers = append(s.Markers, Marker{
			ID:    key,
			Point: orb.Point{res.Lon, res.Lat},
			Depth: res.Depth,
			Mag:   res.Mag,
			Time:  res.Time,
			Place: res.Place,
			Style: res.Marker,
		})
	}

	for i, feature := range f.Plates.Features {
		key := feature.Key(i)

		paths, err := feature.Geometry.Lines()
		if err != nil {
			s.skip(LayerPlates, key, err.Error())
			continue
		}

		name := geo.String(feature.Properties, "Name")
		if name == "" {
			name = geo.String(feature.Properties, "name")
		}

		for _, path := range paths {
			ls, ok := lineString(path)
			if !ok {
				s.skip(LayerPlates, key, "path has no usable positions")
				continue
			}
			s.Lines = append(s.Lines, Line{Name: name, Path: ls, Style: style.PlateLine})
		}
	}

	metrics.MarkersTotal.Add(float64(len(s.Markers)))
	metrics.PlateLinesTotal.Add(float64(len(s.Lines)))

	log.Info().
		Str("scene", s.ID.String()).
		Int("markers", len(s.Markers)).
		Int("lines", len(s.Lines)).
		Int("skipped", len(s.Skipped)).
		Msg("Scene built")

	return s
}

func (s *Scene) skip(layer, id, reason string) {
	metrics.SkippedFeaturesTotal.WithLabelValues(layer).Inc()
	log.Debug().
		Str("scene", s.ID.String()).
		Str("layer", layer).
		Str("feature", id).
		Str("reason", reason).
		Msg("Feature skipped")

	s.Skipped = append(s.Skipped, Skipped{Layer: layer, ID: id, Reason: reason})
}

// lineString keeps positions with at least Lon and Lat. A single position
// yields a degenerate one-point line.
func lineString(path [][]float64) (orb.LineString, bool) {
	ls := make(orb.LineString, 0, len(path))
	for _, p := range path {
		if len(p) < 2 {
			continue
		}
		ls = append(ls, orb.Point{p[0], p[1]})
	}
	return ls, len(ls) > 0
}
