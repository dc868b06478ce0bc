// Package mapview describes the map the page builds: base tile layers,
// overlay groups, legend and initial viewport.
package mapview

import (
	"encoding/json"
	"fmt"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/style"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Overlay keys shared with the page script.
const (
	OverlayEarthquakes = "earthquakes"
	OverlayPlates      = "plates"
)

// BaseLayer is a tile layer with its Leaflet options.
type BaseLayer struct {
	Name    string           `json:"name"`
	URL     string           `json:"url"`
	Options BaseLayerOptions `json:"options"`
	Default bool             `json:"default,omitempty"`
}

// BaseLayerOptions mirrors L.tileLayer options.
type BaseLayerOptions struct {
	ID          string `json:"id"`
	AccessToken string `json:"accessToken,omitempty"`
	Attribution string `json:"attribution,omitempty"`
	TileSize    int    `json:"tileSize,omitempty"`
	ZoomOffset  int    `json:"zoomOffset,omitempty"`
	MaxZoom     int    `json:"maxZoom,omitempty"`
}

// Overlay is a toggleable layer group.
type Overlay struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
}

// Legend is the depth legend control.
type Legend struct {
	Title    string              `json:"title"`
	Position string              `json:"position"`
	Entries  []style.LegendEntry `json:"entries"`
}

// View is the full map description. It is built once and never modified.
type View struct {
	BaseLayers []BaseLayer `json:"base_layers"`
	Overlays   []Overlay   `json:"overlays"`
	Legend     Legend      `json:"legend"`
	Center     [2]float64  `json:"center"`
	Zoom       int         `json:"zoom"`

	raw []byte
}

// Build assembles the view from configuration and the tile access token.
func Build(cfg *config.Config, token string) (*View, error) {
	entries, err := style.Legend(cfg.Legend.Bands)
	if err != nil {
		return nil, fmt.Errorf("legend: %w", err)
	}

	if !lo.ContainsBy(cfg.View.BaseLayers, func(l config.BaseLayer) bool { return l.Name == cfg.View.DefaultBase }) {
		return nil, fmt.Errorf("default base layer %q not configured", cfg.View.DefaultBase)
	}

	if token == "" {
		log.Warn().Msg("Map tile access token is empty, base layers will not load")
	}

	v := &View{
		Center: cfg.View.Center,
		Zoom:   cfg.View.Zoom,
		BaseLayers: lo.Map(cfg.View.BaseLayers, func(l config.BaseLayer, _ int) BaseLayer {
			return BaseLayer{
				Name:    l.Name,
				URL:     l.URL,
				Default: l.Name == cfg.View.DefaultBase,
				Options: BaseLayerOptions{
					ID:          l.ID,
					AccessToken: token,
					Attribution: l.Attribution,
					TileSize:    l.TileSize,
					ZoomOffset:  l.ZoomOffset,
					MaxZoom:     l.MaxZoom,
				},
			}
		}),
		Overlays: []Overlay{
			{Key: OverlayEarthquakes, Name: cfg.View.Overlays.Earthquakes, Visible: true},
			{Key: OverlayPlates, Name: cfg.View.Overlays.Plates},
		},
		Legend: Legend{
			Title:    cfg.Legend.Title,
			Position: cfg.Legend.Position,
			Entries:  entries,
		},
	}

	v.raw, err = json.Marshal(v)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("base_layers", len(v.BaseLayers)).
		Str("default_base", cfg.View.DefaultBase).
		Int("legend_entries", len(entries)).
		Msg("Map view built")

	return v, nil
}

// JSON returns the encoded view, computed once by Build.
func (v *View) JSON() []byte {
	return v.raw
}

// DefaultBase returns the base layer shown on load.
func (v *View) DefaultBase() BaseLayer {
	l, _ := lo.Find(v.BaseLayers, func(l BaseLayer) bool { return l.Default })
	return l
}
