// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Default feed sources.
const (
	DefaultEarthquakesURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_week.geojson"
	DefaultPlatesURL      = "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json"
)

const (
	mapboxStylesURL = "https://api.mapbox.com/styles/v1/{id}/tiles/{z}/{x}/{y}?access_token={accessToken}"
	mapboxDarkURL   = "https://api.mapbox.com/styles/v1/mapbox/{id}/tiles/{z}/{x}/{y}?access_token={accessToken}"
	mapboxRasterURL = "https://api.tiles.mapbox.com/v4/{id}/{z}/{x}/{y}.png?access_token={accessToken}"

	mapboxAttribution = `© <a href='https://www.mapbox.com/about/maps/'>Mapbox</a> © <a href='http://www.openstreetmap.org/copyright'>OpenStreetMap</a> <strong><a href='https://www.mapbox.com/map-feedback/' target='_blank'>Improve this map</a></strong>`
	osmAttribution    = `Map data &copy; <a href="https://www.openstreetmap.org/">OpenStreetMap</a> contributors, <a href="https://creativecommons.org/licenses/by-sa/2.0/">CC-BY-SA</a>, Imagery © <a href="https://www.mapbox.com/">Mapbox</a>`
)

// Config represents the root configuration file structure.
type Config struct {
	Feeds  Feeds  `yaml:"feeds"`
	View   View   `yaml:"view"`
	Legend Legend `yaml:"legend"`
	Popup  Popup  `yaml:"popup"`
}

// Feeds describes the two remote GeoJSON sources.
type Feeds struct {
	Earthquakes string        `yaml:"earthquakes"`
	Plates      string        `yaml:"plates"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	MaxRetries  int           `yaml:"max_retries,omitempty"`
}

// View holds the initial viewport and the layers offered by the page.
type View struct {
	Center      [2]float64  `yaml:"center"` // [Lat, Lon]
	Zoom        int         `yaml:"zoom"`
	DefaultBase string      `yaml:"default_base,omitempty"`
	BaseLayers  []BaseLayer `yaml:"base_layers,omitempty"`
	Overlays    Overlays    `yaml:"overlays,omitempty"`
}

// BaseLayer is a single tile layer template.
type BaseLayer struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	ID          string `yaml:"id"`
	Attribution string `yaml:"attribution,omitempty"`
	TileSize    int    `yaml:"tile_size,omitempty"`
	ZoomOffset  int    `yaml:"zoom_offset,omitempty"`
	MaxZoom     int    `yaml:"max_zoom,omitempty"`
}

// Overlays names the two toggleable layer groups.
type Overlays struct {
	Earthquakes string `yaml:"earthquakes,omitempty"`
	Plates      string `yaml:"plates,omitempty"`
}

// Legend configures the depth legend control.
type Legend struct {
	Title    string    `yaml:"title,omitempty"`
	Position string    `yaml:"position,omitempty"`
	Bands    []float64 `yaml:"bands,omitempty"`
}

// Popup configures marker popup rendering.
type Popup struct {
	TimeZone   string `yaml:"time_zone,omitempty"`
	EscapeHTML bool   `yaml:"escape_html,omitempty"`
}

// DepthBands are the legend thresholds in kilometers.
var DepthBands = []float64{-10, 10, 30, 50, 70, 90}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads and parses the YAML configuration file from the specified path.
// Missing fields are filled with defaults and the result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// LoadOrDefault is Load, except that a missing file yields Default.
// The second result reports whether the file was read.
func LoadOrDefault(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// FeedOverrides carries command line replacements for the feeds section.
type FeedOverrides struct {
	Earthquakes string        `long:"earthquakes-url" env:"EARTHQUAKES_URL" description:"Earthquake GeoJSON feed URL"`
	Plates      string        `long:"plates-url"      env:"PLATES_URL"      description:"Tectonic plates GeoJSON feed URL"`
	Timeout     time.Duration `long:"feed-timeout"    env:"FEED_TIMEOUT"    description:"Per request feed timeout"`
	MaxRetries  *int          `long:"feed-retries"    env:"FEED_RETRIES"    description:"Retries per feed on transient errors"`
}

// Apply writes every set override into cfg and revalidates it.
func (o FeedOverrides) Apply(cfg *Config) error {
	if o.Earthquakes != "" {
		cfg.Feeds.Earthquakes = o.Earthquakes
	}
	if o.Plates != "" {
		cfg.Feeds.Plates = o.Plates
	}
	if o.Timeout > 0 {
		cfg.Feeds.Timeout = o.Timeout
	}
	if o.MaxRetries != nil {
		cfg.Feeds.MaxRetries = *o.MaxRetries
	}
	return cfg.Validate()
}

// Parse decodes YAML bytes into a validated configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Feeds.Earthquakes == "" {
		c.Feeds.Earthquakes = DefaultEarthquakesURL
	}
	if c.Feeds.Plates == "" {
		c.Feeds.Plates = DefaultPlatesURL
	}
	if c.Feeds.Timeout <= 0 {
		c.Feeds.Timeout = 15 * time.Second
	}

	if c.View.Center == [2]float64{} {
		c.View.Center = [2]float64{37.09, -95.71}
	}
	if c.View.Zoom <= 0 {
		c.View.Zoom = 4
	}
	if len(c.View.BaseLayers) == 0 {
		c.View.BaseLayers = defaultBaseLayers()
	}
	if c.View.DefaultBase == "" {
		c.View.DefaultBase = "Grayscale Map"
	}
	if c.View.Overlays.Earthquakes == "" {
		c.View.Overlays.Earthquakes = "Earthquakes"
	}
	if c.View.Overlays.Plates == "" {
		c.View.Overlays.Plates = "Tectonic Plates"
	}

	if c.Legend.Title == "" {
		c.Legend.Title = "Depth"
	}
	if c.Legend.Position == "" {
		c.Legend.Position = "bottomright"
	}
	if len(c.Legend.Bands) == 0 {
		c.Legend.Bands = append([]float64(nil), DepthBands...)
	}

	if c.Popup.TimeZone == "" {
		c.Popup.TimeZone = "UTC"
	}
}

// Validate checks invariants that defaults cannot repair.
func (c *Config) Validate() error {
	var errs []error

	if c.Feeds.MaxRetries < 0 {
		errs = append(errs, errors.New("feeds.max_retries must be >= 0"))
	}
	if lat := c.View.Center[0]; lat < -90 || lat > 90 {
		errs = append(errs, fmt.Errorf("view.center latitude %v out of range", lat))
	}
	if lon := c.View.Center[1]; lon < -180 || lon > 180 {
		errs = append(errs, fmt.Errorf("view.center longitude %v out of range", lon))
	}
	if c.View.Zoom > 22 {
		errs = append(errs, fmt.Errorf("view.zoom %d exceeds 22", c.View.Zoom))
	}

	found := false
	seen := make(map[string]bool, len(c.View.BaseLayers))
	for _, l := range c.View.BaseLayers {
		if l.Name == "" || l.URL == "" {
			errs = append(errs, errors.New("view.base_layers entries need name and url"))
			continue
		}
		if seen[l.Name] {
			errs = append(errs, fmt.Errorf("duplicate base layer %q", l.Name))
		}
		seen[l.Name] = true
		if l.Name == c.View.DefaultBase {
			found = true
		}
	}
	if !found {
		errs = append(errs, fmt.Errorf("view.default_base %q is not a configured base layer", c.View.DefaultBase))
	}

	for i := 1; i < len(c.Legend.Bands); i++ {
		if c.Legend.Bands[i] <= c.Legend.Bands[i-1] {
			errs = append(errs, fmt.Errorf("legend.bands must be strictly increasing (index %d)", i))
			break
		}
	}

	if _, err := time.LoadLocation(c.Popup.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("popup.time_zone: %w", err))
	}

	return errors.Join(errs...)
}

// Location returns the popup time zone, falling back to UTC.
func (p Popup) Location() *time.Location {
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func defaultBaseLayers() []BaseLayer {
	return []BaseLayer{
		{
			Name:        "Street Map",
			URL:         mapboxStylesURL,
			ID:          "mapbox/streets-v11",
			Attribution: mapboxAttribution,
			TileSize:    512,
			ZoomOffset:  -1,
			MaxZoom:     18,
		},
		{
			Name:        "Dark Map",
			URL:         mapboxDarkURL,
			ID:          "dark-v10",
			Attribution: osmAttribution,
			MaxZoom:     18,
		},
		{
			Name:        "Grayscale Map",
			URL:         mapboxStylesURL,
			ID:          "mapbox/light-v10",
			Attribution: mapboxAttribution,
			TileSize:    512,
			ZoomOffset:  -1,
			MaxZoom:     18,
		},
		{
			Name:        "Satellite Map",
			URL:         mapboxRasterURL,
			ID:          "mapbox.satellite",
			Attribution: osmAttribution,
			MaxZoom:     18,
		},
	}
}
