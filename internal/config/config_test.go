package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultEarthquakesURL, cfg.Feeds.Earthquakes)
	assert.Equal(t, DefaultPlatesURL, cfg.Feeds.Plates)
	assert.Equal(t, 15*time.Second, cfg.Feeds.Timeout)
	assert.Zero(t, cfg.Feeds.MaxRetries)
	assert.Equal(t, [2]float64{37.09, -95.71}, cfg.View.Center)
	assert.Equal(t, 4, cfg.View.Zoom)
	assert.Equal(t, "Grayscale Map", cfg.View.DefaultBase)
	assert.Len(t, cfg.View.BaseLayers, 4)
	assert.Equal(t, "Earthquakes", cfg.View.Overlays.Earthquakes)
	assert.Equal(t, "Tectonic Plates", cfg.View.Overlays.Plates)
	assert.Equal(t, []float64{-10, 10, 30, 50, 70, 90}, cfg.Legend.Bands)
	assert.NoError(t, cfg.Validate())
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
feeds:
  earthquakes: http://example.test/quakes.geojson
  timeout: 3s
  max_retries: 2
view:
  center: [10, 20]
  zoom: 3
popup:
  time_zone: Europe/Oslo
  escape_html: true
`))
	require.NoError(t, err)

	assert.Equal(t, "http://example.test/quakes.geojson", cfg.Feeds.Earthquakes)
	assert.Equal(t, DefaultPlatesURL, cfg.Feeds.Plates)
	assert.Equal(t, 3*time.Second, cfg.Feeds.Timeout)
	assert.Equal(t, 2, cfg.Feeds.MaxRetries)
	assert.Equal(t, [2]float64{10, 20}, cfg.View.Center)
	assert.True(t, cfg.Popup.EscapeHTML)
	assert.Equal(t, "Europe/Oslo", cfg.Popup.Location().String())
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{
			name: "bands not increasing",
			yaml: "legend:\n  bands: [0, 10, 10]\n",
			msg:  "strictly increasing",
		},
		{
			name: "unknown default base",
			yaml: "view:\n  default_base: Terrain\n",
			msg:  "default_base",
		},
		{
			name: "negative retries",
			yaml: "feeds:\n  max_retries: -1\n",
			msg:  "max_retries",
		},
		{
			name: "latitude out of range",
			yaml: "view:\n  center: [95, 0]\n",
			msg:  "latitude",
		},
		{
			name: "bad time zone",
			yaml: "popup:\n  time_zone: Mars/Olympus\n",
			msg:  "time_zone",
		},
		{
			name: "malformed yaml",
			yaml: "feeds: [",
			msg:  "parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("view:\n  zoom: 6\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.View.Zoom)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, found, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("view: [1, 2"), 0o600))

	_, _, err = LoadOrDefault(path)
	assert.Error(t, err)
}

func TestFeedOverridesApply(t *testing.T) {
	retries := 3
	cfg := Default()

	err := FeedOverrides{
		Earthquakes: "http://localhost/quakes.json",
		Timeout:     time.Second,
		MaxRetries:  &retries,
	}.Apply(cfg)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost/quakes.json", cfg.Feeds.Earthquakes)
	assert.Equal(t, DefaultPlatesURL, cfg.Feeds.Plates)
	assert.Equal(t, time.Second, cfg.Feeds.Timeout)
	assert.Equal(t, 3, cfg.Feeds.MaxRetries)

	retries = -1
	assert.Error(t, FeedOverrides{MaxRetries: &retries}.Apply(cfg))
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
