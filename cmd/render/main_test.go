package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/quakemap/internal/export"
)

func TestRun(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/quakes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type": "FeatureCollection", "features": [
			{"type": "Feature", "id": "q1", "properties": {"mag": 4.1, "place": "x", "time": 0},
			 "geometry": {"type": "Point", "coordinates": [10, 20, 40]}}]}`))
	})
	mux.HandleFunc("/plates", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type": "FeatureCollection", "features": []}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	opts := Options{
		ConfigFile: filepath.Join(dir, "missing.yaml"),
		OutDir:     filepath.Join(dir, "out"),
		Preview:    128,
	}
	opts.Feeds.Earthquakes = srv.URL + "/quakes"
	opts.Feeds.Plates = srv.URL + "/plates"

	require.NoError(t, run(opts))
	assert.FileExists(t, filepath.Join(opts.OutDir, export.EarthquakesFile))
	assert.FileExists(t, filepath.Join(opts.OutDir, export.PlatesFile))
	assert.FileExists(t, filepath.Join(opts.OutDir, export.PreviewFile))
}

func TestRunFeedError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	opts := Options{ConfigFile: filepath.Join(dir, "missing.yaml"), OutDir: dir}
	opts.Feeds.Earthquakes = srv.URL + "/quakes"
	opts.Feeds.Plates = srv.URL + "/plates"

	assert.ErrorContains(t, run(opts), "status 404")
}
