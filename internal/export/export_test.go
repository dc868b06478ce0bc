package export

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/quakemap/internal/feed"
	"github.com/woozymasta/quakemap/internal/scene"
	"github.com/woozymasta/quakemap/internal/style"
)

const (
	quakes = `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "id": "q1",
		 "properties": {"mag": 5.2, "place": "Nevada", "time": 1700000000000},
		 "geometry": {"type": "Point", "coordinates": [-117.5, 38.1, 12]}}]}`
	plates = `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "properties": {"Name": "NA-PA"},
		 "geometry": {"type": "LineString", "coordinates": [[-125, 40], [-120, 35]]}}]}`
)

func testScene(t *testing.T) *scene.Scene {
	t.Helper()

	eq, err := feed.Decode(strings.NewReader(quakes))
	require.NoError(t, err)
	pl, err := feed.Decode(strings.NewReader(plates))
	require.NoError(t, err)

	return scene.Build(&feed.Feeds{Earthquakes: eq, Plates: pl}, style.Mapper{})
}

func TestWriteScene(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	written, err := Writer{Dir: dir}.WriteScene(testScene(t))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, EarthquakesFile),
		filepath.Join(dir, PlatesFile),
	}, written)

	data, err := os.ReadFile(filepath.Join(dir, EarthquakesFile))
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID         string         `json:"id"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "q1", fc.Features[0].ID)
	assert.Equal(t, "green", fc.Features[0].Properties["fillColor"])

	assert.NoFileExists(t, filepath.Join(dir, PreviewFile))
}

func TestWriteSceneKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, PlatesFile)
	require.NoError(t, os.WriteFile(existing, []byte("keep"), 0o600))

	written, err := Writer{Dir: dir}.WriteScene(testScene(t))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, EarthquakesFile)}, written)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))

	written, err = Writer{Dir: dir, Force: true}.WriteScene(testScene(t))
	require.NoError(t, err)
	assert.Len(t, written, 2)

	data, err = os.ReadFile(existing)
	require.NoError(t, err)
	assert.Contains(t, string(data), "NA-PA")
}

func TestWriteScenePreview(t *testing.T) {
	dir := t.TempDir()

	written, err := Writer{Dir: dir, PreviewWidth: 128}.WriteScene(testScene(t))
	require.NoError(t, err)
	require.Len(t, written, 3)

	data, err := os.ReadFile(filepath.Join(dir, PreviewFile))
	require.NoError(t, err)
	require.Greater(t, len(data), 12)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "WEBP", string(data[8:12]))
}

type failingCloser struct {
	io.Writer
	err error
}

func (f failingCloser) Close() error { return f.err }

func TestWriteSceneCloseError(t *testing.T) {
	errDisk := errors.New("disk full")
	w := Writer{
		Dir: t.TempDir(),
		create: func(string) (io.WriteCloser, error) {
			return failingCloser{Writer: io.Discard, err: errDisk}, nil
		},
	}

	written, err := w.WriteScene(testScene(t))
	require.ErrorIs(t, err, errDisk)
	assert.Empty(t, written)
}
