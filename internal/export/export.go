// Package export writes a rendered scene to disk.
package export

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/woozymasta/quakemap/internal/preview"
	"github.com/woozymasta/quakemap/internal/scene"

	"github.com/rs/zerolog/log"
)

// Output file names inside the target directory.
const (
	EarthquakesFile = "earthquakes.geojson"
	PlatesFile      = "plates.geojson"
	PreviewFile     = "preview.webp"
)

// Writer saves scene layers into Dir.
type Writer struct {
	Dir          string
	Force        bool // overwrite existing files
	PreviewWidth int  // 0 disables the snapshot

	create func(path string) (io.WriteCloser, error) // os.Create when nil
}

// WriteScene writes both layers and, if enabled, the snapshot.
// It returns the paths actually written.
func (w Writer) WriteScene(sc *scene.Scene) ([]string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return nil, err
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{EarthquakesFile, jsonWriter(sc.EarthquakesGeoJSON())},
		{PlatesFile, jsonWriter(sc.PlatesGeoJSON())},
	}
	if w.PreviewWidth > 0 {
		files = append(files, struct {
			name  string
			write func(io.Writer) error
		}{PreviewFile, func(out io.Writer) error {
			return preview.Encode(out, preview.Render(sc, w.PreviewWidth))
		}})
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(w.Dir, f.name)
		ok, err := w.save(path, f.write)
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, path)
		}
	}

	return written, nil
}

// save creates path and fills it. Existing files are kept unless Force is set.
func (w Writer) save(path string, write func(io.Writer) error) (ok bool, err error) {
	if _, statErr := os.Stat(path); statErr == nil && !w.Force {
		log.Debug().Str("path", path).Msg("File exists, skipping")
		return false, nil
	}

	create := w.create
	if create == nil {
		create = func(p string) (io.WriteCloser, error) { return os.Create(p) }
	}

	f, err := create(path)
	if err != nil {
		return false, err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
			if err == nil {
				ok, err = false, closeErr
			}
		}
	}()

	if err = write(f); err != nil {
		return false, err
	}
	return true, nil
}

func jsonWriter(v any) func(io.Writer) error {
	return func(out io.Writer) error {
		return json.NewEncoder(out).Encode(v)
	}
}
