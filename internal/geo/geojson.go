// Package geo handles geographic data structures and coordinate conversions.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// GeoJSONFeatureCollection represents a collection of features as received
// from a remote feed.
type GeoJSONFeatureCollection struct {
	Metadata map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Type     string                 `json:"type" yaml:"type"`
	Features []GeoJSONFeature       `json:"features" yaml:"features"`
}

// GeoJSONFeature represents a single geographic feature with geometry and properties.
type GeoJSONFeature struct {
	ID         interface{}            `json:"id,omitempty" yaml:"id,omitempty"`
	Properties map[string]interface{} `json:"properties" yaml:"properties"`
	Type       string                 `json:"type" yaml:"type"`
	Geometry   GeoJSONGeometry        `json:"geometry" yaml:"geometry"`
}

// GeoJSONGeometry keeps coordinates undecoded so one type can carry points
// and lines alike.
type GeoJSONGeometry struct {
	Type        string          `json:"type" yaml:"type"`
	Coordinates json.RawMessage `json:"coordinates" yaml:"-"`
}

// ErrNoCoordinates is returned when a geometry has no coordinate payload.
var ErrNoCoordinates = errors.New("geometry has no coordinates")

// Key returns a printable identifier for logging.
func (f GeoJSONFeature) Key(index int) string {
	switch id := f.ID.(type) {
	case nil:
		return "#" + strconv.Itoa(index)
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

// Position decodes a flat coordinate array ([Lon, Lat] or [Lon, Lat, Depth]).
func (g GeoJSONGeometry) Position() ([]float64, error) {
	if len(g.Coordinates) == 0 || string(g.Coordinates) == "null" {
		return nil, ErrNoCoordinates
	}

	var pos []float64
	if err := json.Unmarshal(g.Coordinates, &pos); err != nil {
		return nil, fmt.Errorf("decode position: %w", err)
	}
	return pos, nil
}

// Lines decodes line-like coordinates into one or more ordered paths.
// A LineString yields one path, a MultiLineString (or polygon rings) yields
// several, and a bare [Lon, Lat] pair yields a single one-point path.
func (g GeoJSONGeometry) Lines() ([][][]float64, error) {
	if len(g.Coordinates) == 0 || string(g.Coordinates) == "null" {
		return nil, ErrNoCoordinates
	}

	var pair []float64
	if err := json.Unmarshal(g.Coordinates, &pair); err == nil {
		if len(pair) == 0 {
			return [][][]float64{{}}, nil
		}
		return [][][]float64{{pair}}, nil
	}

	var line [][]float64
	if err := json.Unmarshal(g.Coordinates, &line); err == nil {
		return [][][]float64{line}, nil
	}

	var multi [][][]float64
	if err := json.Unmarshal(g.Coordinates, &multi); err != nil {
		return nil, fmt.Errorf("decode %s coordinates: %w", g.Type, err)
	}
	return multi, nil
}

// Number reads a numeric property. Strings, booleans and non-finite values
// are rejected.
func Number(props map[string]interface{}, key string) (float64, error) {
	val, ok := props[key]
	if !ok || val == nil {
		return 0, fmt.Errorf("property %q missing", key)
	}

	var f float64
	switch v := val.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("property %q: %w", key, err)
		}
		f = n
	default:
		return 0, fmt.Errorf("property %q: cannot convert %T to number", key, val)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("property %q is not finite", key)
	}
	return f, nil
}

// Int64 reads an integer property such as an epoch timestamp.
func Int64(props map[string]interface{}, key string) (int64, error) {
	if n, ok := props[key].(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	}

	f, err := Number(props, key)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// String reads a string property, returning "" when absent.
func String(props map[string]interface{}, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
