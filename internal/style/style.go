// Package style maps earthquake properties to marker styles.
package style

import (
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/woozymasta/quakemap/internal/config"
	"github.com/woozymasta/quakemap/internal/geo"
)

// Color is a marker fill color, named as Leaflet/CSS understands it.
type Color string

// Depth band colors, deepest first.
const (
	Red        Color = "red"
	Orange     Color = "orange"
	Yellow     Color = "yellow"
	DarkGreen  Color = "darkgreen"
	Green      Color = "green"
	LightGreen Color = "lightgreen"
)

// Colors lists every color ColorOf can return, deepest first.
var Colors = []Color{Red, Orange, Yellow, DarkGreen, Green, LightGreen}

// Fixed marker outline.
const (
	StrokeColor  = "#000000"
	StrokeWeight = 0.5
	FillOpacity  = 0.8
	Opacity      = 1.0
)

// popupTimeLayout mimics a browser Date string.
const popupTimeLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

// RadiusOf returns the circle radius for a magnitude.
// Zero maps to 1 so the marker stays visible; anything else, including
// negative magnitudes, is scaled by 4 without clamping.
func RadiusOf(mag float64) float64 {
	if mag == 0 {
		return 1
	}
	return mag * 4
}

// ColorOf classifies a depth in kilometers. Comparisons are strict, so a
// boundary value such as 90 belongs to the band below it.
func ColorOf(depth float64) Color {
	switch {
	case depth > 90:
		return Red
	case depth > 70:
		return Orange
	case depth > 50:
		return Yellow
	case depth > 30:
		return DarkGreen
	case depth > 10:
		return Green
	default:
		return LightGreen
	}
}

// Line is a fixed polyline style.
type Line struct {
	Color   string  `json:"color" yaml:"color"`
	Weight  float64 `json:"weight" yaml:"weight"`
	Opacity float64 `json:"opacity" yaml:"opacity"`
}

// PlateLine is the style of every tectonic plate boundary.
var PlateLine = Line{Color: "pink", Weight: 2, Opacity: 1}

// Marker holds Leaflet circleMarker options plus the popup body.
type Marker struct {
	Radius      float64 `json:"radius" yaml:"radius"`
	FillColor   Color   `json:"fillColor" yaml:"fill_color"`
	Color       string  `json:"color" yaml:"color"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Opacity     float64 `json:"opacity" yaml:"opacity"`
	FillOpacity float64 `json:"fillOpacity" yaml:"fill_opacity"`
	Stroke      bool    `json:"stroke" yaml:"stroke"`
	Popup       string  `json:"popup" yaml:"popup"`
}

// Result is the outcome of styling one feature: either a marker at a
// position or the reason the feature was skipped.
type Result struct {
	Skip   string
	Marker Marker
	Lon    float64
	Lat    float64
	Depth  float64
	Mag    float64
	Time   int64
	Place  string
}

// OK reports whether the feature produced a marker.
func (r Result) OK() bool { return r.Skip == "" }

// Mapper turns earthquake features into markers.
// The zero value renders popup times in UTC and does not escape place names.
type Mapper struct {
	Location   *time.Location
	EscapeHTML bool
}

// NewMapper builds a mapper from popup settings.
func NewMapper(p config.Popup) Mapper {
	return Mapper{Location: p.Location(), EscapeHTML: p.EscapeHTML}
}

// PopupHTML formats the popup body for one earthquake.
func (m Mapper) PopupHTML(place string, timeMs int64, mag float64) string {
	loc := m.Location
	if loc == nil {
		loc = time.UTC
	}
	if m.EscapeHTML {
		place = html.EscapeString(place)
	}

	var b strings.Builder
	b.WriteString("<h4>LOCATION: ")
	b.WriteString(place)
	b.WriteString("</h4><hr><p>DATE & TIME: ")
	b.WriteString(time.UnixMilli(timeMs).In(loc).Format(popupTimeLayout))
	b.WriteString("</p><hr><p>MAGNITUDE : ")
	b.WriteString(FormatNumber(mag))
	b.WriteString("</p>")
	return b.String()
}

// MarkerOf styles a single earthquake feature.
func (m Mapper) MarkerOf(f geo.GeoJSONFeature) Result {
	mag, err := geo.Number(f.Properties, "mag")
	if err != nil {
		return Result{Skip: err.Error()}
	}

	pos, err := f.Geometry.Position()
	if err != nil {
		return Result{Skip: err.Error()}
	}
	if len(pos) < 3 {
		return Result{Skip: "coordinates have no depth"}
	}
	for _, v := range pos[:3] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{Skip: "coordinates are not finite"}
		}
	}

	// time is informational; a missing value renders as the epoch
	ts, _ := geo.Int64(f.Properties, "time")
	place := geo.String(f.Properties, "place")

	return Result{
		Lon:   pos[0],
		Lat:   pos[1],
		Depth: pos[2],
		Mag:   mag,
		Time:  ts,
		Place: place,
		Marker: Marker{
			Radius:      RadiusOf(mag),
			FillColor:   ColorOf(pos[2]),
			Color:       StrokeColor,
			Weight:      StrokeWeight,
			Opacity:     Opacity,
			FillOpacity: FillOpacity,
			Stroke:      true,
			Popup:       m.PopupHTML(place, ts, mag),
		},
	}
}

// FormatNumber renders a float in its shortest decimal form.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
