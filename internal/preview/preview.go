// Package preview renders a scene to a small static world image.
package preview

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"slices"
	"sort"

	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/scene"

	"github.com/chai2010/webp"
	"github.com/paulmach/orb"
	"golang.org/x/image/colornames"
	xdraw "golang.org/x/image/draw"
)

// Canvas limits. The base canvas is drawn once and scaled to the requested width.
const (
	MinWidth     = 64
	MaxWidth     = 2048
	DefaultWidth = 720

	baseWidth  = 1440
	baseHeight = 720

	// marker radii are Leaflet pixels at roughly zoom 2
	radiusScale = 0.75
)

var (
	background = colornames.Whitesmoke
	graticule  = colornames.Lightgray
)

// ClampWidth keeps a requested width inside the supported range.
func ClampWidth(w int) int {
	switch {
	case w <= 0:
		return DefaultWidth
	case w < MinWidth:
		return MinWidth
	case w > MaxWidth:
		return MaxWidth
	}
	return w
}

// Render draws plates, then markers largest first, on an equirectangular
// canvas of the given width and half its height.
func Render(s *scene.Scene, width int) *image.RGBA {
	width = ClampWidth(width)

	base := image.NewRGBA(image.Rect(0, 0, baseWidth, baseHeight))
	draw.Draw(base, base.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	drawGraticule(base)

	for _, l := range s.Lines {
		drawPath(base, l.Path, colorOf(l.Style.Color), l.Style.Opacity)
	}

	// larger circles first so small ones stay visible
	markers := slices.Clone(s.Markers)
	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].Style.Radius > markers[j].Style.Radius
	})
	for _, m := range markers {
		drawMarker(base, m)
	}

	if width == baseWidth {
		return base
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, width/2))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), base, base.Bounds(), draw.Over, nil)
	return dst
}

// Encode writes an image as lossy WebP.
func Encode(w io.Writer, img image.Image) error {
	return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: 80})
}

func drawGraticule(img *image.RGBA) {
	for lon := -180.0; lon <= 180; lon += 30 {
		x, _ := geo.Equirectangular(lon, 0, baseWidth, baseHeight)
		for y := 0; y < baseHeight; y++ {
			blend(img, int(x), y, graticule, 1)
		}
	}
	for lat := -90.0; lat <= 90; lat += 30 {
		_, y := geo.Equirectangular(0, lat, baseWidth, baseHeight)
		for x := 0; x < baseWidth; x++ {
			blend(img, x, int(y), graticule, 1)
		}
	}
}

func drawPath(img *image.RGBA, path orb.LineString, c color.RGBA, alpha float64) {
	if len(path) == 1 {
		x, y := geo.Equirectangular(path[0][0], path[0][1], baseWidth, baseHeight)
		blend(img, int(x), int(y), c, alpha)
		return
	}

	for i := 1; i < len(path); i++ {
		x0, y0 := geo.Equirectangular(path[i-1][0], path[i-1][1], baseWidth, baseHeight)
		x1, y1 := geo.Equirectangular(path[i][0], path[i][1], baseWidth, baseHeight)

		// segment crosses the antimeridian
		if math.Abs(x1-x0) > baseWidth/2 {
			continue
		}
		line(img, int(x0), int(y0), int(x1), int(y1), c, alpha)
	}
}

func drawMarker(img *image.RGBA, m scene.Marker) {
	r := m.Style.Radius * radiusScale
	// non-positive radii are not drawn, as in the browser
	if r <= 0 || math.IsNaN(r) {
		return
	}

	cx, cy := geo.Equirectangular(m.Point[0], m.Point[1], baseWidth, baseHeight)
	fill := colorOf(string(m.Style.FillColor))
	stroke := colorOf(m.Style.Color)
	edge := math.Max(m.Style.Weight, 0.5)

	// clip to the canvas before converting, r is unbounded
	b := img.Rect
	minX := int(clamp(math.Floor(cx-r-edge), float64(b.Min.X), float64(b.Max.X-1)))
	maxX := int(clamp(math.Ceil(cx+r+edge), float64(b.Min.X), float64(b.Max.X-1)))
	minY := int(clamp(math.Floor(cy-r-edge), float64(b.Min.Y), float64(b.Max.Y-1)))
	maxY := int(clamp(math.Ceil(cy+r+edge), float64(b.Min.Y), float64(b.Max.Y-1)))
	if cx+r+edge < float64(b.Min.X) || cx-r-edge >= float64(b.Max.X) ||
		cy+r+edge < float64(b.Min.Y) || cy-r-edge >= float64(b.Max.Y) {
		return
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			switch {
			case d <= r-edge:
				blend(img, x, y, fill, m.Style.FillOpacity)
			case d <= r+edge && m.Style.Stroke:
				blend(img, x, y, stroke, m.Style.Opacity)
			case d <= r:
				blend(img, x, y, fill, m.Style.FillOpacity)
			}
		}
	}
}

// line draws a Bresenham segment.
func line(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA, alpha float64) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	e := dx + dy
	for {
		blend(img, x0, y0, c, alpha)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func blend(img *image.RGBA, x, y int, c color.RGBA, alpha float64) {
	if !(image.Point{X: x, Y: y}).In(img.Rect) {
		return
	}
	alpha = math.Min(math.Max(alpha, 0), 1)

	i := img.PixOffset(x, y)
	px := img.Pix[i : i+4 : i+4]
	px[0] = mix(px[0], c.R, alpha)
	px[1] = mix(px[1], c.G, alpha)
	px[2] = mix(px[2], c.B, alpha)
	px[3] = 0xff
}

func mix(dst, src uint8, alpha float64) uint8 {
	return uint8(math.Round(float64(src)*alpha + float64(dst)*(1-alpha)))
}

// colorOf resolves a CSS color name or #rrggbb value.
func colorOf(name string) color.RGBA {
	if c, ok := colornames.Map[name]; ok {
		return c
	}
	if len(name) == 7 && name[0] == '#' {
		var rgb [3]uint8
		for i := range rgb {
			rgb[i] = hexByte(name[1+2*i], name[2+2*i])
		}
		return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xff}
	}
	return colornames.Black
}

func hexByte(hi, lo byte) uint8 {
	return hexNibble(hi)<<4 | hexNibble(lo)
}

func hexNibble(b byte) uint8 {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
