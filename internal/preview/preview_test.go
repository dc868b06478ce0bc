package preview

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"

	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/scene"
	"github.com/woozymasta/quakemap/internal/style"
)

func testScene() *scene.Scene {
	marker := func(lon, lat, mag, depth float64) scene.Marker {
		return scene.Marker{
			Point: orb.Point{lon, lat},
			Mag:   mag,
			Depth: depth,
			Style: style.Marker{
				Radius:      style.RadiusOf(mag),
				FillColor:   style.ColorOf(depth),
				Color:       style.StrokeColor,
				Weight:      style.StrokeWeight,
				Opacity:     style.Opacity,
				FillOpacity: style.FillOpacity,
				Stroke:      true,
			},
		}
	}

	return &scene.Scene{
		Markers: []scene.Marker{
			marker(0, 0, 6, 120),
			marker(90, 45, -1, 5),
		},
		Lines: []scene.Line{
			{Name: "AF-AN", Path: orb.LineString{{-60, -30}, {-30, -30}}, Style: style.PlateLine},
			{Name: "stub", Path: orb.LineString{{100, 10}}, Style: style.PlateLine},
		},
	}
}

func TestClampWidth(t *testing.T) {
	assert.Equal(t, DefaultWidth, ClampWidth(0))
	assert.Equal(t, DefaultWidth, ClampWidth(-5))
	assert.Equal(t, MinWidth, ClampWidth(10))
	assert.Equal(t, 500, ClampWidth(500))
	assert.Equal(t, MaxWidth, ClampWidth(100000))
}

func TestColorOf(t *testing.T) {
	for _, c := range style.Colors {
		assert.Equal(t, colornames.Map[string(c)], colorOf(string(c)), c)
	}
	assert.Equal(t, colornames.Pink, colorOf("pink"))
	assert.Equal(t, color.RGBA{R: 0x12, G: 0xab, B: 0xEF, A: 0xff}, colorOf("#12abEF"))
	assert.Equal(t, colornames.Black, colorOf("#000000"))
	assert.Equal(t, colornames.Black, colorOf("no-such-color"))
}

func TestRenderBase(t *testing.T) {
	img := Render(testScene(), baseWidth)
	require.Equal(t, baseWidth, img.Bounds().Dx())
	require.Equal(t, baseHeight, img.Bounds().Dy())

	// centre of the deep quake is a red blend over the background
	x, y := geo.Equirectangular(0, 0, baseWidth, baseHeight)
	c := img.RGBAAt(int(x), int(y))
	assert.Greater(t, c.R, c.G)
	assert.Greater(t, c.R, c.B)

	// negative radius quake is not drawn
	x, y = geo.Equirectangular(90, 45, baseWidth, baseHeight)
	assert.Equal(t, background, img.RGBAAt(int(x)+1, int(y)+1))

	// plate line pixels are pink
	x, y = geo.Equirectangular(-45, -30, baseWidth, baseHeight)
	assert.Equal(t, colornames.Pink, img.RGBAAt(int(x), int(y)))

	// a one-point line marks a single pixel
	x, y = geo.Equirectangular(100, 10, baseWidth, baseHeight)
	assert.Equal(t, colornames.Pink, img.RGBAAt(int(x), int(y)))
}

func TestRenderHugeMarker(t *testing.T) {
	mag := 20000.0
	sc := &scene.Scene{Markers: []scene.Marker{{
		Point: orb.Point{0, 0},
		Mag:   mag,
		Depth: 5,
		Style: style.Marker{
			Radius:      style.RadiusOf(mag),
			FillColor:   style.ColorOf(5),
			Color:       style.StrokeColor,
			Weight:      style.StrokeWeight,
			Opacity:     style.Opacity,
			FillOpacity: style.FillOpacity,
			Stroke:      true,
		},
	}}}

	done := make(chan *image.RGBA, 1)
	go func() { done <- Render(sc, baseWidth) }()

	select {
	case img := <-done:
		// the circle covers the whole canvas, corners included
		c := img.RGBAAt(0, 0)
		assert.Greater(t, c.G, c.R)
		assert.NotEqual(t, background, c)
	case <-time.After(10 * time.Second):
		t.Fatal("render of a huge marker did not finish")
	}

	sc.Markers[0].Point = orb.Point{179, 89}
	sc.Markers[0].Style.Radius = math.Inf(1)
	assert.NotPanics(t, func() { Render(sc, 128) })
}

func TestRenderScaled(t *testing.T) {
	img := Render(testScene(), 360)
	assert.Equal(t, 360, img.Bounds().Dx())
	assert.Equal(t, 180, img.Bounds().Dy())

	empty := Render(&scene.Scene{}, 128)
	assert.Equal(t, 128, empty.Bounds().Dx())
	assert.Equal(t, 64, empty.Bounds().Dy())
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Render(testScene(), 256)))

	data := buf.Bytes()
	require.Greater(t, len(data), 12)
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WEBP", string(data[8:12]))
}
