package geo

import "math"

// Equirectangular projects WGS84 (Lon/Lat) onto a width x height canvas.
//
// Longitude [-180, 180] maps to x [0, width] and latitude [90, -90] maps to
// y [0, height]. Longitudes outside the range are wrapped, latitudes clamped.
func Equirectangular(lon, lat float64, width, height int) (x, y float64) {
	if lon < -180 || lon > 180 {
		lon = math.Mod(lon+180, 360)
		if lon < 0 {
			lon += 360
		}
		lon -= 180
	}

	if lat > 90 {
		lat = 90
	} else if lat < -90 {
		lat = -90
	}

	x = (lon + 180) / 360 * float64(width)
	y = (90 - lat) / 180 * float64(height)
	return x, y
}
