// Package visualization turns scalar render outputs (depth,
// accumulation) into color images for inspection.
package visualization

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// ApplyColormap maps scalar values in [0,1] to an image using a
// blue-to-red hue ramp. Values outside [0,1] are clamped.
func ApplyColormap(values [][]float64) *image.RGBA {
	height := len(values)
	width := 0
	if height > 0 {
		width = len(values[0])
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, scalarToColor(values[y][x]))
		}
	}
	return img
}

// ApplyDepthColormap normalizes depth to the [near, far] range and
// colormaps it, darkening pixels by their accumulation so empty rays
// read as black instead of a misleading depth
func ApplyDepthColormap(depth, accumulation [][]float64, nearPlane, farPlane float64) *image.RGBA {
	height := len(depth)
	width := 0
	if height > 0 {
		width = len(depth[0])
	}

	span := farPlane - nearPlane
	if span <= 0 {
		span = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := (depth[y][x] - nearPlane) / span
			opacity := clamp01(accumulation[y][x])
			c := scalarToColor(v)
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(float64(c.R) * opacity),
				G: uint8(float64(c.G) * opacity),
				B: uint8(float64(c.B) * opacity),
				A: 255,
			})
		}
	}
	return img
}

// scalarToColor maps [0,1] onto a 240°..0° hue ramp (blue through green
// to red)
func scalarToColor(v float64) color.RGBA {
	v = clamp01(v)
	c := colorful.Hsv(240*(1-v), 0.9, 0.95)
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
