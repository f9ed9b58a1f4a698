// Package render turns heatmap grids into raster images for quick
// visual inspection without a map frontend.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"

	"github.com/Kheng2023/SamYong2025/internal/heatmap"
)

// Supported output formats.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// Options controls raster output.
type Options struct {
	// CellSize is the square pixel size of one grid cell. Values below
	// 1 default to 8.
	CellSize int
	// Format is png or webp (default png).
	Format string
}

// Image colorizes a grid. Values are normalized by the grid maximum and
// mapped through a cold-to-hot ramp; row 0 (the southern edge) ends up
// at the bottom of the image.
func Image(g *heatmap.Grid, opts Options) image.Image {
	cell := opts.CellSize
	if cell < 1 {
		cell = 8
	}

	base := image.NewNRGBA(image.Rect(0, 0, g.Cols, g.Rows))
	max := g.Max()
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			v := 0.0
			if max > 0 {
				v = g.At(row, col) / max
			}
			base.SetNRGBA(col, g.Rows-1-row, ramp(v))
		}
	}
	if cell == 1 {
		return base
	}

	scaled := image.NewNRGBA(image.Rect(0, 0, g.Cols*cell, g.Rows*cell))
	xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), base, base.Bounds(), xdraw.Src, nil)
	return scaled
}

// Encode writes the colorized grid to w in the requested format.
func Encode(w io.Writer, g *heatmap.Grid, opts Options) error {
	img := Image(g, opts)
	switch opts.Format {
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Lossless: true})
	case FormatPNG, "":
		return png.Encode(w, img)
	}
	return fmt.Errorf("unsupported image format %q", opts.Format)
}

// rampStop is one anchor of the color gradient.
type rampStop struct {
	at float64
	c  color.NRGBA
}

// Cold-to-hot ramp: deep blue through cyan, yellow and red.
var rampStops = []rampStop{
	{0.00, color.NRGBA{13, 8, 135, 255}},
	{0.25, color.NRGBA{84, 39, 143, 255}},
	{0.50, color.NRGBA{0, 170, 170, 255}},
	{0.75, color.NRGBA{255, 200, 0, 255}},
	{1.00, color.NRGBA{204, 0, 0, 255}},
}

func ramp(v float64) color.NRGBA {
	if v <= 0 {
		return rampStops[0].c
	}
	if v >= 1 {
		return rampStops[len(rampStops)-1].c
	}
	for i := 1; i < len(rampStops); i++ {
		if v <= rampStops[i].at {
			lo, hi := rampStops[i-1], rampStops[i]
			t := (v - lo.at) / (hi.at - lo.at)
			return color.NRGBA{
				R: lerp(lo.c.R, hi.c.R, t),
				G: lerp(lo.c.G, hi.c.G, t),
				B: lerp(lo.c.B, hi.c.B, t),
				A: 255,
			}
		}
	}
	return rampStops[len(rampStops)-1].c
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}
