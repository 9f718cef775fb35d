package projection

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"

	"github.com/capturetools/meshproj/rigimage"
)

// Default overlay palette: red wireframe, green vertex markers.
var (
	DefaultWireColor   = color.RGBA{R: 255, A: 255}
	DefaultVertexColor = color.RGBA{G: 255, A: 255}
)

// vertexRadius is the marker size for projected vertices.
const vertexRadius = 2

// labelSize is the font size of the optional corner label.
const labelSize = 28

// OverlayOptions adjusts how an overlay is composited. The zero value uses
// the default palette and no label.
type OverlayOptions struct {
	WireColor   color.RGBA
	VertexColor color.RGBA
	// Label, when non-empty, is drawn near the top-left corner.
	Label string
}

// Overlay composites projected geometry onto src and returns a new color
// image, leaving src untouched. The source is normalized to color first, so
// the grayscale stereo frames come out with the wireframe in full color.
// Wireframe pixels are painted from the mask, then every in-bounds vertex is
// drawn on top as a filled disk; vertices outside the image are skipped. A
// nil mask composites markers only.
func Overlay(src image.Image, points []r2.Point, mask *image.Gray, opts OverlayOptions) *image.NRGBA {
	if opts.WireColor == (color.RGBA{}) {
		opts.WireColor = DefaultWireColor
	}
	if opts.VertexColor == (color.RGBA{}) {
		opts.VertexColor = DefaultVertexColor
	}

	out := imaging.Clone(src)
	if mask != nil {
		paintMask(out, mask, opts.WireColor)
	}
	bounds := out.Bounds()
	for _, p := range points {
		pt := truncatePoint(p)
		if !pt.In(bounds) {
			continue
		}
		rigimage.FillDisk(out, pt, vertexRadius, opts.VertexColor)
	}
	if opts.Label != "" {
		dc := gg.NewContextForImage(out)
		rigimage.DrawString(dc, opts.Label, image.Point{X: 12, Y: 12}, opts.WireColor, labelSize)
		out = imaging.Clone(dc.Image())
	}
	return out
}

// paintMask overwrites out with c wherever the mask is set. The mask normally
// matches the image size; painting clips to the intersection otherwise.
func paintMask(out *image.NRGBA, mask *image.Gray, c color.RGBA) {
	b := out.Bounds().Intersect(mask.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.GrayAt(x, y).Y > 0 {
				out.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A})
			}
		}
	}
}
