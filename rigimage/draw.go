package rigimage

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

// init sets up the font we use for labels.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font we use for drawing.
func Font() *truetype.Font {
	return font
}

// DrawString writes a string to the given context at a particular point.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringWrapped(text, float64(p.X), float64(p.Y), 0, 0, float64(dc.Width()), 1, 0)
}

// FillDisk paints a filled circle into img, clipping to the image bounds.
func FillDisk(img draw.Image, center image.Point, radius int, c color.Color) {
	b := img.Bounds()
	for y := center.Y - radius; y <= center.Y+radius; y++ {
		for x := center.X - radius; x <= center.X+radius; x++ {
			if !(image.Point{X: x, Y: y}).In(b) {
				continue
			}
			dx, dy := x-center.X, y-center.Y
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			img.Set(x, y, c)
		}
	}
}

// ParseHexColor parses an "#rrggbb" hex string (the leading # is optional)
// into an opaque color.
func ParseHexColor(s string) (color.RGBA, error) {
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(err, "invalid color %q", s)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
