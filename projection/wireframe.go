package projection

import (
	"image"
	"image/color"

	"github.com/golang/geo/r2"
)

// WireframeMask rasterizes the projected triangle edges into a single-channel
// mask of the given size: 255 on edge pixels, 0 elsewhere.
//
// An edge is drawn only when both of its endpoints land inside the mask. An
// edge with either endpoint out of bounds is dropped whole, not clipped, and
// triangles straddling the image border lose exactly their crossing edges.
// Existing overlay sets were rendered this way, so switching to true clipping
// would make regenerated overlays diverge from archived ones.
func WireframeMask(points []r2.Point, triangles [][3]int, width, height int) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, width, height))
	for _, tri := range triangles {
		a := truncatePoint(points[tri[0]])
		b := truncatePoint(points[tri[1]])
		c := truncatePoint(points[tri[2]])
		drawEdge(mask, a, b, width, height)
		drawEdge(mask, b, c, width, height)
		drawEdge(mask, c, a, width, height)
	}
	return mask
}

func inBounds(p image.Point, width, height int) bool {
	return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height
}

func drawEdge(mask *image.Gray, a, b image.Point, width, height int) {
	if !inBounds(a, width, height) || !inBounds(b, width, height) {
		return
	}
	drawLine(mask, a, b)
}

// drawLine rasterizes a 1-pixel segment with the integer midpoint algorithm.
// Both endpoints must already be inside the mask.
func drawLine(mask *image.Gray, a, b image.Point) {
	dx := absInt(b.X - a.X)
	dy := -absInt(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		mask.SetGray(x, y, color.Gray{Y: 255})
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func absInt(n int) int {
	if n < 0 {
		return -1 * n
	}
	return n
}
