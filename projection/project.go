// Package projection turns world-space mesh geometry into image-space
// overlays for a calibrated camera: vertex projection through the pinhole and
// distortion model, wireframe rasterization and compositing onto the source
// photograph.
package projection

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/capturetools/meshproj/calib"
)

// ProjectPoints maps world-space points into distorted pixel coordinates,
// index-aligned with the input. Each point is moved into camera space with
// the calibrated extrinsics, perspective-divided, pushed through the
// Brown-Conrady polynomial and scaled by the focal lengths.
//
// No visibility filtering happens here: points at or behind the camera plane
// (z <= 0) still produce coordinates, which simply land far outside the
// image. Rasterization and drawing bounds-check every result, so keeping the
// output index-aligned with the mesh is worth more than early rejection.
func ProjectPoints(vertices []r3.Vector, cam *calib.Camera) []r2.Point {
	points := make([]r2.Point, 0, len(vertices))
	for _, vert := range vertices {
		p := cam.WorldToCamera(vert)
		xd, yd := cam.Distortion.Transform(p.X/p.Z, p.Y/p.Z)
		u, v := cam.Intrinsics.PixelFromNormalized(xd, yd)
		points = append(points, r2.Point{X: u, Y: v})
	}
	return points
}

// truncatePoint snaps a projected point to its pixel by dropping the
// fractional part of both coordinates.
func truncatePoint(p r2.Point) image.Point {
	return image.Point{X: int(p.X), Y: int(p.Y)}
}
