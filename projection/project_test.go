package projection

import (
	"image"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/capturetools/meshproj/calib"
)

func lookDownZCamera() *calib.Camera {
	return &calib.Camera{
		ID: "1A",
		Intrinsics: calib.PinholeIntrinsics{
			Width: 100, Height: 100, Fx: 1000, Fy: 1000, Ppx: 50, Ppy: 50,
		},
		Rotation: mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		}),
		Translation: r3.Vector{Z: 10},
	}
}

func TestProjectPointsOpticalAxis(t *testing.T) {
	cam := lookDownZCamera()
	pts := ProjectPoints([]r3.Vector{{X: 0, Y: 0, Z: 0}}, cam)
	test.That(t, pts, test.ShouldHaveLength, 1)
	// Exactly the principal point, with no rounding anywhere in the chain.
	test.That(t, pts[0].X, test.ShouldEqual, 50.0)
	test.That(t, pts[0].Y, test.ShouldEqual, 50.0)
}

func TestProjectPointsOffAxis(t *testing.T) {
	cam := lookDownZCamera()
	pts := ProjectPoints([]r3.Vector{{X: 1, Y: -0.5, Z: 0}}, cam)
	test.That(t, pts[0].X, test.ShouldAlmostEqual, 150)
	test.That(t, pts[0].Y, test.ShouldAlmostEqual, 0)
}

func TestProjectPointsAppliesDistortion(t *testing.T) {
	cam := lookDownZCamera()
	cam.Distortion = calib.BrownConrady{RadialK1: 0.1}
	pts := ProjectPoints([]r3.Vector{{X: 1, Y: 0, Z: 0}}, cam)
	// x_n = 0.1, r^2 = 0.01: scale = 1 + 0.1*0.01 = 1.001.
	test.That(t, pts[0].X, test.ShouldAlmostEqual, 150.1)
	test.That(t, pts[0].Y, test.ShouldAlmostEqual, 50)
}

func TestProjectPointsIndexAligned(t *testing.T) {
	cam := lookDownZCamera()
	verts := []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: -20}, // behind the camera
		{X: -1, Y: 1, Z: 0},
	}
	pts := ProjectPoints(verts, cam)
	test.That(t, pts, test.ShouldHaveLength, 3)
	test.That(t, pts[0].X, test.ShouldEqual, 50.0)
	// The behind-camera point still projects, landing on the mirrored side.
	test.That(t, pts[1].X, test.ShouldAlmostEqual, -50)
	test.That(t, pts[2].X, test.ShouldAlmostEqual, -50)
	test.That(t, pts[2].Y, test.ShouldAlmostEqual, 150)
}

func TestProjectPointsZeroDepth(t *testing.T) {
	cam := lookDownZCamera()
	// A point exactly on the camera plane divides by zero; the coordinates
	// come out non-finite and every later bounds check discards them.
	pts := ProjectPoints([]r3.Vector{{X: 1, Y: 2, Z: -10}}, cam)
	test.That(t, pts, test.ShouldHaveLength, 1)
	test.That(t, math.IsInf(pts[0].X, 1), test.ShouldBeTrue)

	out := Overlay(image.NewNRGBA(image.Rect(0, 0, 100, 100)), pts, nil, OverlayOptions{})
	marked := 0
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if out.NRGBAAt(x, y).A != 0 {
				marked++
			}
		}
	}
	test.That(t, marked, test.ShouldEqual, 0)
}

func TestProjectPointsEmpty(t *testing.T) {
	cam := lookDownZCamera()
	pts := ProjectPoints(nil, cam)
	test.That(t, pts, test.ShouldNotBeNil)
	test.That(t, pts, test.ShouldBeEmpty)
}
