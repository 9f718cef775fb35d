// Package calib models the intrinsic and extrinsic calibration of the
// capture rig's cameras and parses the TKA calibration files that describe
// them. Calibrations are read once per run and are immutable afterwards, so a
// loaded Camera or Set may be shared freely between goroutines.
package calib

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// PinholeIntrinsics holds the parameters necessary to project a point in
// camera space onto the image plane of a pinhole camera.
type PinholeIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeIntrinsics have valid inputs.
func (pi *PinholeIntrinsics) CheckValid() error {
	if pi == nil {
		return errors.New("intrinsics do not exist")
	}
	if pi.Width <= 0 || pi.Height <= 0 {
		return errors.Errorf("invalid image size (%d, %d)", pi.Width, pi.Height)
	}
	if pi.Fx <= 0 {
		return errors.Errorf("invalid focal length Fx = %v", pi.Fx)
	}
	if pi.Fy <= 0 {
		return errors.Errorf("invalid focal length Fy = %v", pi.Fy)
	}
	if pi.Ppx < 0 {
		return errors.Errorf("invalid principal point x = %v", pi.Ppx)
	}
	if pi.Ppy < 0 {
		return errors.Errorf("invalid principal point y = %v", pi.Ppy)
	}
	return nil
}

// CameraMatrix returns the 3x3 intrinsic matrix
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0   1]]
func (pi *PinholeIntrinsics) CameraMatrix() *mat.Dense {
	k := mat.NewDense(3, 3, nil)
	k.Set(0, 0, pi.Fx)
	k.Set(1, 1, pi.Fy)
	k.Set(0, 2, pi.Ppx)
	k.Set(1, 2, pi.Ppy)
	k.Set(2, 2, 1)
	return k
}

// PixelFromNormalized maps normalized image-plane coordinates onto pixel
// coordinates.
func (pi *PinholeIntrinsics) PixelFromNormalized(x, y float64) (float64, float64) {
	return x*pi.Fx + pi.Ppx, y*pi.Fy + pi.Ppy
}

// Camera is the complete calibration of one rig camera: pinhole intrinsics,
// Brown-Conrady lens distortion and the world-to-camera rigid transform
// (x_cam = R*x_world + t). The rotation must be orthonormal with determinant
// one; the parser trusts the calibration producer on this and does not
// re-validate it.
type Camera struct {
	ID          string            `json:"id"`
	Intrinsics  PinholeIntrinsics `json:"intrinsic_parameters"`
	Distortion  BrownConrady      `json:"distortion"`
	Rotation    *mat.Dense        `json:"-"`
	Translation r3.Vector         `json:"-"`
}

// CheckValid checks that the camera has usable intrinsics, distortion and a
// 3x3 rotation.
func (c *Camera) CheckValid() error {
	if c == nil {
		return errors.New("camera is nil")
	}
	if err := c.Intrinsics.CheckValid(); err != nil {
		return errors.Wrapf(err, "camera %q", c.ID)
	}
	if err := c.Distortion.CheckValid(); err != nil {
		return errors.Wrapf(err, "camera %q", c.ID)
	}
	if c.Rotation == nil {
		return errors.Errorf("camera %q has no rotation", c.ID)
	}
	if r, cols := c.Rotation.Dims(); r != 3 || cols != 3 {
		return errors.Errorf("camera %q rotation is %dx%d, want 3x3", c.ID, r, cols)
	}
	return nil
}

// WorldToCamera transforms a world-space point into the camera's coordinate
// frame.
func (c *Camera) WorldToCamera(p r3.Vector) r3.Vector {
	return mulVec(c.Rotation, p).Add(c.Translation)
}

// ProjectionMatrix returns the 3x4 projection matrix K*[R|t].
func (c *Camera) ProjectionMatrix() *mat.Dense {
	t := mat.NewVecDense(3, []float64{c.Translation.X, c.Translation.Y, c.Translation.Z})
	var rt mat.Dense
	rt.Augment(c.Rotation, t)
	p := mat.NewDense(3, 4, nil)
	p.Mul(c.Intrinsics.CameraMatrix(), &rt)
	return p
}

// RelativePose returns the pose of camera "to" relative to camera "from":
// a point in from's camera frame maps into to's frame via x_to = R*x_from + t,
// with R = R_to * R_from^T and t = t_to - R*t_from.
func RelativePose(from, to *Camera) (*mat.Dense, r3.Vector) {
	var r mat.Dense
	r.Mul(to.Rotation, from.Rotation.T())
	t := to.Translation.Sub(mulVec(&r, from.Translation))
	return &r, t
}

// mulVec applies a 3x3 matrix to a vector.
func mulVec(m mat.Matrix, v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}
