package calib

import "github.com/pkg/errors"

// DistortionType is the name of the distortion model.
type DistortionType string

// BrownConradyDistortionType is the only model the rig's calibration files
// describe.
const BrownConradyDistortionType = DistortionType("brown_conrady")

// Distorter defines a transform that maps ideal, undistorted normalized
// image-plane coordinates to the distorted coordinates actually observed
// through the lens.
type Distorter interface {
	ModelType() DistortionType
	CheckValid() error
	Parameters() []float64
	Transform(x, y float64) (float64, float64)
}

// BrownConrady is the Brown-Conrady lens distortion model: three radial terms
// k1,k2,k3 and two tangential terms p1,p2. TKA calibration files only ever
// supply k1 and k2, so the remaining coefficients stay zero and the reduced
// two-parameter files share this type with full five-parameter calibrations.
type BrownConrady struct {
	RadialK1     float64 `json:"rk1"`
	RadialK2     float64 `json:"rk2"`
	RadialK3     float64 `json:"rk3"`
	TangentialP1 float64 `json:"tp1"`
	TangentialP2 float64 `json:"tp2"`
}

// NewBrownConrady takes in a slice of floats that will be passed into the
// struct in order: k1, k2, k3, p1, p2. Missing trailing coefficients default
// to zero.
func NewBrownConrady(inp []float64) (*BrownConrady, error) {
	if len(inp) > 5 {
		return nil, errors.Errorf("list of parameters too long, expected at most 5, got %d", len(inp))
	}
	for len(inp) < 5 {
		inp = append(inp, 0.0)
	}
	return &BrownConrady{inp[0], inp[1], inp[2], inp[3], inp[4]}, nil
}

// ModelType returns the distortion model name.
func (bc *BrownConrady) ModelType() DistortionType {
	return BrownConradyDistortionType
}

// CheckValid checks if the fields are valid.
func (bc *BrownConrady) CheckValid() error {
	if bc == nil {
		return errors.New("distortion parameters do not exist")
	}
	return nil
}

// Parameters returns the parameters of the distortion model as a list of
// floats in the order k1, k2, k3, p1, p2.
func (bc *BrownConrady) Parameters() []float64 {
	if bc == nil {
		return []float64{}
	}
	return []float64{bc.RadialK1, bc.RadialK2, bc.RadialK3, bc.TangentialP1, bc.TangentialP2}
}

// Transform applies the distortion polynomial to an ideal normalized
// image-plane point (x, y):
//
//	r^2 = x^2 + y^2
//	x_d = x*(1 + k1*r^2 + k2*r^4 + k3*r^6) + 2*p1*x*y + p2*(r^2 + 2*x^2)
//	y_d = y*(1 + k1*r^2 + k2*r^4 + k3*r^6) + 2*p2*x*y + p1*(r^2 + 2*y^2)
func (bc *BrownConrady) Transform(x, y float64) (float64, float64) {
	if bc == nil {
		return x, y
	}
	r2 := x*x + y*y
	r4 := r2 * r2
	r6 := r4 * r2
	radDist := 1.0 + bc.RadialK1*r2 + bc.RadialK2*r4 + bc.RadialK3*r6
	xDist := x*radDist + 2.0*bc.TangentialP1*x*y + bc.TangentialP2*(r2+2.0*x*x)
	yDist := y*radDist + 2.0*bc.TangentialP2*x*y + bc.TangentialP1*(r2+2.0*y*y)
	return xDist, yDist
}

var _ Distorter = (*BrownConrady)(nil)
