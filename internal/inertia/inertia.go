// Package inertia re-expresses inertia tensors between frames and folds the
// mass properties of several rigid bodies into one composite.
package inertia

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Tolerance is the relative slack used by Validate.
const Tolerance = 1e-9

var (
	ErrNonPositiveMass   = errors.New("mass must be positive")
	ErrAsymmetricInertia = errors.New("inertia tensor is not symmetric")
	ErrIndefiniteInertia = errors.New("inertia tensor is not positive semi-definite")
)

// FromMomentsProducts assembles a symmetric tensor. Products are ordered
// (Ixy, Ixz, Iyz) and stored as given in the off-diagonal entries.
func FromMomentsProducts(moments, products mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromCols(
		mgl64.Vec3{moments[0], products[0], products[1]},
		mgl64.Vec3{products[0], moments[1], products[2]},
		mgl64.Vec3{products[1], products[2], moments[2]},
	)
}

// Moments returns the diagonal of I.
func Moments(I mgl64.Mat3) mgl64.Vec3 {
	return mgl64.Vec3{I.At(0, 0), I.At(1, 1), I.At(2, 2)}
}

// Products returns (Ixy, Ixz, Iyz) of I.
func Products(I mgl64.Mat3) mgl64.Vec3 {
	return mgl64.Vec3{I.At(0, 1), I.At(0, 2), I.At(1, 2)}
}

// Transform re-expresses I, given in the axes of rotation from, in the axes
// of rotation to. Both rotations are relative to a common parent.
func Transform(I, from, to mgl64.Mat3) mgl64.Mat3 {
	a := from.Transpose().Mul3(to)
	return a.Transpose().Mul3(I).Mul3(a)
}

// ToWorld rotates a body-axis tensor into the parent axes of rot.
func ToWorld(I, rot mgl64.Mat3) mgl64.Mat3 {
	return rot.Mul3(I).Mul3(rot.Transpose())
}

// Shift returns the parallel-axis term m(|d|²E - d dᵗ) for moving a tensor
// about a body's center of mass to a point offset by -d.
func Shift(mass float64, d mgl64.Vec3) mgl64.Mat3 {
	sq := d.Dot(d)
	return mgl64.Diag3(mgl64.Vec3{sq, sq, sq}).Sub(d.OuterProd3(d)).Mul(mass)
}

// Validate checks that mass is positive and I is a symmetric positive
// semi-definite tensor. All principal minors are tested, not only the
// leading ones.
func Validate(mass float64, I mgl64.Mat3) error {
	if !(mass > 0) || math.IsInf(mass, 0) {
		return fmt.Errorf("%w: %g", ErrNonPositiveMass, mass)
	}

	scale := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			scale = math.Max(scale, math.Abs(I.At(i, j)))
		}
	}
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return fmt.Errorf("%w: non-finite entries", ErrIndefiniteInertia)
	}
	if scale == 0 {
		return nil
	}

	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if math.Abs(I.At(i, j)-I.At(j, i)) > Tolerance*scale {
				return fmt.Errorf("%w: I[%d][%d]=%g, I[%d][%d]=%g", ErrAsymmetricInertia, i, j, I.At(i, j), j, i, I.At(j, i))
			}
		}
	}

	for i := 0; i < 3; i++ {
		if I.At(i, i) < -Tolerance*scale {
			return fmt.Errorf("%w: diagonal %d is %g", ErrIndefiniteInertia, i, I.At(i, i))
		}
	}
	pairs := [3][2]int{{0, 1}, {0, 2}, {1, 2}}
	for _, p := range pairs {
		i, j := p[0], p[1]
		minor := I.At(i, i)*I.At(j, j) - I.At(i, j)*I.At(j, i)
		if minor < -Tolerance*scale*scale {
			return fmt.Errorf("%w: minor (%d,%d) is %g", ErrIndefiniteInertia, i, j, minor)
		}
	}
	if det := I.Det(); det < -Tolerance*scale*scale*scale {
		return fmt.Errorf("%w: determinant is %g", ErrIndefiniteInertia, det)
	}
	return nil
}
