// Package geometry derives orthonormal body and joint frames from hardpoint
// triples and converts points between textual, vector and stored forms.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DegenerateTolerance is the smallest vector length accepted for normalization.
const DegenerateTolerance = 1e-9

// ErrDegenerateGeometry is returned when hardpoints are coincident or collinear
// and no frame axis can be derived from them.
var ErrDegenerateGeometry = errors.New("degenerate hardpoint geometry")

// normalize fails instead of returning a zero or NaN vector.
func normalize(v mgl64.Vec3, what string) (mgl64.Vec3, error) {
	l := v.Len()
	if l < DegenerateTolerance || math.IsNaN(l) {
		return mgl64.Vec3{}, fmt.Errorf("%w: %s has length %g", ErrDegenerateGeometry, what, l)
	}
	return v.Mul(1 / l), nil
}

// planeAxes returns the unit normal of the plane through (front, back, outer)
// and the unit edge from back to front.
func planeAxes(front, back, outer mgl64.Vec3) (normal, edge mgl64.Vec3, err error) {
	normal, err = normalize(back.Sub(outer).Cross(front.Sub(outer)), "arm plane normal")
	if err != nil {
		return mgl64.Vec3{}, mgl64.Vec3{}, err
	}
	edge, err = normalize(front.Sub(back), "arm chassis edge")
	if err != nil {
		return mgl64.Vec3{}, mgl64.Vec3{}, err
	}
	return normal, edge, nil
}

// ArmBodyFrame returns the orientation of a control arm body: x along the
// chassis edge (back to front), z normal to the arm plane.
func ArmBodyFrame(front, back, outer mgl64.Vec3) (mgl64.Mat3, error) {
	w, u, err := planeAxes(front, back, outer)
	if err != nil {
		return mgl64.Mat3{}, err
	}
	v := w.Cross(u)
	return mgl64.Mat3FromCols(u, v, w), nil
}

// ArmJointFrame returns the orientation of the chassis-to-arm revolute joint:
// z along the rotation axis (back to front), y normal to the arm plane.
func ArmJointFrame(front, back, outer mgl64.Vec3) (mgl64.Mat3, error) {
	v, w, err := planeAxes(front, back, outer)
	if err != nil {
		return mgl64.Mat3{}, err
	}
	u := v.Cross(w)
	return mgl64.Mat3FromCols(u, v, w), nil
}

// TierodFrame returns the orientation of a tierod body running from the
// chassis point to the upright point: z along the rod, x as close to the
// chassis x axis as the rod allows.
func TierodFrame(chassisPt, uprightPt, chassisX mgl64.Vec3) (mgl64.Mat3, error) {
	w, err := normalize(uprightPt.Sub(chassisPt), "tierod axis")
	if err != nil {
		return mgl64.Mat3{}, err
	}
	v, err := normalize(w.Cross(chassisX), "tierod lateral axis")
	if err != nil {
		return mgl64.Mat3{}, err
	}
	u := v.Cross(w)
	return mgl64.Mat3FromCols(u, v, w), nil
}

// IsOrthonormal reports whether the columns of m are unit length, mutually
// orthogonal and right-handed within tol.
func IsOrthonormal(m mgl64.Mat3, tol float64) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(m.Col(i).Len()-1) > tol {
			return false
		}
		for j := i + 1; j < 3; j++ {
			if math.Abs(m.Col(i).Dot(m.Col(j))) > tol {
				return false
			}
		}
	}
	return math.Abs(m.Det()-1) <= tol
}
