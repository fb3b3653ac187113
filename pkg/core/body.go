// pkg/core/body.go
package core

import "github.com/go-gl/mathgl/mgl64"

// BodyProps are the configured mass properties of a rigid component.
// Products are ordered (Ixy, Ixz, Iyz).
type BodyProps struct {
	Mass     float64
	Moments  mgl64.Vec3
	Products mgl64.Vec3
}

// ForceLaw maps the current length and extension rate of a two-point
// element to a scalar force. Positive values push the anchors apart.
type ForceLaw interface {
	Force(length, rate float64) float64
}

// ForceLawFunc adapts a plain function to ForceLaw.
type ForceLawFunc func(length, rate float64) float64

// Force calls f.
func (f ForceLawFunc) Force(length, rate float64) float64 {
	return f(length, rate)
}

// ForceReport is the state of a two-point force element at query time.
type ForceReport struct {
	Name   string
	Force  float64
	Length float64
	Rate   float64
}
