package inertia

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chassislab/wishbone/pkg/core"
)

// Composite accumulates the mass properties of several rigid bodies. The
// running state is kept about the parent origin so that Add and Merge are
// plain sums and the result does not depend on insertion order.
type Composite struct {
	mass   float64
	moment mgl64.Vec3 // sum of m·c
	origin mgl64.Mat3 // inertia about the parent origin, parent axes
	count  int
}

// Add folds in a body whose center of mass sits at frame.Pos and whose
// inertia about that point is local, expressed in the axes of frame.Rot.
func (c *Composite) Add(frame core.Frame, mass float64, local mgl64.Mat3) {
	world := ToWorld(local, frame.Rot)
	c.mass += mass
	c.moment = c.moment.Add(frame.Pos.Mul(mass))
	c.origin = c.origin.Add(world.Add(Shift(mass, frame.Pos)))
	c.count++
}

// Merge folds every body of other into c.
func (c *Composite) Merge(other Composite) {
	c.mass += other.mass
	c.moment = c.moment.Add(other.moment)
	c.origin = c.origin.Add(other.origin)
	c.count += other.count
}

// Len returns the number of bodies folded in.
func (c Composite) Len() int {
	return c.count
}

// Mass returns the total mass.
func (c Composite) Mass() float64 {
	return c.mass
}

// COM returns the combined center of mass in parent coordinates.
func (c Composite) COM() mgl64.Vec3 {
	if c.mass == 0 {
		return mgl64.Vec3{}
	}
	return c.moment.Mul(1 / c.mass)
}

// Inertia returns the combined inertia about COM, parent axes.
func (c Composite) Inertia() mgl64.Mat3 {
	if c.mass == 0 {
		return mgl64.Mat3{}
	}
	return c.origin.Sub(Shift(c.mass, c.COM()))
}
