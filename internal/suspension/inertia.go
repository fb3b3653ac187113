package suspension

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chassislab/wishbone/internal/engine"
	"github.com/chassislab/wishbone/internal/inertia"
	"github.com/chassislab/wishbone/pkg/core"
)

// InitializeInertiaProperties computes the total mass from the configured
// component masses. It is valid before Initialize.
func (s *DoubleWishbone) InitializeInertiaProperties() {
	p := s.params
	s.mass = 2 * (p.Spindle.Mass + p.UCA.Mass + p.LCA.Mass + p.Upright.Mass + s.tierod.mass(p))
}

// massBodies lists every body whose mass belongs to the assembly.
func (s *DoubleWishbone) massBodies() []engine.Body {
	var out []engine.Body
	for _, side := range core.Sides {
		parts, ok := s.sides[side]
		if !ok {
			continue
		}
		out = append(out, parts.spindle, parts.upright, parts.uca, parts.lca)
		out = append(out, s.tierod.bodies(parts)...)
	}
	return out
}

// UpdateInertiaProperties recomputes COM and inertia from the current body
// poses. Results are expressed in the suspension reference frame.
func (s *DoubleWishbone) UpdateInertiaProperties() {
	if !s.initialized {
		return
	}
	var c inertia.Composite
	for _, b := range s.massBodies() {
		c.Add(b.Frame(), b.Mass(), b.Inertia())
	}

	xform := s.subsystemFrame()
	s.mass = c.Mass()
	s.com = xform.PointToLocal(c.COM())
	s.inertia = inertia.Transform(c.Inertia(), mgl64.Ident3(), xform.Rot)
}

// Mass returns the total mass of the assembly.
func (s *DoubleWishbone) Mass() float64 {
	return s.mass
}

// COM returns the center of mass in the suspension reference frame, as of
// the last UpdateInertiaProperties.
func (s *DoubleWishbone) COM() mgl64.Vec3 {
	return s.com
}

// Inertia returns the inertia about COM in suspension reference axes, as of
// the last UpdateInertiaProperties.
func (s *DoubleWishbone) Inertia() mgl64.Mat3 {
	return s.inertia
}
