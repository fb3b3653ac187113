package suspension

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chassislab/wishbone/internal/engine"
	"github.com/chassislab/wishbone/internal/geometry"
	"github.com/chassislab/wishbone/pkg/core"
)

// tierodStrategy connects the upright to the steering link. It is chosen
// once in New.
type tierodStrategy interface {
	name() string
	build(s *DoubleWishbone, side core.Side, parts *sideParts, chassisRot mgl64.Mat3) error
	joints(parts *sideParts) []labelled
	bodies(parts *sideParts) []engine.Body
	mass(p Params) float64
}

func newTierodStrategy(useBodies bool) tierodStrategy {
	if useBodies {
		return tierodBodies{}
	}
	return tierodDistance{}
}

// tierodBodies models the tierod as a rigid body, spherical to the upright
// and universal to the steering link.
type tierodBodies struct{}

func (tierodBodies) name() string { return "body" }

func (tierodBodies) build(s *DoubleWishbone, side core.Side, parts *sideParts, chassisRot mgl64.Mat3) error {
	pts := parts.points
	c, u := pts.Location(core.TierodChassis), pts.Location(core.TierodUpright)

	rot, err := geometry.TierodFrame(c, u, chassisRot.Col(0))
	if err != nil {
		return fmt.Errorf("tierod frame: %w", err)
	}

	parts.tierod, err = s.addBody(engine.BodySpec{
		Name:    s.componentName("tierodBody", side),
		Frame:   core.NewFrame(pts.Midpoint(core.TierodChassis, core.TierodUpright), rot),
		Mass:    s.params.Tierod.Mass,
		Inertia: mgl64.Diag3(s.params.Tierod.Moments),
	})
	if err != nil {
		return err
	}

	parts.tierodSpherical, err = s.addJoint(engine.JointSpec{
		Name:    s.componentName("sphericalTierod", side),
		Type:    core.Spherical,
		Frame:   core.NewFrame(u, chassisRot),
		BodyA:   parts.upright,
		BodyB:   parts.tierod,
		Bushing: s.params.Bushings.Tierod,
	})
	if err != nil {
		return err
	}

	parts.tierodUniversal, err = s.addJoint(engine.JointSpec{
		Name:    s.componentName("universalTierod", side),
		Type:    core.Universal,
		Frame:   core.NewFrame(c, rot),
		BodyA:   s.steering,
		BodyB:   parts.tierod,
		Bushing: s.params.Bushings.Tierod,
	})
	return err
}

func (tierodBodies) joints(parts *sideParts) []labelled {
	return []labelled{
		{"Tierod spherical", parts.tierodSpherical},
		{"Tierod universal", parts.tierodUniversal},
	}
}

func (tierodBodies) bodies(parts *sideParts) []engine.Body {
	return []engine.Body{parts.tierod}
}

func (tierodBodies) mass(p Params) float64 {
	return p.Tierod.Mass
}

// tierodDistance replaces the tierod by a distance constraint between the
// steering link and the upright.
type tierodDistance struct{}

func (tierodDistance) name() string { return "distance" }

func (tierodDistance) build(s *DoubleWishbone, side core.Side, parts *sideParts, _ mgl64.Mat3) error {
	pts := parts.points
	var err error
	parts.tierodDistance, err = s.addJoint(engine.JointSpec{
		Name:   s.componentName("distTierod", side),
		Type:   core.Distance,
		Frame:  core.NewFrame(pts.Location(core.TierodChassis), mgl64.Ident3()),
		BodyA:  s.steering,
		BodyB:  parts.upright,
		PointA: pts.Location(core.TierodChassis),
		PointB: pts.Location(core.TierodUpright),
	})
	return err
}

func (tierodDistance) joints(parts *sideParts) []labelled {
	return []labelled{{"Tierod distance", parts.tierodDistance}}
}

func (tierodDistance) bodies(*sideParts) []engine.Body {
	return nil
}

func (tierodDistance) mass(Params) float64 {
	return 0
}

// TierodBody returns the tierod body on side. It fails with
// ErrStrategyMismatch when the distance strategy is active.
func (s *DoubleWishbone) TierodBody(side core.Side) (engine.Body, error) {
	if !s.params.UseTierodBodies {
		return nil, fmt.Errorf("%w: tierod body requested, strategy is %s", ErrStrategyMismatch, s.tierod.name())
	}
	parts, ok := s.sides[side]
	if !ok {
		return nil, ErrNotInitialized
	}
	return parts.tierod, nil
}

// TierodDistance returns the tierod distance constraint on side. It fails
// with ErrStrategyMismatch when the body strategy is active.
func (s *DoubleWishbone) TierodDistance(side core.Side) (engine.Joint, error) {
	if s.params.UseTierodBodies {
		return nil, fmt.Errorf("%w: tierod distance requested, strategy is %s", ErrStrategyMismatch, s.tierod.name())
	}
	parts, ok := s.sides[side]
	if !ok {
		return nil, ErrNotInitialized
	}
	return parts.tierodDistance, nil
}
