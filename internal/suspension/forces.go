package suspension

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chassislab/wishbone/internal/engine"
	"github.com/chassislab/wishbone/pkg/core"
)

// axleDir is the spindle-axis direction the axle shaft drives, in spindle axes.
var axleDir = mgl64.Vec3{0, -1, 0}

// addForce registers one spring-damper.
func (s *DoubleWishbone) addForce(spec engine.ForceSpec) (engine.Force, error) {
	f, err := s.eng.AddForce(spec)
	if err != nil {
		return nil, fmt.Errorf("registering force %s: %w", spec.Name, err)
	}
	s.track(f)
	s.metrics.forceCreated(s.name)
	return f, nil
}

// buildForces creates the spring and shock between chassis and lower arm,
// and the axle shaft on the spindle.
func (s *DoubleWishbone) buildForces(side core.Side, parts *sideParts, omega float64) error {
	pts := parts.points
	p := s.params

	var err error
	parts.shock, err = s.addForce(engine.ForceSpec{
		Name:       s.componentName("shock", side),
		BodyA:      s.chassis,
		PointA:     pts.Location(core.ShockChassis),
		BodyB:      parts.lca,
		PointB:     pts.Location(core.ShockArm),
		RestLength: p.ShockRestLength,
		Law:        p.ShockLaw,
	})
	if err != nil {
		return err
	}

	parts.spring, err = s.addForce(engine.ForceSpec{
		Name:       s.componentName("spring", side),
		BodyA:      s.chassis,
		PointA:     pts.Location(core.SpringChassis),
		BodyB:      parts.lca,
		PointB:     pts.Location(core.SpringArm),
		RestLength: p.SpringRestLength,
		Law:        p.SpringLaw,
	})
	if err != nil {
		return err
	}

	parts.axle, err = s.eng.AddShaft(engine.ShaftSpec{
		Name:    s.componentName("axle", side),
		Inertia: p.AxleInertia,
		Speed:   -omega,
		Body:    parts.spindle,
		Dir:     axleDir,
	})
	if err != nil {
		return fmt.Errorf("registering axle: %w", err)
	}
	s.track(parts.axle)
	return nil
}

// ReportSuspensionForce returns the current state of the spring and the
// shock on side, in that order.
func (s *DoubleWishbone) ReportSuspensionForce(side core.Side) []core.ForceReport {
	parts, ok := s.sides[side]
	if !ok {
		return nil
	}
	return []core.ForceReport{
		report("Spring", parts.spring),
		report("Shock", parts.shock),
	}
}

func report(name string, f engine.Force) core.ForceReport {
	return core.ForceReport{
		Name:   name,
		Force:  f.Force(),
		Length: f.Length(),
		Rate:   f.Rate(),
	}
}
