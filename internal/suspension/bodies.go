package suspension

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chassislab/wishbone/internal/engine"
	"github.com/chassislab/wishbone/internal/geometry"
	"github.com/chassislab/wishbone/internal/inertia"
	"github.com/chassislab/wishbone/pkg/core"
)

// componentName builds the engine name of a part, e.g. "front_UCA_L".
func (s *DoubleWishbone) componentName(part string, side core.Side) string {
	return s.name + "_" + part + side.Suffix()
}

// bodyInertia returns the body-axis inertia of a full component. In vehicle
// frame mode the configured tensor is given in chassis axes and is
// re-expressed in the body axes.
func (s *DoubleWishbone) bodyInertia(props core.BodyProps, chassisRot, bodyRot mgl64.Mat3) mgl64.Mat3 {
	I := inertia.FromMomentsProducts(props.Moments, props.Products)
	if s.params.VehicleFrameInertia {
		return inertia.Transform(I, chassisRot, bodyRot)
	}
	return I
}

// addBody validates and registers one rigid body.
func (s *DoubleWishbone) addBody(spec engine.BodySpec) (engine.Body, error) {
	if err := inertia.Validate(spec.Mass, spec.Inertia); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfiguration, spec.Name, err)
	}
	b, err := s.eng.NewBody(spec)
	if err != nil {
		return nil, fmt.Errorf("creating body %s: %w", spec.Name, err)
	}
	if err := s.eng.AddBody(b); err != nil {
		return nil, fmt.Errorf("registering body %s: %w", spec.Name, err)
	}
	s.track(b)
	s.metrics.bodyCreated(s.name)
	return b, nil
}

// spindleRotation applies toe about z and camber about x, both signed by side.
func spindleRotation(chassisRot mgl64.Mat3, side core.Side, toe, camber float64) mgl64.Mat3 {
	sign := side.Sign()
	return chassisRot.Mul3(mgl64.Rotate3DZ(sign * toe)).Mul3(mgl64.Rotate3DX(sign * camber))
}

// buildBodies creates spindle, upright and both control arms.
func (s *DoubleWishbone) buildBodies(side core.Side, parts *sideParts, chassisRot mgl64.Mat3, omega float64) error {
	pts := parts.points
	p := s.params

	spindleRot := spindleRotation(chassisRot, side, p.ToeAngle, p.CamberAngle)
	var err error
	parts.spindle, err = s.addBody(engine.BodySpec{
		Name:        s.componentName("spindle", side),
		Frame:       core.NewFrame(pts.Location(core.Spindle), spindleRot),
		Mass:        p.Spindle.Mass,
		Inertia:     mgl64.Diag3(p.Spindle.Moments),
		AngVelLocal: mgl64.Vec3{0, omega, 0},
	})
	if err != nil {
		return err
	}

	parts.upright, err = s.addBody(engine.BodySpec{
		Name:    s.componentName("upright", side),
		Frame:   core.NewFrame(pts.Location(core.Upright), chassisRot),
		Mass:    p.Upright.Mass,
		Inertia: s.bodyInertia(p.Upright, chassisRot, chassisRot),
	})
	if err != nil {
		return err
	}

	ucaRot, err := geometry.ArmBodyFrame(pts.Location(core.UCAFront), pts.Location(core.UCABack), pts.Location(core.UCAUpright))
	if err != nil {
		return fmt.Errorf("UCA body frame: %w", err)
	}
	parts.uca, err = s.addBody(engine.BodySpec{
		Name:    s.componentName("UCA", side),
		Frame:   core.NewFrame(pts.Location(core.UCACM), ucaRot),
		Mass:    p.UCA.Mass,
		Inertia: s.bodyInertia(p.UCA, chassisRot, ucaRot),
	})
	if err != nil {
		return err
	}

	lcaRot, err := geometry.ArmBodyFrame(pts.Location(core.LCAFront), pts.Location(core.LCABack), pts.Location(core.LCAUpright))
	if err != nil {
		return fmt.Errorf("LCA body frame: %w", err)
	}
	parts.lca, err = s.addBody(engine.BodySpec{
		Name:    s.componentName("LCA", side),
		Frame:   core.NewFrame(pts.Location(core.LCACM), lcaRot),
		Mass:    p.LCA.Mass,
		Inertia: s.bodyInertia(p.LCA, chassisRot, lcaRot),
	})
	return err
}

// spindleJointRotation turns the spindle frame so that the joint z axis is
// the spin axis.
func spindleJointRotation(spindleRot mgl64.Mat3) mgl64.Mat3 {
	return spindleRot.Mul3(mgl64.Rotate3DX(math.Pi / 2))
}
