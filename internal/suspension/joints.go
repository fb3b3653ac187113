package suspension

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chassislab/wishbone/internal/engine"
	"github.com/chassislab/wishbone/internal/geometry"
	"github.com/chassislab/wishbone/pkg/core"
)

// addJoint registers one joint. The mode follows from spec.Bushing.
func (s *DoubleWishbone) addJoint(spec engine.JointSpec) (engine.Joint, error) {
	j, err := s.eng.AddJoint(spec)
	if err != nil {
		return nil, fmt.Errorf("registering %s joint %s: %w", spec.Type, spec.Name, err)
	}
	s.track(j)
	s.metrics.jointCreated(s.name, spec.Type, core.ModeFor(spec.Bushing))
	return j, nil
}

// arm describes one control arm for armJoints.
type arm struct {
	label              string
	body               engine.Body
	front, back, outer core.HardpointID
	pivot, ball        *core.BushingData
}

// armJoints connects a control arm to the chassis (revolute about the
// front-back axis) and to the upright (spherical at the outer point).
func (s *DoubleWishbone) armJoints(side core.Side, a arm, parts *sideParts, chassisRot mgl64.Mat3) (revolute, spherical engine.Joint, err error) {
	pts := parts.points
	rot, err := geometry.ArmJointFrame(pts.Location(a.front), pts.Location(a.back), pts.Location(a.outer))
	if err != nil {
		return nil, nil, fmt.Errorf("%s revolute frame: %w", a.label, err)
	}
	revolute, err = s.addJoint(engine.JointSpec{
		Name:    s.componentName("revolute"+a.label, side),
		Type:    core.Revolute,
		Frame:   core.NewFrame(pts.Midpoint(a.front, a.back), rot),
		BodyA:   s.chassis,
		BodyB:   a.body,
		Bushing: a.pivot,
	})
	if err != nil {
		return nil, nil, err
	}

	spherical, err = s.addJoint(engine.JointSpec{
		Name:    s.componentName("spherical"+a.label, side),
		Type:    core.Spherical,
		Frame:   core.NewFrame(pts.Location(a.outer), chassisRot),
		BodyA:   a.body,
		BodyB:   parts.upright,
		Bushing: a.ball,
	})
	if err != nil {
		return nil, nil, err
	}
	return revolute, spherical, nil
}

// buildJoints creates the spindle bearing, both arm pivots and ball joints,
// then delegates the tierod connection to the selected strategy.
func (s *DoubleWishbone) buildJoints(side core.Side, parts *sideParts, chassisRot mgl64.Mat3) error {
	pts := parts.points
	b := s.params.Bushings

	var err error
	parts.spindleRevolute, err = s.addJoint(engine.JointSpec{
		Name:  s.componentName("revolute", side),
		Type:  core.Revolute,
		Frame: core.NewFrame(pts.Location(core.Spindle), spindleJointRotation(parts.spindle.Frame().Rot)),
		BodyA: parts.spindle,
		BodyB: parts.upright,
	})
	if err != nil {
		return err
	}

	parts.ucaRevolute, parts.ucaSpherical, err = s.armJoints(side, arm{
		label: "UCA", body: parts.uca,
		front: core.UCAFront, back: core.UCABack, outer: core.UCAUpright,
		pivot: b.UCA, ball: b.UCABall,
	}, parts, chassisRot)
	if err != nil {
		return err
	}

	parts.lcaRevolute, parts.lcaSpherical, err = s.armJoints(side, arm{
		label: "LCA", body: parts.lca,
		front: core.LCAFront, back: core.LCABack, outer: core.LCAUpright,
		pivot: b.LCA, ball: b.LCABall,
	}, parts, chassisRot)
	if err != nil {
		return err
	}

	return s.tierod.build(s, side, parts, chassisRot)
}

// JointViolation is the constraint residual of one joint.
type JointViolation struct {
	Name   string
	Type   core.JointType
	Mode   core.JointMode
	Values []float64 // nil for bushings
}

// labelled pairs a joint with a short diagnostic label.
type labelled struct {
	label string
	joint engine.Joint
}

// sideJoints lists the joints of one side in diagnostic order.
func (s *DoubleWishbone) sideJoints(parts *sideParts) []labelled {
	out := []labelled{
		{"LCA revolute", parts.lcaRevolute},
		{"UCA revolute", parts.ucaRevolute},
		{"Spindle revolute", parts.spindleRevolute},
		{"LCA spherical", parts.lcaSpherical},
		{"UCA spherical", parts.ucaSpherical},
	}
	return append(out, s.tierod.joints(parts)...)
}

// ConstraintViolations returns the residual of every joint on side. Kinematic
// joints report Type.DOF() values, bushings report none.
func (s *DoubleWishbone) ConstraintViolations(side core.Side) []JointViolation {
	parts, ok := s.sides[side]
	if !ok {
		return nil
	}
	var out []JointViolation
	for _, lj := range s.sideJoints(parts) {
		out = append(out, JointViolation{
			Name:   lj.joint.Name(),
			Type:   lj.joint.Type(),
			Mode:   lj.joint.Mode(),
			Values: lj.joint.Violation(),
		})
	}
	return out
}

// LogConstraintViolations logs the residual of every kinematic joint on side.
func (s *DoubleWishbone) LogConstraintViolations(side core.Side) {
	parts, ok := s.sides[side]
	if !ok {
		return
	}
	for _, lj := range s.sideJoints(parts) {
		v := lj.joint.Violation()
		if v == nil {
			continue
		}
		s.logger.Info(lj.label, "side", side.String(), "joint", lj.joint.Name(), "violation", v)
	}
}
