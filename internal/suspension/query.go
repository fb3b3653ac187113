package suspension

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chassislab/wishbone/internal/engine"
	"github.com/chassislab/wishbone/pkg/core"
)

const metersPerInch = 0.0254

// Track returns the wheel track, twice the lateral spindle offset.
func (s *DoubleWishbone) Track() float64 {
	return 2 * s.params.Hardpoints.Location(core.Spindle).Y()
}

// Spindle returns the spindle body on side, nil before Initialize.
func (s *DoubleWishbone) Spindle(side core.Side) engine.Body {
	if parts, ok := s.sides[side]; ok {
		return parts.spindle
	}
	return nil
}

// Upright returns the upright body on side, nil before Initialize.
func (s *DoubleWishbone) Upright(side core.Side) engine.Body {
	if parts, ok := s.sides[side]; ok {
		return parts.upright
	}
	return nil
}

// SpindlePos returns the absolute spindle position.
func (s *DoubleWishbone) SpindlePos(side core.Side) mgl64.Vec3 {
	if b := s.Spindle(side); b != nil {
		return b.Frame().Pos
	}
	return mgl64.Vec3{}
}

// SpindleRot returns the absolute spindle orientation.
func (s *DoubleWishbone) SpindleRot(side core.Side) mgl64.Quat {
	if b := s.Spindle(side); b != nil {
		return mgl64.Mat4ToQuat(b.Frame().Rot.Mat4())
	}
	return mgl64.QuatIdent()
}

// SpindleAngVel returns the spindle angular velocity in absolute axes.
func (s *DoubleWishbone) SpindleAngVel(side core.Side) mgl64.Vec3 {
	if b := s.Spindle(side); b != nil {
		return b.Frame().DirToParent(b.AngVelLocal())
	}
	return mgl64.Vec3{}
}

// AxleSpeed returns the axle shaft speed on side.
func (s *DoubleWishbone) AxleSpeed(side core.Side) float64 {
	if parts, ok := s.sides[side]; ok {
		return parts.axle.Speed()
	}
	return 0
}

// HardpointLocation is one configured hardpoint, offset and scaled for display.
type HardpointLocation struct {
	ID  core.HardpointID
	Pos mgl64.Vec3
}

// HardpointLocations returns ref + unit*p for every configured (left side)
// hardpoint, with unit converting meters to inches when inches is set.
func (s *DoubleWishbone) HardpointLocations(ref mgl64.Vec3, inches bool) []HardpointLocation {
	unit := 1.0
	if inches {
		unit = 1 / metersPerInch
	}
	out := make([]HardpointLocation, 0, core.NumHardpoints)
	for id := core.HardpointID(0); id < core.NumHardpoints; id++ {
		out = append(out, HardpointLocation{ID: id, Pos: ref.Add(s.params.Hardpoints.Location(id).Mul(unit))})
	}
	return out
}

// LogHardpointLocations logs HardpointLocations under their diagnostic names.
func (s *DoubleWishbone) LogHardpointLocations(ref mgl64.Vec3, inches bool) {
	for _, hp := range s.HardpointLocations(ref, inches) {
		s.logger.Info("hardpoint", "name", hp.ID.String(), "x", hp.Pos.X(), "y", hp.Pos.Y(), "z", hp.Pos.Z())
	}
}

// Component is one registered part of the assembly.
type Component struct {
	Name string
	Kind string // body, joint, bushing, force or shaft
	Type string // joint type for joints and bushings
}

// Components lists every registered part in registration order. Joints in
// bushing mode are reported with kind "bushing".
func (s *DoubleWishbone) Components() []Component {
	out := make([]Component, 0, len(s.handles))
	for _, h := range s.handles {
		c := Component{Name: h.Name(), Kind: h.Kind().String()}
		if j, ok := h.(engine.Joint); ok {
			c.Type = j.Type().String()
			if j.Mode() == core.Bushing {
				c.Kind = "bushing"
			}
		}
		out = append(out, c)
	}
	return out
}
