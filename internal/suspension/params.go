package suspension

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chassislab/wishbone/internal/inertia"
	"github.com/chassislab/wishbone/pkg/core"
)

// Bushings holds optional compliance data per joint group. A nil entry
// keeps the corresponding joints kinematic.
type Bushings struct {
	UCA     *core.BushingData // chassis to upper arm revolute
	LCA     *core.BushingData // chassis to lower arm revolute
	UCABall *core.BushingData // upper arm to upright spherical
	LCABall *core.BushingData // lower arm to upright spherical
	Tierod  *core.BushingData // tierod spherical and universal (body strategy only)
}

// Params are the physical properties of a double-wishbone suspension.
// Hardpoints are given for the left side in the suspension reference frame.
type Params struct {
	Name       string
	Hardpoints core.Hardpoints

	Spindle core.BodyProps // products ignored
	Upright core.BodyProps
	UCA     core.BodyProps
	LCA     core.BodyProps
	Tierod  core.BodyProps // products ignored, used with UseTierodBodies

	// Visualization radii. Accepted for compatibility, not used by the builder.
	SpindleRadius float64
	SpindleWidth  float64
	UprightRadius float64
	UCARadius     float64
	LCARadius     float64
	TierodRadius  float64

	ToeAngle    float64 // rad
	CamberAngle float64 // rad

	UseTierodBodies     bool
	VehicleFrameInertia bool

	SpringRestLength float64
	ShockRestLength  float64
	SpringLaw        core.ForceLaw
	ShockLaw         core.ForceLaw

	Bushings    Bushings
	AxleInertia float64
}

// component is one body type of the assembly. Full components accept
// products of inertia.
type component struct {
	name  string
	props core.BodyProps
	full  bool
}

// components returns the body types present for the selected tierod strategy.
func (p Params) components() []component {
	out := []component{
		{"spindle", p.Spindle, false},
		{"upright", p.Upright, true},
		{"UCA", p.UCA, true},
		{"LCA", p.LCA, true},
	}
	if p.UseTierodBodies {
		out = append(out, component{"tierod", p.Tierod, false})
	}
	return out
}

// configuredInertia returns the tensor as configured: diagonal for
// components without products, full otherwise.
func configuredInertia(props core.BodyProps, full bool) mgl64.Mat3 {
	if !full {
		return mgl64.Diag3(props.Moments)
	}
	return inertia.FromMomentsProducts(props.Moments, props.Products)
}

// Validate reports configuration errors wrapped in ErrConfiguration.
func (p Params) Validate() error {
	for _, c := range p.components() {
		if err := inertia.Validate(c.props.Mass, configuredInertia(c.props, c.full)); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrConfiguration, c.name, err)
		}
	}
	if p.SpringLaw == nil {
		return fmt.Errorf("%w: spring force law not set", ErrConfiguration)
	}
	if p.ShockLaw == nil {
		return fmt.Errorf("%w: shock force law not set", ErrConfiguration)
	}
	if !(p.AxleInertia > 0) {
		return fmt.Errorf("%w: axle inertia must be positive, got %g", ErrConfiguration, p.AxleInertia)
	}
	return nil
}
