// Package suspension builds a double-wishbone suspension from a table of
// hardpoints and registers its bodies, joints, force elements and axle
// shafts with an engine.
package suspension

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chassislab/wishbone/internal/engine"
	"github.com/chassislab/wishbone/pkg/core"
)

var (
	// ErrConfiguration wraps invalid masses, inertias and missing collaborators.
	ErrConfiguration = errors.New("suspension configuration error")
	// ErrMissingChassis is wrapped in ErrConfiguration when Initialize gets no chassis body.
	ErrMissingChassis = errors.New("no chassis body")
	// ErrStrategyMismatch is returned when querying tierod state the selected strategy does not have.
	ErrStrategyMismatch = errors.New("tierod strategy mismatch")
	// ErrAlreadyInitialized is returned by a second Initialize without Remove.
	ErrAlreadyInitialized = errors.New("suspension already initialized")
	// ErrNotInitialized is returned by queries that need a built assembly.
	ErrNotInitialized = errors.New("suspension not initialized")
)

// Chassis supplies the reference body the suspension is mounted on.
type Chassis interface {
	Body() engine.Body
}

// Steering supplies the body the tierods attach to.
type Steering interface {
	SteeringLink() engine.Body
}

// ChassisOf adapts a plain body to Chassis.
func ChassisOf(b engine.Body) Chassis {
	return bodyRef{b}
}

// SteeringOf adapts a plain body to Steering.
func SteeringOf(b engine.Body) Steering {
	return bodyRef{b}
}

type bodyRef struct {
	b engine.Body
}

func (r bodyRef) Body() engine.Body         { return r.b }
func (r bodyRef) SteeringLink() engine.Body { return r.b }

// sideParts are the handles built for one side.
type sideParts struct {
	points core.Hardpoints // absolute

	spindle engine.Body
	upright engine.Body
	uca     engine.Body
	lca     engine.Body
	tierod  engine.Body // body strategy only

	spindleRevolute engine.Joint
	ucaRevolute     engine.Joint
	ucaSpherical    engine.Joint
	lcaRevolute     engine.Joint
	lcaSpherical    engine.Joint
	tierodSpherical engine.Joint // body strategy only
	tierodUniversal engine.Joint // body strategy only
	tierodDistance  engine.Joint // distance strategy only

	spring engine.Force
	shock  engine.Force
	axle   engine.Shaft
}

// DoubleWishbone is a two-sided double-wishbone suspension assembly.
type DoubleWishbone struct {
	name    string
	params  Params
	eng     engine.Engine
	logger  *slog.Logger
	metrics *metrics
	tierod  tierodStrategy

	initialized bool
	chassis     engine.Body
	steering    engine.Body
	location    mgl64.Vec3
	sides       map[core.Side]*sideParts
	handles     []engine.Handle // registration order

	mass    float64
	com     mgl64.Vec3
	inertia mgl64.Mat3
}

// New validates params and prepares an assembly. Nothing is registered
// with eng until Initialize.
func New(params Params, eng engine.Engine, logger *slog.Logger) (*DoubleWishbone, error) {
	if eng == nil {
		return nil, fmt.Errorf("%w: no engine", ErrConfiguration)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if params.Name == "" {
		params.Name = "DoubleWishbone"
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	s := &DoubleWishbone{
		name:    params.Name,
		params:  params,
		eng:     eng,
		logger:  logger.With("suspension", params.Name),
		metrics: m,
		tierod:  newTierodStrategy(params.UseTierodBodies),
		sides:   make(map[core.Side]*sideParts),
	}
	s.InitializeInertiaProperties()
	return s, nil
}

// Name returns the assembly name used as prefix for every component.
func (s *DoubleWishbone) Name() string {
	return s.name
}

// UseTierodBodies reports whether the body strategy is active.
func (s *DoubleWishbone) UseTierodBodies() bool {
	return s.params.UseTierodBodies
}

// VehicleFrameInertia reports whether configured inertias are given in chassis axes.
func (s *DoubleWishbone) VehicleFrameInertia() bool {
	return s.params.VehicleFrameInertia
}

// Hardpoints returns the configured left-side table in the suspension frame.
func (s *DoubleWishbone) Hardpoints() core.Hardpoints {
	return s.params.Hardpoints
}

// Initialize builds both sides and registers them with the engine. The
// suspension reference frame is the chassis body frame shifted by location.
// A nil steering attaches the tierods to the chassis. leftOmega and
// rightOmega are the initial spindle spin rates.
func (s *DoubleWishbone) Initialize(chassis Chassis, steering Steering, location mgl64.Vec3, leftOmega, rightOmega float64) error {
	if s.initialized {
		return ErrAlreadyInitialized
	}
	if chassis == nil || chassis.Body() == nil {
		s.metrics.buildFailed(s.name)
		return fmt.Errorf("%w: %w", ErrConfiguration, ErrMissingChassis)
	}

	s.chassis = chassis.Body()
	s.steering = s.chassis
	if steering != nil && steering.SteeringLink() != nil {
		s.steering = steering.SteeringLink()
	}
	s.location = location

	xform := s.subsystemFrame()
	tables := map[core.Side]core.Hardpoints{
		core.Left:  s.params.Hardpoints.Transform(xform),
		core.Right: s.params.Hardpoints.Mirror().Transform(xform),
	}
	omega := map[core.Side]float64{core.Left: leftOmega, core.Right: rightOmega}

	for _, side := range core.Sides {
		parts, err := s.buildSide(side, tables[side], omega[side])
		if err != nil {
			s.metrics.buildFailed(s.name)
			if rerr := s.teardown(); rerr != nil {
				s.logger.Error("rollback after failed build", "error", rerr)
			}
			s.sides = make(map[core.Side]*sideParts)
			return fmt.Errorf("building side %s: %w", side, err)
		}
		s.sides[side] = parts
	}

	s.initialized = true
	s.UpdateInertiaProperties()
	s.logger.Info("suspension initialized",
		"bodies", s.count(engine.KindBody),
		"joints", s.count(engine.KindJoint),
		"tierod", s.tierod.name(),
		"mass", s.mass,
	)
	return nil
}

// subsystemFrame is the suspension reference frame in absolute coordinates.
func (s *DoubleWishbone) subsystemFrame() core.Frame {
	return s.chassis.Frame().Compose(core.NewFrame(s.location, mgl64.Ident3()))
}

// track records a handle for teardown.
func (s *DoubleWishbone) track(h engine.Handle) {
	s.handles = append(s.handles, h)
}

func (s *DoubleWishbone) count(k engine.Kind) int {
	n := 0
	for _, h := range s.handles {
		if h.Kind() == k {
			n++
		}
	}
	return n
}

// teardownRank orders removal so dependents go before the bodies they reference.
func teardownRank(k engine.Kind) int {
	switch k {
	case engine.KindShaft:
		return 0
	case engine.KindForce:
		return 1
	case engine.KindJoint:
		return 2
	default:
		return 3
	}
}

// teardown removes every tracked handle: shafts, forces, joints, then bodies.
// Handles that fail to deregister are kept for a later attempt.
func (s *DoubleWishbone) teardown() error {
	ordered := make([]engine.Handle, len(s.handles))
	copy(ordered, s.handles)
	sort.SliceStable(ordered, func(i, j int) bool {
		return teardownRank(ordered[i].Kind()) < teardownRank(ordered[j].Kind())
	})

	var errs []error
	var kept []engine.Handle
	for _, h := range ordered {
		if err := s.eng.Remove(h); err != nil {
			errs = append(errs, fmt.Errorf("removing %s %s: %w", h.Kind(), h.Name(), err))
			kept = append(kept, h)
		}
	}
	s.handles = kept
	return errors.Join(errs...)
}

// Remove deregisters the assembly from the engine. The suspension can be
// initialized again afterwards.
func (s *DoubleWishbone) Remove() error {
	if !s.initialized {
		return nil
	}
	if err := s.teardown(); err != nil {
		return err
	}
	s.initialized = false
	s.sides = make(map[core.Side]*sideParts)
	s.logger.Info("suspension removed")
	return nil
}

// buildSide builds one side from its absolute hardpoints. Registered
// handles are tracked even on failure so that Initialize can roll back.
func (s *DoubleWishbone) buildSide(side core.Side, points core.Hardpoints, omega float64) (*sideParts, error) {
	parts := &sideParts{points: points}
	chassisRot := s.chassis.Frame().Rot

	if err := s.buildBodies(side, parts, chassisRot, omega); err != nil {
		return nil, err
	}
	if err := s.buildJoints(side, parts, chassisRot); err != nil {
		return nil, err
	}
	if err := s.buildForces(side, parts, omega); err != nil {
		return nil, err
	}
	s.logger.Debug("side built", "side", side.String(), "tierod", s.tierod.name())
	return parts, nil
}
