// internal/engine/memory/memory.go
package memory

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chassislab/wishbone/internal/engine"
	"github.com/chassislab/wishbone/pkg/core"
)

// Engine is an in-memory registry of bodies, joints, forces and shafts. It
// does not integrate anything: poses and velocities change only through
// Body.SetState, which lets callers evaluate constraint residuals and force
// elements at arbitrary configurations.
type Engine struct {
	bodies map[uint64]*Body
	joints map[uint64]*Joint
	forces map[uint64]*Force
	shafts map[uint64]*Shaft

	idCounter uint64
	mu        sync.RWMutex
}

// New creates an empty engine.
func New() *Engine {
	return &Engine{
		bodies: make(map[uint64]*Body),
		joints: make(map[uint64]*Joint),
		forces: make(map[uint64]*Force),
		shafts: make(map[uint64]*Shaft),
	}
}

func (e *Engine) nextID() uint64 {
	e.idCounter++
	return e.idCounter
}

// NewBody creates an unregistered body.
func (e *Engine) NewBody(spec engine.BodySpec) (engine.Body, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: body without name", engine.ErrInvalidSpec)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	return &Body{
		id:      e.nextID(),
		name:    spec.Name,
		owner:   e,
		frame:   spec.Frame,
		mass:    spec.Mass,
		inertia: spec.Inertia,
		linVel:  spec.LinVel,
		angVel:  spec.AngVelLocal,
	}, nil
}

// AddBody registers a body created by NewBody.
func (e *Engine) AddBody(b engine.Body) error {
	mb, err := e.own(b)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.bodies[mb.id]; ok {
		return fmt.Errorf("%w: %s", engine.ErrDuplicateHandle, mb.name)
	}
	e.bodies[mb.id] = mb
	return nil
}

// AddJoint registers a joint and retains both bodies.
func (e *Engine) AddJoint(spec engine.JointSpec) (engine.Joint, error) {
	a, b, err := e.registeredPair(spec.BodyA, spec.BodyB)
	if err != nil {
		return nil, fmt.Errorf("joint %s: %w", spec.Name, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	j := &Joint{
		id:    e.nextID(),
		name:  spec.Name,
		owner: e,
		typ:   spec.Type,
		frame: spec.Frame,
		a:     a,
		b:     b,
	}
	if spec.Bushing != nil {
		data := *spec.Bushing
		j.bushing = &data
	}
	if spec.Type == core.Distance {
		j.pointA = a.frame.PointToLocal(spec.PointA)
		j.pointB = b.frame.PointToLocal(spec.PointB)
		j.distance = spec.PointB.Sub(spec.PointA).Len()
	} else {
		j.localA = a.frame.Relative(spec.Frame)
		j.localB = b.frame.Relative(spec.Frame)
	}

	a.refs.Retain()
	b.refs.Retain()
	e.joints[j.id] = j
	return j, nil
}

// AddForce registers a spring-damper and retains both bodies.
func (e *Engine) AddForce(spec engine.ForceSpec) (engine.Force, error) {
	if spec.Law == nil {
		return nil, fmt.Errorf("%w: force %s without law", engine.ErrInvalidSpec, spec.Name)
	}
	a, b, err := e.registeredPair(spec.BodyA, spec.BodyB)
	if err != nil {
		return nil, fmt.Errorf("force %s: %w", spec.Name, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	f := &Force{
		id:     e.nextID(),
		name:   spec.Name,
		owner:  e,
		a:      a,
		b:      b,
		pointA: a.frame.PointToLocal(spec.PointA),
		pointB: b.frame.PointToLocal(spec.PointB),
		rest:   spec.RestLength,
		law:    spec.Law,
	}
	a.refs.Retain()
	b.refs.Retain()
	e.forces[f.id] = f
	return f, nil
}

// AddShaft registers a shaft and retains the body it drives.
func (e *Engine) AddShaft(spec engine.ShaftSpec) (engine.Shaft, error) {
	if spec.Inertia <= 0 {
		return nil, fmt.Errorf("%w: shaft %s inertia %g", engine.ErrInvalidSpec, spec.Name, spec.Inertia)
	}
	body, err := e.registered(spec.Body)
	if err != nil {
		return nil, fmt.Errorf("shaft %s: %w", spec.Name, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	s := &Shaft{
		id:      e.nextID(),
		name:    spec.Name,
		owner:   e,
		body:    body,
		dir:     spec.Dir,
		inertia: spec.Inertia,
		speed:   spec.Speed,
	}
	body.refs.Retain()
	e.shafts[s.id] = s
	return s, nil
}

// Remove deregisters a handle. Bodies with dependents are refused with
// engine.ErrInUse.
func (e *Engine) Remove(h engine.Handle) error {
	if h == nil {
		return engine.ErrUnknownHandle
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	switch v := h.(type) {
	case *Body:
		if v.owner != e {
			return engine.ErrForeignHandle
		}
		if _, ok := e.bodies[v.id]; !ok {
			return fmt.Errorf("%w: %s", engine.ErrUnknownHandle, v.name)
		}
		if n := v.refs.Dependents(); n > 0 {
			return fmt.Errorf("%w: %s has %d dependents", engine.ErrInUse, v.name, n)
		}
		delete(e.bodies, v.id)
	case *Joint:
		if v.owner != e {
			return engine.ErrForeignHandle
		}
		if _, ok := e.joints[v.id]; !ok {
			return fmt.Errorf("%w: %s", engine.ErrUnknownHandle, v.name)
		}
		v.a.refs.Release()
		v.b.refs.Release()
		delete(e.joints, v.id)
	case *Force:
		if v.owner != e {
			return engine.ErrForeignHandle
		}
		if _, ok := e.forces[v.id]; !ok {
			return fmt.Errorf("%w: %s", engine.ErrUnknownHandle, v.name)
		}
		v.a.refs.Release()
		v.b.refs.Release()
		delete(e.forces, v.id)
	case *Shaft:
		if v.owner != e {
			return engine.ErrForeignHandle
		}
		if _, ok := e.shafts[v.id]; !ok {
			return fmt.Errorf("%w: %s", engine.ErrUnknownHandle, v.name)
		}
		v.body.refs.Release()
		delete(e.shafts, v.id)
	default:
		return engine.ErrForeignHandle
	}
	return nil
}

// Counts returns the number of registered handles per kind.
func (e *Engine) Counts() map[engine.Kind]int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return map[engine.Kind]int{
		engine.KindBody:  len(e.bodies),
		engine.KindJoint: len(e.joints),
		engine.KindForce: len(e.forces),
		engine.KindShaft: len(e.shafts),
	}
}

// Bodies returns the registered bodies ordered by creation.
func (e *Engine) Bodies() []*Body {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*Body, 0, len(e.bodies))
	for _, b := range e.bodies {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Joints returns the registered joints ordered by creation.
func (e *Engine) Joints() []*Joint {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*Joint, 0, len(e.joints))
	for _, j := range e.joints {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// own checks that b was created by e.
func (e *Engine) own(b engine.Body) (*Body, error) {
	mb, ok := b.(*Body)
	if !ok || mb == nil {
		return nil, engine.ErrForeignHandle
	}
	if mb.owner != e {
		return nil, engine.ErrForeignHandle
	}
	return mb, nil
}

func (e *Engine) registered(b engine.Body) (*Body, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil body", engine.ErrInvalidSpec)
	}
	mb, err := e.own(b)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if _, ok := e.bodies[mb.id]; !ok {
		return nil, fmt.Errorf("%w: body %s is not registered", engine.ErrUnknownHandle, mb.name)
	}
	return mb, nil
}

func (e *Engine) registeredPair(a, b engine.Body) (*Body, *Body, error) {
	ma, err := e.registered(a)
	if err != nil {
		return nil, nil, err
	}
	mb, err := e.registered(b)
	if err != nil {
		return nil, nil, err
	}
	return ma, mb, nil
}

// Body is a rigid body held by Engine.
type Body struct {
	id    uint64
	name  string
	owner *Engine
	refs  engine.RefCount

	frame   core.Frame
	mass    float64
	inertia mgl64.Mat3
	linVel  mgl64.Vec3
	angVel  mgl64.Vec3 // body axes
}

func (b *Body) ID() uint64        { return b.id }
func (b *Body) Name() string      { return b.name }
func (b *Body) Kind() engine.Kind { return engine.KindBody }

func (b *Body) Frame() core.Frame {
	b.owner.mu.RLock()
	defer b.owner.mu.RUnlock()
	return b.frame
}

func (b *Body) Mass() float64 {
	return b.mass
}

func (b *Body) Inertia() mgl64.Mat3 {
	return b.inertia
}

func (b *Body) LinVel() mgl64.Vec3 {
	b.owner.mu.RLock()
	defer b.owner.mu.RUnlock()
	return b.linVel
}

func (b *Body) AngVelLocal() mgl64.Vec3 {
	b.owner.mu.RLock()
	defer b.owner.mu.RUnlock()
	return b.angVel
}

func (b *Body) PointVel(p mgl64.Vec3) mgl64.Vec3 {
	b.owner.mu.RLock()
	defer b.owner.mu.RUnlock()
	return b.pointVel(p)
}

func (b *Body) pointVel(p mgl64.Vec3) mgl64.Vec3 {
	w := b.frame.DirToParent(b.angVel)
	return b.linVel.Add(w.Cross(p.Sub(b.frame.Pos)))
}

// Dependents returns the number of joints, forces and shafts referencing b.
func (b *Body) Dependents() int {
	return b.refs.Dependents()
}

// SetState moves the body. Angular velocity is in body axes.
func (b *Body) SetState(frame core.Frame, linVel, angVelLocal mgl64.Vec3) {
	b.owner.mu.Lock()
	defer b.owner.mu.Unlock()
	b.frame = frame
	b.linVel = linVel
	b.angVel = angVelLocal
}

// Joint is a joint held by Engine.
type Joint struct {
	id    uint64
	name  string
	owner *Engine

	typ     core.JointType
	frame   core.Frame
	bushing *core.BushingData
	a, b    *Body

	// joint frame relative to each body
	localA, localB core.Frame
	// distance joints
	pointA, pointB mgl64.Vec3
	distance       float64
}

func (j *Joint) ID() uint64           { return j.id }
func (j *Joint) Name() string         { return j.name }
func (j *Joint) Kind() engine.Kind    { return engine.KindJoint }
func (j *Joint) Type() core.JointType { return j.typ }
func (j *Joint) Frame() core.Frame    { return j.frame }

func (j *Joint) Mode() core.JointMode {
	return core.ModeFor(j.bushing)
}

// Bushing returns the compliance data, nil for kinematic joints.
func (j *Joint) Bushing() *core.BushingData {
	return j.bushing
}

// Bodies returns the connected bodies.
func (j *Joint) Bodies() (*Body, *Body) {
	return j.a, j.b
}

// Violation evaluates the constraint residuals at the current body poses.
func (j *Joint) Violation() []float64 {
	if j.bushing != nil {
		return nil
	}
	j.owner.mu.RLock()
	defer j.owner.mu.RUnlock()

	if j.typ == core.Distance {
		pa := j.a.frame.PointToParent(j.pointA)
		pb := j.b.frame.PointToParent(j.pointB)
		return []float64{pb.Sub(pa).Len() - j.distance}
	}

	fa := j.a.frame.Compose(j.localA)
	fb := j.b.frame.Compose(j.localB)
	d := fb.Pos.Sub(fa.Pos)
	pos := []float64{d.X(), d.Y(), d.Z()}

	switch j.typ {
	case core.Revolute:
		zb := fb.Axis(2)
		return append(pos, zb.Dot(fa.Axis(0)), zb.Dot(fa.Axis(1)))
	case core.Universal:
		return append(pos, fa.Axis(0).Dot(fb.Axis(1)))
	default:
		return pos
	}
}

// Force is a spring-damper held by Engine.
type Force struct {
	id    uint64
	name  string
	owner *Engine

	a, b           *Body
	pointA, pointB mgl64.Vec3 // body-local anchors
	rest           float64
	law            core.ForceLaw
}

func (f *Force) ID() uint64          { return f.id }
func (f *Force) Name() string        { return f.name }
func (f *Force) Kind() engine.Kind   { return engine.KindForce }
func (f *Force) RestLength() float64 { return f.rest }

// Points returns the current absolute anchor positions.
func (f *Force) Points() (mgl64.Vec3, mgl64.Vec3) {
	f.owner.mu.RLock()
	defer f.owner.mu.RUnlock()
	return f.anchors()
}

func (f *Force) anchors() (mgl64.Vec3, mgl64.Vec3) {
	return f.a.frame.PointToParent(f.pointA), f.b.frame.PointToParent(f.pointB)
}

func (f *Force) Length() float64 {
	l, _ := f.state()
	return l
}

func (f *Force) Rate() float64 {
	_, r := f.state()
	return r
}

// Force evaluates the law at the current length and rate.
func (f *Force) Force() float64 {
	l, r := f.state()
	return f.law.Force(l, r)
}

func (f *Force) state() (length, rate float64) {
	f.owner.mu.RLock()
	defer f.owner.mu.RUnlock()

	pa, pb := f.anchors()
	d := pb.Sub(pa)
	length = d.Len()
	if length == 0 || math.IsNaN(length) {
		return length, 0
	}
	rel := f.b.pointVel(pb).Sub(f.a.pointVel(pa))
	return length, rel.Dot(d.Mul(1 / length))
}

// Shaft is a shaft held by Engine.
type Shaft struct {
	id    uint64
	name  string
	owner *Engine

	body    *Body
	dir     mgl64.Vec3
	inertia float64
	speed   float64
}

func (s *Shaft) ID() uint64        { return s.id }
func (s *Shaft) Name() string      { return s.name }
func (s *Shaft) Kind() engine.Kind { return engine.KindShaft }
func (s *Shaft) Inertia() float64  { return s.inertia }

func (s *Shaft) Speed() float64 {
	s.owner.mu.RLock()
	defer s.owner.mu.RUnlock()
	return s.speed
}

// Dir returns the connection direction in body axes.
func (s *Shaft) Dir() mgl64.Vec3 {
	return s.dir
}
