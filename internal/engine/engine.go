// internal/engine/engine.go
package engine

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chassislab/wishbone/pkg/core"
)

var (
	// ErrInUse is returned when removing a body that joints, forces or shafts still reference.
	ErrInUse = errors.New("handle is still referenced")
	// ErrUnknownHandle is returned for handles that are not (or no longer) registered.
	ErrUnknownHandle = errors.New("unknown handle")
	// ErrForeignHandle is returned for handles created by a different engine.
	ErrForeignHandle = errors.New("handle belongs to another engine")
	// ErrDuplicateHandle is returned when registering a body twice.
	ErrDuplicateHandle = errors.New("handle already registered")
	// ErrInvalidSpec is returned for specs missing a required field.
	ErrInvalidSpec = errors.New("invalid spec")
)

// Kind is the registry a handle lives in.
type Kind int

const (
	KindBody Kind = iota
	KindJoint
	KindForce
	KindShaft
)

func (k Kind) String() string {
	switch k {
	case KindBody:
		return "body"
	case KindJoint:
		return "joint"
	case KindForce:
		return "force"
	case KindShaft:
		return "shaft"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Handle is anything an Engine has registered.
type Handle interface {
	ID() uint64
	Name() string
	Kind() Kind
}

// Body is a rigid body owned by an Engine.
type Body interface {
	Handle
	// Frame is the center-of-mass frame in absolute coordinates.
	Frame() core.Frame
	Mass() float64
	// Inertia is about the center of mass, in body axes.
	Inertia() mgl64.Mat3
	LinVel() mgl64.Vec3
	// AngVelLocal is the angular velocity in body axes.
	AngVelLocal() mgl64.Vec3
	// PointVel is the absolute velocity of an absolute point moving with the body.
	PointVel(p mgl64.Vec3) mgl64.Vec3
}

// Joint connects two bodies.
type Joint interface {
	Handle
	Type() core.JointType
	Mode() core.JointMode
	// Frame is the joint frame in absolute coordinates at creation time.
	Frame() core.Frame
	// Violation returns Type().DOF() residuals for kinematic joints and nil
	// for bushings.
	Violation() []float64
}

// Force is a two-point translational spring-damper.
type Force interface {
	Handle
	Length() float64
	Rate() float64
	Force() float64
	RestLength() float64
}

// Shaft is a one-dimensional rotational element attached to a body.
type Shaft interface {
	Handle
	Speed() float64
	Inertia() float64
}

// BodySpec describes a body for NewBody.
type BodySpec struct {
	Name        string
	Frame       core.Frame
	Mass        float64
	Inertia     mgl64.Mat3
	LinVel      mgl64.Vec3
	AngVelLocal mgl64.Vec3
}

// JointSpec describes a joint for AddJoint. Frame is absolute. Distance
// joints use PointA and PointB (absolute) instead of Frame, and fix the
// distance between them to its value at creation.
type JointSpec struct {
	Name    string
	Type    core.JointType
	Frame   core.Frame
	BodyA   Body
	BodyB   Body
	Bushing *core.BushingData
	PointA  mgl64.Vec3
	PointB  mgl64.Vec3
}

// ForceSpec describes a spring-damper between two absolute points.
type ForceSpec struct {
	Name       string
	BodyA      Body
	PointA     mgl64.Vec3
	BodyB      Body
	PointB     mgl64.Vec3
	RestLength float64
	Law        core.ForceLaw
}

// ShaftSpec describes a shaft connected to Body along Dir (body axes).
type ShaftSpec struct {
	Name    string
	Inertia float64
	Speed   float64
	Body    Body
	Dir     mgl64.Vec3
}

// Engine is the multibody system the suspension registers its parts with.
type Engine interface {
	NewBody(spec BodySpec) (Body, error)
	AddBody(b Body) error
	AddJoint(spec JointSpec) (Joint, error)
	AddForce(spec ForceSpec) (Force, error)
	AddShaft(spec ShaftSpec) (Shaft, error)
	Remove(h Handle) error
}

// RefCount counts the dependents of a handle.
type RefCount struct {
	n atomic.Int64
}

// Retain records one more dependent.
func (r *RefCount) Retain() {
	r.n.Add(1)
}

// Release drops one dependent. It never goes below zero.
func (r *RefCount) Release() {
	for {
		cur := r.n.Load()
		if cur == 0 {
			return
		}
		if r.n.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// Dependents returns the current count.
func (r *RefCount) Dependents() int {
	return int(r.n.Load())
}
