// pkg/core/frame.go
package core

import "github.com/go-gl/mathgl/mgl64"

// Frame is a position plus orientation. The columns of Rot are the frame's
// x, y and z axes expressed in the parent frame.
type Frame struct {
	Pos mgl64.Vec3
	Rot mgl64.Mat3
}

// IdentityFrame returns a frame at the origin aligned with its parent.
func IdentityFrame() Frame {
	return Frame{Rot: mgl64.Ident3()}
}

// NewFrame builds a frame from a position and rotation.
func NewFrame(pos mgl64.Vec3, rot mgl64.Mat3) Frame {
	return Frame{Pos: pos, Rot: rot}
}

// PointToParent expresses a local point in the parent frame.
func (f Frame) PointToParent(p mgl64.Vec3) mgl64.Vec3 {
	return f.Pos.Add(f.Rot.Mul3x1(p))
}

// PointToLocal expresses a parent point in this frame.
func (f Frame) PointToLocal(p mgl64.Vec3) mgl64.Vec3 {
	return f.Rot.Transpose().Mul3x1(p.Sub(f.Pos))
}

// DirToParent rotates a local direction into the parent frame.
func (f Frame) DirToParent(d mgl64.Vec3) mgl64.Vec3 {
	return f.Rot.Mul3x1(d)
}

// DirToLocal rotates a parent direction into this frame.
func (f Frame) DirToLocal(d mgl64.Vec3) mgl64.Vec3 {
	return f.Rot.Transpose().Mul3x1(d)
}

// Compose returns child (expressed in f) expressed in f's parent.
func (f Frame) Compose(child Frame) Frame {
	return Frame{
		Pos: f.PointToParent(child.Pos),
		Rot: f.Rot.Mul3(child.Rot),
	}
}

// Relative returns other expressed in f.
func (f Frame) Relative(other Frame) Frame {
	return Frame{
		Pos: f.PointToLocal(other.Pos),
		Rot: f.Rot.Transpose().Mul3(other.Rot),
	}
}

// Axis returns column i of the rotation (0=x, 1=y, 2=z).
func (f Frame) Axis(i int) mgl64.Vec3 {
	return f.Rot.Col(i)
}
