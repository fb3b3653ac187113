// pkg/core/joint.go
package core

import "fmt"

// JointType is the geometric type of a connection between two bodies.
type JointType int

const (
	Revolute  JointType = iota // one rotational DOF about the joint z axis
	Spherical                  // three rotational DOF
	Universal                  // two rotational DOF about the joint x and y axes
	Distance                   // fixes the distance between two points
)

func (t JointType) String() string {
	switch t {
	case Revolute:
		return "revolute"
	case Spherical:
		return "spherical"
	case Universal:
		return "universal"
	case Distance:
		return "distance"
	default:
		return fmt.Sprintf("JointType(%d)", int(t))
	}
}

// DOF returns the number of scalar constraint equations of the ideal joint.
func (t JointType) DOF() int {
	switch t {
	case Revolute:
		return 5
	case Spherical:
		return 3
	case Universal:
		return 4
	case Distance:
		return 1
	default:
		return 0
	}
}

// JointMode selects how the engine resolves a connection.
type JointMode int

const (
	// Kinematic joints are algebraic constraints solved by the engine.
	Kinematic JointMode = iota
	// Bushing joints are replaced by an elastic 6-DOF load.
	Bushing
)

func (m JointMode) String() string {
	if m == Bushing {
		return "bushing"
	}
	return "kinematic"
}

// BushingData holds the compliance of a bushing. The *DOF values apply to
// the rotational directions the equivalent ideal joint leaves free.
type BushingData struct {
	KLin    float64 `json:"kLin" mapstructure:"kLin"`
	KRot    float64 `json:"kRot" mapstructure:"kRot"`
	DLin    float64 `json:"dLin" mapstructure:"dLin"`
	DRot    float64 `json:"dRot" mapstructure:"dRot"`
	KRotDOF float64 `json:"kRotDof" mapstructure:"kRotDof"`
	DRotDOF float64 `json:"dRotDof" mapstructure:"dRotDof"`
}

// ModeFor returns Bushing when data is present.
func ModeFor(data *BushingData) JointMode {
	if data == nil {
		return Kinematic
	}
	return Bushing
}

// Matrices returns the 6x6 stiffness and damping matrices for a bushing
// standing in for a joint of type t. Rows 0-2 are translations, 3-5 rotations.
func (b BushingData) Matrices(t JointType) (k, d [6][6]float64) {
	for i := 0; i < 3; i++ {
		k[i][i] = b.KLin
		d[i][i] = b.DLin
	}
	for i := 3; i < 6; i++ {
		if rotationFree(t, i-3) {
			k[i][i] = b.KRotDOF
			d[i][i] = b.DRotDOF
		} else {
			k[i][i] = b.KRot
			d[i][i] = b.DRot
		}
	}
	return k, d
}

func rotationFree(t JointType, axis int) bool {
	switch t {
	case Revolute:
		return axis == 2
	case Spherical:
		return true
	case Universal:
		return axis == 0 || axis == 1
	default:
		return false
	}
}
