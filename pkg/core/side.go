// pkg/core/side.go
package core

// Side identifies the left or right half of a suspension.
type Side int

const (
	Left Side = iota
	Right
)

// Sides lists both sides in build order.
var Sides = [2]Side{Left, Right}

func (s Side) String() string {
	if s == Left {
		return "L"
	}
	return "R"
}

// Suffix is appended to component names.
func (s Side) Suffix() string {
	return "_" + s.String()
}

// Sign is the multiplier applied to toe and camber rotations.
// The left side rotates negatively about the vehicle axes.
func (s Side) Sign() float64 {
	if s == Left {
		return -1
	}
	return 1
}
