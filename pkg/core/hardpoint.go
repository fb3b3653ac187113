// pkg/core/hardpoint.go
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// HardpointID names one of the fixed suspension attachment points.
type HardpointID int

const (
	Spindle       HardpointID = iota // spindle location
	Upright                          // upright location
	UCAFront                         // upper control arm, chassis front
	UCABack                          // upper control arm, chassis back
	UCAUpright                       // upper control arm, upright (outer ball joint)
	UCACM                            // upper control arm, center of mass
	LCAFront                         // lower control arm, chassis front
	LCABack                          // lower control arm, chassis back
	LCAUpright                       // lower control arm, upright (outer ball joint)
	LCACM                            // lower control arm, center of mass
	ShockChassis                     // shock, chassis side
	ShockArm                         // shock, lower arm side
	SpringChassis                    // spring, chassis side
	SpringArm                        // spring, lower arm side
	TierodChassis                    // tierod, chassis or steering link side
	TierodUpright                    // tierod, upright side
	NumHardpoints
)

// ErrMissingHardpoint is returned when a hardpoint table does not define every id.
var ErrMissingHardpoint = errors.New("missing hardpoint")

// ErrUnknownHardpoint is returned when a name does not map to any hardpoint id.
var ErrUnknownHardpoint = errors.New("unknown hardpoint")

// hardpointNames is the diagnostic name table, indexed by HardpointID.
var hardpointNames = [NumHardpoints]string{
	"SPINDLE", "UPRIGHT", "UCA_F", "UCA_B", "UCA_U", "UCA_CM", "LCA_F", "LCA_B",
	"LCA_U", "LCA_CM", "SHOCK_C", "SHOCK_A", "SPRING_C", "SPRING_A", "TIEROD_C", "TIEROD_U",
}

// hardpointKeys are the configuration keys, indexed by HardpointID.
var hardpointKeys = [NumHardpoints]string{
	"spindle", "upright", "ucaFront", "ucaBack", "ucaUpright", "ucaCM", "lcaFront", "lcaBack",
	"lcaUpright", "lcaCM", "shockChassis", "shockArm", "springChassis", "springArm", "tierodChassis", "tierodUpright",
}

func (id HardpointID) String() string {
	if id < 0 || id >= NumHardpoints {
		return fmt.Sprintf("HardpointID(%d)", int(id))
	}
	return hardpointNames[id]
}

// Key returns the configuration key of the hardpoint.
func (id HardpointID) Key() string {
	if id < 0 || id >= NumHardpoints {
		return ""
	}
	return hardpointKeys[id]
}

// ParseHardpointID accepts either the diagnostic name (UCA_F) or the
// configuration key (ucaFront), case-insensitively.
func ParseHardpointID(name string) (HardpointID, error) {
	n := strings.TrimSpace(name)
	for i := HardpointID(0); i < NumHardpoints; i++ {
		if strings.EqualFold(n, hardpointNames[i]) || strings.EqualFold(n, hardpointKeys[i]) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownHardpoint, name)
}

// Hardpoints is a complete table of hardpoint locations for one side.
type Hardpoints [NumHardpoints]mgl64.Vec3

// HardpointsFromMap builds a table, failing if any id is absent.
func HardpointsFromMap(points map[HardpointID]mgl64.Vec3) (Hardpoints, error) {
	var hp Hardpoints
	var missing []string
	for i := HardpointID(0); i < NumHardpoints; i++ {
		p, ok := points[i]
		if !ok {
			missing = append(missing, i.String())
			continue
		}
		hp[i] = p
	}
	if len(missing) > 0 {
		return Hardpoints{}, fmt.Errorf("%w: %s", ErrMissingHardpoint, strings.Join(missing, ", "))
	}
	return hp, nil
}

// Location returns the point for the given id.
func (hp Hardpoints) Location(id HardpointID) mgl64.Vec3 {
	return hp[id]
}

// Mirror reflects every point across the XZ plane (y -> -y).
func (hp Hardpoints) Mirror() Hardpoints {
	var out Hardpoints
	for i, p := range hp {
		out[i] = mgl64.Vec3{p.X(), -p.Y(), p.Z()}
	}
	return out
}

// Transform maps every point from the frame's local coordinates to its parent.
func (hp Hardpoints) Transform(f Frame) Hardpoints {
	var out Hardpoints
	for i, p := range hp {
		out[i] = f.PointToParent(p)
	}
	return out
}

// Midpoint returns the point halfway between two hardpoints.
func (hp Hardpoints) Midpoint(a, b HardpointID) mgl64.Vec3 {
	return hp[a].Add(hp[b]).Mul(0.5)
}
