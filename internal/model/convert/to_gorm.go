// Package convert provides functions to convert between engine handles and GORM models
package convert

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gorm.io/datatypes"

	"github.com/chassislab/wishbone/internal/engine"
	"github.com/chassislab/wishbone/internal/geometry"
	"github.com/chassislab/wishbone/internal/model"
	"github.com/chassislab/wishbone/internal/suspension"
	"github.com/chassislab/wishbone/pkg/core"
)

// mat3ToJSON stores a matrix as its nine column-major entries.
func mat3ToJSON(m mgl64.Mat3) datatypes.JSON {
	data, _ := json.Marshal(m[:])
	return datatypes.JSON(data)
}

// vec3ToJSON stores a vector as [x, y, z].
func vec3ToJSON(v mgl64.Vec3) datatypes.JSON {
	data, _ := json.Marshal(v[:])
	return datatypes.JSON(data)
}

// bushingJSON is the stored shape of a bushing: the configured data plus the
// 6x6 diagonals it expands to for the joint type.
type bushingJSON struct {
	Data      core.BushingData `json:"data"`
	Stiffness [6]float64       `json:"stiffness"`
	Damping   [6]float64       `json:"damping"`
}

// bushingToJSON returns nil for kinematic joints.
func bushingToJSON(t core.JointType, b *core.BushingData) datatypes.JSON {
	if b == nil {
		return nil
	}
	k, d := b.Matrices(t)
	out := bushingJSON{Data: *b}
	for i := 0; i < 6; i++ {
		out.Stiffness[i] = k[i][i]
		out.Damping[i] = d[i][i]
	}
	data, _ := json.Marshal(out)
	return datatypes.JSON(data)
}

func handleName(b engine.Body) string {
	if b == nil {
		return ""
	}
	return b.Name()
}

// BodyToRecord converts a registered body to a GORM model.Body.
func BodyToRecord(runID uint, b engine.Body) (model.Body, error) {
	f := b.Frame()
	pos, err := geometry.PointToGeom(f.Pos)
	if err != nil {
		return model.Body{}, fmt.Errorf("body %s position: %w", b.Name(), err)
	}
	return model.Body{
		RunID:    runID,
		HandleID: b.ID(),
		Name:     b.Name(),
		Position: pos,
		Rotation: mat3ToJSON(f.Rot),
		Mass:     b.Mass(),
		Inertia:  mat3ToJSON(b.Inertia()),
		AngVel:   vec3ToJSON(b.AngVelLocal()),
	}, nil
}

// JointToRecord converts a registered joint to a GORM model.Joint. Distance
// joints are anchored at PointA.
func JointToRecord(runID uint, spec engine.JointSpec, j engine.Joint) (model.Joint, error) {
	anchor := spec.Frame.Pos
	if spec.Type == core.Distance {
		anchor = spec.PointA
	}
	pt, err := geometry.PointToGeom(anchor)
	if err != nil {
		return model.Joint{}, fmt.Errorf("joint %s anchor: %w", j.Name(), err)
	}
	return model.Joint{
		RunID:    runID,
		HandleID: j.ID(),
		Name:     j.Name(),
		Type:     j.Type().String(),
		Mode:     j.Mode().String(),
		BodyA:    handleName(spec.BodyA),
		BodyB:    handleName(spec.BodyB),
		Anchor:   pt,
		Rotation: mat3ToJSON(spec.Frame.Rot),
		Bushing:  bushingToJSON(spec.Type, spec.Bushing),
	}, nil
}

// ForceToRecord converts a registered spring-damper to a GORM model.ForceElement.
func ForceToRecord(runID uint, spec engine.ForceSpec, f engine.Force) (model.ForceElement, error) {
	a, err := geometry.PointToGeom(spec.PointA)
	if err != nil {
		return model.ForceElement{}, fmt.Errorf("force %s anchor A: %w", f.Name(), err)
	}
	b, err := geometry.PointToGeom(spec.PointB)
	if err != nil {
		return model.ForceElement{}, fmt.Errorf("force %s anchor B: %w", f.Name(), err)
	}
	return model.ForceElement{
		RunID:      runID,
		HandleID:   f.ID(),
		Name:       f.Name(),
		BodyA:      handleName(spec.BodyA),
		BodyB:      handleName(spec.BodyB),
		AnchorA:    a,
		AnchorB:    b,
		RestLength: f.RestLength(),
	}, nil
}

// ShaftToRecord converts a registered shaft to a GORM model.Shaft.
func ShaftToRecord(runID uint, spec engine.ShaftSpec, s engine.Shaft) model.Shaft {
	return model.Shaft{
		RunID:     runID,
		HandleID:  s.ID(),
		Name:      s.Name(),
		Body:      handleName(spec.Body),
		Inertia:   s.Inertia(),
		Speed:     s.Speed(),
		Direction: vec3ToJSON(spec.Dir),
	}
}

// RemovalToRecord records h leaving the engine at t.
func RemovalToRecord(runID uint, h engine.Handle, t time.Time) model.Removal {
	return model.Removal{
		RunID:    runID,
		Time:     t,
		HandleID: h.ID(),
		Kind:     h.Kind().String(),
		Name:     h.Name(),
	}
}

// AssemblyToRecord summarises a built suspension. Hardpoints are keyed by
// their diagnostic names.
func AssemblyToRecord(runID uint, s *suspension.DoubleWishbone) (model.Assembly, error) {
	com, err := geometry.PointToGeom(s.COM())
	if err != nil {
		return model.Assembly{}, fmt.Errorf("assembly %s center of mass: %w", s.Name(), err)
	}

	hardpoints := s.Hardpoints()
	points := make(map[string][]float64, core.NumHardpoints)
	for id := core.HardpointID(0); id < core.NumHardpoints; id++ {
		p := hardpoints.Location(id)
		points[id.String()] = []float64{p.X(), p.Y(), p.Z()}
	}
	hpJSON, _ := json.Marshal(points)

	strategy := "distance"
	if s.UseTierodBodies() {
		strategy = "body"
	}

	return model.Assembly{
		RunID:               runID,
		Name:                s.Name(),
		TierodStrategy:      strategy,
		VehicleFrameInertia: s.VehicleFrameInertia(),
		Mass:                s.Mass(),
		COM:                 com,
		Inertia:             mat3ToJSON(s.Inertia()),
		Track:               s.Track(),
		Hardpoints:          datatypes.JSON(hpJSON),
	}, nil
}

// ForceReportsToSamples converts ReportSuspensionForce output to GORM rows.
func ForceReportsToSamples(runID uint, assembly string, side core.Side, reports []core.ForceReport, t time.Time) []model.ForceSample {
	out := make([]model.ForceSample, 0, len(reports))
	for _, r := range reports {
		out = append(out, model.ForceSample{
			Time:     t,
			RunID:    runID,
			Assembly: assembly,
			Side:     side.String(),
			Element:  r.Name,
			Force:    r.Force,
			Length:   r.Length,
			Rate:     r.Rate,
		})
	}
	return out
}
