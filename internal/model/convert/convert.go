package convert

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"gorm.io/datatypes"

	"github.com/chassislab/wishbone/internal/geometry"
	"github.com/chassislab/wishbone/internal/model"
	"github.com/chassislab/wishbone/pkg/core"
)

// jsonToMat3 decodes nine column-major entries.
func jsonToMat3(data datatypes.JSON) (mgl64.Mat3, error) {
	var vals []float64
	if err := json.Unmarshal(data, &vals); err != nil {
		return mgl64.Mat3{}, err
	}
	if len(vals) != 9 {
		return mgl64.Mat3{}, fmt.Errorf("expected 9 matrix entries, got %d", len(vals))
	}
	var m mgl64.Mat3
	copy(m[:], vals)
	return m, nil
}

// RecordToFrame converts a stored body back to its registration frame.
func RecordToFrame(b model.Body) (core.Frame, error) {
	rot, err := jsonToMat3(b.Rotation)
	if err != nil {
		return core.Frame{}, fmt.Errorf("body %s rotation: %w", b.Name, err)
	}
	return core.NewFrame(geometry.PointFromGeom(b.Position), rot), nil
}

// RecordToInertia decodes the stored body-axis inertia.
func RecordToInertia(b model.Body) (mgl64.Mat3, error) {
	I, err := jsonToMat3(b.Inertia)
	if err != nil {
		return mgl64.Mat3{}, fmt.Errorf("body %s inertia: %w", b.Name, err)
	}
	return I, nil
}

// RecordToBushing decodes the stored bushing data, nil for kinematic joints.
func RecordToBushing(j model.Joint) (*core.BushingData, error) {
	if len(j.Bushing) == 0 || string(j.Bushing) == "null" {
		return nil, nil
	}
	var b bushingJSON
	if err := json.Unmarshal(j.Bushing, &b); err != nil {
		return nil, fmt.Errorf("joint %s bushing: %w", j.Name, err)
	}
	return &b.Data, nil
}
