package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/chassislab/wishbone/internal/geometry"
	"github.com/chassislab/wishbone/internal/suspension"
	"github.com/chassislab/wishbone/pkg/core"
	"github.com/chassislab/wishbone/pkg/forcelaw"
)

// ErrInvalidSuspension is returned when a suspension file cannot be decoded.
var ErrInvalidSuspension = errors.New("invalid suspension definition")

type bodyFile struct {
	Mass     float64   `mapstructure:"mass"`
	Moments  []float64 `mapstructure:"moments"`
	Products []float64 `mapstructure:"products"`
}

type forceFile struct {
	forcelaw.Config `mapstructure:",squash"`
	RestLength      float64 `mapstructure:"restLength"`
}

type radiiFile struct {
	Spindle      float64 `mapstructure:"spindle"`
	SpindleWidth float64 `mapstructure:"spindleWidth"`
	Upright      float64 `mapstructure:"upright"`
	UCA          float64 `mapstructure:"uca"`
	LCA          float64 `mapstructure:"lca"`
	Tierod       float64 `mapstructure:"tierod"`
}

type suspensionFile struct {
	Name                string                       `mapstructure:"name"`
	Bodies              map[string]bodyFile          `mapstructure:"bodies"`
	Radii               radiiFile                    `mapstructure:"radii"`
	ToeAngle            float64                      `mapstructure:"toeAngle"`
	CamberAngle         float64                      `mapstructure:"camberAngle"`
	TierodBodies        bool                         `mapstructure:"tierodBodies"`
	VehicleFrameInertia bool                         `mapstructure:"vehicleFrameInertia"`
	Spring              forceFile                    `mapstructure:"spring"`
	Shock               forceFile                    `mapstructure:"shock"`
	Bushings            map[string]*core.BushingData `mapstructure:"bushings"`
	AxleInertia         float64                      `mapstructure:"axleInertia"`
}

// LoadSuspension reads a suspension definition. The format follows the file
// extension (json, yaml, toml). Hardpoints are given for the left side as
// [x, y, z] lists or "x,y,z" strings.
func LoadSuspension(path string) (suspension.Params, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("axleInertia", 0.4)
	if err := v.ReadInConfig(); err != nil {
		return suspension.Params{}, fmt.Errorf("error reading suspension file: %w", err)
	}

	var file suspensionFile
	if err := v.Unmarshal(&file); err != nil {
		return suspension.Params{}, fmt.Errorf("%w: %w", ErrInvalidSuspension, err)
	}
	if file.Name == "" {
		file.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	hardpoints, err := decodeHardpoints(v.GetStringMap("hardpoints"))
	if err != nil {
		return suspension.Params{}, err
	}

	p := suspension.Params{
		Name:                file.Name,
		Hardpoints:          hardpoints,
		SpindleRadius:       file.Radii.Spindle,
		SpindleWidth:        file.Radii.SpindleWidth,
		UprightRadius:       file.Radii.Upright,
		UCARadius:           file.Radii.UCA,
		LCARadius:           file.Radii.LCA,
		TierodRadius:        file.Radii.Tierod,
		ToeAngle:            file.ToeAngle,
		CamberAngle:         file.CamberAngle,
		UseTierodBodies:     file.TierodBodies,
		VehicleFrameInertia: file.VehicleFrameInertia,
		SpringRestLength:    file.Spring.RestLength,
		ShockRestLength:     file.Shock.RestLength,
		AxleInertia:         file.AxleInertia,
	}

	bodies := map[string]*core.BodyProps{
		"spindle": &p.Spindle,
		"upright": &p.Upright,
		"uca":     &p.UCA,
		"lca":     &p.LCA,
		"tierod":  &p.Tierod,
	}
	for name, b := range file.Bodies {
		dst, ok := bodies[strings.ToLower(name)]
		if !ok {
			return suspension.Params{}, fmt.Errorf("%w: unknown body %q", ErrInvalidSuspension, name)
		}
		props, err := b.props()
		if err != nil {
			return suspension.Params{}, fmt.Errorf("%w: body %s: %w", ErrInvalidSuspension, name, err)
		}
		*dst = props
	}

	bushings := map[string]**core.BushingData{
		"uca":     &p.Bushings.UCA,
		"lca":     &p.Bushings.LCA,
		"ucaball": &p.Bushings.UCABall,
		"lcaball": &p.Bushings.LCABall,
		"tierod":  &p.Bushings.Tierod,
	}
	for name, b := range file.Bushings {
		dst, ok := bushings[strings.ToLower(name)]
		if !ok {
			return suspension.Params{}, fmt.Errorf("%w: unknown bushing group %q", ErrInvalidSuspension, name)
		}
		*dst = b
	}

	if p.SpringLaw, err = forcelaw.FromConfig(file.Spring.Config, file.Spring.RestLength); err != nil {
		return suspension.Params{}, fmt.Errorf("%w: spring: %w", ErrInvalidSuspension, err)
	}
	if p.ShockLaw, err = forcelaw.FromConfig(file.Shock.Config, file.Shock.RestLength); err != nil {
		return suspension.Params{}, fmt.Errorf("%w: shock: %w", ErrInvalidSuspension, err)
	}

	return p, nil
}

func (b bodyFile) props() (core.BodyProps, error) {
	moments, err := geometry.PointFromSlice(b.Moments)
	if err != nil {
		return core.BodyProps{}, fmt.Errorf("moments: %w", err)
	}
	var products mgl64.Vec3
	if len(b.Products) > 0 {
		if products, err = geometry.PointFromSlice(b.Products); err != nil {
			return core.BodyProps{}, fmt.Errorf("products: %w", err)
		}
	}
	return core.BodyProps{Mass: b.Mass, Moments: moments, Products: products}, nil
}

// decodeHardpoints accepts lists and strings. Keys are matched
// case-insensitively since viper lowercases them.
func decodeHardpoints(raw map[string]any) (core.Hardpoints, error) {
	points := make(map[core.HardpointID]mgl64.Vec3, len(raw))
	for key, value := range raw {
		id, err := core.ParseHardpointID(key)
		if err != nil {
			return core.Hardpoints{}, fmt.Errorf("%w: %w", ErrInvalidSuspension, err)
		}
		p, err := decodePoint(value)
		if err != nil {
			return core.Hardpoints{}, fmt.Errorf("%w: hardpoint %s: %w", ErrInvalidSuspension, id, err)
		}
		points[id] = p
	}
	hp, err := core.HardpointsFromMap(points)
	if err != nil {
		return core.Hardpoints{}, fmt.Errorf("%w: %w", ErrInvalidSuspension, err)
	}
	return hp, nil
}

func decodePoint(value any) (mgl64.Vec3, error) {
	if s, ok := value.(string); ok {
		return geometry.PointFromString(s)
	}
	items, err := cast.ToSliceE(value)
	if err != nil {
		return mgl64.Vec3{}, geometry.ErrInvalidCoordinates
	}
	values := make([]float64, len(items))
	for i, item := range items {
		if values[i], err = cast.ToFloat64E(item); err != nil {
			return mgl64.Vec3{}, geometry.ErrInvalidCoordinates
		}
	}
	return geometry.PointFromSlice(values)
}
