// Package forcelaw provides simple spring and damper laws for two-point
// force elements and builds them from configuration.
package forcelaw

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chassislab/wishbone/pkg/core"
)

// Model names accepted in the "model" discriminator.
const (
	SpringModelName       = "spring"
	DamperModelName       = "damper"
	SpringDamperModelName = "spring-damper"
)

// ErrUnknownModel is returned by FromConfig for an unrecognised discriminator.
var ErrUnknownModel = errors.New("unknown force law model")

// LinearSpring pushes the anchors apart when compressed below RestLength.
// Preload is the force at rest length.
type LinearSpring struct {
	Stiffness  float64
	RestLength float64
	Preload    float64
}

func (s LinearSpring) Force(length, rate float64) float64 {
	return s.Preload - s.Stiffness*(length-s.RestLength)
}

// LinearDamper opposes the extension rate.
type LinearDamper struct {
	Damping float64
}

func (d LinearDamper) Force(length, rate float64) float64 {
	return -d.Damping * rate
}

// SpringDamper is a LinearSpring and LinearDamper acting in parallel.
type SpringDamper struct {
	LinearSpring
	LinearDamper
}

func (sd SpringDamper) Force(length, rate float64) float64 {
	return sd.LinearSpring.Force(length, rate) + sd.LinearDamper.Force(length, rate)
}

// Config is the configuration shape of a force law. Model selects the
// implementation; the remaining fields are read by the models that use them.
type Config struct {
	Model     string  `json:"model" mapstructure:"model"`
	Stiffness float64 `json:"stiffness" mapstructure:"stiffness"`
	Damping   float64 `json:"damping" mapstructure:"damping"`
	Preload   float64 `json:"preload" mapstructure:"preload"`
}

// FromConfig builds the law selected by cfg.Model. restLength is the rest
// length of the element the law is attached to.
func FromConfig(cfg Config, restLength float64) (core.ForceLaw, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Model)) {
	case SpringModelName:
		return LinearSpring{Stiffness: cfg.Stiffness, RestLength: restLength, Preload: cfg.Preload}, nil
	case DamperModelName:
		return LinearDamper{Damping: cfg.Damping}, nil
	case SpringDamperModelName:
		return SpringDamper{
			LinearSpring: LinearSpring{Stiffness: cfg.Stiffness, RestLength: restLength, Preload: cfg.Preload},
			LinearDamper: LinearDamper{Damping: cfg.Damping},
		}, nil
	case "":
		return nil, fmt.Errorf("%w: missing \"model\" field", ErrUnknownModel)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, cfg.Model)
	}
}
