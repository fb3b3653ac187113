package suspension

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/chassislab/wishbone/pkg/core"
)

const instrumentationName = "github.com/chassislab/wishbone/internal/suspension"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// metrics counts what the builder registers. The global meter is a no-op
// unless a provider has been installed.
type metrics struct {
	bodies metric.Int64Counter
	joints metric.Int64Counter
	forces metric.Int64Counter
	failed metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := meter()
	var (
		out metrics
		err error
	)

	out.bodies, err = m.Int64Counter(
		"suspension.bodies.created",
		metric.WithDescription("Rigid bodies registered with the engine"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bodies counter: %w", err)
	}

	out.joints, err = m.Int64Counter(
		"suspension.joints.created",
		metric.WithDescription("Joints registered with the engine, by type and mode"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating joints counter: %w", err)
	}

	out.forces, err = m.Int64Counter(
		"suspension.forces.created",
		metric.WithDescription("Spring and damper elements registered with the engine"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating forces counter: %w", err)
	}

	out.failed, err = m.Int64Counter(
		"suspension.builds.failed",
		metric.WithDescription("Suspension builds aborted by an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed builds counter: %w", err)
	}

	return &out, nil
}

func (m *metrics) bodyCreated(name string) {
	m.bodies.Add(context.Background(), 1, metric.WithAttributes(attribute.String("suspension", name)))
}

func (m *metrics) jointCreated(name string, t core.JointType, mode core.JointMode) {
	m.joints.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("suspension", name),
		attribute.String("type", t.String()),
		attribute.String("mode", mode.String()),
	))
}

func (m *metrics) forceCreated(name string) {
	m.forces.Add(context.Background(), 1, metric.WithAttributes(attribute.String("suspension", name)))
}

func (m *metrics) buildFailed(name string) {
	m.failed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("suspension", name)))
}
