package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/chassislab/wishbone/internal/config"
	"github.com/chassislab/wishbone/internal/database"
	"github.com/chassislab/wishbone/internal/dispatcher"
	"github.com/chassislab/wishbone/internal/engine"
	"github.com/chassislab/wishbone/internal/engine/memory"
	"github.com/chassislab/wishbone/internal/engine/recorder"
	"github.com/chassislab/wishbone/internal/inertia"
	"github.com/chassislab/wishbone/internal/influx"
	"github.com/chassislab/wishbone/internal/logging"
	"github.com/chassislab/wishbone/internal/model/convert"
	"github.com/chassislab/wishbone/internal/suspension"
	"github.com/chassislab/wishbone/pkg/core"
)

const (
	chassisMass     = 2000.0
	steeringMass    = 5.0
	recordCommand   = "record"
	recordQueueSize = 64
)

var (
	chassisInertia  = mgl64.Diag3(mgl64.Vec3{1000, 3000, 3500})
	steeringInertia = mgl64.Diag3(mgl64.Vec3{0.1, 0.1, 0.1})
)

// commandNames lists the user-facing commands in help order.
var commandNames = []string{"build", "hardpoints", "violations", "forces", "components"}

type app struct {
	out      io.Writer
	errOut   io.Writer
	location mgl64.Vec3
	omega    float64
	inches   bool
	start    time.Time

	slogManager *logging.SlogManager
	log         *slog.Logger
	zlog        zerolog.Logger

	db       *database.Manager
	influx   *influx.Manager
	dispatch *dispatcher.Dispatcher

	assembly atomic.Value // name of the suspension being built, for log context
}

// logContext tags every slog record with the current assembly.
func (a *app) logContext() []slog.Attr {
	name, _ := a.assembly.Load().(string)
	if name == "" {
		return nil
	}
	return []slog.Attr{slog.String("assembly", name)}
}

func (a *app) setupDispatcher() error {
	d, err := dispatcher.New(logging.NewDispatcherLogger(a.zlog))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	d.Register("build", a.handleBuild, dispatcher.Logged())
	d.Register("hardpoints", a.handleHardpoints, dispatcher.Logged())
	d.Register("violations", a.handleViolations, dispatcher.Logged())
	d.Register("forces", a.handleForces, dispatcher.Logged())
	d.Register("components", a.handleComponents, dispatcher.Logged())
	if a.influx != nil {
		d.Register(recordCommand, a.handleRecord, dispatcher.Buffered(recordQueueSize), dispatcher.Blocking())
	}
	a.dispatch = d
	return nil
}

// assembled is a suspension mounted on a fresh chassis.
type assembled struct {
	susp *suspension.DoubleWishbone
	rec  *recorder.Engine // nil when the engine is not recording
}

// build loads the suspension file and mounts it on a chassis at the
// configured location.
func (a *app) build(path string) (*assembled, error) {
	params, err := config.LoadSuspension(path)
	if err != nil {
		return nil, err
	}
	a.assembly.Store(params.Name)

	var (
		eng engine.Engine
		rec *recorder.Engine
	)
	if a.db != nil {
		rec, err = recorder.New(a.db.DB, params.Name, a.zlog)
		if err != nil {
			return nil, err
		}
		eng = rec
	} else {
		eng = memory.New()
	}

	chassis, err := eng.NewBody(engine.BodySpec{
		Name:    "chassis",
		Frame:   core.IdentityFrame(),
		Mass:    chassisMass,
		Inertia: chassisInertia,
	})
	if err != nil {
		return nil, err
	}
	steering, err := eng.NewBody(engine.BodySpec{
		Name:    "steering",
		Frame:   core.IdentityFrame(),
		Mass:    steeringMass,
		Inertia: steeringInertia,
	})
	if err != nil {
		return nil, err
	}
	for _, b := range []engine.Body{chassis, steering} {
		if err := eng.AddBody(b); err != nil {
			return nil, err
		}
	}

	susp, err := suspension.New(params, eng, a.log)
	if err != nil {
		return nil, err
	}
	if err := susp.Initialize(suspension.ChassisOf(chassis), suspension.SteeringOf(steering), a.location, a.omega, a.omega); err != nil {
		return nil, err
	}
	susp.InitializeInertiaProperties()
	susp.UpdateInertiaProperties()

	if rec != nil {
		if err := rec.Flush(); err != nil {
			return nil, fmt.Errorf("recording %s: %w", params.Name, err)
		}
	}
	return &assembled{susp: susp, rec: rec}, nil
}

func pathArg(e dispatcher.Event) (string, error) {
	if len(e.Args) != 1 || e.Args[0] == "" {
		return "", fmt.Errorf("%s: expected one suspension file", e.Command)
	}
	return e.Args[0], nil
}

func (a *app) buildFromEvent(e dispatcher.Event) (*assembled, error) {
	path, err := pathArg(e)
	if err != nil {
		return nil, err
	}
	return a.build(path)
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func formatVec(v mgl64.Vec3) string {
	return fmt.Sprintf("%.4f,%.4f,%.4f", v.X(), v.Y(), v.Z())
}

func (a *app) handleBuild(e dispatcher.Event) (any, error) {
	as, err := a.buildFromEvent(e)
	if err != nil {
		return nil, err
	}
	s := as.susp
	if as.rec != nil {
		record, err := convert.AssemblyToRecord(as.rec.RunID(), s)
		if err != nil {
			return nil, err
		}
		if err := as.rec.Save(&record); err != nil {
			return nil, err
		}
	}

	strategy := "distance"
	if s.UseTierodBodies() {
		strategy = "body"
	}
	I := s.Inertia()
	w := a.table()
	fmt.Fprintf(w, "name\t%s\n", s.Name())
	fmt.Fprintf(w, "tierod\t%s\n", strategy)
	fmt.Fprintf(w, "mass\t%.4f\n", s.Mass())
	fmt.Fprintf(w, "com\t%s\n", formatVec(s.COM()))
	fmt.Fprintf(w, "inertia\t%s\n", formatVec(inertia.Moments(I)))
	fmt.Fprintf(w, "products\t%s\n", formatVec(inertia.Products(I)))
	fmt.Fprintf(w, "track\t%.4f\n", s.Track())
	fmt.Fprintf(w, "components\t%d\n", len(s.Components()))
	return s, w.Flush()
}

func (a *app) handleHardpoints(e dispatcher.Event) (any, error) {
	as, err := a.buildFromEvent(e)
	if err != nil {
		return nil, err
	}
	as.susp.LogHardpointLocations(a.location, a.inches)

	w := a.table()
	fmt.Fprintln(w, "HARDPOINT\tX\tY\tZ")
	for _, hp := range as.susp.HardpointLocations(a.location, a.inches) {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\n", hp.ID, hp.Pos.X(), hp.Pos.Y(), hp.Pos.Z())
	}
	return as.susp, w.Flush()
}

func (a *app) handleViolations(e dispatcher.Event) (any, error) {
	as, err := a.buildFromEvent(e)
	if err != nil {
		return nil, err
	}
	s := as.susp

	var points []*write.Point
	w := a.table()
	fmt.Fprintln(w, "SIDE\tJOINT\tTYPE\tMODE\tVALUES")
	for _, side := range core.Sides {
		s.LogConstraintViolations(side)
		for _, v := range s.ConstraintViolations(side) {
			values := "-"
			if v.Values != nil {
				parts := make([]string, len(v.Values))
				for i, c := range v.Values {
					parts[i] = fmt.Sprintf("%.3g", c)
				}
				values = strings.Join(parts, ",")
				points = append(points, influx.ViolationPoint(s.Name(), side, v, e.Timestamp))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", side, v.Name, v.Type, v.Mode, values)
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return s, a.record(points)
}

func (a *app) handleForces(e dispatcher.Event) (any, error) {
	as, err := a.buildFromEvent(e)
	if err != nil {
		return nil, err
	}
	s := as.susp

	var points []*write.Point
	w := a.table()
	fmt.Fprintln(w, "SIDE\tELEMENT\tFORCE\tLENGTH\tRATE")
	for _, side := range core.Sides {
		reports := s.ReportSuspensionForce(side)
		for _, r := range reports {
			fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%.4f\n", side, r.Name, r.Force, r.Length, r.Rate)
			points = append(points, influx.ForcePoint(s.Name(), side, r, e.Timestamp))
		}
		if as.rec != nil {
			samples := convert.ForceReportsToSamples(as.rec.RunID(), s.Name(), side, reports, e.Timestamp)
			if err := as.rec.Save(&samples); err != nil {
				return nil, err
			}
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return s, a.record(points)
}

func (a *app) handleComponents(e dispatcher.Event) (any, error) {
	as, err := a.buildFromEvent(e)
	if err != nil {
		return nil, err
	}

	w := a.table()
	fmt.Fprintln(w, "NAME\tKIND\tTYPE")
	for _, c := range as.susp.Components() {
		typ := c.Type
		if typ == "" {
			typ = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Kind, typ)
	}
	return as.susp, w.Flush()
}

// record queues points for the InfluxDB writer. It is a no-op when InfluxDB
// is disabled.
func (a *app) record(points []*write.Point) error {
	if a.influx == nil || len(points) == 0 {
		return nil
	}
	_, err := a.dispatch.Dispatch(dispatcher.Event{Command: recordCommand, Payload: points})
	return err
}

func (a *app) handleRecord(e dispatcher.Event) (any, error) {
	points, ok := e.Payload.([]*write.Point)
	if !ok {
		return nil, fmt.Errorf("record: unexpected payload %T", e.Payload)
	}
	for _, p := range points {
		if err := a.influx.WritePoint(p); err != nil {
			return nil, err
		}
	}
	return len(points), nil
}
