// Package recorder wraps the in-memory engine and persists every
// registration and removal through GORM. With a nil database it runs in
// queue-only mode and Flush keeps records queued.
package recorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/chassislab/wishbone/internal/engine"
	"github.com/chassislab/wishbone/internal/engine/memory"
	"github.com/chassislab/wishbone/internal/model"
	"github.com/chassislab/wishbone/internal/model/convert"
)

// Engine is a memory.Engine that queues a record for everything it registers.
type Engine struct {
	*memory.Engine
	db    *gorm.DB
	runID uint
	log   zerolog.Logger

	bodies   pending[model.Body]
	joints   pending[model.Joint]
	forces   pending[model.ForceElement]
	shafts   pending[model.Shaft]
	removals pending[model.Removal]
}

// Compile-time interface check
var _ engine.Engine = (*Engine)(nil)

// New migrates the schema and opens a run labelled label. db may be nil.
func New(db *gorm.DB, label string, log zerolog.Logger) (*Engine, error) {
	e := &Engine{
		Engine: memory.New(),
		db:     db,
		log:    log,
	}
	if db == nil {
		e.log.Warn().Msg("No database, recording in queue-only mode")
		return e, nil
	}

	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	run := model.Run{Label: label, StartedAt: time.Now()}
	if err := db.Create(&run).Error; err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	e.runID = run.ID
	e.log.Info().Uint("run", run.ID).Str("label", label).Msg("Recording run started")
	return e, nil
}

// RunID returns the database id of the run, 0 in queue-only mode.
func (e *Engine) RunID() uint {
	return e.runID
}

// AddBody registers b and queues its record.
func (e *Engine) AddBody(b engine.Body) error {
	if err := e.Engine.AddBody(b); err != nil {
		return err
	}
	rec, err := convert.BodyToRecord(e.runID, b)
	if err != nil {
		return e.unregister(b, err)
	}
	e.bodies.push(rec)
	return nil
}

// AddJoint registers a joint and queues its record.
func (e *Engine) AddJoint(spec engine.JointSpec) (engine.Joint, error) {
	j, err := e.Engine.AddJoint(spec)
	if err != nil {
		return nil, err
	}
	rec, err := convert.JointToRecord(e.runID, spec, j)
	if err != nil {
		return nil, e.unregister(j, err)
	}
	e.joints.push(rec)
	return j, nil
}

// AddForce registers a spring-damper and queues its record.
func (e *Engine) AddForce(spec engine.ForceSpec) (engine.Force, error) {
	f, err := e.Engine.AddForce(spec)
	if err != nil {
		return nil, err
	}
	rec, err := convert.ForceToRecord(e.runID, spec, f)
	if err != nil {
		return nil, e.unregister(f, err)
	}
	e.forces.push(rec)
	return f, nil
}

// AddShaft registers a shaft and queues its record.
func (e *Engine) AddShaft(spec engine.ShaftSpec) (engine.Shaft, error) {
	s, err := e.Engine.AddShaft(spec)
	if err != nil {
		return nil, err
	}
	e.shafts.push(convert.ShaftToRecord(e.runID, spec, s))
	return s, nil
}

// unregister drops a handle whose record could not be built, so the engine
// never holds anything the database is missing.
func (e *Engine) unregister(h engine.Handle, cause error) error {
	if err := e.Engine.Remove(h); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// Remove deregisters h and queues a removal record.
func (e *Engine) Remove(h engine.Handle) error {
	if err := e.Engine.Remove(h); err != nil {
		return err
	}
	e.removals.push(convert.RemovalToRecord(e.runID, h, time.Now()))
	return nil
}

// Pending returns the number of queued records.
func (e *Engine) Pending() int {
	return e.bodies.len() + e.joints.len() + e.forces.len() + e.shafts.len() + e.removals.len()
}

// Flush writes every queued record in one transaction. On failure the
// records are queued again.
func (e *Engine) Flush() error {
	if e.db == nil {
		return nil
	}

	bodies := e.bodies.drain()
	joints := e.joints.drain()
	forces := e.forces.drain()
	shafts := e.shafts.drain()
	removals := e.removals.drain()

	start := time.Now()
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := insert(tx, bodies); err != nil {
			return fmt.Errorf("writing bodies: %w", err)
		}
		if err := insert(tx, joints); err != nil {
			return fmt.Errorf("writing joints: %w", err)
		}
		if err := insert(tx, forces); err != nil {
			return fmt.Errorf("writing force elements: %w", err)
		}
		if err := insert(tx, shafts); err != nil {
			return fmt.Errorf("writing shafts: %w", err)
		}
		if err := insert(tx, removals); err != nil {
			return fmt.Errorf("writing removals: %w", err)
		}
		return nil
	})
	if err != nil {
		e.bodies.restore(bodies)
		e.joints.restore(joints)
		e.forces.restore(forces)
		e.shafts.restore(shafts)
		e.removals.restore(removals)
		e.log.Error().Err(err).Msg("Failed to flush records")
		return err
	}

	e.log.Debug().
		Int("bodies", len(bodies)).
		Int("joints", len(joints)).
		Int("forces", len(forces)).
		Int("shafts", len(shafts)).
		Int("removals", len(removals)).
		Dur("duration", time.Since(start)).
		Msg("Flushed records")
	return nil
}

// Save writes a result record (model.Assembly, []model.ForceSample) directly.
func (e *Engine) Save(record any) error {
	if e.db == nil {
		return nil
	}
	if err := e.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to save %T: %w", record, err)
	}
	return nil
}

func insert[T any](tx *gorm.DB, records []T) error {
	if len(records) == 0 {
		return nil
	}
	return tx.CreateInBatches(records, 500).Error
}
