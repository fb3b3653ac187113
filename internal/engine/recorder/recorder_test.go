package recorder

import (
	"math"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chassislab/wishbone/internal/engine"
	"github.com/chassislab/wishbone/internal/geometry"
	"github.com/chassislab/wishbone/internal/model"
	"github.com/chassislab/wishbone/internal/model/convert"
	"github.com/chassislab/wishbone/pkg/core"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

type fixture struct {
	chassis engine.Body
	arm     engine.Body
	joint   engine.Joint
	force   engine.Force
	shaft   engine.Shaft
}

func register(t *testing.T, e *Engine) fixture {
	t.Helper()
	var fx fixture
	var err error

	fx.chassis, err = e.NewBody(engine.BodySpec{Name: "chassis", Frame: core.IdentityFrame(), Mass: 1500,
		Inertia: mgl64.Diag3(mgl64.Vec3{400, 1200, 1300})})
	require.NoError(t, err)
	require.NoError(t, e.AddBody(fx.chassis))

	fx.arm, err = e.NewBody(engine.BodySpec{Name: "LCA_L", Frame: core.NewFrame(mgl64.Vec3{0, 0.45, -0.15}, mgl64.Rotate3DX(0.1)),
		Mass: 5, Inertia: mgl64.Diag3(mgl64.Vec3{0.03, 0.03, 0.06})})
	require.NoError(t, err)
	require.NoError(t, e.AddBody(fx.arm))

	fx.joint, err = e.AddJoint(engine.JointSpec{
		Name: "revoluteLCA_L", Type: core.Revolute,
		Frame: core.NewFrame(mgl64.Vec3{0, 0.3, -0.15}, mgl64.Ident3()),
		BodyA: fx.chassis, BodyB: fx.arm,
		Bushing: &core.BushingData{KLin: 1e6, KRot: 1e4},
	})
	require.NoError(t, err)

	fx.force, err = e.AddForce(engine.ForceSpec{
		Name: "spring_L", BodyA: fx.chassis, PointA: mgl64.Vec3{0, 0.5, 0.25},
		BodyB: fx.arm, PointB: mgl64.Vec3{0, 0.5, -0.14}, RestLength: 0.4,
		Law: core.ForceLawFunc(func(l, r float64) float64 { return 1000 * (0.4 - l) }),
	})
	require.NoError(t, err)

	fx.shaft, err = e.AddShaft(engine.ShaftSpec{Name: "axle_L", Inertia: 0.4, Speed: -3, Body: fx.arm, Dir: mgl64.Vec3{0, -1, 0}})
	require.NoError(t, err)
	return fx
}

func TestEngine_QueueOnlyMode(t *testing.T) {
	e, err := New(nil, "queue", zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, e.RunID())

	register(t, e)
	assert.Equal(t, 5, e.Pending())

	require.NoError(t, e.Flush())
	assert.Equal(t, 5, e.Pending(), "records stay queued without a database")
	require.NoError(t, e.Save(&model.Assembly{Name: "ignored"}))
}

func TestEngine_FailedRegistrationIsNotRecorded(t *testing.T) {
	e, err := New(nil, "queue", zerolog.Nop())
	require.NoError(t, err)

	_, err = e.AddJoint(engine.JointSpec{Name: "j", Type: core.Spherical})
	assert.Error(t, err)
	_, err = e.AddShaft(engine.ShaftSpec{Name: "s"})
	assert.Error(t, err)
	assert.Zero(t, e.Pending())
}

func TestEngine_FlushPersists(t *testing.T) {
	db := openTestDB(t)
	e, err := New(db, "front axle", zerolog.Nop())
	require.NoError(t, err)
	require.NotZero(t, e.RunID())

	fx := register(t, e)
	require.NoError(t, e.Flush())
	assert.Zero(t, e.Pending())

	var run model.Run
	require.NoError(t, db.First(&run, e.RunID()).Error)
	assert.Equal(t, "front axle", run.Label)
	assert.WithinDuration(t, time.Now(), run.StartedAt, time.Minute)

	tests := []struct {
		table any
		want  int64
	}{
		{&model.Body{}, 2},
		{&model.Joint{}, 1},
		{&model.ForceElement{}, 1},
		{&model.Shaft{}, 1},
	}
	for _, tt := range tests {
		var n int64
		require.NoError(t, db.Model(tt.table).Where("run_id = ?", e.RunID()).Count(&n).Error)
		assert.Equal(t, tt.want, n, "%T", tt.table)
	}

	var bodies []model.Body
	require.NoError(t, db.Where("run_id = ?", e.RunID()).Order("handle_id").Find(&bodies).Error)
	require.Len(t, bodies, 2)
	assert.Equal(t, "chassis", bodies[0].Name)

	frame, err := convert.RecordToFrame(bodies[1])
	require.NoError(t, err)
	for i := range frame.Pos {
		assert.InDelta(t, fx.arm.Frame().Pos[i], frame.Pos[i], 1e-9)
	}
	for i := range frame.Rot {
		assert.InDelta(t, fx.arm.Frame().Rot[i], frame.Rot[i], 1e-9)
	}

	var joint model.Joint
	require.NoError(t, db.Where("run_id = ?", e.RunID()).First(&joint).Error)
	assert.Equal(t, "bushing", joint.Mode)
	bushing, err := convert.RecordToBushing(joint)
	require.NoError(t, err)
	require.NotNil(t, bushing)
	assert.InDelta(t, 1e6, bushing.KLin, 1e-6)
}

func TestEngine_RemovalsRecorded(t *testing.T) {
	db := openTestDB(t)
	e, err := New(db, "teardown", zerolog.Nop())
	require.NoError(t, err)

	fx := register(t, e)
	assert.ErrorIs(t, e.Remove(fx.arm), engine.ErrInUse)

	for _, h := range []engine.Handle{fx.shaft, fx.force, fx.joint, fx.arm} {
		require.NoError(t, e.Remove(h))
	}
	require.NoError(t, e.Flush())

	var removals []model.Removal
	require.NoError(t, db.Where("run_id = ?", e.RunID()).Order("id").Find(&removals).Error)
	require.Len(t, removals, 4)
	kinds := make([]string, len(removals))
	for i, r := range removals {
		kinds[i] = r.Kind
	}
	assert.Equal(t, []string{"shaft", "force", "joint", "body"}, kinds)
	assert.Equal(t, "LCA_L", removals[3].Name)
	assert.WithinDuration(t, time.Now(), removals[3].Time, time.Minute)
}

func TestEngine_FlushMixedJointModes(t *testing.T) {
	db := openTestDB(t)
	e, err := New(db, "mixed", zerolog.Nop())
	require.NoError(t, err)

	fx := register(t, e)
	_, err = e.AddJoint(engine.JointSpec{
		Name: "revolute_L", Type: core.Revolute,
		Frame: core.NewFrame(mgl64.Vec3{0, 0.7, 0}, mgl64.Ident3()),
		BodyA: fx.arm, BodyB: fx.chassis,
	})
	require.NoError(t, err)
	_, err = e.AddJoint(engine.JointSpec{
		Name: "sphericalLCA_L", Type: core.Spherical,
		Frame: core.NewFrame(mgl64.Vec3{0, 0.6, -0.15}, mgl64.Ident3()),
		BodyA: fx.arm, BodyB: fx.chassis,
		Bushing: &core.BushingData{KLin: 2e6, KRot: 1e4},
	})
	require.NoError(t, err)

	require.NoError(t, e.Flush())
	assert.Zero(t, e.Pending())

	var joints []model.Joint
	require.NoError(t, db.Where("run_id = ?", e.RunID()).Order("handle_id").Find(&joints).Error)
	require.Len(t, joints, 3)

	tests := []struct {
		name string
		mode string
		klin float64
	}{
		{"revoluteLCA_L", "bushing", 1e6},
		{"revolute_L", "kinematic", 0},
		{"sphericalLCA_L", "bushing", 2e6},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, joints[i].Name)
			assert.Equal(t, tt.mode, joints[i].Mode)
			bushing, err := convert.RecordToBushing(joints[i])
			require.NoError(t, err)
			if tt.klin == 0 {
				assert.Nil(t, bushing)
				return
			}
			require.NotNil(t, bushing)
			assert.InDelta(t, tt.klin, bushing.KLin, 1e-6)
		})
	}
}

func TestEngine_NonFiniteBodyNotRegistered(t *testing.T) {
	e, err := New(nil, "queue", zerolog.Nop())
	require.NoError(t, err)
	fx := register(t, e)
	queued := e.Pending()

	lost, err := e.NewBody(engine.BodySpec{
		Name:  "lost",
		Frame: core.NewFrame(mgl64.Vec3{math.NaN(), 0, 0}, mgl64.Ident3()),
		Mass:  1,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, e.AddBody(lost), geometry.ErrInvalidCoordinates)
	assert.Equal(t, queued, e.Pending())

	_, err = e.AddJoint(engine.JointSpec{
		Name: "spherical_lost", Type: core.Spherical,
		Frame: core.IdentityFrame(), BodyA: fx.chassis, BodyB: lost,
	})
	assert.ErrorIs(t, err, engine.ErrUnknownHandle)
}

func TestEngine_SaveResults(t *testing.T) {
	db := openTestDB(t)
	e, err := New(db, "results", zerolog.Nop())
	require.NoError(t, err)

	reports := []core.ForceReport{{Name: "spring", Force: 10}, {Name: "shock", Force: -2}}
	samples := convert.ForceReportsToSamples(e.RunID(), "front", core.Left, reports, time.Now())
	require.NoError(t, e.Save(&samples))

	var stored []model.ForceSample
	require.NoError(t, db.Order("id").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.Equal(t, "shock", stored[1].Element)
	assert.WithinDuration(t, samples[0].Time, stored[0].Time, time.Second)
}
