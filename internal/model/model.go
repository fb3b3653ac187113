package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Run{},
	&Body{},
	&Joint{},
	&ForceElement{},
	&Shaft{},
	&Removal{},
	&Assembly{},
	&ForceSample{},
}

////////////////////////
// RUN MODELS
////////////////////////

// Run groups everything one engine registered
type Run struct {
	gorm.Model
	Label     string    `json:"label" gorm:"size:127"`
	StartedAt time.Time `json:"startedAt" gorm:"index:idx_run_started_at"`
	Bodies    []Body
	Joints    []Joint
	Forces    []ForceElement
	Shafts    []Shaft
}

func (*Run) TableName() string {
	return "runs"
}

////////////////////////
// COMPONENT MODELS
////////////////////////

// Body is a registered rigid body at registration time
type Body struct {
	ID       uint           `json:"id" gorm:"primarykey;autoIncrement"`
	RunID    uint           `json:"runId" gorm:"index:idx_body_run_id"`
	Run      Run            `gorm:"foreignkey:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	HandleID uint64         `json:"handleId"`
	Name     string         `json:"name" gorm:"size:127"`
	Position geom.Point     `json:"position"`
	Rotation datatypes.JSON `json:"rotation" gorm:"type:jsonb"` // 3x3, column major
	Mass     float64        `json:"mass"`
	Inertia  datatypes.JSON `json:"inertia" gorm:"type:jsonb"` // 3x3 about COM, body axes
	AngVel   datatypes.JSON `json:"angVel" gorm:"type:jsonb"`  // body axes
}

func (*Body) TableName() string {
	return "bodies"
}

// Joint is a registered joint or bushing
type Joint struct {
	ID       uint           `json:"id" gorm:"primarykey;autoIncrement"`
	RunID    uint           `json:"runId" gorm:"index:idx_joint_run_id"`
	Run      Run            `gorm:"foreignkey:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	HandleID uint64         `json:"handleId"`
	Name     string         `json:"name" gorm:"size:127"`
	Type     string         `json:"type" gorm:"size:16"`
	Mode     string         `json:"mode" gorm:"size:16"`
	BodyA    string         `json:"bodyA" gorm:"size:127"`
	BodyB    string         `json:"bodyB" gorm:"size:127"`
	Anchor   geom.Point     `json:"anchor"`
	Rotation datatypes.JSON `json:"rotation" gorm:"type:jsonb"`
	Bushing  datatypes.JSON `json:"bushing" gorm:"type:jsonb"` // stiffness and damping, null when kinematic
}

func (*Joint) TableName() string {
	return "joints"
}

// ForceElement is a registered two-point spring-damper
type ForceElement struct {
	ID         uint       `json:"id" gorm:"primarykey;autoIncrement"`
	RunID      uint       `json:"runId" gorm:"index:idx_force_element_run_id"`
	Run        Run        `gorm:"foreignkey:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	HandleID   uint64     `json:"handleId"`
	Name       string     `json:"name" gorm:"size:127"`
	BodyA      string     `json:"bodyA" gorm:"size:127"`
	BodyB      string     `json:"bodyB" gorm:"size:127"`
	AnchorA    geom.Point `json:"anchorA"`
	AnchorB    geom.Point `json:"anchorB"`
	RestLength float64    `json:"restLength"`
}

func (*ForceElement) TableName() string {
	return "force_elements"
}

// Shaft is a registered axle shaft
type Shaft struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement"`
	RunID     uint           `json:"runId" gorm:"index:idx_shaft_run_id"`
	Run       Run            `gorm:"foreignkey:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	HandleID  uint64         `json:"handleId"`
	Name      string         `json:"name" gorm:"size:127"`
	Body      string         `json:"body" gorm:"size:127"`
	Inertia   float64        `json:"inertia"`
	Speed     float64        `json:"speed"`
	Direction datatypes.JSON `json:"direction" gorm:"type:jsonb"`
}

func (*Shaft) TableName() string {
	return "shafts"
}

// Removal records a handle leaving the engine
type Removal struct {
	ID       uint      `json:"id" gorm:"primarykey;autoIncrement"`
	RunID    uint      `json:"runId" gorm:"index:idx_removal_run_id"`
	Time     time.Time `json:"time"`
	HandleID uint64    `json:"handleId"`
	Kind     string    `json:"kind" gorm:"size:16"`
	Name     string    `json:"name" gorm:"size:127"`
}

func (*Removal) TableName() string {
	return "removals"
}

////////////////////////
// RESULT MODELS
////////////////////////

// Assembly is the aggregate of a built suspension
type Assembly struct {
	gorm.Model
	RunID               uint           `json:"runId" gorm:"index:idx_assembly_run_id"`
	Name                string         `json:"name" gorm:"size:127"`
	TierodStrategy      string         `json:"tierodStrategy" gorm:"size:16"`
	VehicleFrameInertia bool           `json:"vehicleFrameInertia"`
	Mass                float64        `json:"mass"`
	COM                 geom.Point     `json:"com"`
	Inertia             datatypes.JSON `json:"inertia" gorm:"type:jsonb"` // about COM, suspension axes
	Track               float64        `json:"track"`
	Hardpoints          datatypes.JSON `json:"hardpoints" gorm:"type:jsonb"` // name -> [x, y, z], left side
}

func (*Assembly) TableName() string {
	return "assemblies"
}

// ForceSample is the state of a spring or shock at one instant
type ForceSample struct {
	Time     time.Time `json:"time" gorm:"index:idx_force_sample_time"`
	RunID    uint      `json:"runId" gorm:"index:idx_force_sample_run_id"`
	Assembly string    `json:"assembly" gorm:"size:127"`
	Side     string    `json:"side" gorm:"size:1"`
	Element  string    `json:"element" gorm:"size:16"`
	Force    float64   `json:"force"`
	Length   float64   `json:"length"`
	Rate     float64   `json:"rate"`
}

func (*ForceSample) TableName() string {
	return "force_samples"
}
