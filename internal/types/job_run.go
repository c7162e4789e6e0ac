package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobRun struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobType  string    `gorm:"column:job_type;not null;index" json:"job_type"`
	EntityID uuid.UUID `gorm:"type:uuid;not null;index" json:"entity_id"`

	Status   string `gorm:"column:status;not null;index" json:"status"` // queued|running|succeeded|failed
	Stage    string `gorm:"column:stage;not null" json:"stage"`
	Progress int    `gorm:"column:progress;not null;default:0" json:"progress"`

	Attempts    int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	Error       string     `gorm:"column:error" json:"error"`
	LastErrorAt *time.Time `gorm:"column:last_error_at" json:"last_error_at,omitempty"`

	LockedAt    *time.Time `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	HeartbeatAt *time.Time `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`

	Payload datatypes.JSON `gorm:"type:jsonb;column:payload" json:"payload"`
	Result  datatypes.JSON `gorm:"type:jsonb;column:result" json:"result"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (JobRun) TableName() string { return "job_run" }

const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

const (
	JobTypeBookIngest      = "book_ingest"
	JobTypeSummaryGenerate = "summary_generate"
	JobTypeTTSGenerate     = "tts_generate"
)
