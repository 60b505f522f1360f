package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RunStatusOK            = "ok"
	RunStatusParseFailed   = "parse_failed"
	RunStatusUpstreamError = "upstream_error"
	RunStatusCached        = "cached"
)

// AnalysisRun is the audit row written for every analysis. The analyzed text
// and the returned record are never stored, only a digest and summary fields.
type AnalysisRun struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID      string         `gorm:"column:request_id;index" json:"request_id,omitempty"`
	TextSHA256     string         `gorm:"column:text_sha256;not null;index" json:"text_sha256"`
	CharCount      int            `gorm:"column:char_count;not null" json:"char_count"`
	Truncated      bool           `gorm:"column:truncated;not null" json:"truncated"`
	Goal           string         `gorm:"column:goal" json:"goal,omitempty"`
	Tone           string         `gorm:"column:tone" json:"tone,omitempty"`
	Provider       string         `gorm:"column:provider;index" json:"provider"`
	Model          string         `gorm:"column:model" json:"model"`
	Strategy       string         `gorm:"column:strategy;index" json:"strategy"`
	Score          float64        `gorm:"column:score" json:"score"`
	Status         string         `gorm:"column:status;not null;index" json:"status"`
	DurationMS     int64          `gorm:"column:duration_ms" json:"duration_ms"`
	CriticalAreas  datatypes.JSON `gorm:"column:critical_areas" json:"critical_areas,omitempty"`
	SchemaWarnings int            `gorm:"column:schema_warnings" json:"schema_warnings"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
}

func (AnalysisRun) TableName() string { return "analysis_run" }

// BeforeCreate assigns the id in Go so sqlite and postgres behave the same.
func (r *AnalysisRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
