package analytics

import (
	"time"

	"github.com/google/uuid"
)

// StepRecord is one completed tutorial step reported to the analytics sink
type StepRecord struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID  string    `json:"session_id" gorm:"index"`
	VisitorID  string    `json:"visitor_id,omitempty" gorm:"index"`
	Variant    string    `json:"variant" gorm:"index"`
	Phase      string    `json:"phase"`
	DurationMs int64     `json:"duration_ms"`
	Skipped    bool      `json:"skipped"`
	Auto       bool      `json:"auto"`
	Source     string    `json:"source"`
	RecordedAt time.Time `json:"recorded_at" gorm:"index"`
}

func (StepRecord) TableName() string {
	return "tutorial_step_records"
}

const (
	SourceInteractive = "interactive"
	SourceWalkthrough = "walkthrough"
)

// StepReport is the body posted by the walkthrough variant
type StepReport struct {
	SessionID  string `json:"session_id" binding:"required"`
	Phase      string `json:"phase" binding:"required"`
	DurationMs int64  `json:"duration_ms" binding:"min=0"`
	Skipped    bool   `json:"skipped"`
}

// PhaseStats aggregates durations for one phase within a variant
type PhaseStats struct {
	Phase   string  `json:"phase"`
	Count   int     `json:"count"`
	Skipped int     `json:"skipped"`
	AvgMs   float64 `json:"avg_ms"`
	P50Ms   int64   `json:"p50_ms"`
	MaxMs   int64   `json:"max_ms"`
}

// VariantSummary aggregates one A/B bucket
type VariantSummary struct {
	Variant  string       `json:"variant"`
	Sessions int          `json:"sessions"`
	Phases   []PhaseStats `json:"phases"`
}

// Summary is the latest rollup
type Summary struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Since       time.Time        `json:"since"`
	Records     int              `json:"records"`
	Variants    []VariantSummary `json:"variants"`
}
