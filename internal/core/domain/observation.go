package domain

import (
	"time"

	"gorm.io/datatypes"

	"github.com/lipish/xtrace/pkg/id"
)

// ObservationType enumerates the kinds of observation spec.md §3 names.
type ObservationType string

const (
	ObservationSpan       ObservationType = "SPAN"
	ObservationGeneration ObservationType = "GENERATION"
	ObservationEmbedding  ObservationType = "EMBEDDING"
	ObservationRetrieval  ObservationType = "RETRIEVAL"
	ObservationEvent      ObservationType = "EVENT"
)

// Usage captures token accounting for a generation observation.
type Usage struct {
	Input  int64  `json:"input"`
	Output int64  `json:"output"`
	Total  int64  `json:"total"`
	Unit   string `json:"unit,omitempty"`
}

// Observation is a span, generation, embedding, or retrieval step nested
// inside a trace (spec.md §3). ParentObservationID forms a DAG within the
// trace; it may reference an observation that has not arrived yet, and may
// itself arrive before its trace (spec.md §4.2 out-of-order handling).
type Observation struct {
	ID                  id.ID           `gorm:"type:char(32);primaryKey" json:"id"`
	TraceID             id.ID           `gorm:"type:char(32);not null;index:idx_obs_trace_start" json:"traceId"`
	ParentObservationID *id.ID          `gorm:"type:char(32)" json:"parentObservationId,omitempty"`
	Type                ObservationType `gorm:"size:32;not null" json:"type"`
	Name                *string         `json:"name,omitempty"`
	StartTime           time.Time       `gorm:"not null;index:idx_obs_trace_start" json:"startTime"`
	EndTime             *time.Time      `json:"endTime,omitempty"`
	CompletionStartTime *time.Time      `json:"completionStartTime,omitempty"`
	Model               *string         `gorm:"size:255" json:"model,omitempty"`
	ModelParameters      datatypes.JSON `json:"modelParameters,omitempty"`
	Input               datatypes.JSON  `json:"input,omitempty"`
	Output              datatypes.JSON  `json:"output,omitempty"`
	UsageInput          int64           `json:"usageInput"`
	UsageOutput         int64           `json:"usageOutput"`
	UsageTotal          int64           `json:"usageTotal"`
	UsageUnit           *string         `gorm:"size:32" json:"usageUnit,omitempty"`
	Severity            *string         `gorm:"size:32" json:"severity,omitempty"`
	StatusMessage       *string         `json:"statusMessage,omitempty"`
	PromptName          *string         `gorm:"size:255" json:"promptName,omitempty"`
	InputPrice          *float64        `json:"inputPrice,omitempty"`
	OutputPrice         *float64        `json:"outputPrice,omitempty"`
	TotalPrice          *float64        `json:"totalPrice,omitempty"`
	Cost                *float64        `json:"cost,omitempty"`
	Latency             *float64        `json:"latency,omitempty"`
	TimeToFirstToken    *float64        `json:"timeToFirstToken,omitempty"`
	Metadata            datatypes.JSON  `json:"metadata,omitempty"`
	ProjectID           string          `gorm:"size:255;not null;index:idx_obs_project" json:"projectId"`
	Environment         string          `gorm:"size:255;not null;default:default;index:idx_obs_environment" json:"environment"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Observation) TableName() string { return "observations" }

// Validate enforces the minimal structural invariants before an
// observation is accepted onto the ingest queue. A missing trace is not
// an error here — the writer inserts a placeholder trace row on FK
// violation (spec.md §4.2).
func (o *Observation) Validate() error {
	if o.ID.IsZero() {
		return errRequired("id")
	}
	if o.TraceID.IsZero() {
		return errRequired("traceId")
	}
	if o.Type == "" {
		o.Type = ObservationSpan
	}
	if o.ProjectID == "" {
		return errRequired("projectId")
	}
	if o.Environment == "" {
		o.Environment = "default"
	}
	return nil
}
