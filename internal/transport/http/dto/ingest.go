// Package dto defines the JSON wire shapes accepted/returned by the HTTP
// surface, kept distinct from the internal/core/domain entities so the
// storage model can evolve independently of the wire contract.
package dto

import "time"

// TraceIngest is the wire shape of one trace in a batch/single-trace
// ingest request (spec.md §3). Pointer fields are optional; an absent
// field must never overwrite an existing non-null stored value (the
// upsert semantics live in internal/core/store, not here).
type TraceIngest struct {
	ID          string                 `json:"id" binding:"required"`
	Timestamp   *time.Time             `json:"timestamp,omitempty"`
	Name        *string                `json:"name,omitempty"`
	UserID      *string                `json:"userId,omitempty"`
	SessionID   *string                `json:"sessionId,omitempty"`
	Release     *string                `json:"release,omitempty"`
	Version     *string                `json:"version,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Input       interface{}            `json:"input,omitempty"`
	Output      interface{}            `json:"output,omitempty"`
	Public      *bool                  `json:"public,omitempty"`
	ExternalID  *string                `json:"externalId,omitempty"`
	Bookmarked  *bool                  `json:"bookmarked,omitempty"`
	Environment *string                `json:"environment,omitempty"`
	Latency     *float64               `json:"latency,omitempty"`
	TotalCost   *float64               `json:"totalCost,omitempty"`
}

// UsageIngest is the wire shape of an observation's token usage.
type UsageIngest struct {
	Input  *int64  `json:"input,omitempty"`
	Output *int64  `json:"output,omitempty"`
	Total  *int64  `json:"total,omitempty"`
	Unit   *string `json:"unit,omitempty"`
}

// ObservationIngest is the wire shape of one observation in a
// batch/single-observation ingest request (spec.md §3).
type ObservationIngest struct {
	ID                  string                 `json:"id" binding:"required"`
	TraceID             string                 `json:"traceId" binding:"required"`
	ParentObservationID *string                `json:"parentObservationId,omitempty"`
	Type                *string                `json:"type,omitempty"`
	Name                *string                `json:"name,omitempty"`
	StartTime           *time.Time             `json:"startTime,omitempty"`
	EndTime             *time.Time             `json:"endTime,omitempty"`
	CompletionStartTime *time.Time             `json:"completionStartTime,omitempty"`
	Model               *string                `json:"model,omitempty"`
	ModelParameters     map[string]interface{} `json:"modelParameters,omitempty"`
	Input               interface{}            `json:"input,omitempty"`
	Output              interface{}            `json:"output,omitempty"`
	Usage               *UsageIngest           `json:"usage,omitempty"`
	Severity            *string                `json:"severity,omitempty"`
	StatusMessage       *string                `json:"statusMessage,omitempty"`
	PromptName          *string                `json:"promptName,omitempty"`
	InputPrice          *float64               `json:"inputPrice,omitempty"`
	OutputPrice         *float64               `json:"outputPrice,omitempty"`
	TotalPrice          *float64               `json:"totalPrice,omitempty"`
	Cost                *float64               `json:"cost,omitempty"`
	Latency             *float64               `json:"latency,omitempty"`
	TimeToFirstToken    *float64               `json:"timeToFirstToken,omitempty"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
	Environment         *string                `json:"environment,omitempty"`
}

// BatchIngest is the wire shape of POST /v1/l/batch.
type BatchIngest struct {
	Traces       []TraceIngest       `json:"traces,omitempty"`
	Observations []ObservationIngest `json:"observations,omitempty"`
}

// MetricIngest is the wire shape of one metric point.
type MetricIngest struct {
	Name        string                 `json:"name" binding:"required"`
	Labels      map[string]interface{} `json:"labels,omitempty"`
	Value       float64                `json:"value"`
	Timestamp   *time.Time             `json:"timestamp,omitempty"`
	Environment *string                `json:"environment,omitempty"`
}

// MetricBatchIngest is the wire shape of POST /v1/metrics/batch.
type MetricBatchIngest struct {
	Metrics []MetricIngest `json:"metrics" binding:"required"`
}
