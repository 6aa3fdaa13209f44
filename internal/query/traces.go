package query

import (
	"gorm.io/gorm"

	"github.com/lipish/xtrace/internal/core/domain"
	"github.com/lipish/xtrace/internal/core/store"
	"github.com/lipish/xtrace/pkg/id"
)

// sentinelUnavailable is the -1 value fields=core projections use for
// latency/totalCost when metrics were not requested (spec.md §4.5, §9 Open
// Question 1). It is never a genuine measurement — callers must not treat
// it as one.
const sentinelUnavailable = -1

// TraceFields controls which optional projections a list/detail response
// includes (spec.md §4.5 fields param).
type TraceFields struct {
	IO           bool
	Scores       bool
	Observations bool
	Metrics      bool
}

// TraceView is the projected, wire-ready representation of a trace for
// GET /api/public/traces and GET /api/public/traces/{id}.
type TraceView struct {
	ID          string                 `json:"id"`
	ProjectID   string                 `json:"projectId"`
	Timestamp   string                 `json:"timestamp"`
	Name        *string                `json:"name,omitempty"`
	UserID      *string                `json:"userId,omitempty"`
	SessionID   *string                `json:"sessionId,omitempty"`
	Release     *string                `json:"release,omitempty"`
	Version     *string                `json:"version,omitempty"`
	Tags        []string               `json:"tags"`
	Metadata    interface{}            `json:"metadata,omitempty"`
	Input       interface{}            `json:"input,omitempty"`
	Output      interface{}            `json:"output,omitempty"`
	Public      bool                   `json:"public"`
	ExternalID  *string                `json:"externalId,omitempty"`
	Bookmarked  bool                   `json:"bookmarked"`
	Environment string                 `json:"environment"`
	Latency     float64                `json:"latency"`
	TotalCost   float64                `json:"totalCost"`
	Observations []ObservationView     `json:"observations"`
}

// ObservationView is the projected representation of an observation
// nested in a trace detail response.
type ObservationView struct {
	ID                  string      `json:"id"`
	ParentObservationID *string     `json:"parentObservationId,omitempty"`
	Type                string      `json:"type"`
	Name                *string     `json:"name,omitempty"`
	StartTime           string      `json:"startTime"`
	EndTime             *string     `json:"endTime,omitempty"`
	Model               *string     `json:"model,omitempty"`
	Input               interface{} `json:"input,omitempty"`
	Output              interface{} `json:"output,omitempty"`
	UsageTotal          int64       `json:"usageTotal"`
	Latency             *float64    `json:"latency,omitempty"`
}

// ListTracesResult is the assembled response for GET /api/public/traces.
type ListTracesResult struct {
	Traces     []TraceView
	TotalItems int64
}

// ListTraces resolves the filtered, paginated, projected trace list.
func ListTraces(db *gorm.DB, filter store.TraceFilter, fields TraceFields) (*ListTracesResult, error) {
	traces, total, err := store.ListTraces(db, filter)
	if err != nil {
		return nil, err
	}
	views := make([]TraceView, 0, len(traces))
	for _, t := range traces {
		views = append(views, projectTrace(t, fields))
	}
	return &ListTracesResult{Traces: views, TotalItems: total}, nil
}

// GetTrace resolves a single trace with its observations, always inlined
// and sorted by start_time asc (spec.md §4.5 trace detail route, which
// does not accept a fields param).
func GetTrace(db *gorm.DB, projectID string, traceID id.ID) (*TraceView, error) {
	t, err := store.GetTraceByID(db, projectID, traceID)
	if err != nil {
		return nil, err
	}
	view := projectTrace(*t, TraceFields{IO: true, Scores: true, Observations: true, Metrics: true})
	return &view, nil
}

func projectTrace(t domain.Trace, fields TraceFields) TraceView {
	view := TraceView{
		ID:          t.ID.String(),
		ProjectID:   t.ProjectID,
		Timestamp:   t.Timestamp.UTC().Format(rfc3339Milli),
		Name:        t.Name,
		UserID:      t.UserID,
		SessionID:   t.SessionID,
		Release:     t.Release,
		Version:     t.Version,
		Tags:        []string(t.Tags),
		Public:      t.Public,
		ExternalID:  t.ExternalID,
		Bookmarked:  t.Bookmarked,
		Environment: t.Environment,
		Latency:     sentinelUnavailable,
		TotalCost:   sentinelUnavailable,
		Observations: []ObservationView{},
	}
	if view.Tags == nil {
		view.Tags = []string{}
	}

	if fields.IO {
		view.Metadata = decodeJSON(t.Metadata)
		view.Input = decodeJSON(t.Input)
		view.Output = decodeJSON(t.Output)
	}

	if fields.Metrics {
		if t.Latency != nil {
			view.Latency = *t.Latency
		}
		if t.TotalCost != nil {
			view.TotalCost = *t.TotalCost
		}
	}

	if fields.Observations {
		for _, o := range t.Observations {
			view.Observations = append(view.Observations, projectObservation(o, fields))
		}
	}

	return view
}

func projectObservation(o domain.Observation, fields TraceFields) ObservationView {
	view := ObservationView{
		ID:         o.ID.String(),
		Type:       string(o.Type),
		Name:       o.Name,
		StartTime:  o.StartTime.UTC().Format(rfc3339Milli),
		Model:      o.Model,
		UsageTotal: o.UsageTotal,
		Latency:    o.Latency,
	}
	if o.ParentObservationID != nil {
		s := o.ParentObservationID.String()
		view.ParentObservationID = &s
	}
	if o.EndTime != nil {
		s := o.EndTime.UTC().Format(rfc3339Milli)
		view.EndTime = &s
	}
	if fields.IO {
		view.Input = decodeJSON(o.Input)
		view.Output = decodeJSON(o.Output)
	}
	return view
}

const rfc3339Milli = "2006-01-02T15:04:05.000Z07:00"
