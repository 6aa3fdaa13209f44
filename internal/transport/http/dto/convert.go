package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lipish/xtrace/internal/core/domain"
	"github.com/lipish/xtrace/pkg/id"
)

// ToDomain converts a wire trace into the internal model. projectID comes
// from the authenticated principal/config, not the wire payload (spec.md
// treats project id as ambient, not client-supplied, beyond the single
// configured project).
func (t TraceIngest) ToDomain(projectID string) (*domain.Trace, error) {
	traceID, err := id.FromHex(t.ID)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}

	out := &domain.Trace{
		ID:         traceID,
		ProjectID:  projectID,
		Name:       t.Name,
		UserID:     t.UserID,
		SessionID:  t.SessionID,
		Release:    t.Release,
		Version:    t.Version,
		Tags:       domain.TagSet(t.Tags),
		ExternalID: t.ExternalID,
		Latency:    t.Latency,
		TotalCost:  t.TotalCost,
	}
	if t.Timestamp != nil {
		out.Timestamp = *t.Timestamp
	} else {
		out.Timestamp = time.Now().UTC()
	}
	if t.Public != nil {
		out.Public = *t.Public
	}
	if t.Bookmarked != nil {
		out.Bookmarked = *t.Bookmarked
	}
	if t.Environment != nil {
		out.Environment = *t.Environment
	}
	if t.Metadata != nil {
		raw, err := json.Marshal(t.Metadata)
		if err != nil {
			return nil, err
		}
		out.Metadata = raw
	}
	if t.Input != nil {
		raw, err := json.Marshal(t.Input)
		if err != nil {
			return nil, err
		}
		out.Input = raw
	}
	if t.Output != nil {
		raw, err := json.Marshal(t.Output)
		if err != nil {
			return nil, err
		}
		out.Output = raw
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// ToDomain converts a wire observation into the internal model.
func (o ObservationIngest) ToDomain(projectID string) (*domain.Observation, error) {
	obsID, err := id.FromHex(o.ID)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	traceID, err := id.FromHex(o.TraceID)
	if err != nil {
		return nil, fmt.Errorf("traceId: %w", err)
	}

	out := &domain.Observation{
		ID:                  obsID,
		TraceID:             traceID,
		Name:                o.Name,
		Model:               o.Model,
		Severity:            o.Severity,
		StatusMessage:       o.StatusMessage,
		PromptName:          o.PromptName,
		InputPrice:          o.InputPrice,
		OutputPrice:         o.OutputPrice,
		TotalPrice:          o.TotalPrice,
		Cost:                o.Cost,
		Latency:             o.Latency,
		TimeToFirstToken:    o.TimeToFirstToken,
		ProjectID:           projectID,
	}
	if o.ParentObservationID != nil {
		parentID, err := id.FromHex(*o.ParentObservationID)
		if err != nil {
			return nil, fmt.Errorf("parentObservationId: %w", err)
		}
		out.ParentObservationID = &parentID
	}
	if o.Type != nil {
		out.Type = domain.ObservationType(*o.Type)
	}
	if o.StartTime != nil {
		out.StartTime = *o.StartTime
	} else {
		out.StartTime = time.Now().UTC()
	}
	out.EndTime = o.EndTime
	out.CompletionStartTime = o.CompletionStartTime
	if o.Environment != nil {
		out.Environment = *o.Environment
	}
	if o.Usage != nil {
		if o.Usage.Input != nil {
			out.UsageInput = *o.Usage.Input
		}
		if o.Usage.Output != nil {
			out.UsageOutput = *o.Usage.Output
		}
		if o.Usage.Total != nil {
			out.UsageTotal = *o.Usage.Total
		} else {
			out.UsageTotal = out.UsageInput + out.UsageOutput
		}
		out.UsageUnit = o.Usage.Unit
	}
	if o.ModelParameters != nil {
		raw, err := json.Marshal(o.ModelParameters)
		if err != nil {
			return nil, err
		}
		out.ModelParameters = raw
	}
	if o.Input != nil {
		raw, err := json.Marshal(o.Input)
		if err != nil {
			return nil, err
		}
		out.Input = raw
	}
	if o.Output != nil {
		raw, err := json.Marshal(o.Output)
		if err != nil {
			return nil, err
		}
		out.Output = raw
	}
	if o.Metadata != nil {
		raw, err := json.Marshal(o.Metadata)
		if err != nil {
			return nil, err
		}
		out.Metadata = raw
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// ToDomain converts a wire metric point into the internal model.
func (m MetricIngest) ToDomain(projectID string) (*domain.MetricPoint, error) {
	out := &domain.MetricPoint{
		ProjectID: projectID,
		Name:      m.Name,
		Value:     m.Value,
	}
	if m.Timestamp != nil {
		out.Timestamp = *m.Timestamp
	} else {
		out.Timestamp = time.Now().UTC()
	}
	if m.Environment != nil {
		out.Environment = *m.Environment
	}
	if m.Labels != nil {
		raw, err := json.Marshal(m.Labels)
		if err != nil {
			return nil, err
		}
		out.Labels = raw
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
