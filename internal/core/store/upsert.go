package store

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/lipish/xtrace/internal/core/domain"
)

// UpsertTraces writes a micro-batch of traces within tx using last-write-
// wins-per-non-null-field semantics (spec.md §4.1): a column that is NULL
// on the incoming row never overwrites an existing non-null value. Traces
// are never deleted by this path.
func UpsertTraces(tx *gorm.DB, traces []domain.Trace) error {
	if len(traces) == 0 {
		return nil
	}
	for i := range traces {
		t := &traces[i]
		var tags pq.StringArray = pq.StringArray(t.Tags)
		err := tx.Exec(`
			INSERT INTO traces (
				id, project_id, timestamp, name, user_id, session_id, release,
				version, tags, metadata, input, output, public, external_id,
				bookmarked, environment, latency, total_cost, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now(), now())
			ON CONFLICT (id) DO UPDATE SET
				project_id   = COALESCE(EXCLUDED.project_id, traces.project_id),
				timestamp    = COALESCE(EXCLUDED.timestamp, traces.timestamp),
				name         = COALESCE(EXCLUDED.name, traces.name),
				user_id      = COALESCE(EXCLUDED.user_id, traces.user_id),
				session_id   = COALESCE(EXCLUDED.session_id, traces.session_id),
				release      = COALESCE(EXCLUDED.release, traces.release),
				version      = COALESCE(EXCLUDED.version, traces.version),
				tags         = COALESCE(EXCLUDED.tags, traces.tags),
				metadata     = COALESCE(EXCLUDED.metadata, traces.metadata),
				input        = COALESCE(EXCLUDED.input, traces.input),
				output       = COALESCE(EXCLUDED.output, traces.output),
				public       = COALESCE(EXCLUDED.public, traces.public),
				external_id  = COALESCE(EXCLUDED.external_id, traces.external_id),
				bookmarked   = COALESCE(EXCLUDED.bookmarked, traces.bookmarked),
				environment  = COALESCE(EXCLUDED.environment, traces.environment),
				latency      = COALESCE(EXCLUDED.latency, traces.latency),
				total_cost   = COALESCE(EXCLUDED.total_cost, traces.total_cost),
				updated_at   = now()
		`,
			t.ID, t.ProjectID, t.Timestamp, t.Name, t.UserID, t.SessionID, t.Release,
			t.Version, tags, t.Metadata, t.Input, t.Output, t.Public, t.ExternalID,
			t.Bookmarked, t.Environment, t.Latency, t.TotalCost,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// UpsertPlaceholderTrace inserts a minimal trace row for an observation
// that arrived before its trace (spec.md §4.2). It does nothing if the
// trace already exists; a later real trace batch upserts over it without
// discarding the observations that already reference it.
func UpsertPlaceholderTrace(tx *gorm.DB, traceID interface{ String() string }, projectID, environment string) error {
	return tx.Exec(`
		INSERT INTO traces (id, project_id, timestamp, environment, public, bookmarked, created_at, updated_at)
		VALUES (?, ?, now(), ?, false, false, now(), now())
		ON CONFLICT (id) DO NOTHING
	`, traceID.String(), projectID, environment).Error
}

// UpsertObservations writes a micro-batch of observations within tx,
// inserting unconditionally and retrying once with a placeholder trace
// row on foreign-key violation (spec.md §4.2). Observations are upserted
// by id with the same non-null-overwrites semantics as traces.
func UpsertObservations(tx *gorm.DB, observations []domain.Observation) error {
	for i := range observations {
		o := &observations[i]
		if err := upsertOneObservation(tx, o); err != nil {
			if isForeignKeyViolation(err) {
				if phErr := UpsertPlaceholderTrace(tx, o.TraceID, o.ProjectID, o.Environment); phErr != nil {
					return phErr
				}
				if err2 := upsertOneObservation(tx, o); err2 != nil {
					return err2
				}
				continue
			}
			return err
		}
	}
	return nil
}

func upsertOneObservation(tx *gorm.DB, o *domain.Observation) error {
	return tx.Exec(`
		INSERT INTO observations (
			id, trace_id, parent_observation_id, type, name, start_time, end_time,
			completion_start_time, model, model_parameters, input, output,
			usage_input, usage_output, usage_total, usage_unit, severity,
			status_message, prompt_name, input_price, output_price, total_price,
			cost, latency, time_to_first_token, metadata, project_id, environment,
			created_at, updated_at
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now(), now()
		)
		ON CONFLICT (id) DO UPDATE SET
			trace_id               = COALESCE(EXCLUDED.trace_id, observations.trace_id),
			parent_observation_id  = COALESCE(EXCLUDED.parent_observation_id, observations.parent_observation_id),
			type                   = COALESCE(EXCLUDED.type, observations.type),
			name                   = COALESCE(EXCLUDED.name, observations.name),
			start_time             = COALESCE(EXCLUDED.start_time, observations.start_time),
			end_time               = COALESCE(EXCLUDED.end_time, observations.end_time),
			completion_start_time  = COALESCE(EXCLUDED.completion_start_time, observations.completion_start_time),
			model                  = COALESCE(EXCLUDED.model, observations.model),
			model_parameters       = COALESCE(EXCLUDED.model_parameters, observations.model_parameters),
			input                  = COALESCE(EXCLUDED.input, observations.input),
			output                 = COALESCE(EXCLUDED.output, observations.output),
			usage_input            = COALESCE(NULLIF(EXCLUDED.usage_input, 0), observations.usage_input),
			usage_output           = COALESCE(NULLIF(EXCLUDED.usage_output, 0), observations.usage_output),
			usage_total            = COALESCE(NULLIF(EXCLUDED.usage_total, 0), observations.usage_total),
			usage_unit             = COALESCE(EXCLUDED.usage_unit, observations.usage_unit),
			severity               = COALESCE(EXCLUDED.severity, observations.severity),
			status_message         = COALESCE(EXCLUDED.status_message, observations.status_message),
			prompt_name            = COALESCE(EXCLUDED.prompt_name, observations.prompt_name),
			input_price            = COALESCE(EXCLUDED.input_price, observations.input_price),
			output_price           = COALESCE(EXCLUDED.output_price, observations.output_price),
			total_price            = COALESCE(EXCLUDED.total_price, observations.total_price),
			cost                   = COALESCE(EXCLUDED.cost, observations.cost),
			latency                = COALESCE(EXCLUDED.latency, observations.latency),
			time_to_first_token    = COALESCE(EXCLUDED.time_to_first_token, observations.time_to_first_token),
			metadata               = COALESCE(EXCLUDED.metadata, observations.metadata),
			project_id             = COALESCE(EXCLUDED.project_id, observations.project_id),
			environment            = COALESCE(EXCLUDED.environment, observations.environment),
			updated_at             = now()
	`,
		o.ID, o.TraceID, o.ParentObservationID, o.Type, o.Name, o.StartTime, o.EndTime,
		o.CompletionStartTime, o.Model, o.ModelParameters, o.Input, o.Output,
		o.UsageInput, o.UsageOutput, o.UsageTotal, o.UsageUnit, o.Severity,
		o.StatusMessage, o.PromptName, o.InputPrice, o.OutputPrice, o.TotalPrice,
		o.Cost, o.Latency, o.TimeToFirstToken, o.Metadata, o.ProjectID, o.Environment,
	).Error
}

// InsertMetrics appends a micro-batch of metric points within tx. Metrics
// are append-only; there is no upsert key (spec.md §3).
func InsertMetrics(tx *gorm.DB, points []domain.MetricPoint) error {
	if len(points) == 0 {
		return nil
	}
	return tx.CreateInBatches(points, len(points)).Error
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "foreign key constraint") || strings.Contains(msg, "SQLSTATE 23503") ||
		errors.Is(err, gorm.ErrForeignKeyViolated)
}
