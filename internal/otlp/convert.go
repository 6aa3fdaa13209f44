package otlp

import (
	"encoding/hex"
	"encoding/json"
	"time"

	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
	"gorm.io/datatypes"

	"github.com/lipish/xtrace/internal/core/domain"
	"github.com/lipish/xtrace/pkg/id"
)

// Converted is the internal result of decoding one OTLP export request:
// one trace per distinct trace id (root span's name used as a fallback
// trace name) plus every span mapped to an observation (spec.md §4.3).
type Converted struct {
	Traces       []*domain.Trace
	Observations []*domain.Observation
}

// Convert walks req's ResourceSpans/ScopeSpans/Spans and builds the
// internal model. projectID/environment are applied to every row since
// OTLP carries neither (spec.md gives the auth principal's project;
// environment defaults to "default" unless a resource attribute overrides
// it upstream of this package).
func Convert(req *coltracepb.ExportTraceServiceRequest, projectID, environment string) (*Converted, error) {
	traceAccum := map[id.ID]*domain.Trace{}
	var observations []*domain.Observation

	for _, rs := range req.GetResourceSpans() {
		for _, ss := range rs.GetScopeSpans() {
			for _, span := range ss.GetSpans() {
				traceID, err := decodeTraceID(span.GetTraceId())
				if err != nil {
					return nil, err
				}
				obsID, err := decodeSpanID(span.GetSpanId())
				if err != nil {
					return nil, err
				}

				obs, traceAttrs, err := convertSpan(span, traceID, obsID, projectID, environment)
				if err != nil {
					return nil, err
				}
				observations = append(observations, obs)

				t, ok := traceAccum[traceID]
				if !ok {
					t = &domain.Trace{
						ID:          traceID,
						ProjectID:   projectID,
						Timestamp:   obs.StartTime,
						Environment: environment,
					}
					traceAccum[traceID] = t
				}
				applyTraceAttrs(t, traceAttrs, span, obs.ParentObservationID == nil)
			}
		}
	}

	traces := make([]*domain.Trace, 0, len(traceAccum))
	for _, t := range traceAccum {
		traces = append(traces, t)
	}

	return &Converted{Traces: traces, Observations: observations}, nil
}

func decodeTraceID(raw []byte) (id.ID, error) {
	if len(raw) == 0 {
		return id.New(), nil
	}
	return id.FromHex(hex.EncodeToString(raw))
}

func decodeSpanID(raw []byte) (id.ID, error) {
	if len(raw) == 0 {
		return id.New(), nil
	}
	return id.FromHex(hex.EncodeToString(raw))
}

// traceAttrs carries the subset of span attributes that feed the parent
// trace rather than the observation itself (spec.md §6 attribute map).
type traceAttrs struct {
	name      *string
	userID    *string
	sessionID *string
	tags      []string
	metadata  map[string]interface{}
}

func convertSpan(span *tracepb.Span, traceID, obsID id.ID, projectID, environment string) (*domain.Observation, traceAttrs, error) {
	start := time.Unix(0, int64(span.GetStartTimeUnixNano())).UTC()
	end := time.Unix(0, int64(span.GetEndTimeUnixNano())).UTC()

	var parentID *id.ID
	if len(span.GetParentSpanId()) > 0 {
		pid, err := id.FromHex(hex.EncodeToString(span.GetParentSpanId()))
		if err != nil {
			return nil, traceAttrs{}, err
		}
		if !pid.IsZero() {
			parentID = &pid
		}
	}

	name := span.GetName()
	obs := &domain.Observation{
		ID:                  obsID,
		TraceID:             traceID,
		ParentObservationID: parentID,
		Type:                domain.ObservationSpan,
		Name:                &name,
		StartTime:           start,
		EndTime:             &end,
		ProjectID:           projectID,
		Environment:         environment,
	}

	metadata := map[string]interface{}{}
	var ta traceAttrs

	for _, kv := range span.GetAttributes() {
		applyAttribute(kv, obs, &ta, metadata)
	}

	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			obs.Metadata = datatypes.JSON(raw)
		}
	}

	return obs, ta, nil
}

func applyAttribute(kv *commonpb.KeyValue, obs *domain.Observation, ta *traceAttrs, metadata map[string]interface{}) {
	key := kv.GetKey()
	val := anyValueToGo(kv.GetValue())

	switch key {
	case "langfuse.observation.type":
		if s, ok := val.(string); ok {
			obs.Type = domain.ObservationType(s)
		}
	case "langfuse.generation.model", "gen_ai.response.model":
		if s, ok := val.(string); ok {
			obs.Model = &s
		}
	case "gen_ai.request.model":
		if obs.Model == nil {
			if s, ok := val.(string); ok {
				obs.Model = &s
			}
		}
	case "langfuse.observation.input":
		setJSON(&obs.Input, val)
	case "langfuse.observation.output":
		setJSON(&obs.Output, val)
	case "langfuse.observation.usage_details":
		applyUsage(obs, val)
	case "gen_ai.usage.input_tokens":
		obs.UsageInput = toInt64(val)
		recomputeTotal(obs)
	case "gen_ai.usage.output_tokens":
		obs.UsageOutput = toInt64(val)
		recomputeTotal(obs)
	case "langfuse.trace.name":
		if s, ok := val.(string); ok {
			ta.name = &s
		}
	case "user.id":
		if s, ok := val.(string); ok {
			ta.userID = &s
		}
	case "session.id":
		if s, ok := val.(string); ok {
			ta.sessionID = &s
		}
	case "langfuse.trace.tags":
		ta.tags = toStringSlice(val)
	default:
		if after, ok := cutPrefix(key, "langfuse.trace.metadata."); ok {
			if ta.metadata == nil {
				ta.metadata = map[string]interface{}{}
			}
			ta.metadata[after] = val
			return
		}
		metadata[key] = val
	}
}

func applyUsage(obs *domain.Observation, val interface{}) {
	m, ok := val.(map[string]interface{})
	if !ok {
		return
	}
	if v, ok := m["input"]; ok {
		obs.UsageInput = toInt64(v)
	}
	if v, ok := m["output"]; ok {
		obs.UsageOutput = toInt64(v)
	}
	if v, ok := m["total"]; ok {
		obs.UsageTotal = toInt64(v)
	} else {
		recomputeTotal(obs)
	}
	if v, ok := m["unit"].(string); ok {
		obs.UsageUnit = &v
	}
}

func recomputeTotal(obs *domain.Observation) {
	obs.UsageTotal = obs.UsageInput + obs.UsageOutput
}

func setJSON(field *datatypes.JSON, val interface{}) {
	raw, err := json.Marshal(val)
	if err != nil {
		return
	}
	*field = datatypes.JSON(raw)
}

func applyTraceAttrs(t *domain.Trace, ta traceAttrs, span *tracepb.Span, isRoot bool) {
	if ta.name != nil {
		t.Name = ta.name
	} else if t.Name == nil && isRoot {
		name := span.GetName()
		t.Name = &name
	}
	if ta.userID != nil {
		t.UserID = ta.userID
	}
	if ta.sessionID != nil {
		t.SessionID = ta.sessionID
	}
	if len(ta.tags) > 0 {
		t.Tags = mergeTags(t.Tags, ta.tags)
	}
	if len(ta.metadata) > 0 {
		merged := map[string]interface{}{}
		if len(t.Metadata) > 0 {
			_ = json.Unmarshal(t.Metadata, &merged)
		}
		for k, v := range ta.metadata {
			merged[k] = v
		}
		if raw, err := json.Marshal(merged); err == nil {
			t.Metadata = datatypes.JSON(raw)
		}
	}
}

func mergeTags(existing domain.TagSet, add []string) domain.TagSet {
	seen := map[string]struct{}{}
	out := make(domain.TagSet, 0, len(existing)+len(add))
	for _, t := range existing {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	for _, t := range add {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func anyValueToGo(v *commonpb.AnyValue) interface{} {
	if v == nil {
		return nil
	}
	switch x := v.Value.(type) {
	case *commonpb.AnyValue_StringValue:
		return x.StringValue
	case *commonpb.AnyValue_BoolValue:
		return x.BoolValue
	case *commonpb.AnyValue_IntValue:
		return x.IntValue
	case *commonpb.AnyValue_DoubleValue:
		return x.DoubleValue
	case *commonpb.AnyValue_ArrayValue:
		out := make([]interface{}, 0, len(x.ArrayValue.GetValues()))
		for _, e := range x.ArrayValue.GetValues() {
			out = append(out, anyValueToGo(e))
		}
		return out
	case *commonpb.AnyValue_KvlistValue:
		out := map[string]interface{}{}
		for _, kv := range x.KvlistValue.GetValues() {
			out[kv.GetKey()] = anyValueToGo(kv.GetValue())
		}
		return out
	case *commonpb.AnyValue_BytesValue:
		return hex.EncodeToString(x.BytesValue)
	default:
		return nil
	}
}

func toInt64(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case float64:
		return int64(x)
	case int:
		return int64(x)
	default:
		return 0
	}
}

func toStringSlice(v interface{}) []string {
	switch x := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return x
	case string:
		return []string{x}
	default:
		return nil
	}
}

func cutPrefix(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || s[:len(prefix)] != prefix {
		return "", false
	}
	return s[len(prefix):], true
}
