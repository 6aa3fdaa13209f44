// Package domain defines the core entities ingested and served by the
// store: traces, observations, and metric points (spec.md §3).
package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/lipish/xtrace/pkg/id"
)

// Trace is a single top-level unit of work (spec.md §3). Traces are
// upserted by id; a field left nil on a later write never overwrites an
// already-stored value (last-write-wins per non-null field).
type Trace struct {
	ID          id.ID          `gorm:"type:char(32);primaryKey" json:"id"`
	ProjectID   string         `gorm:"size:255;not null;index:idx_traces_project_ts" json:"projectId"`
	Timestamp   time.Time      `gorm:"not null;index:idx_traces_project_ts" json:"timestamp"`
	Name        *string        `json:"name,omitempty"`
	UserID      *string        `gorm:"size:255;index:idx_traces_user" json:"userId,omitempty"`
	SessionID   *string        `gorm:"size:255;index:idx_traces_session" json:"sessionId,omitempty"`
	Release     *string        `gorm:"size:255" json:"release,omitempty"`
	Version     *string        `gorm:"size:255" json:"version,omitempty"`
	Tags        TagSet         `gorm:"type:text[]" json:"tags"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	Input       datatypes.JSON `json:"input,omitempty"`
	Output      datatypes.JSON `json:"output,omitempty"`
	Public      bool           `gorm:"not null;default:false" json:"public"`
	ExternalID  *string        `gorm:"size:255" json:"externalId,omitempty"`
	Bookmarked  bool           `gorm:"not null;default:false" json:"bookmarked"`
	Environment string         `gorm:"size:255;not null;default:default;index:idx_traces_environment" json:"environment"`
	Latency     *float64       `json:"latency,omitempty"`
	TotalCost   *float64       `json:"totalCost,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`

	Observations []Observation `gorm:"foreignKey:TraceID;constraint:OnDelete:CASCADE" json:"observations,omitempty"`
}

// TableName pins the GORM table name explicitly rather than relying on
// pluralization, matching the store schema in spec.md §4.1.
func (Trace) TableName() string { return "traces" }

// TagSet is an ordered set of tags stored as a Postgres text array;
// insertion order is preserved for display. Contains compares tags
// case-insensitively, while the store's SQL tags filter (tags @> in
// internal/core/store) compares them exactly.
type TagSet []string

// Contains reports whether every tag in want is present in ts (all-of
// containment), using case-insensitive comparison.
func (ts TagSet) Contains(want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(ts))
	for _, t := range ts {
		have[lower(t)] = struct{}{}
	}
	for _, w := range want {
		if _, ok := have[lower(w)]; !ok {
			return false
		}
	}
	return true
}

func lower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// Validate enforces the minimal structural invariants spec.md §3 requires
// before a trace is accepted onto the ingest queue.
func (t *Trace) Validate() error {
	if t.ID.IsZero() {
		return errRequired("id")
	}
	if t.ProjectID == "" {
		return errRequired("projectId")
	}
	if t.Environment == "" {
		t.Environment = "default"
	}
	return nil
}

// MarshalInput normalizes an arbitrary JSON-able value into the datatypes.JSON
// column representation used for Input/Output/Metadata.
func MarshalInput(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
