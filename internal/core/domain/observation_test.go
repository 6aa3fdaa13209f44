package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lipish/xtrace/pkg/id"
)

func TestObservation_Validate_RequiresTraceID(t *testing.T) {
	o := &Observation{ID: id.New(), ProjectID: "default"}
	assert.Error(t, o.Validate())
}

func TestObservation_Validate_DefaultsTypeAndEnvironment(t *testing.T) {
	o := &Observation{ID: id.New(), TraceID: id.New(), ProjectID: "default"}
	assert.NoError(t, o.Validate())
	assert.Equal(t, ObservationSpan, o.Type)
	assert.Equal(t, "default", o.Environment)
}
