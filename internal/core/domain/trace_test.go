package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lipish/xtrace/pkg/id"
)

func TestTrace_Validate_RequiresID(t *testing.T) {
	tr := &Trace{ProjectID: "default"}
	assert.Error(t, tr.Validate())
}

func TestTrace_Validate_DefaultsEnvironment(t *testing.T) {
	tr := &Trace{ID: id.New(), ProjectID: "default"}
	assert.NoError(t, tr.Validate())
	assert.Equal(t, "default", tr.Environment)
}

func TestTagSet_Contains_AllOfCaseInsensitive(t *testing.T) {
	tags := TagSet{"Production", "beta"}
	assert.True(t, tags.Contains([]string{"production", "BETA"}))
	assert.False(t, tags.Contains([]string{"production", "gamma"}))
	assert.True(t, tags.Contains(nil))
}
