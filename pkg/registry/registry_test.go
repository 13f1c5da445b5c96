package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistry() *ActivityRegistry {
	return &ActivityRegistry{
		Version: "1.0.0",
		Activities: []Activity{
			{ID: "readiness.score.generate", DisplayName: "Generate", Category: "readiness", TaskType: "generate-readiness-score", Timeout: "2m"},
			{ID: "readiness.score.get", DisplayName: "Get", Category: "readiness", TaskType: "get-readiness-score"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *ActivityRegistry)
		wantErr string
	}{
		{name: "valid", mutate: func(*ActivityRegistry) {}},
		{name: "empty", mutate: func(r *ActivityRegistry) { r.Activities = nil }, wantErr: "no activities"},
		{name: "duplicate id", mutate: func(r *ActivityRegistry) { r.Activities[1].ID = r.Activities[0].ID }, wantErr: "duplicate activity ID"},
		{name: "duplicate task type", mutate: func(r *ActivityRegistry) { r.Activities[1].TaskType = r.Activities[0].TaskType }, wantErr: "duplicate task type"},
		{name: "missing category", mutate: func(r *ActivityRegistry) { r.Activities[0].Category = "" }, wantErr: "Category"},
		{name: "bad timeout", mutate: func(r *ActivityRegistry) { r.Activities[0].Timeout = "soon" }, wantErr: "invalid timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRegistry()
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.json")
	require.NoError(t, SaveRegistry(validRegistry(), path))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	a, ok := reg.Find("get-readiness-score")
	require.True(t, ok)
	assert.Equal(t, "readiness.score.get", a.ID)

	_, ok = reg.Find("unknown")
	assert.False(t, ok)
}

func TestTimeoutOr(t *testing.T) {
	reg := validRegistry()
	assert.Equal(t, 2*time.Minute, reg.Activities[0].TimeoutOr(time.Second))
	assert.Equal(t, time.Second, reg.Activities[1].TimeoutOr(time.Second))

	var nilActivity *Activity
	assert.Equal(t, time.Second, nilActivity.TimeoutOr(time.Second))
}

func TestSetField(t *testing.T) {
	reg := validRegistry()

	require.NoError(t, reg.SetField("readiness.score.get", "status", "verified"))
	require.NoError(t, reg.SetField("readiness.score.get", "timeout", "15s"))
	require.NoError(t, reg.SetField("readiness.score.get", "retries", "2"))

	a, _ := reg.Find("get-readiness-score")
	assert.Equal(t, "verified", a.ImplementationStatus)
	assert.Equal(t, "15s", a.Timeout)
	assert.Equal(t, 2, a.Retries)
	assert.NotEmpty(t, reg.LastUpdated)

	assert.ErrorContains(t, reg.SetField("missing", "status", "x"), "not found")
	assert.ErrorContains(t, reg.SetField("readiness.score.get", "taskType", "x"), "unknown field")
	assert.ErrorContains(t, reg.SetField("readiness.score.get", "timeout", "later"), "invalid timeout")
	assert.ErrorContains(t, reg.SetField("readiness.score.get", "retries", "-1"), "invalid retries")
}
