package camunda

import (
	stderrors "errors"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readiness-workers/internal/common/errors"
	"readiness-workers/internal/common/validation"
	"readiness-workers/pkg/registry"
)

func createMockJob(variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                100,
		Type:               "get-readiness-score",
		ProcessInstanceKey: 1000,
		Retries:            3,
		Variables:          variables,
	}}
}

func createValidator(t *testing.T) *validation.Validator {
	v, err := validation.NewValidator(&registry.ActivityRegistry{Activities: []registry.Activity{{
		ID:       "readiness.score.get",
		TaskType: "get-readiness-score",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"transitionId": map[string]interface{}{"type": "string", "minLength": 1}},
			"required":   []interface{}{"transitionId"},
		},
	}}})
	require.NoError(t, err)
	return v
}

type scoreRequest struct {
	TransitionID string `json:"transitionId"`
}

func TestDecodeVariables(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		validator bool
		wantErr   bool
		wantID    string
	}{
		{name: "valid", variables: `{"transitionId":"t-1"}`, validator: true, wantID: "t-1"},
		{name: "missing required field", variables: `{}`, validator: true, wantErr: true},
		{name: "empty variables", variables: ``, validator: true, wantErr: true},
		{name: "wrong type", variables: `{"transitionId":7}`, validator: true, wantErr: true},
		{name: "no validator skips schema", variables: `{}`, wantID: ""},
		{name: "malformed json", variables: `{"transitionId":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v *validation.Validator
			if tt.validator {
				v = createValidator(t)
			}
			var out scoreRequest
			err := DecodeVariables(createMockJob(tt.variables), v, "get-readiness-score", &out)
			if tt.wantErr {
				require.Error(t, err)
				var std *errors.StandardError
				require.True(t, stderrors.As(err, &std))
				assert.Equal(t, errors.ErrCodeInvalidInput, std.Code)
				assert.False(t, std.Retryable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, out.TransitionID)
		})
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "TRANSITION_NOT_FOUND", ErrorCode(errors.NewTransitionNotFoundError("t-1")))
	assert.Equal(t, "INTERNAL_ERROR", ErrorCode(stderrors.New("boom")))
}
