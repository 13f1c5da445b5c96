package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"readiness-workers/internal/common/errors"
	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/common/validation"
)

// DecodeVariables checks the job variables against the input schema
// registered for taskType and decodes them into out. A nil validator skips the
// schema check. Failures are INVALID_INPUT standard errors.
func DecodeVariables(job entities.Job, validator *validation.Validator, taskType string, out interface{}) error {
	raw := job.GetVariables()
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	if validator != nil {
		if result := validator.ValidateJSON(taskType, raw); !result.Valid {
			std := errors.NewInvalidInputError(result.Error())
			std.Metadata = map[string]interface{}{"taskType": taskType}
			return std
		}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}
	return nil
}

// CompleteJob completes the job with output as its variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}, log logger.Logger) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		log.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		log.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}

// ErrorCode extracts the code used as the failed-jobs metric label.
func ErrorCode(err error) string {
	return string(errors.Normalize(err).Code)
}
