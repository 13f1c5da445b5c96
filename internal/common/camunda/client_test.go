package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"readiness-workers/internal/common/errors"
)

func newTestClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
		},
	}}
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := map[string]bool{
		"rpc error: code = Unavailable desc = connection refused": true,
		"context deadline exceeded":                               true,
		"write: broken pipe":                                      true,
		"rpc error: code = NotFound desc = job not found":         false,
		"rpc error: code = InvalidArgument":                       false,
	}
	for msg, want := range tests {
		assert.Equal(t, want, isRetryableZeebeError(stderrors.New(msg)), msg)
	}
}

func TestClassify_GRPCStatus(t *testing.T) {
	tests := []struct {
		err       error
		want      failureKind
		retryable bool
	}{
		{status.Error(codes.Unavailable, "broker restarting"), failureUnavailable, true},
		{status.Error(codes.ResourceExhausted, "backpressure"), failureUnavailable, true},
		{status.Error(codes.DeadlineExceeded, "slow"), failureTimeout, true},
		{status.Error(codes.Unauthenticated, "token expired"), failureAuth, false},
		{status.Error(codes.NotFound, "connection refused"), failureOther, false},
		{status.Error(codes.Unknown, "connection reset by peer"), failureUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
			assert.Equal(t, tt.retryable, isRetryableZeebeError(tt.err))
		})
	}
}

func TestExecuteWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantCode  errors.ErrorCode
	}{
		{
			name:      "succeeds after transient failures",
			failures:  []error{stderrors.New("connection refused"), stderrors.New("deadline exceeded")},
			wantCalls: 3,
		},
		{
			name:      "non retryable stops immediately",
			failures:  []error{stderrors.New("permission denied")},
			wantCalls: 1,
			wantCode:  errors.ErrCodeProviderAuthFailed,
		},
		{
			name: "gives up after max retries",
			failures: []error{
				stderrors.New("unavailable"), stderrors.New("unavailable"),
				stderrors.New("unavailable"), stderrors.New("timeout"),
			},
			wantCalls: 4,
			wantCode:  errors.ErrCodeProviderTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(3)
			calls := 0
			result, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
				calls++
				if calls <= len(tt.failures) {
					return nil, tt.failures[calls-1]
				}
				return "ok", nil
			}, "topology")

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "ok", result)
				return
			}
			var std *errors.StandardError
			require.True(t, stderrors.As(err, &std))
			assert.Equal(t, tt.wantCode, std.Code)
		})
	}
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	c := newTestClient(5)
	c.config.RetryConfig.BaseDelay = time.Hour
	c.config.RetryConfig.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
		return nil, stderrors.New("connection reset")
	}, "publish")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMapZeebeError_Unknown(t *testing.T) {
	err := newTestClient(0).mapZeebeError(stderrors.New("something odd"), "deploy", 0)
	var std *errors.StandardError
	require.True(t, stderrors.As(err, &std))
	assert.Equal(t, errors.ErrCodeProviderUnavailable, std.Code)
	assert.Contains(t, std.Details, "Zeebe operation 'deploy' failed")
}
