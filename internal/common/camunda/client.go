// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"readiness-workers/internal/common/config"
	"readiness-workers/internal/common/errors"
)

// Client owns the gateway connection shared by every job worker.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RetryConfig            *RetryConfig
}

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// StartupRetryConfig tolerates a broker that is still booting next to the
// workers.
var StartupRetryConfig = &RetryConfig{
	MaxRetries: 8,
	BaseDelay:  time.Second,
	MaxDelay:   15 * time.Second,
}

// NewClientFromConfig connects to cfg.BrokerAddress over plaintext gRPC.
func NewClientFromConfig(cfg config.CamundaConfig) (*Client, error) {
	timeout := 10 * time.Second
	if cfg.RequestTimeout > 0 {
		timeout = config.GetDuration(cfg.RequestTimeout)
	}
	return NewClientWithConfig(&ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      timeout,
		RetryConfig:            StartupRetryConfig,
	})
}

// NewClientWithConfig returns once the broker has answered a topology request,
// retrying transient failures per config.RetryConfig.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = StartupRetryConfig
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: config}
	if _, err := c.ExecuteWithRetry(context.Background(), c.topology, "topology"); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("zeebe broker at %s unreachable: %w", config.GatewayAddress, err)
	}
	return c, nil
}

func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) topology(ctx context.Context) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()
	return c.client.NewTopologyCommand().Send(ctx)
}

// HealthCheck issues a single topology request and reports whether any broker
// answered.
func (c *Client) HealthCheck(ctx context.Context) error {
	res, err := c.topology(ctx)
	if err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	if topo, ok := res.(*pb.TopologyResponse); ok && len(topo.GetBrokers()) == 0 {
		return fmt.Errorf("zeebe health check failed: gateway reports no brokers")
	}
	return nil
}

// ExecuteWithRetry runs commandFunc until it succeeds, fails permanently or
// exhausts MaxRetries. The returned error is a *errors.StandardError unless ctx
// ended first.
func (c *Client) ExecuteWithRetry(
	ctx context.Context,
	commandFunc func(context.Context) (interface{}, error),
	operationName string,
) (interface{}, error) {
	rc := c.config.RetryConfig
	for attempt := 0; ; attempt++ {
		result, err := commandFunc(ctx)
		if err == nil {
			return result, nil
		}
		if !isRetryableZeebeError(err) || attempt >= rc.MaxRetries {
			return nil, c.mapZeebeError(err, operationName, attempt)
		}

		delay := min(rc.BaseDelay*time.Duration(1<<attempt), rc.MaxDelay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("operation %s cancelled after %d attempts: %w", operationName, attempt+1, ctx.Err())
		}
	}
}

type failureKind int

const (
	failureOther failureKind = iota
	failureUnavailable
	failureTimeout
	failureAuth
)

var phraseKinds = []struct {
	phrase string
	kind   failureKind
}{
	{"permission denied", failureAuth},
	{"unauthenticated", failureAuth},
	{"unauthorized", failureAuth},
	{"deadline exceeded", failureTimeout},
	{"timeout", failureTimeout},
	{"connection refused", failureUnavailable},
	{"connection reset", failureUnavailable},
	{"broken pipe", failureUnavailable},
	{"unavailable", failureUnavailable},
	{"unreachable", failureUnavailable},
}

// classify prefers the gRPC status code and falls back to the message for
// errors raised below the gRPC layer.
func classify(err error) failureKind {
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
			return failureUnavailable
		case codes.DeadlineExceeded:
			return failureTimeout
		case codes.PermissionDenied, codes.Unauthenticated:
			return failureAuth
		case codes.Unknown:
		default:
			return failureOther
		}
	}
	msg := strings.ToLower(err.Error())
	for _, pk := range phraseKinds {
		if strings.Contains(msg, pk.phrase) {
			return pk.kind
		}
	}
	return failureOther
}

func isRetryableZeebeError(err error) bool {
	k := classify(err)
	return k == failureUnavailable || k == failureTimeout
}

func (c *Client) mapZeebeError(err error, operation string, attempt int) error {
	desc := fmt.Sprintf("Zeebe operation '%s' failed", operation)
	if attempt > 0 {
		desc += fmt.Sprintf(" after %d attempts", attempt+1)
	}
	cause := fmt.Errorf("%s: %s", desc, err.Error())

	switch classify(err) {
	case failureTimeout:
		return errors.NewTimeoutError("zeebe", cause)
	case failureAuth:
		return errors.NewAuthenticationError("zeebe", cause.Error())
	default:
		return errors.NewExternalServiceError("zeebe", cause)
	}
}
