// Package gateway wraps outbound provider calls with fingerprinting, a shared
// cache lookup and a uniform error taxonomy.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"readiness-workers/internal/common/cache"
	commonhttp "readiness-workers/internal/common/http"
	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/common/metrics"
)

// RequestTimeout bounds every upstream call.
const RequestTimeout = 30 * time.Second

// TTL classes, ordered by how quickly the underlying signal goes stale.
const (
	TTLShort    = 30 * time.Minute
	TTLMedium   = 6 * time.Hour
	TTLLong     = 24 * time.Hour
	TTLVeryLong = 7 * 24 * time.Hour
)

const maxResponseBytes = 8 << 20

type Options struct {
	Service string
	BaseURL string
	// Headers are sent on every call and never take part in the fingerprint.
	Headers    map[string]string
	Store      cache.Store
	HTTPClient *commonhttp.Client
	Logger     logger.Logger
}

type Gateway struct {
	service string
	baseURL string
	headers map[string]string
	store   cache.Store
	client  *commonhttp.Client
	logger  logger.Logger
	timeout time.Duration
}

func New(opts Options) *Gateway {
	client := opts.HTTPClient
	if client == nil {
		client = commonhttp.NewClient(RequestTimeout)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Gateway{
		service: opts.Service,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		headers: opts.Headers,
		store:   opts.Store,
		client:  client,
		logger:  log.WithFields(map[string]interface{}{"component": "gateway", "service": opts.Service}),
		timeout: RequestTimeout,
	}
}

func (g *Gateway) Service() string { return g.service }

type RequestConfig struct {
	Method  string
	Params  map[string]interface{}
	Body    interface{}
	Headers map[string]string
}

// Request returns the cached payload for the fingerprint of (service,
// endpoint, method, params, body) when a live entry exists, and otherwise calls
// the provider and caches a successful response for ttl. Failed calls are
// returned as *ProviderError and never cached. Concurrent identical misses
// each reach the provider.
func Request[T any](ctx context.Context, g *Gateway, endpoint string, cfg RequestConfig, ttl time.Duration) (T, error) {
	var zero T
	fp := Fingerprint(g.service, endpoint, cfg.Method, cfg.Params, cfg.Body)

	if payload, ok := g.lookup(ctx, fp); ok {
		var out T
		err := json.Unmarshal(payload, &out)
		if err == nil {
			metrics.GatewayCacheHits.WithLabelValues(g.service).Inc()
			g.logger.Debug("cache hit", map[string]interface{}{"endpoint": endpoint, "fingerprint": fp})
			return out, nil
		}
		g.logger.Warn("cached payload undecodable, refetching", map[string]interface{}{
			"fingerprint": fp,
			"error":       err,
		})
	}
	metrics.GatewayCacheMisses.WithLabelValues(g.service).Inc()

	body, err := g.fetch(ctx, endpoint, cfg)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		metrics.ProviderRequests.WithLabelValues(g.service, string(KindServer)).Inc()
		return zero, &ProviderError{
			Kind:       KindServer,
			Service:    g.service,
			StatusCode: http.StatusOK,
			Message:    "provider returned a body that is not valid JSON for the expected shape",
			Err:        err,
		}
	}

	g.save(ctx, fp, body, ttl)
	return out, nil
}

// lookup treats store failures as a miss.
func (g *Gateway) lookup(ctx context.Context, fp string) ([]byte, bool) {
	if g.store == nil {
		return nil, false
	}
	payload, found, err := g.store.Get(ctx, fp)
	if err != nil {
		metrics.GatewayCacheErrors.WithLabelValues(g.service, "get").Inc()
		g.logger.Warn("cache read failed, treating as miss", map[string]interface{}{
			"fingerprint": fp,
			"error":       err,
		})
		return nil, false
	}
	return payload, found
}

// save logs and swallows store failures; the current response is unaffected.
func (g *Gateway) save(ctx context.Context, fp string, payload []byte, ttl time.Duration) {
	if g.store == nil {
		return
	}
	if err := g.store.Put(ctx, fp, payload, ttl); err != nil {
		metrics.GatewayCacheErrors.WithLabelValues(g.service, "put").Inc()
		g.logger.Warn("cache write failed", map[string]interface{}{
			"fingerprint": fp,
			"error":       err,
		})
	}
}

func (g *Gateway) fetch(ctx context.Context, endpoint string, cfg RequestConfig) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := g.buildRequest(ctx, endpoint, cfg)
	if err != nil {
		return nil, &ProviderError{Kind: KindTransport, Service: g.service, Message: "could not build request", Err: err}
	}

	start := time.Now()
	resp, err := g.client.DoWithContext(ctx, req)
	metrics.ProviderRequestDuration.WithLabelValues(g.service).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(g.service, string(KindTransport)).Inc()
		msg := "network error contacting provider"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = fmt.Sprintf("request timed out after %s", g.timeout)
		}
		return nil, &ProviderError{Kind: KindTransport, Service: g.service, Message: msg, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(g.service, string(KindTransport)).Inc()
		return nil, &ProviderError{
			Kind:       KindTransport,
			Service:    g.service,
			StatusCode: resp.StatusCode,
			Message:    "failed reading response body",
			Err:        err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		pe := classifyStatus(g.service, resp, snippet(body))
		metrics.ProviderRequests.WithLabelValues(g.service, string(pe.Kind)).Inc()
		g.logger.Warn("provider call failed", map[string]interface{}{
			"endpoint":   endpoint,
			"statusCode": resp.StatusCode,
			"kind":       string(pe.Kind),
		})
		return nil, pe
	}

	metrics.ProviderRequests.WithLabelValues(g.service, "success").Inc()
	return body, nil
}

func (g *Gateway) buildRequest(ctx context.Context, endpoint string, cfg RequestConfig) (*http.Request, error) {
	u, err := url.Parse(g.baseURL + "/" + strings.TrimLeft(endpoint, "/"))
	if err != nil {
		return nil, err
	}
	if len(cfg.Params) > 0 {
		q := u.Query()
		for k, v := range cfg.Params {
			addParam(q, k, v)
		}
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if cfg.Body != nil {
		encoded, err := json.Marshal(cfg.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, normalizeMethod(cfg.Method), u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range g.headers {
		req.Header.Set(k, v)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func addParam(q url.Values, key string, v interface{}) {
	switch val := v.(type) {
	case nil:
	case []string:
		for _, s := range val {
			q.Add(key, s)
		}
	case []interface{}:
		for _, s := range val {
			q.Add(key, fmt.Sprint(s))
		}
	default:
		q.Set(key, fmt.Sprint(val))
	}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
