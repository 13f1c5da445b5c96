package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"readiness-workers/internal/common/logger"
)

// Observability records score-generation meters through an OpenTelemetry
// meter exported on the Prometheus registry. A nil *Observability is a no-op.
type Observability struct {
	meterProvider  *metric.MeterProvider
	meter          otelmetric.Meter
	generations    otelmetric.Int64Counter
	duration       otelmetric.Float64Histogram
	overall        otelmetric.Int64Histogram
	neutralSignals otelmetric.Int64Counter
}

func New(serviceName string, log logger.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		if log != nil {
			log.Warn("otel prometheus exporter unavailable, meters disabled", map[string]interface{}{"error": err})
		}
		return nil
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	generations, _ := meter.Int64Counter(
		"readiness.score.generations",
		otelmetric.WithDescription("Readiness score generations by outcome"),
	)

	duration, _ := meter.Float64Histogram(
		"readiness.score.duration",
		otelmetric.WithDescription("Readiness score generation duration"),
		otelmetric.WithUnit("ms"),
	)

	overall, _ := meter.Int64Histogram(
		"readiness.score.overall",
		otelmetric.WithDescription("Distribution of generated overall scores"),
	)

	neutral, _ := meter.Int64Counter(
		"readiness.score.neutral_signals",
		otelmetric.WithDescription("Sub-scores that fell back to the neutral default"),
	)

	return &Observability{
		meterProvider:  provider,
		meter:          meter,
		generations:    generations,
		duration:       duration,
		overall:        overall,
		neutralSignals: neutral,
	}
}

func (o *Observability) RecordGeneration(ctx context.Context, status string, took time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("status", status))
	if o.generations != nil {
		o.generations.Add(ctx, 1, attrs)
	}
	if o.duration != nil {
		o.duration.Record(ctx, float64(took.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordScore(ctx context.Context, overall int, neutralSignals int) {
	if o == nil {
		return
	}
	if o.overall != nil {
		o.overall.Record(ctx, int64(overall))
	}
	if o.neutralSignals != nil && neutralSignals > 0 {
		o.neutralSignals.Add(ctx, int64(neutralSignals))
	}
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	o.meterProvider.Shutdown(ctx)
}
