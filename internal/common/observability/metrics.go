package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	calcCounter   otelmetric.Int64Counter
	calcDuration  otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	calcCounter, _ := meter.Int64Counter(
		"matches.calculated",
		otelmetric.WithDescription("Number of match score calculations"),
	)

	calcDuration, _ := meter.Float64Histogram(
		"matches.calculation.duration",
		otelmetric.WithDescription("Match score calculation duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		calcCounter:   calcCounter,
		calcDuration:  calcDuration,
	}
}

func (o *Observability) RecordCalculation(ctx context.Context, status string) {
	if o.calcCounter != nil {
		o.calcCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordCalculationDuration(ctx context.Context, duration time.Duration, status string) {
	if o.calcDuration != nil {
		o.calcDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
