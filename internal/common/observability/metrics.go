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

	applications   otelmetric.Int64Counter
	intakeDuration otelmetric.Float64Histogram
	notifications  otelmetric.Int64Counter
	statusChanges  otelmetric.Int64Counter
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

	applications, _ := meter.Int64Counter(
		"applications.processed",
		otelmetric.WithDescription("Number of applications processed by the intake pipeline"),
	)

	intakeDuration, _ := meter.Float64Histogram(
		"intake.duration",
		otelmetric.WithDescription("Intake pipeline duration"),
		otelmetric.WithUnit("ms"),
	)

	notifications, _ := meter.Int64Counter(
		"notifications.dispatched",
		otelmetric.WithDescription("Number of candidate notifications dispatched"),
	)

	statusChanges, _ := meter.Int64Counter(
		"status.changes",
		otelmetric.WithDescription("Number of candidate status transitions"),
	)

	return &Observability{
		meterProvider:  provider,
		meter:          meter,
		applications:   applications,
		intakeDuration: intakeDuration,
		notifications:  notifications,
		statusChanges:  statusChanges,
	}
}

func (o *Observability) RecordApplication(ctx context.Context, status string) {
	if o != nil && o.applications != nil {
		o.applications.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordIntakeDuration(ctx context.Context, duration time.Duration, status string) {
	if o != nil && o.intakeDuration != nil {
		o.intakeDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordNotification(ctx context.Context, kind string, sent bool) {
	if o != nil && o.notifications != nil {
		o.notifications.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("kind", kind),
			attribute.Bool("sent", sent),
		))
	}
}

func (o *Observability) RecordStatusChange(ctx context.Context, target string) {
	if o != nil && o.statusChanges != nil {
		o.statusChanges.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("target", target),
		))
	}
}

func (o *Observability) Shutdown() {
	if o != nil && o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
