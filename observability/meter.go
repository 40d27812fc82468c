package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/modelfixture/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name reported for fixture metrics.
	ServiceName string
	// Environment is the deployment environment (ci, local).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows plain HTTP connections to the collector.
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns defaults for a local collector.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName: serviceName,
		Environment: "test",
		Endpoint:    "localhost:4318",
		Insecure:    true,
		Interval:    15 * time.Second,
	}
}

// InitMeter installs a global meter provider exporting over OTLP HTTP.
// The returned provider must be shut down to flush pending data points.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric names.
const (
	MetricRowsLoaded     = "fixture.rows.loaded"
	MetricRowsDeleted    = "fixture.rows.deleted"
	MetricDeleteFailures = "fixture.delete.failures"
	MetricDuration       = "fixture.operation.duration"
)

// FixtureMetrics holds the instruments fixtures report to.
type FixtureMetrics struct {
	rowsLoaded     metric.Int64Counter
	rowsDeleted    metric.Int64Counter
	deleteFailures metric.Int64Counter
	duration       metric.Float64Histogram
}

// NewFixtureMetrics creates fixture instruments on the given meter.
func NewFixtureMetrics(meter metric.Meter) (*FixtureMetrics, error) {
	rowsLoaded, err := meter.Int64Counter(MetricRowsLoaded,
		metric.WithDescription("Rows inserted by fixture loads"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRowsLoaded, err)
	}

	rowsDeleted, err := meter.Int64Counter(MetricRowsDeleted,
		metric.WithDescription("Rows removed by fixture cleanup"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRowsDeleted, err)
	}

	deleteFailures, err := meter.Int64Counter(MetricDeleteFailures,
		metric.WithDescription("Rows fixture cleanup failed to remove"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricDeleteFailures, err)
	}

	duration, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Duration of fixture loads and unloads in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricDuration, err)
	}

	return &FixtureMetrics{
		rowsLoaded:     rowsLoaded,
		rowsDeleted:    rowsDeleted,
		deleteFailures: deleteFailures,
		duration:       duration,
	}, nil
}

var (
	defaultMetrics     *FixtureMetrics
	defaultMetricsOnce sync.Once
)

// DefaultFixtureMetrics returns instruments on the global meter provider.
// Until a provider is installed they record nothing.
func DefaultFixtureMetrics() *FixtureMetrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewFixtureMetrics(Meter(defaultTracerName))
		if err != nil {
			logger.Warn("fixture metrics unavailable", logger.Fields(logger.FieldError, err.Error()))
			return
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

func fixtureAttrs(fixture, table string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String(AttrFixture, fixture),
		attribute.String(AttrTable, table),
	)
}

// RecordLoad records a finished load of rows into table.
func (m *FixtureMetrics) RecordLoad(ctx context.Context, fixture, table string, rows int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := fixtureAttrs(fixture, table)
	m.rowsLoaded.Add(ctx, int64(rows), attrs)
	m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrFixture, fixture),
		attribute.String("operation", "load"),
	))
}

// RecordUnload records a finished cleanup sweep over table.
func (m *FixtureMetrics) RecordUnload(ctx context.Context, fixture, table string, deleted, failures int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := fixtureAttrs(fixture, table)
	m.rowsDeleted.Add(ctx, int64(deleted), attrs)
	if failures > 0 {
		m.deleteFailures.Add(ctx, int64(failures), attrs)
	}
	m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrFixture, fixture),
		attribute.String("operation", "unload"),
	))
}
