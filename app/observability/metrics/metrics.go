package metrics

import (
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "skill-registry"

// Outcome values recorded on auth counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	RegisterTotal           metric.Int64Counter
	RegisterDurationSeconds metric.Float64Histogram
	LoginTotal              metric.Int64Counter
	SkillDownloadsTotal     metric.Int64Counter
	SkillClonesTotal        metric.Int64Counter
	DbQueryErrorsTotal      metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	initErr    error
	once       sync.Once
)

// InitAppMetrics creates the instruments from the global MeterProvider. Only
// the first call has any effect, so the tracer package must have installed its
// provider before this runs.
func InitAppMetrics() error {
	once.Do(func() {
		appMetrics, initErr = newAppMetrics(otel.GetMeterProvider().Meter(meterName))
	})
	return initErr
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	var err error
	m := &AppMetrics{}

	if m.RegisterTotal, err = meter.Int64Counter(
		"auth_register_total",
		metric.WithDescription("Total number of register requests by outcome"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("auth_register_total: %w", err)
	}

	if m.RegisterDurationSeconds, err = meter.Float64Histogram(
		"auth_register_duration_seconds",
		metric.WithDescription("Duration of register requests in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("auth_register_duration_seconds: %w", err)
	}

	if m.LoginTotal, err = meter.Int64Counter(
		"auth_login_total",
		metric.WithDescription("Total number of login attempts by outcome"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("auth_login_total: %w", err)
	}

	if m.SkillDownloadsTotal, err = meter.Int64Counter(
		"skill_downloads_total",
		metric.WithDescription("Total number of skill downloads"),
		metric.WithUnit("{download}"),
	); err != nil {
		return nil, fmt.Errorf("skill_downloads_total: %w", err)
	}

	if m.SkillClonesTotal, err = meter.Int64Counter(
		"skill_clones_total",
		metric.WithDescription("Total number of skill clones"),
		metric.WithUnit("{clone}"),
	); err != nil {
		return nil, fmt.Errorf("skill_clones_total: %w", err)
	}

	if m.DbQueryErrorsTotal, err = meter.Int64Counter(
		"db_query_errors_total",
		metric.WithDescription("Total number of database query errors"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, fmt.Errorf("db_query_errors_total: %w", err)
	}

	return m, nil
}

// Get returns the process instruments, initializing them on first use. When
// initialization failed the instruments come from the no-op provider.
func Get() *AppMetrics {
	if err := InitAppMetrics(); err != nil || appMetrics == nil {
		return noopMetrics
	}
	return appMetrics
}

// Outcome is a helper for the outcome attribute on auth counters.
func Outcome(v string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("outcome", v))
}
