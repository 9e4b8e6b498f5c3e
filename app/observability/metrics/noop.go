package metrics

import "go.opentelemetry.io/otel/metric/noop"

var noopMetrics = func() *AppMetrics {
	m, _ := newAppMetrics(noop.NewMeterProvider().Meter(meterName))
	return m
}()
