package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Dataset metrics
	DatasetLoadsTotal   metric.Int64Counter
	DatasetLoadDuration metric.Float64Histogram
	DatasetRecords      metric.Int64Gauge
	RecordsDerived      metric.Int64Counter

	// Query metrics
	QueriesTotal   metric.Int64Counter
	QueryMatched   metric.Int64Histogram
	EmptyResults   metric.Int64Counter
	ExportsTotal   metric.Int64Counter
	ExportDuration metric.Float64Histogram

	// WebSocket metrics
	WebSocketClients metric.Int64UpDownCounter
}

// CreateBusinessMetrics creates application-specific metrics on meter
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		m   BusinessMetrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.DatasetLoadsTotal, err = meter.Int64Counter(
		"dataset_loads_total",
		metric.WithDescription("Total number of dataset loads by status"),
	); err != nil {
		return nil, err
	}
	if m.DatasetLoadDuration, err = meter.Float64Histogram(
		"dataset_load_duration_seconds",
		metric.WithDescription("Dataset load duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.DatasetRecords, err = meter.Int64Gauge(
		"dataset_records",
		metric.WithDescription("Number of student records in the current snapshot"),
	); err != nil {
		return nil, err
	}
	if m.RecordsDerived, err = meter.Int64Counter(
		"records_derived_total",
		metric.WithDescription("Total number of student records run through derivation"),
	); err != nil {
		return nil, err
	}

	if m.QueriesTotal, err = meter.Int64Counter(
		"queries_total",
		metric.WithDescription("Total number of dashboard queries by view"),
	); err != nil {
		return nil, err
	}
	if m.QueryMatched, err = meter.Int64Histogram(
		"query_matched_records",
		metric.WithDescription("Records matched per dashboard query"),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 50, 100, 500, 1000, 5000),
	); err != nil {
		return nil, err
	}
	if m.EmptyResults, err = meter.Int64Counter(
		"query_empty_results_total",
		metric.WithDescription("Total number of queries whose filters matched no students"),
	); err != nil {
		return nil, err
	}
	if m.ExportsTotal, err = meter.Int64Counter(
		"exports_total",
		metric.WithDescription("Total number of exports by format"),
	); err != nil {
		return nil, err
	}
	if m.ExportDuration, err = meter.Float64Histogram(
		"export_duration_seconds",
		metric.WithDescription("Export rendering duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.WebSocketClients, err = meter.Int64UpDownCounter(
		"websocket_clients",
		metric.WithDescription("Number of connected WebSocket clients"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

func statusAttr(success bool) attribute.KeyValue {
	if success {
		return attribute.String("status", "success")
	}
	return attribute.String("status", "failure")
}

// RecordDatasetLoad records one dataset load attempt
func RecordDatasetLoad(ctx context.Context, m *BusinessMetrics, origin string, records int, duration time.Duration, success bool) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("dataset.origin", origin), statusAttr(success))
	m.DatasetLoadsTotal.Add(ctx, 1, attrs)
	m.DatasetLoadDuration.Record(ctx, duration.Seconds(), attrs)
	if success {
		m.DatasetRecords.Record(ctx, int64(records), metric.WithAttributes(attribute.String("dataset.origin", origin)))
	}
}

// RecordQuery records a dashboard query. derived is the number of records
// run through derivation and matched the number passing the filters.
func RecordQuery(ctx context.Context, m *BusinessMetrics, view string, derived, matched int) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("view", view))
	m.QueriesTotal.Add(ctx, 1, attrs)
	m.RecordsDerived.Add(ctx, int64(derived), attrs)
	m.QueryMatched.Record(ctx, int64(matched), attrs)
	if matched == 0 {
		m.EmptyResults.Add(ctx, 1, attrs)
	}
}

// RecordExport records an export rendering
func RecordExport(ctx context.Context, m *BusinessMetrics, format string, duration time.Duration, success bool) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("export.format", format), statusAttr(success))
	m.ExportsTotal.Add(ctx, 1, attrs)
	m.ExportDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordWebSocketClients records a change in connected client count
func RecordWebSocketClients(ctx context.Context, m *BusinessMetrics, delta int64) {
	if m == nil {
		return
	}
	m.WebSocketClients.Add(ctx, delta)
}
