package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"studentpulse/internal/dataprocessing"
	"studentpulse/internal/datasource"
	"studentpulse/internal/exporter"
	"studentpulse/internal/infrastructure"
	api "studentpulse/pkg/contracts/api/v1"
	"studentpulse/pkg/contracts/domain"
	"studentpulse/pkg/contracts/events"
)

// Dataset is the cached student table the dashboard reads from.
// *datasource.DataSource implements it.
type Dataset interface {
	Snapshot(ctx context.Context) (datasource.Snapshot, error)
	Reload(ctx context.Context) (datasource.Snapshot, error)
	Subscribe(l datasource.Listener)
	Status() datasource.Status
}

// Notifier delivers dataset events to connected dashboards.
// *websocket.Hub implements it.
type Notifier interface {
	Publish(msg events.WebSocketMessage) error
}

// DashboardOptions configures derivation and export
type DashboardOptions struct {
	Subjects  []string
	Derive    dataprocessing.DeriveOptions
	ExportBOM bool
}

// DatasetStatus is the body of GET /api/dataset
type DatasetStatus struct {
	datasource.Status
	Subjects      []string `json:"subjects"`
	MissingPolicy string   `json:"missing_policy"`
}

// DashboardService turns the cached dataset into the dashboard views:
// dataset → derived → filtered → view.
type DashboardService struct {
	dataset  Dataset
	opts     DashboardOptions
	notifier Notifier
	tracer   trace.Tracer
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewDashboardService creates the service and subscribes it to dataset
// reloads. notifier, tracer and metrics may be nil.
func NewDashboardService(dataset Dataset, opts DashboardOptions, notifier Notifier, tracer trace.Tracer, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}
	if opts.Derive.MissingPolicy == "" {
		opts.Derive = dataprocessing.DefaultOptions()
	}
	opts.Subjects = append([]string(nil), opts.Subjects...)

	s := &DashboardService{
		dataset:  dataset,
		opts:     opts,
		notifier: notifier,
		tracer:   tracer,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "dashboard_service")),
	}
	dataset.Subscribe(s.onLoaded)

	s.logger.Info("DashboardService initialized",
		slog.Any("subjects", opts.Subjects),
		slog.String("missing_policy", string(opts.Derive.MissingPolicy)))
	return s
}

// Subjects returns the configured subject columns
func (s *DashboardService) Subjects() []string {
	return append([]string(nil), s.opts.Subjects...)
}

// selection is a filtered view of one snapshot
type selection struct {
	info    api.DatasetInfo
	total   int
	records []domain.DerivedRecord
}

// selectRecords loads, derives and filters. Every view goes through here.
func (s *DashboardService) selectRecords(ctx context.Context, view string, q Query) (*selection, error) {
	snap, err := s.dataset.Snapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			infrastructure.RecordDatasetLoad(ctx, s.metrics, s.dataset.Status().Origin, 0, 0, false)
		}
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	derived, err := dataprocessing.DeriveRecords(snap.Records, s.opts.Subjects, s.opts.Derive)
	if err != nil {
		return nil, fmt.Errorf("failed to derive records: %w", err)
	}

	matched := dataprocessing.FilterRecords(derived, q.grades(), q.levels())
	infrastructure.RecordQuery(ctx, s.metrics, view, len(derived), len(matched))
	infrastructure.AddSpanEvent(ctx, "records.filtered",
		attribute.Int64("dataset.version", snap.Version),
		attribute.Int("records.derived", len(derived)),
		attribute.Int("records.matched", len(matched)))

	if len(matched) == 0 && q.Strict {
		return nil, dataprocessing.ErrEmptyResult
	}

	return &selection{
		info: api.DatasetInfo{
			Version:  snap.Version,
			LoadedAt: snap.LoadedAt,
			Origin:   snap.Origin,
		},
		total:   len(derived),
		records: matched,
	}, nil
}

func (s *DashboardService) startSpan(ctx context.Context, name string, q Query) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.StringSlice("filter.grades", gradeNames(q.grades())),
		attribute.StringSlice("filter.attendance", levelNames(q.levels())),
		attribute.Bool("filter.strict", q.Strict),
	))
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, dataprocessing.ErrEmptyResult) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Students returns the filtered derived records
func (s *DashboardService) Students(ctx context.Context, q Query) (resp *api.StudentsResponse, err error) {
	ctx, span := s.startSpan(ctx, "dashboard.students", q)
	defer func() { endSpan(span, err) }()

	sel, err := s.selectRecords(ctx, "students", q)
	if err != nil {
		return nil, err
	}

	return &api.StudentsResponse{
		Dataset:  sel.info,
		Subjects: s.Subjects(),
		Total:    sel.total,
		Count:    len(sel.records),
		Students: sel.records,
	}, nil
}

// Summary returns the KPI aggregates of the filtered records
func (s *DashboardService) Summary(ctx context.Context, q Query) (resp *api.SummaryResponse, err error) {
	ctx, span := s.startSpan(ctx, "dashboard.summary", q)
	defer func() { endSpan(span, err) }()

	sel, err := s.selectRecords(ctx, "summary", q)
	if err != nil {
		return nil, err
	}

	return &api.SummaryResponse{
		Dataset: sel.info,
		Summary: dataprocessing.Summarize(sel.records),
	}, nil
}

// Charts returns every chart dataset of the filtered records
func (s *DashboardService) Charts(ctx context.Context, q Query, opts ChartOptions) (resp *api.ChartsResponse, err error) {
	ctx, span := s.startSpan(ctx, "dashboard.charts", q)
	defer func() { endSpan(span, err) }()

	opts = opts.withDefaults()
	if err := s.checkChartOptions(opts); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("chart.subject", opts.Subject),
		attribute.Int("chart.bins", opts.Bins),
		attribute.Int("chart.top", opts.Top))

	sel, err := s.selectRecords(ctx, "charts", q)
	if err != nil {
		return nil, err
	}

	hist, err := dataprocessing.BuildHistogram(sel.records, opts.Subject, opts.Bins,
		dataprocessing.ScoreRangeMin, dataprocessing.ScoreRangeMax)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChartArg, err)
	}

	fields := append(s.Subjects(), domain.ColumnAttendance)
	return &api.ChartsResponse{
		Dataset: sel.info,
		Charts: domain.ChartData{
			Distribution:      hist,
			GradeDistribution: dataprocessing.GradeDistribution(sel.records),
			Scatter:           dataprocessing.ScatterPoints(sel.records),
			TopStudents:       dataprocessing.TopStudents(sel.records, opts.Top),
			Correlation:       dataprocessing.Correlate(sel.records, fields),
		},
	}, nil
}

func (s *DashboardService) checkChartOptions(opts ChartOptions) error {
	if opts.Bins < 1 {
		return fmt.Errorf("%w: bins must be at least 1, got %d", ErrInvalidChartArg, opts.Bins)
	}
	if opts.Top < 1 {
		return fmt.Errorf("%w: top must be at least 1, got %d", ErrInvalidChartArg, opts.Top)
	}
	if opts.Subject == domain.ColumnAverageScore {
		return nil
	}
	for _, subject := range s.opts.Subjects {
		if subject == opts.Subject {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownSubject, opts.Subject)
}

// Export writes the filtered records to w. Nothing is written when the
// selection fails.
func (s *DashboardService) Export(ctx context.Context, q Query, format exporter.Format, w io.Writer) (err error) {
	ctx, span := s.startSpan(ctx, "dashboard.export", q)
	span.SetAttributes(attribute.String("export.format", string(format)))
	defer func() { endSpan(span, err) }()

	sel, err := s.selectRecords(ctx, "export", q)
	if err != nil {
		return err
	}

	start := time.Now()
	err = exporter.Export(w, format, sel.records, s.opts.Subjects, exporter.Options{BOMPrefix: s.opts.ExportBOM})
	infrastructure.RecordExport(ctx, s.metrics, string(format), time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", format, err)
	}

	s.logger.InfoContext(ctx, "export written",
		slog.String("format", string(format)),
		slog.Int("rows", len(sel.records)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Reload forces a re-read of the dataset. On failure the previous
// snapshot stays active and connected dashboards are told so.
func (s *DashboardService) Reload(ctx context.Context) (status *DatasetStatus, err error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.reload")
	defer func() { endSpan(span, err) }()

	if _, err := s.dataset.Reload(ctx); err != nil {
		st := s.dataset.Status()
		if ctx.Err() == nil {
			infrastructure.RecordDatasetLoad(ctx, s.metrics, st.Origin, 0, 0, false)
		}
		s.publish(ctx, events.NewMessage(events.MessageTypeDatasetLoadFailed, events.DatasetLoadFailedData{
			Error:         err.Error(),
			ActiveVersion: st.Version,
		}))
		return nil, fmt.Errorf("failed to reload dataset: %w", err)
	}

	return s.Status(ctx), nil
}

// Warmup loads the dataset ahead of the first request.
func (s *DashboardService) Warmup(ctx context.Context) error {
	if _, err := s.dataset.Snapshot(ctx); err != nil {
		s.logger.WarnContext(ctx, "dataset warmup failed", slog.String("error", err.Error()))
		return fmt.Errorf("dataset warmup failed: %w", err)
	}
	return nil
}

// Status describes the cached dataset
func (s *DashboardService) Status(ctx context.Context) *DatasetStatus {
	return &DatasetStatus{
		Status:        s.dataset.Status(),
		Subjects:      s.Subjects(),
		MissingPolicy: string(s.opts.Derive.MissingPolicy),
	}
}

// onLoaded runs after every successful load
func (s *DashboardService) onLoaded(snap datasource.Snapshot) {
	ctx := context.Background()
	infrastructure.RecordDatasetLoad(ctx, s.metrics, snap.Origin, len(snap.Records), snap.Duration, true)

	s.publish(ctx, events.NewMessage(events.MessageTypeDatasetReloaded, events.DatasetReloadedData{
		Version:  snap.Version,
		Rows:     len(snap.Records),
		LoadedAt: snap.LoadedAt,
		Origin:   snap.Origin,
	}))
}

func (s *DashboardService) publish(ctx context.Context, msg events.WebSocketMessage) {
	if s.notifier == nil {
		return
	}
	msg.TraceID = infrastructure.GetTraceID(ctx)
	if err := s.notifier.Publish(msg); err != nil {
		s.logger.WarnContext(ctx, "failed to publish dataset event",
			slog.String("type", string(msg.Type)),
			slog.String("error", err.Error()))
	}
}

func gradeNames(set dataprocessing.GradeSet) []string {
	out := make([]string, 0, len(set))
	for _, g := range set.Sorted() {
		out = append(out, string(g))
	}
	return out
}

func levelNames(set dataprocessing.AttendanceSet) []string {
	out := make([]string, 0, len(set))
	for _, l := range set.Sorted() {
		out = append(out, string(l))
	}
	return out
}
