package http

import (
	"context"
	"io"

	"studentpulse/internal/exporter"
	"studentpulse/internal/services"
	api "studentpulse/pkg/contracts/api/v1"
)

// DashboardServiceInterface defines the dashboard operations the handlers use
type DashboardServiceInterface interface {
	Students(ctx context.Context, q services.Query) (*api.StudentsResponse, error)
	Summary(ctx context.Context, q services.Query) (*api.SummaryResponse, error)
	Charts(ctx context.Context, q services.Query, opts services.ChartOptions) (*api.ChartsResponse, error)
	Export(ctx context.Context, q services.Query, format exporter.Format, w io.Writer) error
	Reload(ctx context.Context) (*services.DatasetStatus, error)
	Status(ctx context.Context) *services.DatasetStatus
}
