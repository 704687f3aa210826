// Package api contains the HTTP API contracts of the dashboard.
// Version v1 represents the current stable API version.
package api

import (
	"time"

	"studentpulse/pkg/contracts/domain"
)

// FilterParams are the filter query parameters shared by every dashboard
// view. Grade and attendance repeat; omitting one selects every value and
// "none" selects nothing.
type FilterParams struct {
	Grades     []string `json:"grade,omitempty" query:"grade" validate:"dive,grade"`
	Attendance []string `json:"attendance,omitempty" query:"attendance" validate:"dive,attendance_level"`
	Strict     bool     `json:"strict,omitempty" query:"strict"`
}

// ChartParams are the query parameters of the charts view
type ChartParams struct {
	FilterParams
	Subject string `json:"subject,omitempty" query:"subject" validate:"omitempty,subject"`
	Bins    int    `json:"bins" query:"bins" validate:"min=1,max=100"`
	Top     int    `json:"top" query:"top" validate:"min=1,max=100"`
}

// ExportParams are the parameters of the export download
type ExportParams struct {
	FilterParams
	Format string `json:"format" query:"format" validate:"required,oneof=csv xlsx"`
}

// DatasetInfo identifies the snapshot a response was computed from
type DatasetInfo struct {
	Version  int64     `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
	Origin   string    `json:"origin"`
}

// StudentsResponse is the body of GET /api/students
type StudentsResponse struct {
	Dataset  DatasetInfo            `json:"dataset"`
	Subjects []string               `json:"subjects"`
	Total    int                    `json:"total"`
	Count    int                    `json:"count"`
	Students []domain.DerivedRecord `json:"students"`
}

// SummaryResponse is the body of GET /api/summary
type SummaryResponse struct {
	Dataset DatasetInfo    `json:"dataset"`
	Summary domain.Summary `json:"summary"`
}

// ChartsResponse is the body of GET /api/charts
type ChartsResponse struct {
	Dataset DatasetInfo      `json:"dataset"`
	Charts  domain.ChartData `json:"charts"`
}
