package exporter

import (
	"fmt"
	"io"
	"math"
	"strings"

	"studentpulse/pkg/contracts/domain"
)

// Format is a download file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// Filename returns the download name for base, e.g. filtered_students.csv
func (f Format) Filename(base string) string {
	return base + f.Extension()
}

// Header returns the export column order: Name, subjects, Attendance and the
// derived columns.
func Header(subjects []string) []string {
	header := make([]string, 0, len(subjects)+5)
	header = append(header, domain.ColumnName)
	header = append(header, subjects...)
	return append(header,
		domain.ColumnAttendance,
		domain.ColumnAverageScore,
		domain.ColumnGrade,
		domain.ColumnAttendanceLevel,
	)
}

// formatFloat formats a value with exactly 2 decimal places. Absent values
// are empty.
func formatFloat(v domain.NullFloat) string {
	if !v.Present() {
		return ""
	}
	return fmt.Sprintf("%.2f", v.Float64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Options configures Export
type Options struct {
	BOMPrefix bool
}

// Export writes records to w in the given format.
func Export(w io.Writer, format Format, records []domain.DerivedRecord, subjects []string, opts Options) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, records, subjects, CSVOptions{BOMPrefix: opts.BOMPrefix})
	case FormatXLSX:
		return WriteXLSX(w, records, subjects)
	}
	return fmt.Errorf("unsupported export format %q", format)
}
