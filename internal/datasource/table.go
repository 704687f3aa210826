package datasource

import (
	"context"
	"math"
	"strconv"
	"strings"

	"studentpulse/internal/dataprocessing"
	"studentpulse/pkg/contracts/domain"
)

// Table is a raw grid of cells with a header row.
type Table struct {
	Header []string
	Rows   [][]string
}

// RowSource produces a raw Table from some storage.
type RowSource interface {
	Load(ctx context.Context) (Table, error)
	// Origin describes where rows come from, for logs and status output.
	Origin() string
}

// Schema names the columns ParseTable requires.
type Schema struct {
	Subjects []string
}

// DefaultSchema returns the schema for the stock Math, Science and English dataset.
func DefaultSchema() Schema {
	return Schema{Subjects: append([]string(nil), domain.DefaultSubjects...)}
}

// Columns returns Name, the subjects and Attendance in table order.
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(s.Subjects)+2)
	cols = append(cols, domain.ColumnName)
	cols = append(cols, s.Subjects...)
	return append(cols, domain.ColumnAttendance)
}

// missingMarkers are cell values treated as an absent number.
var missingMarkers = map[string]bool{
	"":     true,
	"nan":  true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"-":    true,
}

const utf8BOM = "\ufeff"

// ParseTable converts table rows into student records. Blank rows are
// skipped, short rows are padded with empty cells, and extra columns are
// ignored. Record indexes in returned errors count parsed records from zero,
// skipping blank rows, the same numbering DeriveRecords reports.
func ParseTable(table Table, schema Schema) ([]domain.StudentRecord, error) {
	index, err := headerIndex(table.Header, schema)
	if err != nil {
		return nil, err
	}

	records := make([]domain.StudentRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		if blankRow(row) {
			continue
		}
		i := len(records)

		name := strings.TrimSpace(cell(row, index[domain.ColumnName]))
		record := domain.StudentRecord{
			Name:   name,
			Scores: make(map[string]domain.NullFloat, len(schema.Subjects)),
		}

		for _, subject := range schema.Subjects {
			v, err := parseNumber(cell(row, index[subject]))
			if err != nil {
				return nil, &dataprocessing.DataError{
					Field:  subject,
					Record: i,
					Name:   name,
					Value:  cell(row, index[subject]),
					Reason: err.Error(),
				}
			}
			record.Scores[subject] = v
		}

		attendance, err := parseNumber(cell(row, index[domain.ColumnAttendance]))
		if err != nil {
			return nil, &dataprocessing.DataError{
				Field:  domain.ColumnAttendance,
				Record: i,
				Name:   name,
				Value:  cell(row, index[domain.ColumnAttendance]),
				Reason: err.Error(),
			}
		}
		record.Attendance = attendance

		records = append(records, record)
	}

	return records, nil
}

// headerIndex maps every required column to its position in header.
func headerIndex(header []string, schema Schema) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	duplicated := make(map[string]bool)
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, dup := positions[h]; dup {
			duplicated[h] = true
			continue
		}
		positions[h] = i
	}

	index := make(map[string]int, len(schema.Subjects)+2)
	for _, col := range schema.Columns() {
		pos, ok := positions[col]
		if !ok {
			return nil, &dataprocessing.SchemaError{Field: col, Record: -1, Reason: "required column not found"}
		}
		if duplicated[col] {
			return nil, &dataprocessing.SchemaError{Field: col, Record: -1, Reason: "column appears more than once"}
		}
		index[col] = pos
	}
	return index, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseNumber reads a numeric cell. Missing markers give an absent value and
// a trailing percent sign is accepted.
func parseNumber(raw string) (domain.NullFloat, error) {
	s := strings.TrimSpace(raw)
	if missingMarkers[strings.ToLower(s)] {
		return domain.Absent(), nil
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Absent(), errNotANumber
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return domain.Absent(), errNotFinite
	}
	return domain.Float(v), nil
}
