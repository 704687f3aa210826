package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	apperrors "studentpulse/internal/errors"
)

// CSVSource reads a comma separated file with a header row.
type CSVSource struct {
	path string
}

// NewCSVSource creates a source for the CSV file at path
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Origin implements RowSource
func (s *CSVSource) Origin() string {
	return "csv:" + s.path
}

// Load implements RowSource
func (s *CSVSource) Load(ctx context.Context) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Table{}, apperrors.NewUnavailableError("data file not found", err).
				WithContext("path", s.path)
		}
		return Table{}, apperrors.NewSourceError("failed to open data file", err).
			WithContext("path", s.path)
	}
	defer f.Close()

	table, err := ReadCSV(f)
	if err != nil {
		return Table{}, apperrors.NewParsingError(fmt.Sprintf("failed to read %s", s.path), err)
	}
	return table, nil
}

// ReadCSV reads a header row and data rows from r. Rows may have differing
// lengths; ParseTable pads short rows.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return Table{}, err
	}
	return tableFromRows(rows), nil
}

// tableFromRows splits the first row off as the header.
func tableFromRows(rows [][]string) Table {
	if len(rows) == 0 {
		return Table{}
	}
	return Table{Header: rows[0], Rows: rows[1:]}
}
