package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"studentpulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures CSV writing behavior
type CSVOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes records as CSV to w, one row per record in input order.
func WriteCSV(w io.Writer, records []domain.DerivedRecord, subjects []string, opts CSVOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(Header(subjects)); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	row := make([]string, 0, len(subjects)+5)
	for i, record := range records {
		row = row[:0]
		row = append(row, record.Name)
		for _, s := range subjects {
			row = append(row, formatFloat(record.Scores[s]))
		}
		row = append(row,
			formatFloat(record.Attendance),
			formatFloat(record.AverageScore),
			string(record.Grade),
			string(record.AttendanceLevel),
		)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
