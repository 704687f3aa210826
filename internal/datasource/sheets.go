package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apperrors "studentpulse/internal/errors"
)

// SheetsSource reads a range of a Google spreadsheet.
type SheetsSource struct {
	spreadsheetID string
	readRange     string
	opts          []option.ClientOption
}

// NewSheetsSource creates a Google Sheets source. opts carry credentials,
// for example option.WithAPIKey or option.WithCredentialsJSON.
func NewSheetsSource(spreadsheetID, readRange string, opts ...option.ClientOption) *SheetsSource {
	return &SheetsSource{
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
		opts:          opts,
	}
}

// Origin implements RowSource
func (s *SheetsSource) Origin() string {
	return fmt.Sprintf("sheets:%s!%s", s.spreadsheetID, s.readRange)
}

// Load implements RowSource
func (s *SheetsSource) Load(ctx context.Context) (Table, error) {
	service, err := sheets.NewService(ctx, s.opts...)
	if err != nil {
		return Table{}, apperrors.NewSourceError("failed to create sheets service", err)
	}

	resp, err := service.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Table{}, ctxErr
		}
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return Table{}, apperrors.NewUnavailableError("spreadsheet not found", err).
				WithContext("spreadsheet_id", s.spreadsheetID)
		}
		return Table{}, apperrors.NewSourceError("failed to read from sheets", err).
			WithContext("spreadsheet_id", s.spreadsheetID).
			WithContext("range", s.readRange)
	}

	return tableFromValues(resp.Values), nil
}

// tableFromValues converts API cell values to strings. Sheets omits
// trailing empty cells, which ParseTable treats as empty.
func tableFromValues(values [][]interface{}) Table {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		rows[i] = cells
	}
	return tableFromRows(rows)
}
