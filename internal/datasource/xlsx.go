package datasource

import (
	"context"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	apperrors "studentpulse/internal/errors"
)

// XLSXSource reads one worksheet of an Excel workbook.
type XLSXSource struct {
	path  string
	sheet string
}

// NewXLSXSource creates a workbook source. An empty sheet name selects the
// first worksheet.
func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{path: path, sheet: sheet}
}

// Origin implements RowSource
func (s *XLSXSource) Origin() string {
	if s.sheet == "" {
		return "xlsx:" + s.path
	}
	return fmt.Sprintf("xlsx:%s#%s", s.path, s.sheet)
}

// Load implements RowSource
func (s *XLSXSource) Load(ctx context.Context) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Table{}, apperrors.NewUnavailableError("workbook not found", err).
				WithContext("path", s.path)
		}
		return Table{}, apperrors.NewParsingError("failed to open workbook", err).
			WithContext("path", s.path)
	}
	defer f.Close()

	return readSheet(f, s.sheet)
}

// readSheet returns the rows of the named sheet, or of the first sheet when
// name is empty.
func readSheet(f *excelize.File, name string) (Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, apperrors.NewParsingError("workbook has no sheets", nil)
	}

	target := sheets[0]
	if name != "" {
		found := false
		for _, s := range sheets {
			if s == name {
				target, found = s, true
				break
			}
		}
		if !found {
			return Table{}, apperrors.NewSourceError(fmt.Sprintf("sheet %q not found", name), nil).
				WithContext("sheets", sheets)
		}
	}

	rows, err := f.GetRows(target)
	if err != nil {
		return Table{}, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", target), err)
	}
	return tableFromRows(rows), nil
}
