package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"studentpulse/pkg/contracts/domain"
)

// SheetName is the worksheet that holds exported students
const SheetName = "Students"

// WriteXLSX writes records as an Excel workbook to w. Scores are stored as
// numbers rounded to 2 decimal places, absent values as empty cells.
func WriteXLSX(w io.Writer, records []domain.DerivedRecord, subjects []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	numberStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}

	header := Header(subjects)
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	numberCell := func(v domain.NullFloat) interface{} {
		if !v.Present() {
			return nil
		}
		return excelize.Cell{StyleID: numberStyle, Value: round2(v.Float64)}
	}

	for i, record := range records {
		row := make([]interface{}, 0, len(header))
		row = append(row, record.Name)
		for _, s := range subjects {
			row = append(row, numberCell(record.Scores[s]))
		}
		row = append(row,
			numberCell(record.Attendance),
			numberCell(record.AverageScore),
			string(record.Grade),
			string(record.AttendanceLevel),
		)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
