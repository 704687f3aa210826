// Package exporter writes derived student records as CSV or Excel downloads.
//
// Both formats share one column order, see Header:
//
//	Name,<subjects...>,Attendance,Average_Score,Grade,Attendance_Level
//
// CSV values are written with two decimals and an optional UTF-8 BOM so that
// Excel detects the encoding. XLSX values are typed numbers on a sheet named
// "Students". Absent values become empty cells in both.
//
// Example usage:
//
//	format, err := exporter.ParseFormat("xlsx")
//	w.Header().Set("Content-Type", format.ContentType())
//	err = exporter.Export(w, format, records, subjects, exporter.Options{BOMPrefix: true})
package exporter
