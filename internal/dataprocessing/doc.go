// Package dataprocessing derives and filters student performance data.
// It turns raw StudentRecords into DerivedRecords, narrows them by grade and
// attendance level, and aggregates them for the dashboard.
//
// # Architecture
//
// The package is organized into three components:
//
// 1. Processor: DeriveRecords computes the average score, grade and attendance level
// 2. Filter: FilterRecords keeps the rows matching a grade and attendance selection
// 3. Analytics: Summarize and the chart helpers aggregate a record set
//
// # Usage
//
//	derived, err := dataprocessing.DeriveRecords(records, domain.DefaultSubjects, dataprocessing.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	visible := dataprocessing.FilterRecords(derived,
//	    dataprocessing.NewGradeSet(domain.GradeA, domain.GradeB),
//	    dataprocessing.AllAttendanceLevels())
//	summary := dataprocessing.Summarize(visible)
//
// # Data Flow
//
//	StudentRecords → DeriveRecords → DerivedRecords → FilterRecords → Summarize / charts / export
//
// # Error Handling
//
// Malformed input is never swallowed. A missing column or an empty subject list
// yields a *SchemaError, a missing score under MissingFail yields a *DataError.
// Both name the offending field and record. No partial result is returned.
//
// Every function is pure: inputs are never modified and the same input always
// produces the same output, so concurrent callers need no coordination.
package dataprocessing
