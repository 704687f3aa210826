package dataprocessing

import (
	"studentpulse/pkg/contracts/domain"
)

// FilterRecords returns the records whose grade and attendance level are both
// selected, in input order. An empty selection yields an empty, non-nil slice.
// Records with an absent grade or level never match.
func FilterRecords(records []domain.DerivedRecord, grades GradeSet, levels AttendanceSet) []domain.DerivedRecord {
	filtered := make([]domain.DerivedRecord, 0)
	if len(grades) == 0 || len(levels) == 0 {
		return filtered
	}

	for _, record := range records {
		if !record.Grade.Valid() || !record.AttendanceLevel.Valid() {
			continue
		}
		if grades.Has(record.Grade) && levels.Has(record.AttendanceLevel) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}
