package services

import (
	"fmt"

	"studentpulse/internal/dataprocessing"
	"studentpulse/pkg/contracts/domain"
)

// Query selects the students a view is computed over.
// A nil set selects every value; an empty, non-nil set selects nothing.
type Query struct {
	Grades           dataprocessing.GradeSet
	AttendanceLevels dataprocessing.AttendanceSet

	// Strict turns an empty selection into dataprocessing.ErrEmptyResult.
	Strict bool
}

func (q Query) grades() dataprocessing.GradeSet {
	if q.Grades == nil {
		return dataprocessing.AllGrades()
	}
	return q.Grades
}

func (q Query) levels() dataprocessing.AttendanceSet {
	if q.AttendanceLevels == nil {
		return dataprocessing.AllAttendanceLevels()
	}
	return q.AttendanceLevels
}

// ParseQuery builds a Query from raw selection values as they arrive in a
// query string or on the command line. No values selects everything; a
// "none" value selects nothing.
func ParseQuery(grades, levels []string, strict bool) (Query, error) {
	q := Query{Strict: strict}

	if len(grades) > 0 {
		q.Grades = dataprocessing.NewGradeSet()
		if !containsNone(grades) {
			for _, raw := range grades {
				g, err := domain.ParseGrade(raw)
				if err != nil {
					return Query{}, fmt.Errorf("%w: %v", ErrInvalidGrade, err)
				}
				q.Grades[g] = struct{}{}
			}
		}
	}

	if len(levels) > 0 {
		q.AttendanceLevels = dataprocessing.NewAttendanceSet()
		if !containsNone(levels) {
			for _, raw := range levels {
				l, err := domain.ParseAttendanceLevel(raw)
				if err != nil {
					return Query{}, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
				}
				q.AttendanceLevels[l] = struct{}{}
			}
		}
	}

	return q, nil
}

func containsNone(values []string) bool {
	for _, v := range values {
		if domain.IsSelectNone(v) {
			return true
		}
	}
	return false
}

// ChartOptions parameterises the charts view. Zero values take the
// dashboard defaults.
type ChartOptions struct {
	Subject string
	Bins    int
	Top     int
}

func (o ChartOptions) withDefaults() ChartOptions {
	if o.Subject == "" {
		o.Subject = domain.ColumnAverageScore
	}
	if o.Bins == 0 {
		o.Bins = dataprocessing.DefaultHistogramBins
	}
	if o.Top == 0 {
		o.Top = dataprocessing.DefaultTopStudents
	}
	return o
}
