package dataprocessing

import (
	"math"

	"studentpulse/pkg/contracts/domain"
)

// Grade and attendance thresholds.
const (
	gradeAMin = 90.0
	gradeBMin = 80.0
	gradeCMin = 70.0

	attendanceLowMax    = 80.0
	attendanceMediumMax = 90.0
	attendanceMin       = 0.0
	attendanceMax       = 100.0
)

// DeriveRecords computes AverageScore, Grade and AttendanceLevel for every
// record. The result is a new slice; records and their score maps are not
// modified. On error no partial result is returned.
func DeriveRecords(records []domain.StudentRecord, subjects []string, opts DeriveOptions) ([]domain.DerivedRecord, error) {
	if err := validateSubjects(subjects); err != nil {
		return nil, err
	}
	if opts.MissingPolicy == "" {
		opts.MissingPolicy = MissingExclude
	}

	derived := make([]domain.DerivedRecord, 0, len(records))
	for i, record := range records {
		avg, err := averageScore(i, record, subjects, opts.MissingPolicy)
		if err != nil {
			return nil, err
		}

		derived = append(derived, domain.DerivedRecord{
			StudentRecord:   record.Clone(),
			AverageScore:    avg,
			Grade:           GradeFor(avg),
			AttendanceLevel: AttendanceLevelFor(record.Attendance),
		})
	}

	return derived, nil
}

// validateSubjects rejects empty, blank or duplicated subject lists
func validateSubjects(subjects []string) error {
	if len(subjects) == 0 {
		return &SchemaError{Record: -1, Reason: "no subject columns configured"}
	}
	seen := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		if s == "" {
			return &SchemaError{Record: -1, Reason: "blank subject column name"}
		}
		if seen[s] {
			return &SchemaError{Field: s, Record: -1, Reason: "subject column listed twice"}
		}
		seen[s] = true
	}
	return nil
}

// averageScore returns the mean of the subject scores of one record
func averageScore(index int, record domain.StudentRecord, subjects []string, policy MissingPolicy) (domain.NullFloat, error) {
	var sum float64
	missing := false

	for _, subject := range subjects {
		score, ok := record.Scores[subject]
		if !ok {
			return domain.Absent(), &SchemaError{
				Field:  subject,
				Record: index,
				Name:   record.Name,
				Reason: "subject column not present",
			}
		}
		if !score.Present() {
			if policy == MissingFail {
				return domain.Absent(), &DataError{
					Field:  subject,
					Record: index,
					Name:   record.Name,
					Reason: "missing score",
				}
			}
			missing = true
			continue
		}
		sum += score.Float64
	}

	if missing {
		return domain.Absent(), nil
	}
	if math.IsInf(sum, 0) {
		return domain.Absent(), &DataError{
			Field:  domain.ColumnAverageScore,
			Record: index,
			Name:   record.Name,
			Reason: "scores overflow the average",
		}
	}
	return domain.Float(sum / float64(len(subjects))), nil
}

// GradeFor maps an average score to its grade. An absent average has no grade.
func GradeFor(avg domain.NullFloat) domain.Grade {
	if !avg.Present() {
		return domain.GradeNone
	}
	switch v := avg.Float64; {
	case v >= gradeAMin:
		return domain.GradeA
	case v >= gradeBMin:
		return domain.GradeB
	case v >= gradeCMin:
		return domain.GradeC
	default:
		return domain.GradeD
	}
}

// AttendanceLevelFor clamps attendance to [0,100] and buckets it:
// [0,80] Low, (80,90] Medium, (90,100] High. Zero belongs to Low.
func AttendanceLevelFor(attendance domain.NullFloat) domain.AttendanceLevel {
	if !attendance.Present() {
		return domain.AttendanceNone
	}
	v := clamp(attendance.Float64, attendanceMin, attendanceMax)
	switch {
	case v <= attendanceLowMax:
		return domain.AttendanceLow
	case v <= attendanceMediumMax:
		return domain.AttendanceMedium
	default:
		return domain.AttendanceHigh
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
