package domain

import (
	"fmt"
	"strings"
)

// Default column names of the student table.
const (
	ColumnName            = "Name"
	ColumnAttendance      = "Attendance"
	ColumnAverageScore    = "Average_Score"
	ColumnGrade           = "Grade"
	ColumnAttendanceLevel = "Attendance_Level"
)

// SelectNone is the filter value that deliberately selects nothing.
const SelectNone = "none"

// IsSelectNone reports whether a raw filter value is SelectNone, ignoring
// case and surrounding space.
func IsSelectNone(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), SelectNone)
}

// DefaultSubjects is the subject column list used when none is configured.
var DefaultSubjects = []string{"Math", "Science", "English"}

// StudentRecord is one raw row of the source table.
// Scores is keyed by subject column name. A key that is present but not
// Valid is a missing value; an absent key is a schema problem.
type StudentRecord struct {
	Name       string               `json:"name"`
	Scores     map[string]NullFloat `json:"scores"`
	Attendance NullFloat            `json:"attendance"`
}

// Clone returns a deep copy of the record.
func (r StudentRecord) Clone() StudentRecord {
	scores := make(map[string]NullFloat, len(r.Scores))
	for k, v := range r.Scores {
		scores[k] = v
	}
	r.Scores = scores
	return r
}

// DerivedRecord is a StudentRecord plus the computed columns.
type DerivedRecord struct {
	StudentRecord
	AverageScore    NullFloat       `json:"average_score"`
	Grade           Grade           `json:"grade"`
	AttendanceLevel AttendanceLevel `json:"attendance_level"`
}

// Grade is the performance tier computed from the average score.
// The zero value means the grade is absent.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"

	GradeNone Grade = ""
)

// AllGrades lists every grade in display order.
var AllGrades = []Grade{GradeA, GradeB, GradeC, GradeD}

// Valid reports whether g is one of the declared grades.
func (g Grade) Valid() bool {
	switch g {
	case GradeA, GradeB, GradeC, GradeD:
		return true
	}
	return false
}

// ParseGrade parses a grade label, case-insensitively.
func ParseGrade(s string) (Grade, error) {
	g := Grade(strings.ToUpper(strings.TrimSpace(s)))
	if !g.Valid() {
		return GradeNone, fmt.Errorf("unknown grade %q", s)
	}
	return g, nil
}

// AttendanceLevel is the attendance tier computed from the clamped
// attendance percentage. The zero value means the level is absent.
type AttendanceLevel string

const (
	AttendanceLow    AttendanceLevel = "Low"
	AttendanceMedium AttendanceLevel = "Medium"
	AttendanceHigh   AttendanceLevel = "High"

	AttendanceNone AttendanceLevel = ""
)

// AllAttendanceLevels lists every attendance level in display order.
var AllAttendanceLevels = []AttendanceLevel{AttendanceLow, AttendanceMedium, AttendanceHigh}

// Valid reports whether l is one of the declared levels.
func (l AttendanceLevel) Valid() bool {
	switch l {
	case AttendanceLow, AttendanceMedium, AttendanceHigh:
		return true
	}
	return false
}

// ParseAttendanceLevel parses a level label, case-insensitively.
func ParseAttendanceLevel(s string) (AttendanceLevel, error) {
	s = strings.TrimSpace(s)
	for _, l := range AllAttendanceLevels {
		if strings.EqualFold(string(l), s) {
			return l, nil
		}
	}
	return AttendanceNone, fmt.Errorf("unknown attendance level %q", s)
}
