package dataprocessing

import (
	"fmt"
	"strings"

	"studentpulse/pkg/contracts/domain"
)

// MissingPolicy decides what happens when a subject score is missing.
type MissingPolicy string

const (
	// MissingExclude keeps the record but leaves its average and grade absent.
	MissingExclude MissingPolicy = "exclude"
	// MissingFail aborts derivation with a *DataError.
	MissingFail MissingPolicy = "fail"
)

// ParseMissingPolicy parses a policy name. An empty string selects MissingExclude.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MissingExclude:
		return MissingExclude, nil
	case MissingFail:
		return MissingFail, nil
	}
	return "", fmt.Errorf("unknown missing value policy %q", s)
}

// DeriveOptions configures derivation behavior
type DeriveOptions struct {
	// MissingPolicy selects how missing subject scores are handled
	MissingPolicy MissingPolicy
}

// DefaultOptions returns default derivation options
func DefaultOptions() DeriveOptions {
	return DeriveOptions{
		MissingPolicy: MissingExclude,
	}
}

// GradeSet is a selection of grades. Absent grades are never members.
type GradeSet map[domain.Grade]struct{}

// NewGradeSet builds a set from the given grades, ignoring undeclared values.
func NewGradeSet(grades ...domain.Grade) GradeSet {
	set := make(GradeSet, len(grades))
	for _, g := range grades {
		if g.Valid() {
			set[g] = struct{}{}
		}
	}
	return set
}

// AllGrades returns a set holding every declared grade.
func AllGrades() GradeSet {
	return NewGradeSet(domain.AllGrades...)
}

// Has reports whether g is selected.
func (s GradeSet) Has(g domain.Grade) bool {
	_, ok := s[g]
	return ok
}

// Sorted returns the members in display order.
func (s GradeSet) Sorted() []domain.Grade {
	out := make([]domain.Grade, 0, len(s))
	for _, g := range domain.AllGrades {
		if s.Has(g) {
			out = append(out, g)
		}
	}
	return out
}

// AttendanceSet is a selection of attendance levels.
type AttendanceSet map[domain.AttendanceLevel]struct{}

// NewAttendanceSet builds a set from the given levels, ignoring undeclared values.
func NewAttendanceSet(levels ...domain.AttendanceLevel) AttendanceSet {
	set := make(AttendanceSet, len(levels))
	for _, l := range levels {
		if l.Valid() {
			set[l] = struct{}{}
		}
	}
	return set
}

// AllAttendanceLevels returns a set holding every declared level.
func AllAttendanceLevels() AttendanceSet {
	return NewAttendanceSet(domain.AllAttendanceLevels...)
}

// Has reports whether l is selected.
func (s AttendanceSet) Has(l domain.AttendanceLevel) bool {
	_, ok := s[l]
	return ok
}

// Sorted returns the members in display order.
func (s AttendanceSet) Sorted() []domain.AttendanceLevel {
	out := make([]domain.AttendanceLevel, 0, len(s))
	for _, l := range domain.AllAttendanceLevels {
		if s.Has(l) {
			out = append(out, l)
		}
	}
	return out
}
