package dataprocessing

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentpulse/pkg/contracts/domain"
)

func student(name string, math, science, english, attendance float64) domain.StudentRecord {
	return domain.StudentRecord{
		Name: name,
		Scores: map[string]domain.NullFloat{
			"Math":    domain.Float(math),
			"Science": domain.Float(science),
			"English": domain.Float(english),
		},
		Attendance: domain.Float(attendance),
	}
}

func TestDeriveRecords_EndToEnd(t *testing.T) {
	records := []domain.StudentRecord{
		student("Ana", 95, 85, 100, 92),
		student("Ben", 60, 65, 70, 75),
	}

	derived, err := DeriveRecords(records, domain.DefaultSubjects, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, derived, 2)

	assert.InDelta(t, 93.33, derived[0].AverageScore.Float64, 0.01)
	assert.InDelta(t, 65.0, derived[1].AverageScore.Float64, 1e-9)
	assert.Equal(t, domain.GradeA, derived[0].Grade)
	assert.Equal(t, domain.GradeD, derived[1].Grade)
	assert.Equal(t, domain.AttendanceHigh, derived[0].AttendanceLevel)
	assert.Equal(t, domain.AttendanceLow, derived[1].AttendanceLevel)

	filtered := FilterRecords(derived, NewGradeSet(domain.GradeA), AllAttendanceLevels())
	require.Len(t, filtered, 1)
	assert.Equal(t, "Ana", filtered[0].Name)
}

func TestDeriveRecords_Idempotent(t *testing.T) {
	records := []domain.StudentRecord{
		student("Ana", 95, 85, 100, 92),
		student("Ben", 60, 65, 70, 75),
		student("Cy", 89.5, 90.1, 88.7, 80.0001),
		student("Di", 0.1, 0.2, 0.3, -5),
	}

	first, err := DeriveRecords(records, domain.DefaultSubjects, DefaultOptions())
	require.NoError(t, err)
	second, err := DeriveRecords(records, domain.DefaultSubjects, DefaultOptions())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("derivation is not deterministic (-first +second):\n%s", diff)
	}
	for i := range first {
		assert.Equal(t, math.Float64bits(first[i].AverageScore.Float64), math.Float64bits(second[i].AverageScore.Float64))
	}
}

func TestDeriveRecords_DoesNotMutateInput(t *testing.T) {
	records := []domain.StudentRecord{student("Ana", 95, 85, 100, 92)}

	derived, err := DeriveRecords(records, domain.DefaultSubjects, DefaultOptions())
	require.NoError(t, err)

	derived[0].Scores["Math"] = domain.Float(0)
	assert.Equal(t, 95.0, records[0].Scores["Math"].Float64)
}

func TestGradeFor(t *testing.T) {
	tests := []struct {
		name string
		avg  domain.NullFloat
		want domain.Grade
	}{
		{name: "exactly 90 is A", avg: domain.Float(90.0), want: domain.GradeA},
		{name: "just under 90 is B", avg: domain.Float(89.999999), want: domain.GradeB},
		{name: "exactly 80 is B", avg: domain.Float(80), want: domain.GradeB},
		{name: "exactly 70 is C", avg: domain.Float(70), want: domain.GradeC},
		{name: "below 70 is D", avg: domain.Float(69.99), want: domain.GradeD},
		{name: "zero is D", avg: domain.Float(0), want: domain.GradeD},
		{name: "above 100 still A", avg: domain.Float(140), want: domain.GradeA},
		{name: "absent has no grade", avg: domain.Absent(), want: domain.GradeNone},
		{name: "NaN has no grade", avg: domain.NullFloat{Float64: math.NaN(), Valid: true}, want: domain.GradeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GradeFor(tt.avg))
		})
	}
}

func TestAttendanceLevelFor(t *testing.T) {
	tests := []struct {
		name       string
		attendance domain.NullFloat
		want       domain.AttendanceLevel
	}{
		{name: "80 is Low", attendance: domain.Float(80), want: domain.AttendanceLow},
		{name: "just over 80 is Medium", attendance: domain.Float(80.0001), want: domain.AttendanceMedium},
		{name: "90 is Medium", attendance: domain.Float(90), want: domain.AttendanceMedium},
		{name: "just over 90 is High", attendance: domain.Float(90.5), want: domain.AttendanceHigh},
		{name: "100 is High", attendance: domain.Float(100), want: domain.AttendanceHigh},
		{name: "zero is Low", attendance: domain.Float(0), want: domain.AttendanceLow},
		{name: "negative clamps to Low", attendance: domain.Float(-5), want: domain.AttendanceLow},
		{name: "over 100 clamps to High", attendance: domain.Float(120), want: domain.AttendanceHigh},
		{name: "absent has no level", attendance: domain.Absent(), want: domain.AttendanceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AttendanceLevelFor(tt.attendance))
		})
	}
}

func TestDeriveRecords_MissingScore(t *testing.T) {
	records := []domain.StudentRecord{
		student("Ana", 95, 85, 100, 92),
		{
			Name: "Ben",
			Scores: map[string]domain.NullFloat{
				"Math":    domain.Float(60),
				"Science": domain.Absent(),
				"English": domain.Float(70),
			},
			Attendance: domain.Float(75),
		},
	}

	t.Run("exclude marks average and grade absent", func(t *testing.T) {
		derived, err := DeriveRecords(records, domain.DefaultSubjects, DeriveOptions{MissingPolicy: MissingExclude})
		require.NoError(t, err)
		require.Len(t, derived, 2)

		assert.False(t, derived[1].AverageScore.Present())
		assert.Equal(t, domain.GradeNone, derived[1].Grade)
		assert.Equal(t, domain.AttendanceLow, derived[1].AttendanceLevel)
	})

	t.Run("empty policy defaults to exclude", func(t *testing.T) {
		derived, err := DeriveRecords(records, domain.DefaultSubjects, DeriveOptions{})
		require.NoError(t, err)
		assert.False(t, derived[1].AverageScore.Present())
	})

	t.Run("fail returns a data error", func(t *testing.T) {
		derived, err := DeriveRecords(records, domain.DefaultSubjects, DeriveOptions{MissingPolicy: MissingFail})
		require.Error(t, err)
		assert.Nil(t, derived)

		var dataErr *DataError
		require.ErrorAs(t, err, &dataErr)
		assert.Equal(t, "Science", dataErr.Field)
		assert.Equal(t, 1, dataErr.Record)
		assert.Equal(t, "Ben", dataErr.Name)
	})
}

func TestDeriveRecords_SchemaErrors(t *testing.T) {
	records := []domain.StudentRecord{student("Ana", 95, 85, 100, 92)}

	tests := []struct {
		name      string
		subjects  []string
		wantField string
		wantRec   int
	}{
		{name: "no subjects", subjects: nil, wantField: "", wantRec: -1},
		{name: "blank subject", subjects: []string{"Math", ""}, wantField: "", wantRec: -1},
		{name: "duplicate subject", subjects: []string{"Math", "Math"}, wantField: "Math", wantRec: -1},
		{name: "unknown subject", subjects: []string{"Math", "History"}, wantField: "History", wantRec: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derived, err := DeriveRecords(records, tt.subjects, DefaultOptions())
			require.Error(t, err)
			assert.Nil(t, derived)
			assert.True(t, IsSchemaError(err))

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.wantField, schemaErr.Field)
			assert.Equal(t, tt.wantRec, schemaErr.Record)
		})
	}
}

func TestDeriveRecords_CustomSubjects(t *testing.T) {
	records := []domain.StudentRecord{student("Ana", 90, 50, 10, 92)}

	derived, err := DeriveRecords(records, []string{"Math", "Science"}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 70.0, derived[0].AverageScore.Float64)
	assert.Equal(t, domain.GradeC, derived[0].Grade)
}

func TestDeriveRecords_EmptyInput(t *testing.T) {
	derived, err := DeriveRecords(nil, domain.DefaultSubjects, DefaultOptions())
	require.NoError(t, err)
	assert.NotNil(t, derived)
	assert.Empty(t, derived)
}

func TestParseMissingPolicy(t *testing.T) {
	p, err := ParseMissingPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MissingExclude, p)

	p, err = ParseMissingPolicy("FAIL")
	require.NoError(t, err)
	assert.Equal(t, MissingFail, p)

	_, err = ParseMissingPolicy("zero")
	assert.Error(t, err)
}

func TestDeriveRecords_OverflowingScores(t *testing.T) {
	records := []domain.StudentRecord{
		student("Ana", 95, 85, 100, 92),
		student("Big", 1e308, 1e308, 1e308, 95),
	}

	derived, err := DeriveRecords(records, domain.DefaultSubjects, DeriveOptions{})
	require.Error(t, err)
	assert.Nil(t, derived)

	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, domain.ColumnAverageScore, dataErr.Field)
	assert.Equal(t, 1, dataErr.Record)
	assert.Equal(t, "Big", dataErr.Name)
}
