package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGrade(t *testing.T) {
	for _, in := range []string{"A", "b", " c ", "D"} {
		g, err := ParseGrade(in)
		require.NoError(t, err, in)
		assert.True(t, g.Valid())
	}

	for _, in := range []string{"", "E", "none", "AB"} {
		g, err := ParseGrade(in)
		assert.Error(t, err, in)
		assert.Equal(t, GradeNone, g)
	}
}

func TestParseAttendanceLevel(t *testing.T) {
	l, err := ParseAttendanceLevel("medium")
	require.NoError(t, err)
	assert.Equal(t, AttendanceMedium, l)

	l, err = ParseAttendanceLevel("Very High")
	assert.Error(t, err)
	assert.False(t, l.Valid())
}

func TestStudentRecord_Clone(t *testing.T) {
	orig := StudentRecord{Name: "Ana", Scores: map[string]NullFloat{"Math": Float(95)}}
	clone := orig.Clone()
	clone.Scores["Math"] = Float(10)

	assert.Equal(t, 95.0, orig.Scores["Math"].Float64)
}

func TestNullFloat_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Set    NullFloat `json:"set"`
		Absent NullFloat `json:"absent"`
		NaN    NullFloat `json:"nan"`
		Inf    NullFloat `json:"inf"`
	}{Set: Float(91.5), Absent: Absent(), NaN: NullFloat{Float64: math.NaN(), Valid: true}, Inf: NullFloat{Float64: math.Inf(1), Valid: true}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"set":91.5,"absent":null,"nan":null,"inf":null}`, string(data))

	var got struct {
		Set    NullFloat `json:"set"`
		Absent NullFloat `json:"absent"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"set":80,"absent":null}`), &got))
	assert.True(t, got.Set.Present())
	assert.Equal(t, 80.0, got.Set.Float64)
	assert.False(t, got.Absent.Present())

	assert.False(t, Float(math.NaN()).Present())
	assert.False(t, Float(math.Inf(-1)).Present())
	assert.True(t, Float(math.MaxFloat64).Present())
}

func TestIsSelectNone(t *testing.T) {
	for _, in := range []string{"none", "NONE", " None "} {
		assert.True(t, IsSelectNone(in), in)
	}
	for _, in := range []string{"", "A", "nothing"} {
		assert.False(t, IsSelectNone(in), in)
	}
}
