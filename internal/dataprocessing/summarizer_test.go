package dataprocessing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentpulse/pkg/contracts/domain"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name        string
		records     []domain.DerivedRecord
		wantCount   int
		wantNoData  bool
		wantMean    domain.NullFloat
		wantMax     domain.NullFloat
		wantMeanAtt domain.NullFloat
	}{
		{
			name:       "empty set reports no data",
			records:    []domain.DerivedRecord{},
			wantCount:  0,
			wantNoData: true,
		},
		{
			name:       "nil set reports no data",
			records:    nil,
			wantCount:  0,
			wantNoData: true,
		},
		{
			name: "two students",
			records: []domain.DerivedRecord{
				{StudentRecord: domain.StudentRecord{Attendance: domain.Float(90)}, AverageScore: domain.Float(80)},
				{StudentRecord: domain.StudentRecord{Attendance: domain.Float(70)}, AverageScore: domain.Float(60)},
			},
			wantCount:   2,
			wantMean:    domain.Float(70),
			wantMax:     domain.Float(80),
			wantMeanAtt: domain.Float(80),
		},
		{
			name: "zero scores are real values",
			records: []domain.DerivedRecord{
				{StudentRecord: domain.StudentRecord{Attendance: domain.Float(0)}, AverageScore: domain.Float(0)},
			},
			wantCount:   1,
			wantMean:    domain.Float(0),
			wantMax:     domain.Float(0),
			wantMeanAtt: domain.Float(0),
		},
		{
			name: "absent averages are skipped",
			records: []domain.DerivedRecord{
				{StudentRecord: domain.StudentRecord{Attendance: domain.Float(50)}, AverageScore: domain.Absent()},
				{StudentRecord: domain.StudentRecord{Attendance: domain.Absent()}, AverageScore: domain.Float(91)},
			},
			wantCount:   2,
			wantMean:    domain.Float(91),
			wantMax:     domain.Float(91),
			wantMeanAtt: domain.Float(50),
		},
		{
			name: "all averages absent",
			records: []domain.DerivedRecord{
				{StudentRecord: domain.StudentRecord{Attendance: domain.Float(50)}},
			},
			wantCount:   1,
			wantMeanAtt: domain.Float(50),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.records)

			assert.Equal(t, tt.wantCount, got.Count)
			assert.Equal(t, tt.wantNoData, got.NoData)
			assert.Equal(t, tt.wantMean, got.MeanAverageScore)
			assert.Equal(t, tt.wantMax, got.MaxAverageScore)
			assert.Equal(t, tt.wantMeanAtt, got.MeanAttendance)
		})
	}
}

func TestSummarize_EmptyMarshalsNulls(t *testing.T) {
	data, err := json.Marshal(Summarize(nil))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"count": 0,
		"no_data": true,
		"mean_average_score": null,
		"max_average_score": null,
		"mean_attendance": null
	}`, string(data))
}

func TestSummarize_NegativeAverages(t *testing.T) {
	got := Summarize([]domain.DerivedRecord{
		{AverageScore: domain.Float(-10)},
		{AverageScore: domain.Float(-20)},
	})
	assert.Equal(t, domain.Float(-10), got.MaxAverageScore)
	assert.False(t, got.MeanAttendance.Present())
}

func TestSummarize_LargeValuesStayFinite(t *testing.T) {
	got := Summarize([]domain.DerivedRecord{
		{AverageScore: domain.Float(1e308), StudentRecord: domain.StudentRecord{Attendance: domain.Float(1e308)}},
		{AverageScore: domain.Float(1e308), StudentRecord: domain.StudentRecord{Attendance: domain.Float(1e308)}},
	})

	require.True(t, got.MeanAverageScore.Present())
	assert.InDelta(t, 1e308, got.MeanAverageScore.Float64, 1e294)
	assert.InDelta(t, 1e308, got.MeanAttendance.Float64, 1e294)

	_, err := json.Marshal(got)
	require.NoError(t, err)
}
