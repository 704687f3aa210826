package dataprocessing

import (
	"studentpulse/pkg/contracts/domain"
)

// Summarize computes the KPI aggregates of a record set. Absent averages or
// attendances are left out of their aggregate; an aggregate with no inputs is
// absent rather than zero or NaN. An empty set is reported with NoData.
func Summarize(records []domain.DerivedRecord) domain.Summary {
	summary := domain.Summary{Count: len(records)}
	if len(records) == 0 {
		summary.NoData = true
		return summary
	}

	var (
		score, attendance runningMean
		maxScore          float64
	)

	for _, record := range records {
		if record.AverageScore.Present() {
			v := record.AverageScore.Float64
			if score.n == 0 || v > maxScore {
				maxScore = v
			}
			score.add(v)
		}
		if record.Attendance.Present() {
			attendance.add(record.Attendance.Float64)
		}
	}

	if score.n > 0 {
		summary.MeanAverageScore = domain.Float(score.mean)
		summary.MaxAverageScore = domain.Float(maxScore)
	}
	if attendance.n > 0 {
		summary.MeanAttendance = domain.Float(attendance.mean)
	}

	return summary
}

// runningMean accumulates a mean without a running sum, so large finite
// inputs cannot overflow to Inf.
type runningMean struct {
	mean float64
	n    int
}

func (m *runningMean) add(v float64) {
	m.n++
	m.mean += (v - m.mean) / float64(m.n)
}
