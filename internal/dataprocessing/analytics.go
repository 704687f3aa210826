package dataprocessing

import (
	"fmt"
	"math"
	"sort"

	"studentpulse/pkg/contracts/domain"
)

// Default chart parameters.
const (
	DefaultHistogramBins = 20
	DefaultTopStudents   = 10
	ScoreRangeMin        = 0.0
	ScoreRangeMax        = 100.0
)

// FieldValue returns the numeric value of a named column: a subject,
// Attendance or Average_Score. Unknown columns are absent.
func FieldValue(record domain.DerivedRecord, field string) domain.NullFloat {
	switch field {
	case domain.ColumnAverageScore:
		return record.AverageScore
	case domain.ColumnAttendance:
		return record.Attendance
	}
	if v, ok := record.Scores[field]; ok && v.Present() {
		return v
	}
	return domain.Absent()
}

// BuildHistogram bins the values of field over [lo,hi] into equal-width buckets.
// Absent values and values outside the range are counted in Skipped.
func BuildHistogram(records []domain.DerivedRecord, field string, bins int, lo, hi float64) (domain.Histogram, error) {
	if bins <= 0 {
		return domain.Histogram{}, fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}
	if !(hi > lo) {
		return domain.Histogram{}, fmt.Errorf("invalid histogram range [%g, %g]", lo, hi)
	}

	width := (hi - lo) / float64(bins)
	hist := domain.Histogram{
		Field: field,
		Bins:  make([]domain.HistogramBin, bins),
	}
	for i := range hist.Bins {
		hist.Bins[i].Lower = lo + float64(i)*width
		hist.Bins[i].Upper = lo + float64(i+1)*width
	}
	hist.Bins[bins-1].Upper = hi

	for _, record := range records {
		v := FieldValue(record, field)
		if !v.Present() || v.Float64 < lo || v.Float64 > hi {
			hist.Skipped++
			continue
		}
		idx := int((v.Float64 - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		hist.Bins[idx].Count++
	}

	return hist, nil
}

// GradeDistribution counts records per grade in display order. Percentages
// are relative to the graded records; ungraded records are left out.
func GradeDistribution(records []domain.DerivedRecord) []domain.GradeShare {
	counts := make(map[domain.Grade]int, len(domain.AllGrades))
	graded := 0
	for _, record := range records {
		if record.Grade.Valid() {
			counts[record.Grade]++
			graded++
		}
	}

	shares := make([]domain.GradeShare, 0, len(domain.AllGrades))
	for _, g := range domain.AllGrades {
		share := domain.GradeShare{Grade: g, Count: counts[g]}
		if graded > 0 {
			share.Percent = float64(counts[g]) / float64(graded) * 100
		}
		shares = append(shares, share)
	}
	return shares
}

// TopStudents ranks records by average score, highest first, and returns at
// most n entries. Ties keep input order. Records without an average are skipped.
func TopStudents(records []domain.DerivedRecord, n int) []domain.RankedStudent {
	ranked := make([]domain.DerivedRecord, 0, len(records))
	for _, record := range records {
		if record.AverageScore.Present() {
			ranked = append(ranked, record)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AverageScore.Float64 > ranked[j].AverageScore.Float64
	})

	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	top := make([]domain.RankedStudent, len(ranked))
	for i, record := range ranked {
		top[i] = domain.RankedStudent{
			Rank:         i + 1,
			Name:         record.Name,
			AverageScore: record.AverageScore.Float64,
			Grade:        record.Grade,
		}
	}
	return top
}

// ScatterPoints returns attendance against average score for every record
// where both are present.
func ScatterPoints(records []domain.DerivedRecord) []domain.ScatterPoint {
	points := make([]domain.ScatterPoint, 0, len(records))
	for _, record := range records {
		if !record.Attendance.Present() || !record.AverageScore.Present() {
			continue
		}
		points = append(points, domain.ScatterPoint{
			Name:         record.Name,
			Attendance:   record.Attendance,
			AverageScore: record.AverageScore,
			Grade:        record.Grade,
		})
	}
	return points
}

// Correlate computes the Pearson correlation of every pair of fields using
// the records where both values are present. A coefficient is absent when
// fewer than two pairs exist or either side has zero variance.
func Correlate(records []domain.DerivedRecord, fields []string) domain.CorrelationMatrix {
	matrix := domain.CorrelationMatrix{
		Fields: append([]string(nil), fields...),
		Values: make([][]domain.NullFloat, len(fields)),
	}
	for i := range fields {
		matrix.Values[i] = make([]domain.NullFloat, len(fields))
	}

	for i := range fields {
		for j := i; j < len(fields); j++ {
			r := pearson(records, fields[i], fields[j])
			matrix.Values[i][j] = r
			matrix.Values[j][i] = r
		}
	}
	return matrix
}

func pearson(records []domain.DerivedRecord, a, b string) domain.NullFloat {
	var xs, ys []float64
	for _, record := range records {
		x, y := FieldValue(record, a), FieldValue(record, b)
		if x.Present() && y.Present() {
			xs = append(xs, x.Float64)
			ys = append(ys, y.Float64)
		}
	}
	if len(xs) < 2 {
		return domain.Absent()
	}

	meanX, meanY := mean(xs), mean(ys)
	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return domain.Absent()
	}

	r := cov / math.Sqrt(varX*varY)
	// rounding can push |r| just past 1
	return domain.Float(math.Max(-1, math.Min(1, r)))
}

func mean(values []float64) float64 {
	var m runningMean
	for _, v := range values {
		m.add(v)
	}
	return m.mean
}
