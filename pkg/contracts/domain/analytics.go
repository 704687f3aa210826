package domain

// Summary holds the KPI aggregates of a record set.
// NoData distinguishes "no students" from a genuine zero score; when it is
// set every numeric field is absent.
type Summary struct {
	Count            int       `json:"count"`
	NoData           bool      `json:"no_data"`
	MeanAverageScore NullFloat `json:"mean_average_score"`
	MaxAverageScore  NullFloat `json:"max_average_score"`
	MeanAttendance   NullFloat `json:"mean_attendance"`
}

// HistogramBin is one bucket of a distribution. Bins are half-open [Lower,Upper)
// except the last, which includes Upper.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is the distribution of one numeric column.
type Histogram struct {
	Field   string         `json:"field"`
	Bins    []HistogramBin `json:"bins"`
	Skipped int            `json:"skipped"`
}

// GradeShare is the count and share of one grade.
type GradeShare struct {
	Grade   Grade   `json:"grade"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ScatterPoint is one student plotted by attendance against average score.
type ScatterPoint struct {
	Name         string    `json:"name"`
	Attendance   NullFloat `json:"attendance"`
	AverageScore NullFloat `json:"average_score"`
	Grade        Grade     `json:"grade"`
}

// RankedStudent is an entry of the top students table.
type RankedStudent struct {
	Rank         int     `json:"rank"`
	Name         string  `json:"name"`
	AverageScore float64 `json:"average_score"`
	Grade        Grade   `json:"grade"`
}

// CorrelationMatrix holds pairwise Pearson coefficients. Values[i][j] is the
// correlation of Fields[i] and Fields[j]; absent when undefined.
type CorrelationMatrix struct {
	Fields []string      `json:"fields"`
	Values [][]NullFloat `json:"values"`
}

// ChartData bundles every dataset the dashboard draws.
type ChartData struct {
	Distribution      Histogram         `json:"distribution"`
	GradeDistribution []GradeShare      `json:"grade_distribution"`
	Scatter           []ScatterPoint    `json:"scatter"`
	TopStudents       []RankedStudent   `json:"top_students"`
	Correlation       CorrelationMatrix `json:"correlation"`
}
