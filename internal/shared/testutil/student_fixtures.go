package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"studentpulse/pkg/contracts/domain"
)

// StudentCSVHeader is the header of the stock dataset.
const StudentCSVHeader = "Name,Math,Science,English,Attendance"

// SampleStudentsCSV covers every grade and attendance level once.
const SampleStudentsCSV = StudentCSVHeader + "\n" +
	"Ana,95,92,91,95\n" +
	"Ben,85,82,88,85\n" +
	"Cy,72,75,70,60\n" +
	"Di,40,50,60,99\n"

// Student builds a record with Math, Science and English scores.
func Student(name string, math, science, english, attendance float64) domain.StudentRecord {
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

// SampleStudents returns the records held in SampleStudentsCSV.
func SampleStudents() []domain.StudentRecord {
	return []domain.StudentRecord{
		Student("Ana", 95, 92, 91, 95),
		Student("Ben", 85, 82, 88, 85),
		Student("Cy", 72, 75, 70, 60),
		Student("Di", 40, 50, 60, 99),
	}
}

// StudentsCSV renders records in the stock column layout. Absent values
// become empty cells.
func StudentsCSV(records []domain.StudentRecord) string {
	var b strings.Builder
	b.WriteString(StudentCSVHeader + "\n")
	for _, r := range records {
		cells := []string{r.Name}
		for _, s := range domain.DefaultSubjects {
			cells = append(cells, formatCell(r.Scores[s]))
		}
		cells = append(cells, formatCell(r.Attendance))
		b.WriteString(strings.Join(cells, ",") + "\n")
	}
	return b.String()
}

func formatCell(v domain.NullFloat) string {
	if !v.Present() {
		return ""
	}
	return fmt.Sprintf("%g", v.Float64)
}

// WriteStudentsCSV writes content to a file in a per-test temp directory
// and returns its path.
func WriteStudentsCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "student_data.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
