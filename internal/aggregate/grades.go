package aggregate

import (
	"math"

	"classeviva-tools/internal/classeviva"
)

// Average is the mean of the non-nil grades, ok is false when there are none.
func Average(sg classeviva.StudentGrades) (avg float64, ok bool) {
	var sum float64
	var count int
	for _, g := range sg.Grades {
		if g.Value == nil {
			continue
		}
		sum += *g.Value
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// Band is a grade interval, Lower is inclusive and Upper is exclusive.
type Band struct {
	Lower float64
	Upper float64
}

func (b Band) Contains(grade float64) bool {
	return grade >= b.Lower && grade < b.Upper
}

var (
	VeryBad      = Band{Lower: math.Inf(-1), Upper: 5}
	Insufficient = Band{Lower: 5, Upper: 6}
)

// BadGrades counts the grades falling in the band and lists the display
// names of their subjects in column order, without repetitions.
func BadGrades(sg classeviva.StudentGrades, band Band) (int, []string) {
	count := 0
	subjects := []string{}
	seen := map[string]bool{}
	for _, g := range sg.Grades {
		if g.Value == nil || !band.Contains(*g.Value) {
			continue
		}
		count++
		name := g.SanitizedSubject()
		if seen[name] {
			continue
		}
		seen[name] = true
		subjects = append(subjects, name)
	}
	return count, subjects
}
