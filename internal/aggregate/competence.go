package aggregate

import (
	"errors"
	"fmt"

	"classeviva-tools/internal/classeviva"
)

// ErrNoData means no student has a score at the requested index.
var ErrNoData = errors.New("no scores at this index")

// CompetenceLevel is a named score band. Matches must be mutually exclusive
// with the other levels it is computed with.
type CompetenceLevel struct {
	Name       string
	Matches    func(score int) bool
	Count      int
	Percentage int
}

func (c CompetenceLevel) String() string {
	return fmt.Sprintf("%s %d%% (%d)", c.Name, c.Percentage, c.Count)
}

// DefaultCompetenceLevels are the four bands used to report entry tests.
func DefaultCompetenceLevels() []CompetenceLevel {
	return []CompetenceLevel{
		{Name: "Competenza non sufficiente (<= 4)", Matches: func(s int) bool { return s <= 4 }},
		{Name: "Competenza base (5, 6)", Matches: func(s int) bool { return s > 4 && s <= 6 }},
		{Name: "Competenza intermedia (7, 8)", Matches: func(s int) bool { return s > 6 && s <= 8 }},
		{Name: "Competenza avanzata (9, 10)", Matches: func(s int) bool { return s > 8 }},
	}
}

type Distribution struct {
	Levels []CompetenceLevel
	// Missing are the students without a score at the index, in row order.
	Missing []*classeviva.Student
	// Total is the number of scores that were classified.
	Total int
}

// ComputeCompetenceLevels classifies the score at index of every row into
// the first matching level and turns the counts into integer percentages
// that sum to exactly 100.
//
// Percentages are floor(count*100/total) and the deficit is added to the
// first level holding the highest percentage. The given levels are not
// modified, the distribution holds copies.
func ComputeCompetenceLevels(
	levels []CompetenceLevel,
	scores []classeviva.StudentScores,
	index int,
) (Distribution, error) {
	result := Distribution{
		Levels:  make([]CompetenceLevel, len(levels)),
		Missing: []*classeviva.Student{},
	}
	for i, l := range levels {
		result.Levels[i] = CompetenceLevel{Name: l.Name, Matches: l.Matches}
	}

	for _, row := range scores {
		if index < 0 || index >= len(row.Scores) || row.Scores[index] == nil {
			result.Missing = append(result.Missing, row.Student)
			continue
		}
		score := *row.Scores[index]
		result.Total++
		for i := range result.Levels {
			if result.Levels[i].Matches(score) {
				result.Levels[i].Count++
				break
			}
		}
	}
	if result.Total == 0 {
		return result, ErrNoData
	}
	if len(result.Levels) == 0 {
		return result, fmt.Errorf("no competence levels given")
	}

	sum := 0
	maxIdx := 0
	for i := range result.Levels {
		result.Levels[i].Percentage = result.Levels[i].Count * 100 / result.Total
		sum += result.Levels[i].Percentage
		if result.Levels[i].Percentage > result.Levels[maxIdx].Percentage {
			maxIdx = i
		}
	}
	if sum < 100 {
		result.Levels[maxIdx].Percentage += 100 - sum
	}

	return result, nil
}
