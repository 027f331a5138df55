package aggregate

import (
	"math/rand"
	"testing"

	"classeviva-tools/internal/classeviva"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func grade(subject string, value float64) classeviva.Grade {
	return classeviva.Grade{Subject: subject, Value: &value}
}

func TestAverage(t *testing.T) {
	sg := classeviva.StudentGrades{
		Student: &classeviva.Student{Name: "ROSSI MARIO"},
		Grades: []classeviva.Grade{
			grade("MATEMATICA", 4),
			{Subject: "STORIA"},
			grade("INGLESE", 7),
			grade("LINGUA E LETTERATURA ITALIANA", 6.5),
		},
	}
	avg, ok := Average(sg)
	require.True(t, ok)
	require.InDelta(t, 17.5/3, avg, 1e-9)

	_, ok = Average(classeviva.StudentGrades{Grades: []classeviva.Grade{{Subject: "STORIA"}}})
	require.False(t, ok)
}

func TestBadGrades(t *testing.T) {
	sg := classeviva.StudentGrades{
		Grades: []classeviva.Grade{
			grade("MATEMATICA", 3),
			grade("COMPLEMENTI DI MATEMATICA", 4.5),
			grade("STORIA", 5),
			grade("LINGUA E LETTERATURA ITALIANA", 5.5),
			grade("LINGUA ITALIANA", 5.75),
			grade("INGLESE", 6),
			{Subject: "FISICA"},
		},
	}

	count, subjects := BadGrades(sg, VeryBad)
	require.Equal(t, 2, count)
	require.Equal(t, []string{"MATEMATICA", "COMPL. MAT."}, subjects)

	count, subjects = BadGrades(sg, Insufficient)
	require.Equal(t, 3, count)
	// both italian columns share one alias
	require.Equal(t, []string{"STORIA", "ITALIANO"}, subjects)

	count, subjects = BadGrades(classeviva.StudentGrades{}, VeryBad)
	require.Zero(t, count)
	require.Empty(t, subjects)
}

func scoresOf(values ...*int) []classeviva.StudentScores {
	rows := make([]classeviva.StudentScores, len(values))
	for i, v := range values {
		rows[i] = classeviva.StudentScores{
			Student: &classeviva.Student{Name: string(rune('A' + i))},
			Scores:  []*int{v},
		}
	}
	return rows
}

func score(v int) *int {
	return &v
}

func percentages(d Distribution) []int {
	out := make([]int, len(d.Levels))
	for i, l := range d.Levels {
		out[i] = l.Percentage
	}
	return out
}

func counts(d Distribution) []int {
	out := make([]int, len(d.Levels))
	for i, l := range d.Levels {
		out[i] = l.Count
	}
	return out
}

func TestComputeCompetenceLevels(t *testing.T) {
	testCases := []struct {
		name        string
		scores      []classeviva.StudentScores
		counts      []int
		percentages []int
		missing     []string
	}{
		{
			name:        "one missing student",
			scores:      scoresOf(score(3), score(6), score(6), nil, score(9)),
			counts:      []int{1, 2, 0, 1},
			percentages: []int{25, 50, 0, 25},
			missing:     []string{"D"},
		},
		{
			name:        "exact fifths",
			scores:      scoresOf(score(3), score(3), score(3), score(4), score(5)),
			counts:      []int{4, 1, 0, 0},
			percentages: []int{80, 20, 0, 0},
			missing:     []string{},
		},
		{
			name:        "single bucket",
			scores:      scoresOf(score(4), score(4), score(4)),
			counts:      []int{3, 0, 0, 0},
			percentages: []int{100, 0, 0, 0},
			missing:     []string{},
		},
		{
			name:        "deficit goes to the first highest bucket",
			scores:      scoresOf(score(2), score(5), score(10)),
			counts:      []int{1, 1, 0, 1},
			percentages: []int{34, 33, 0, 33},
			missing:     []string{},
		},
		{
			name:        "deficit goes to the highest bucket",
			scores:      scoresOf(score(1), score(7), score(8), score(8), score(9), score(10)),
			counts:      []int{1, 0, 3, 2},
			percentages: []int{16, 0, 51, 33},
			missing:     []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			levels := DefaultCompetenceLevels()
			d, err := ComputeCompetenceLevels(levels, tc.scores, 0)
			require.NoError(t, err)

			if diff := cmp.Diff(tc.counts, counts(d)); diff != "" {
				t.Fatal(diff)
			}
			if diff := cmp.Diff(tc.percentages, percentages(d)); diff != "" {
				t.Fatal(diff)
			}
			missing := []string{}
			for _, s := range d.Missing {
				missing = append(missing, s.Name)
			}
			require.Equal(t, tc.missing, missing)
			require.Equal(t, len(tc.scores)-len(tc.missing), d.Total)

			for _, l := range levels {
				require.Zero(t, l.Count)
				require.Zero(t, l.Percentage)
			}
		})
	}
}

func TestComputeCompetenceLevelsNoData(t *testing.T) {
	rows := scoresOf(nil, nil, nil)
	// a row too short for the index counts as missing
	rows = append(rows, classeviva.StudentScores{
		Student: &classeviva.Student{Name: "SHORT"},
		Scores:  []*int{},
	})

	d, err := ComputeCompetenceLevels(DefaultCompetenceLevels(), rows, 0)
	require.ErrorIs(t, err, ErrNoData)
	require.Len(t, d.Missing, len(rows))
	require.Zero(t, d.Total)
	for _, l := range d.Levels {
		require.Zero(t, l.Percentage)
	}

	_, err = ComputeCompetenceLevels(DefaultCompetenceLevels(), nil, 0)
	require.ErrorIs(t, err, ErrNoData)
}

func TestComputeCompetenceLevelsIndex(t *testing.T) {
	rows := []classeviva.StudentScores{
		{Student: &classeviva.Student{Name: "A"}, Scores: []*int{score(3), score(9)}},
		{Student: &classeviva.Student{Name: "B"}, Scores: []*int{score(6)}},
	}
	d, err := ComputeCompetenceLevels(DefaultCompetenceLevels(), rows, 1)
	require.NoError(t, err)
	require.Equal(t, []int{0, 0, 0, 100}, percentages(d))
	require.Len(t, d.Missing, 1)
	require.Equal(t, "B", d.Missing[0].Name)
}

func TestCompetencePercentagesSumTo100(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		n := 1 + r.Intn(40)
		values := make([]*int, n)
		values[0] = score(r.Intn(11))
		for j := 1; j < n; j++ {
			if r.Intn(5) == 0 {
				continue
			}
			values[j] = score(r.Intn(11))
		}
		r.Shuffle(n, func(a, b int) { values[a], values[b] = values[b], values[a] })

		d, err := ComputeCompetenceLevels(DefaultCompetenceLevels(), scoresOf(values...), 0)
		require.NoError(t, err)

		sum := 0
		total := 0
		for _, l := range d.Levels {
			sum += l.Percentage
			total += l.Count
		}
		require.Equal(t, 100, sum, "case %d", i)
		require.Equal(t, d.Total, total)
	}
}
