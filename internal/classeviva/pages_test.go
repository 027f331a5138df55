package classeviva

import (
	_ "embed"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"classeviva-tools/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/subjects.html
var subjectsPage string

//go:embed testdata/classes.html
var classesPage string

//go:embed testdata/students.html
var studentsPage string

//go:embed testdata/grades.html
var gradesPage string

//go:embed testdata/tests.html
var testsPage string

//go:embed testdata/averages.html
var averagesPage string

//go:embed testdata/agenda.json
var agendaEvents string

const testAppBase = "https://web.spaggiari.eu/cvv/app/default/"

func testPages(t testing.TB) (pages, *telemetry.Recorder) {
	appBase, err := url.Parse(testAppBase)
	require.NoError(t, err)
	rec := &telemetry.Recorder{}
	return pages{
		markup:  DefaultOptions().Markup,
		appBase: appBase,
		tel:     rec,
	}, rec
}

func parseDoc(t testing.TB, contents string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contents))
	require.NoError(t, err)
	return doc
}

func requireExtractionError(t testing.TB, err error, page string) {
	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	require.Equal(t, page, extractErr.Page)
}

func TestParseSubjects(t *testing.T) {
	p, _ := testPages(t)

	subjects, err := p.parseSubjects(parseDoc(t, subjectsPage))
	require.NoError(t, err)

	expected := []Subject{
		{
			ClassName:        "1A",
			ClassDescription: "1A INFORMATICA",
			Name:             "INFORMATICA",
			RosterUrl:        testAppBase + "regclasse.php?classe_id=1391771&materia=57",
			GradesUrl:        testAppBase + "regvoti.php?classe_id=1391771&materia=57",
		},
		{
			ClassName:        "3B_SIA",
			ClassDescription: "3B_SIA",
			Name:             "TECNOLOGIE DELL'INFORMAZIONE E DELLA COMUNICAZIONE",
			RosterUrl:        testAppBase + "regclasse.php?classe_id=1391802&materia=61",
			GradesUrl:        testAppBase + "regvoti.php?classe_id=1391802&materia=61",
		},
	}
	if diff := cmp.Diff(expected, subjects); diff != "" {
		t.Fatal(diff)
	}

	require.Equal(t, "1391771", subjects[0].ClassCode("classe_id"))
	require.Equal(t, "1A (1A INFORMATICA) - INFORMATICA", subjects[0].String())
}

func TestParseSubjectsWithoutMarker(t *testing.T) {
	p, _ := testPages(t)

	_, err := p.parseSubjects(parseDoc(t, classesPage))
	requireExtractionError(t, err, page_subjects)
}

func TestParseClasses(t *testing.T) {
	p, rec := testPages(t)

	classes, err := p.parseClasses(parseDoc(t, classesPage))
	require.NoError(t, err)

	expected := []Class{
		{Name: "2C", RemoteCode: "1391900"},
		{Name: "4A", RemoteCode: "1392011"},
	}
	if diff := cmp.Diff(expected, classes); diff != "" {
		t.Fatal(diff)
	}
	// 5Z carries a non-numeric code
	require.Len(t, rec.Reports("warning", report_client_get_classes), 1)

	_, err = p.parseClasses(parseDoc(t, subjectsPage))
	requireExtractionError(t, err, page_classes)
}

func TestParseStudents(t *testing.T) {
	p, _ := testPages(t)

	students, err := p.parseStudents(parseDoc(t, studentsPage))
	require.NoError(t, err)

	expected := []*Student{
		{Name: "ROSSI MARIO", Birthday: time.Date(2008, time.March, 14, 0, 0, 0, 0, time.UTC)},
		{Name: "BIANCHI ANNA", Birthday: time.Date(2008, time.February, 29, 0, 0, 0, 0, time.UTC)},
		{Name: "VERDI LUCA", Birthday: time.Date(2007, time.December, 1, 0, 0, 0, 0, time.UTC)},
	}
	if diff := cmp.Diff(expected, students); diff != "" {
		t.Fatal(diff)
	}

	_, err = p.parseStudents(parseDoc(t, classesPage))
	requireExtractionError(t, err, page_roster)
}

func TestParseStudentsBadBirthday(t *testing.T) {
	p, _ := testPages(t)

	doc := parseDoc(t, `<table><tr><td class="elenco_studenti">
		<div>ROSSI MARIO</div><div>31-13-2008</div>
	</td></tr></table>`)
	_, err := p.parseStudents(doc)

	var dataErr *DataError
	require.ErrorAs(t, err, &dataErr)
	require.Equal(t, "birthday", dataErr.Field)
}

func TestParseStudentsPlainLines(t *testing.T) {
	p, _ := testPages(t)

	doc := parseDoc(t, "<table><tr><td class=\"elenco_studenti\">NERI PAOLA\n05-06-2009 (2B)</td></tr></table>")
	students, err := p.parseStudents(doc)
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, "NERI PAOLA", students[0].Name)
	require.Equal(t, time.June, students[0].Birthday.Month())
}

func TestStudentAge(t *testing.T) {
	s := Student{Name: "BIANCHI ANNA", Birthday: time.Date(2008, time.March, 14, 0, 0, 0, 0, time.UTC)}

	require.Equal(t, 15, s.AgeAt(time.Date(2024, time.March, 13, 12, 0, 0, 0, time.UTC)))
	require.Equal(t, 16, s.AgeAt(time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 16, s.AgeAt(time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseTermUrls(t *testing.T) {
	p, _ := testPages(t)

	terms, err := p.parseTermUrls(parseDoc(t, gradesPage))
	require.NoError(t, err)

	expected := TermUrls{
		Grades: []string{
			testAppBase + "regvoti.php?classe_id=1391771&materia=57&periodo=1",
			testAppBase + "regvoti.php?classe_id=1391771&materia=57&periodo=3",
		},
		Tests: []string{
			testAppBase + "recuperi_docente.php?classe_id=1391771&materia=57&periodo=1",
			testAppBase + "recuperi_docente.php?classe_id=1391771&materia=57&periodo=3",
		},
	}
	if diff := cmp.Diff(expected, terms); diff != "" {
		t.Fatal(diff)
	}

	_, err = p.parseTermUrls(parseDoc(t, studentsPage))
	requireExtractionError(t, err, page_grades)
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestParseTests(t *testing.T) {
	p, _ := testPages(t)

	students, err := p.parseStudents(parseDoc(t, studentsPage))
	require.NoError(t, err)

	scores, err := p.parseTests(parseDoc(t, testsPage), students)
	require.NoError(t, err)

	expected := [][]*int{
		{intPtr(3), intPtr(7)},
		{intPtr(6), nil},
		{nil, intPtr(9)},
	}
	require.Len(t, scores, len(expected))
	for i, row := range scores {
		// the roster pointers are shared, not copied
		require.Same(t, students[i], row.Student)
		if diff := cmp.Diff(expected[i], row.Scores); diff != "" {
			t.Fatalf("row %d: %s", i, diff)
		}
	}
	require.Equal(t, "BIANCHI ANNA -> 6 -", scores[1].String())
}

func TestParseTestsRosterMismatch(t *testing.T) {
	p, _ := testPages(t)

	_, err := p.parseTests(parseDoc(t, testsPage), []*Student{{Name: "ROSSI MARIO"}})
	requireExtractionError(t, err, page_tests)

	_, err = p.parseTests(parseDoc(t, studentsPage), nil)
	requireExtractionError(t, err, page_tests)
}

func TestParseAverageGrades(t *testing.T) {
	p, _ := testPages(t)

	grades, err := p.parseAverageGrades(parseDoc(t, averagesPage))
	require.NoError(t, err)

	expected := []StudentGrades{
		{
			Student: &Student{Name: "ROSSI MARIO"},
			Grades: []Grade{
				{Subject: "LINGUA E LETTERATURA ITALIANA", Value: floatPtr(6.5)},
				{Subject: "MATEMATICA", Value: floatPtr(4)},
				{Subject: "STORIA", Value: floatPtr(5.5)},
			},
		},
		{
			Student: &Student{Name: "BIANCHI ANNA"},
			Grades: []Grade{
				{Subject: "LINGUA E LETTERATURA ITALIANA", Value: floatPtr(8)},
				{Subject: "MATEMATICA", Value: nil},
				{Subject: "STORIA", Value: nil},
			},
		},
	}
	if diff := cmp.Diff(expected, grades); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, "ITALIANO", grades[0].Grades[0].SanitizedSubject())
}

func TestParseAverageGradesMissingTable(t *testing.T) {
	p, _ := testPages(t)

	_, err := p.parseAverageGrades(parseDoc(t, studentsPage))
	requireExtractionError(t, err, page_averages)
}

func TestParseAgenda(t *testing.T) {
	p, _ := testPages(t)

	items, err := p.parseAgenda([]byte(agendaEvents), AgendaQuery{AuthorId: "4242", Location: time.UTC})
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "9002", items[0].Id)
	require.True(t, items[0].AllDay)
	require.Equal(t, "1391771", items[0].ClassCode)
	require.Equal(t, "9001", items[1].Id)
	require.Equal(t, time.Date(2023, time.October, 25, 9, 0, 0, 0, time.UTC), items[1].Start)
	require.Equal(
		t,
		"25/10/2023 09:00 - 1A INFORMATICA (INFORMATICA)\nPROF. NERI: Verifica di informatica sulle reti",
		items[1].String(),
	)

	all, err := p.parseAgenda([]byte(agendaEvents), AgendaQuery{Location: time.UTC})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "9003", all[0].Id)

	_, err = p.parseAgenda([]byte("<html>login</html>"), AgendaQuery{})
	require.True(t, errors.As(err, new(*ExtractionError)))
}
