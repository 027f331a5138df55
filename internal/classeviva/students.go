package classeviva

import (
	"context"
	"strings"
	"time"

	"classeviva-tools/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	page_roster     = "roster"
	birthday_layout = "02-01-2006"
)

// parseBirthday reads a dd-mm-yyyy date, grouped classes append a qualifier
// after the date which is cut at the first space.
func parseBirthday(raw string) (time.Time, error) {
	cut, _, _ := strings.Cut(strings.TrimSpace(raw), " ")
	birthday, err := time.Parse(birthday_layout, cut)
	if err != nil {
		return time.Time{}, &DataError{Field: "birthday", Value: raw, Err: err}
	}
	return birthday, nil
}

// studentLines returns the name and birthday lines of a roster cell. The
// page wraps each line in a div, plain text lines are accepted too.
func studentLines(cell *goquery.Selection) (string, string, bool) {
	divs := cell.Find("div")
	if divs.Length() >= 2 {
		return htmlutil.Text(divs.Eq(0)), htmlutil.Text(divs.Eq(1)), true
	}

	var lines []string
	for _, line := range strings.Split(htmlutil.GetText(cell.Get(0)), "\n") {
		line = htmlutil.CleanText(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return "", "", false
	}
	return lines[0], lines[1], true
}

func (p pages) parseStudents(doc *goquery.Document) ([]*Student, error) {
	cells := doc.Find(p.markup.StudentCell)
	if cells.Length() == 0 {
		return nil, extractionError(page_roster, "no cells match %q", p.markup.StudentCell)
	}

	students := make([]*Student, 0, cells.Length())
	var cellErr error
	cells.EachWithBreak(func(i int, cell *goquery.Selection) bool {
		name, rawBirthday, ok := studentLines(cell)
		if !ok {
			cellErr = extractionError(page_roster, "cell %d does not hold a name and a birthday", i)
			return false
		}
		birthday, err := parseBirthday(rawBirthday)
		if err != nil {
			cellErr = err
			return false
		}
		students = append(students, &Student{
			Name:     SanitizeName(name),
			Birthday: birthday,
		})
		return true
	})
	if cellErr != nil {
		return nil, cellErr
	}

	return students, nil
}

func (c *Client) roster(ctx context.Context, endpoint string) ([]*Student, error) {
	ctx, span := tracer.Start(ctx, "client:getStudents")
	defer span.End()

	doc, err := c.document(ctx, report_client_get_students, endpoint)
	if err != nil {
		return nil, err
	}
	students, err := c.pages.parseStudents(doc)
	if err != nil {
		return nil, c.broken(report_client_get_students, err)
	}
	c.tel.ReportCount(report_client_get_students, int64(len(students)))
	return students, nil
}

// Students returns the roster of a subject in page order. Grade and test
// rows of the same subject are aligned to this order.
func (c *Client) Students(ctx context.Context, subject Subject) ([]*Student, error) {
	return c.roster(ctx, subject.RosterUrl)
}

// StudentsByClass returns the roster of a coordinated class.
func (c *Client) StudentsByClass(ctx context.Context, class Class) ([]*Student, error) {
	return c.roster(ctx, expand(c.opts.Endpoints.ClassRoster, class.RemoteCode, ""))
}
