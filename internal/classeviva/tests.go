package classeviva

import (
	"context"
	"strconv"

	"classeviva-tools/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const page_tests = "tests"

func (p pages) parseTests(doc *goquery.Document, students []*Student) ([]StudentScores, error) {
	table := doc.Find(p.markup.TestsTable).First()
	if table.Length() == 0 {
		return nil, extractionError(page_tests, "no table matches %q", p.markup.TestsTable)
	}

	// the first row is the header
	rows := table.Find("tr").Slice(1, goquery.ToEnd)
	if rows.Length() != len(students) {
		return nil, extractionError(
			page_tests,
			"%d rows for a roster of %d students", rows.Length(), len(students),
		)
	}

	result := make([]StudentScores, rows.Length())
	rows.Each(func(i int, row *goquery.Selection) {
		scores := []*int{}
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			paragraph := cell.Find("p").First()
			if paragraph.Length() == 0 {
				return
			}
			score, err := strconv.Atoi(htmlutil.Text(paragraph))
			if err != nil {
				scores = append(scores, nil)
				return
			}
			scores = append(scores, &score)
		})
		result[i] = StudentScores{Student: students[i], Scores: scores}
	})

	return result, nil
}

// Tests reads the tests page of a term, rows are matched to the roster by
// position so students must come from Students for the same subject.
func (c *Client) Tests(ctx context.Context, terms TermUrls, term int, students []*Student) ([]StudentScores, error) {
	ctx, span := tracer.Start(ctx, "client:getTests")
	defer span.End()

	if term < 0 || term >= len(terms.Tests) {
		err := extractionError(page_tests, "term %d not offered, the subject has %d terms", term, len(terms.Tests))
		return nil, c.broken(report_client_get_tests, err)
	}

	doc, err := c.document(ctx, report_client_get_tests, terms.Tests[term])
	if err != nil {
		return nil, err
	}
	scores, err := c.pages.parseTests(doc, students)
	if err != nil {
		return nil, c.broken(report_client_get_tests, err)
	}
	return scores, nil
}
