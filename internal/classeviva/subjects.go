package classeviva

import (
	"context"
	"strings"

	"classeviva-tools/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const page_subjects = "subjects"

func (p pages) parseSubjects(doc *goquery.Document) ([]Subject, error) {
	table := htmlutil.TableContaining(doc, p.markup.SubjectsMarker)
	if table.Length() == 0 {
		return nil, extractionError(page_subjects, "no table contains %q", p.markup.SubjectsMarker)
	}

	rows := table.Find(p.markup.SubjectRows)
	if rows.Length() == 0 {
		return nil, extractionError(page_subjects, "no rows match %q", p.markup.SubjectRows)
	}

	var subjects []Subject
	var rowErr error
	// the first row is the header
	rows.Slice(1, goquery.ToEnd).EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.ChildrenFiltered("td")
		if cells.Length() < 3 {
			p.tel.ReportWarning(report_client_get_subjects, "skipping short row", i, cells.Length())
			return true
		}

		link := cells.Eq(0).Find("a").First()
		href, ok := link.Attr("href")
		if !ok {
			rowErr = extractionError(page_subjects, "row %d: class cell has no link", i)
			return false
		}
		rosterUrl, err := p.resolve(href)
		if err != nil {
			rowErr = extractionError(page_subjects, "row %d: bad roster link %q: %s", i, href, err)
			return false
		}

		subject := Subject{
			ClassName:        htmlutil.Text(link),
			ClassDescription: strings.TrimSpace(cells.Eq(1).Find("p[title]").First().AttrOr("title", "")),
			Name:             strings.TrimSpace(cells.Eq(2).Find("div > div > div[title]").First().AttrOr("title", "")),
			RosterUrl:        rosterUrl,
			GradesUrl:        strings.Replace(rosterUrl, p.markup.RosterPage, p.markup.GradesPage, 1),
		}
		// grouped classes (3B_AFM, 3B_SIA) leave the class name cell blank
		if subject.ClassName == "" {
			subject.ClassName = subject.ClassDescription
		}
		subjects = append(subjects, subject)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return subjects, nil
}

// Subjects lists the class/subject pairs taught by the logged in teacher.
func (c *Client) Subjects(ctx context.Context) ([]Subject, error) {
	ctx, span := tracer.Start(ctx, "client:getSubjects")
	defer span.End()

	doc, err := c.document(ctx, report_client_get_subjects, c.opts.Endpoints.Subjects)
	if err != nil {
		return nil, err
	}
	subjects, err := c.pages.parseSubjects(doc)
	if err != nil {
		return nil, c.broken(report_client_get_subjects, err)
	}
	c.tel.ReportCount(report_client_get_subjects, int64(len(subjects)))
	return subjects, nil
}
