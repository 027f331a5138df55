package classeviva

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"classeviva-tools/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	page_grades   = "grades"
	page_averages = "averages"
)

func (p pages) parseTermUrls(doc *goquery.Document) (TermUrls, error) {
	var terms TermUrls
	for _, href := range htmlutil.AttrOnAny(doc.Find("span"), p.markup.TermLinkAttr) {
		if strings.Contains(href, p.markup.CompetenceOnly) {
			continue
		}
		gradesUrl, err := p.resolve(href)
		if err != nil {
			p.tel.ReportWarning(report_client_discover_terms, "skipping bad term link", href, err)
			continue
		}
		terms.Grades = append(terms.Grades, gradesUrl)
		terms.Tests = append(terms.Tests, strings.Replace(gradesUrl, p.markup.GradesPage, p.markup.TestsPage, 1))
	}
	if len(terms.Grades) == 0 {
		return TermUrls{}, extractionError(page_grades, "no span carries %q", p.markup.TermLinkAttr)
	}
	return terms, nil
}

// DiscoverTerms reads the per-term grade and test page urls of a subject.
// It is meant to be called once per subject and the result passed along.
func (c *Client) DiscoverTerms(ctx context.Context, subject Subject) (TermUrls, error) {
	ctx, span := tracer.Start(ctx, "client:discoverTerms")
	defer span.End()

	doc, err := c.document(ctx, report_client_discover_terms, subject.GradesUrl)
	if err != nil {
		return TermUrls{}, err
	}
	terms, err := c.pages.parseTermUrls(doc)
	if err != nil {
		return TermUrls{}, c.broken(report_client_discover_terms, err)
	}
	return terms, nil
}

// parseGradeValue accepts decimal commas, blank or non-numeric cells mean
// no grade.
func parseGradeValue(text string) *float64 {
	text = strings.ReplaceAll(htmlutil.CleanText(text), ",", ".")
	if text == "" {
		return nil
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &value
}

// dataRows returns the rows of a table holding at least one td.
func dataRows(table *goquery.Selection) *goquery.Selection {
	return table.Find("tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
		return row.ChildrenFiltered("td").Length() > 0
	})
}

func (p pages) parseAverageGrades(doc *goquery.Document) ([]StudentGrades, error) {
	tables := doc.Find(p.markup.AverageTables)
	if tables.Length() < 2 {
		return nil, extractionError(page_averages, "expected 2 tables, found %d", tables.Length())
	}

	var subjects []string
	doc.Find(p.markup.AverageSubjectHeader).Each(func(_ int, s *goquery.Selection) {
		subjects = append(subjects, htmlutil.Text(s))
	})
	if len(subjects) == 0 {
		return nil, extractionError(page_averages, "no subject headers match %q", p.markup.AverageSubjectHeader)
	}

	var names []string
	dataRows(tables.Eq(0)).Each(func(_ int, row *goquery.Selection) {
		names = append(names, SanitizeName(htmlutil.Text(row.ChildrenFiltered("td").First())))
	})

	rows := dataRows(tables.Eq(1))
	if rows.Length() != len(names) {
		return nil, extractionError(
			page_averages,
			"%d students but %d grade rows", len(names), rows.Length(),
		)
	}

	result := make([]StudentGrades, 0, len(names))
	var rowErr error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.ChildrenFiltered("td")
		if cells.Length() != len(subjects) {
			rowErr = extractionError(
				page_averages,
				"row %d has %d cells for %d subjects", i, cells.Length(), len(subjects),
			)
			return false
		}
		grades := make([]Grade, len(subjects))
		cells.Each(func(j int, cell *goquery.Selection) {
			grades[j] = Grade{
				Subject: subjects[j],
				Value:   parseGradeValue(htmlutil.GetText(cell.Get(0))),
			}
		})
		result = append(result, StudentGrades{
			Student: &Student{Name: names[i]},
			Grades:  grades,
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return result, nil
}

// AverageGrades reads the coordinator averages page of a class for a term,
// one entry per student in page order.
func (c *Client) AverageGrades(ctx context.Context, class Class, term string) ([]StudentGrades, error) {
	ctx, span := tracer.Start(ctx, "client:getAverageGrades")
	defer span.End()

	endpoint := expand(c.opts.Endpoints.AverageGrades, class.RemoteCode, term)
	doc, err := c.document(ctx, report_client_get_avg_grades, endpoint)
	if err != nil {
		return nil, err
	}
	grades, err := c.pages.parseAverageGrades(doc)
	if err != nil {
		return nil, c.broken(report_client_get_avg_grades, fmt.Errorf("class %s: %w", class.Name, err))
	}
	return grades, nil
}
