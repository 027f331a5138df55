package classeviva

import (
	"context"
	"net/url"
	"strconv"

	"classeviva-tools/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const page_classes = "classes"

func (p pages) parseClasses(doc *goquery.Document) ([]Class, error) {
	table := htmlutil.TableContaining(doc, p.markup.ClassesMarker)
	if table.Length() == 0 {
		return nil, extractionError(page_classes, "no table contains %q", p.markup.ClassesMarker)
	}

	var classes []Class
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		// header and spacer rows
		if cells.Length() < 4 {
			return
		}

		name := htmlutil.Text(cells.Eq(0))
		href := cells.Eq(3).Find("a[href]").First().AttrOr("href", "")
		code := ""
		parsed, err := url.Parse(href)
		if err == nil {
			code = parsed.Query().Get(p.markup.ClassCodeParam)
		}
		_, err = strconv.ParseInt(code, 10, 64)
		if name == "" || err != nil {
			p.tel.ReportWarning(report_client_get_classes, "skipping row without class code", i, name, href)
			return
		}

		classes = append(classes, Class{Name: name, RemoteCode: code})
	})

	return classes, nil
}

// Classes lists the classes coordinated by the logged in teacher.
func (c *Client) Classes(ctx context.Context) ([]Class, error) {
	ctx, span := tracer.Start(ctx, "client:getClasses")
	defer span.End()

	doc, err := c.document(ctx, report_client_get_classes, c.opts.Endpoints.Classes)
	if err != nil {
		return nil, err
	}
	classes, err := c.pages.parseClasses(doc)
	if err != nil {
		return nil, c.broken(report_client_get_classes, err)
	}
	c.tel.ReportCount(report_client_get_classes, int64(len(classes)))
	return classes, nil
}
