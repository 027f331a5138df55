package classeviva

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const (
	page_agenda   = "agenda"
	agenda_layout = "2006-01-02 15:04:05"
	agenda_day    = "2006-01-02"
)

type AgendaQuery struct {
	ClassCode string
	// GroupCode narrows the query to a group of the class, it may be empty.
	GroupCode string
	Start     time.Time
	End       time.Time
	// AuthorId keeps only events created by that author when set.
	AuthorId string
	// Location is used to read event times, time.Local when nil.
	Location *time.Location
}

type AgendaItem struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	Note      string    `json:"note"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	AllDay    bool      `json:"all_day"`
	ClassCode string    `json:"class_code"`
	ClassName string    `json:"class_name"`
	Subject   string    `json:"subject"`
	AuthorId  string    `json:"author_id"`
	Author    string    `json:"author"`
}

func (a AgendaItem) String() string {
	when := a.Start.Format("02/01/2006 15:04")
	if a.AllDay {
		when = a.Start.Format("02/01/2006")
	}
	header := fmt.Sprintf("%s - %s", when, a.ClassName)
	if a.Subject != "" {
		header += " (" + a.Subject + ")"
	}
	body := strings.TrimSpace(a.Note)
	if body == "" {
		body = strings.TrimSpace(a.Title)
	}
	return fmt.Sprintf("%s\n%s: %s", header, a.Author, body)
}

// looseString decodes both json strings and numbers, the agenda endpoint
// is not consistent about ids.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		err := json.Unmarshal(data, &str)
		if err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}
	*s = looseString(data)
	return nil
}

type agendaEvent struct {
	Id         looseString `json:"id"`
	Title      string      `json:"title"`
	Start      string      `json:"start"`
	End        string      `json:"end"`
	AllDay     bool        `json:"allDay"`
	Note       string      `json:"nota_2"`
	ClassCode  looseString `json:"classe_id"`
	ClassName  string      `json:"classe_desc"`
	Subject    string      `json:"materia_desc"`
	AuthorId   looseString `json:"autore_id"`
	AuthorName string      `json:"autore_desc"`
}

func parseAgendaTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{agenda_layout, time.RFC3339, agenda_day} {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DataError{Field: "agenda time", Value: raw, Err: fmt.Errorf("unknown layout")}
}

func (p pages) parseAgenda(body []byte, query AgendaQuery) ([]AgendaItem, error) {
	var events []agendaEvent
	err := json.Unmarshal(body, &events)
	if err != nil {
		return nil, extractionError(page_agenda, "events are not a json list: %s", err)
	}

	loc := query.Location
	if loc == nil {
		loc = time.Local
	}

	items := []AgendaItem{}
	for _, e := range events {
		if query.AuthorId != "" && string(e.AuthorId) != query.AuthorId {
			continue
		}
		start, err := parseAgendaTime(e.Start, loc)
		if err != nil {
			p.tel.ReportWarning(report_client_get_agenda, "skipping event", string(e.Id), err)
			continue
		}
		end, err := parseAgendaTime(e.End, loc)
		if err != nil {
			end = start
		}
		items = append(items, AgendaItem{
			Id:        string(e.Id),
			Title:     e.Title,
			Note:      e.Note,
			Start:     start,
			End:       end,
			AllDay:    e.AllDay,
			ClassCode: string(e.ClassCode),
			ClassName: e.ClassName,
			Subject:   e.Subject,
			AuthorId:  string(e.AuthorId),
			Author:    e.AuthorName,
		})
	}

	SortAgenda(items)
	return items, nil
}

// SortAgenda orders items by start time, ties keep their order.
func SortAgenda(items []AgendaItem) {
	slices.SortStableFunc(items, func(a, b AgendaItem) int {
		return a.Start.Compare(b.Start)
	})
}

// Agenda reads the agenda events of a class between two days, both
// inclusive, sorted by start.
func (c *Client) Agenda(ctx context.Context, query AgendaQuery) ([]AgendaItem, error) {
	ctx, span := tracer.Start(ctx, "client:getAgenda")
	defer span.End()

	res, err := c.do(
		c.Http.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"classe_id": query.ClassCode,
				"gruppo_id": query.GroupCode,
				"start":     query.Start.Format(agenda_day),
				"end":       query.End.Format(agenda_day),
			}),
		resty.MethodPost,
		c.opts.Endpoints.Agenda,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, c.broken(report_client_get_agenda, err)
	}

	items, err := c.pages.parseAgenda(res.Body(), query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode")
		return nil, c.broken(report_client_get_agenda, err)
	}
	c.tel.ReportCount(report_client_get_agenda, int64(len(items)))
	return items, nil
}
