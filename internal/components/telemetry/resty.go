package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

const (
	report_http_request  = "http.request"
	report_http_response = "http.response"
	report_http_failure  = "http.failure"
)

const (
	redacted      = "[redacted]"
	max_body_dump = 4096
)

// secretFields are form and json fields whose values never reach a report:
// the login form (pwd, pin) and credentials of other services.
var secretFields = map[string]bool{
	"pwd":        true,
	"pin":        true,
	"password":   true,
	"authtoken":  true,
	"auth_token": true,
}

var secretHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
}

func isSecret(field string) bool {
	return secretFields[strings.ToLower(field)]
}

type exchangeKey struct{}

type httpReporter struct {
	tel API
	seq *atomic.Uint64
}

// InstrumentResty reports a debug line for every request and response of
// the client and a broken report for transport failures. Responses with an
// error status are also dumped in full, with credentials redacted.
func InstrumentResty(client *resty.Client, tel API) {
	h := httpReporter{tel: tel, seq: &atomic.Uint64{}}
	client.OnBeforeRequest(h.before)
	client.OnAfterResponse(h.after)
	client.OnError(h.failed)
}

func exchangeId(req *resty.Request) uint64 {
	id, _ := req.Context().Value(exchangeKey{}).(uint64)
	return id
}

func (h httpReporter) before(_ *resty.Client, req *resty.Request) error {
	id := h.seq.Add(1)
	req.SetContext(context.WithValue(req.Context(), exchangeKey{}, id))
	h.tel.ReportDebug(report_http_request, id, req.Method, req.URL)
	return nil
}

func (h httpReporter) after(_ *resty.Client, res *resty.Response) error {
	id := exchangeId(res.Request)
	h.tel.ReportDebug(report_http_response, id, res.Time().String(), res.Status())
	if res.IsError() {
		h.tel.ReportDebug(report_http_response, id, dumpExchange(res))
	}
	return nil
}

func (h httpReporter) failed(req *resty.Request, err error) {
	h.tel.ReportBroken(report_http_failure, err, exchangeId(req), req.Method, req.URL)
}

func truncate(s string) string {
	if len(s) <= max_body_dump {
		return s
	}
	return s[:max_body_dump] + fmt.Sprintf("... (%d bytes more)", len(s)-max_body_dump)
}

// redactForm renders form values with the secret ones replaced, keys in
// sorted order.
func redactForm(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var parts []string
	for _, k := range keys {
		for _, v := range values[k] {
			if isSecret(k) {
				v = redacted
			} else {
				v = url.QueryEscape(v)
			}
			parts = append(parts, url.QueryEscape(k)+"="+v)
		}
	}
	return strings.Join(parts, "&")
}

func redactJson(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for k, inner := range v {
			if isSecret(k) {
				v[k] = redacted
				continue
			}
			v[k] = redactJson(inner)
		}
	case []any:
		for i := range v {
			v[i] = redactJson(v[i])
		}
	}
	return value
}

// requestBody returns a printable request body. Bodies that cannot be parsed
// as their content type are withheld since they could not be redacted.
func requestBody(req *resty.Request) string {
	if len(req.FormData) > 0 {
		return redactForm(req.FormData)
	}
	raw := req.RawRequest
	if raw == nil || raw.GetBody == nil {
		return ""
	}
	reader, err := raw.GetBody()
	if err != nil || reader == nil {
		return ""
	}
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil || len(body) == 0 {
		return ""
	}

	contentType := strings.ToLower(raw.Header.Get("content-type"))
	switch {
	case strings.Contains(contentType, "x-www-form-urlencoded"):
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return "<unparseable form body withheld>"
		}
		return redactForm(values)
	case strings.Contains(contentType, "json"):
		var parsed any
		err := json.Unmarshal(body, &parsed)
		if err != nil {
			return "<unparseable json body withheld>"
		}
		out, err := json.Marshal(redactJson(parsed))
		if err != nil {
			return "<unparseable json body withheld>"
		}
		return truncate(string(out))
	}
	return truncate(string(body))
}

func writeHeaders(out *strings.Builder, prefix string, headers http.Header) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, v := range headers[k] {
			if secretHeaders[strings.ToLower(k)] {
				v = redacted
			}
			fmt.Fprintf(out, "%s%s: %s\n", prefix, k, v)
		}
	}
}

// dumpExchange renders a request and its response, curl -v style.
func dumpExchange(res *resty.Response) string {
	var out strings.Builder
	req := res.Request

	fmt.Fprintf(&out, "> %s %s\n", req.Method, req.URL)
	if req.RawRequest != nil {
		writeHeaders(&out, "> ", req.RawRequest.Header)
	}
	body := requestBody(req)
	if body != "" {
		fmt.Fprintf(&out, ">\n> %s\n", body)
	}

	fmt.Fprintf(&out, "< %s\n", res.Status())
	writeHeaders(&out, "< ", res.Header())
	fmt.Fprintf(&out, "<\n%s", truncate(res.String()))
	return out.String()
}
