package classeviva

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"classeviva-tools/internal/components/assert"
	"classeviva-tools/internal/components/telemetry"
	"classeviva-tools/lib/util/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("classeviva-tools/internal/classeviva")

const (
	report_client_login          = "client.login"
	report_client_fetch          = "client.fetch"
	report_client_get_subjects   = "client.get-subjects"
	report_client_get_classes    = "client.get-classes"
	report_client_get_students   = "client.get-students"
	report_client_discover_terms = "client.discover-terms"
	report_client_get_tests      = "client.get-tests"
	report_client_get_avg_grades = "client.get-average-grades"
	report_client_get_agenda     = "client.get-agenda"
)

// Client is one authenticated ClasseViva session. It holds a cookie jar and
// is meant to be used by one caller at a time.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	opts  Options
	pages pages
	tel   telemetry.API
}

func newClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("classeviva", tel)

	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	appBase, err := baseUrl.Parse(opts.Endpoints.AppBase)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	if opts.TimeoutSeconds > 0 {
		httpClient.SetTimeout(time.Duration(opts.TimeoutSeconds) * time.Second)
	}

	// a negative rate turns pacing off
	if opts.RequestsPerSecond > 0 {
		burst := max(1, int(opts.RequestsPerSecond))
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)
	if opts.DumpDir != "" {
		dump, err := restyutil.NewPageDump(opts.DumpDir)
		if err != nil {
			return nil, err
		}
		dump.Attach(httpClient)
	}

	return &Client{
		BaseUrl: baseUrl,
		Http:    httpClient,
		opts:    opts,
		pages: pages{
			markup:  opts.Markup,
			appBase: appBase,
			tel:     tel,
		},
		tel: tel,
	}, nil
}

// Open creates a client and performs the login handshake, the returned
// client is only usable when err is nil.
func Open(ctx context.Context, opts Options, tel telemetry.API) (*Client, error) {
	c, err := newClient(opts, tel)
	if err != nil {
		return nil, err
	}
	err = c.login(ctx, opts.Username, opts.Password)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Options returns the effective options, defaults included.
func (c *Client) Options() Options {
	return c.opts
}

type authResponse struct {
	Data struct {
		Auth struct {
			LoggedIn *bool    `json:"loggedIn"`
			Errors   []string `json:"errors"`
		} `json:"auth"`
	} `json:"data"`
	Error []string `json:"error"`
}

// checkAuthResponse only judges bodies that decode as the auth envelope,
// anything else is left to the status code.
func checkAuthResponse(body []byte) error {
	var parsed authResponse
	err := json.Unmarshal(body, &parsed)
	if err != nil {
		return nil
	}
	if len(parsed.Error) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, parsed.Error)
	}
	if len(parsed.Data.Auth.Errors) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, parsed.Data.Auth.Errors)
	}
	if parsed.Data.Auth.LoggedIn != nil && !*parsed.Data.Auth.LoggedIn {
		return ErrInvalidCredentials
	}
	return nil
}

func (c *Client) login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:login")
	defer span.End()

	fail := func(step string, err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, step)
		c.tel.ReportBroken(report_client_login, fmt.Errorf("%s: %w", step, err))
		return &AuthError{Step: step, Err: err}
	}

	_, err := c.get(ctx, c.opts.Endpoints.LoginPage)
	if err != nil {
		return fail("login page", err)
	}

	res, err := c.do(
		c.Http.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"uid":    username,
				"pwd":    password,
				"cid":    "",
				"pin":    "",
				"target": "",
			}),
		resty.MethodPost,
		c.opts.Endpoints.Auth,
	)
	if err != nil {
		return fail("credentials", err)
	}
	err = checkAuthResponse(res.Body())
	if err != nil {
		return fail("credentials", err)
	}

	_, err = c.do(c.Http.R().SetContext(ctx), resty.MethodPost, c.opts.Endpoints.LoginRedirect)
	if err != nil {
		return fail("redirect confirmation", err)
	}

	return nil
}

// do executes the request and turns network failures and non-2xx responses
// into a *TransportError.
func (c *Client) do(req *resty.Request, method, endpoint string) (*resty.Response, error) {
	res, err := req.Execute(method, endpoint)
	if err != nil {
		return nil, &TransportError{Method: method, Url: endpoint, Err: err}
	}
	if !res.IsSuccess() {
		return res, &TransportError{
			Method: method,
			Url:    endpoint,
			Status: res.StatusCode(),
			Err:    fmt.Errorf("%s", res.Status()),
		}
	}
	return res, nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*resty.Response, error) {
	return c.do(c.Http.R().SetContext(ctx), resty.MethodGet, endpoint)
}

// document fetches a page and parses it as html.
func (c *Client) document(ctx context.Context, reportId, endpoint string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "client:document")
	defer span.End()
	span.SetAttributes(attribute.String("url", endpoint))

	res, err := c.get(ctx, endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		c.tel.ReportBroken(report_client_fetch, fmt.Errorf("%s: %w", reportId, err), endpoint)
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		extractErr := extractionError(endpoint, "unparseable html: %s", err)
		c.tel.ReportBroken(reportId, extractErr)
		return nil, extractErr
	}
	return doc, nil
}

// broken reports an extraction failure before handing it back.
func (c *Client) broken(reportId string, err error) error {
	if err != nil {
		c.tel.ReportBroken(reportId, err)
	}
	return err
}
