package smartrecruiters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"smartrecruiters-source/internal/domain"
	"smartrecruiters-source/internal/netutil"
)

const (
	DefaultBaseURL   = "https://api.smartrecruiters.com/v1"
	DefaultUserAgent = "smartrecruiters-source/1.0 (+build)"

	// TokenHeader carries an optional API token for non-public postings.
	TokenHeader = "X-SmartToken"

	// DepartmentParam is the postings query filter for a department id.
	DepartmentParam = "department"

	maxOffset = 5000
)

// HTTPClient allows injecting a custom transport (tests, proxies).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("smartrecruiters status %d url=%s", e.Code, e.URL)
}

// Client reads departments and postings for a company.
type Client struct {
	baseURL   string
	hc        HTTPClient
	limiter   *netutil.HostLimiter
	token     string
	userAgent string
	pageSize  int
	timeout   time.Duration
	log       zerolog.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) { c.hc = hc }
}

func WithLimiter(l *netutil.HostLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// WithPageSize enables limit/offset paging. Zero issues a single request.
func WithPageSize(n int) Option {
	return func(c *Client) { c.pageSize = n }
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		hc:        &http.Client{},
		userAgent: DefaultUserAgent,
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Response schema (public API):
// { "content": [...], "totalFound": N, "offset": O, "limit": L }
type listResponse struct {
	Content    []domain.Record `json:"content"`
	TotalFound int             `json:"totalFound"`
	Offset     int             `json:"offset"`
	Limit      int             `json:"limit"`
}

// Departments returns every department of company.
func (c *Client) Departments(ctx context.Context, company string) ([]domain.Record, error) {
	return c.list(ctx, company, "departments", nil)
}

// JobPosts returns the postings of company matching params. Scalar values
// become one query value; slices become repeated values.
func (c *Client) JobPosts(ctx context.Context, company string, params map[string]any) ([]domain.Record, error) {
	return c.list(ctx, company, "postings", EncodeParams(params))
}

func (c *Client) list(ctx context.Context, company, resource string, q url.Values) ([]domain.Record, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, fmt.Errorf("smartrecruiters: empty company identifier")
	}
	base := fmt.Sprintf("%s/companies/%s/%s", c.baseURL, url.PathEscape(company), resource)

	if c.pageSize <= 0 {
		pr, err := c.get(ctx, withQuery(base, q))
		if err != nil {
			return nil, err
		}
		c.log.Debug().Str("resource", resource).Int("count", len(pr.Content)).Msg("fetched")
		return pr.Content, nil
	}

	var out []domain.Record
	for offset := 0; ; {
		pq := cloneValues(q)
		pq.Set("limit", strconv.Itoa(c.pageSize))
		pq.Set("offset", strconv.Itoa(offset))

		pr, err := c.get(ctx, withQuery(base, pq))
		if err != nil {
			return out, err
		}
		if len(pr.Content) == 0 {
			break
		}
		out = append(out, pr.Content...)

		offset += c.pageSize
		if pr.TotalFound > 0 && offset >= pr.TotalFound {
			break
		}
		if pr.TotalFound == 0 && len(pr.Content) < c.pageSize {
			break
		}
		if offset > maxOffset {
			c.log.Warn().Str("resource", resource).Int("offset", offset).Msg("paging stopped at max offset")
			break
		}
	}
	c.log.Debug().Str("resource", resource).Int("count", len(out)).Msg("fetched")
	return out, nil
}

func (c *Client) get(ctx context.Context, u string) (listResponse, error) {
	var pr listResponse

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.WaitURL(ctx, u); err != nil {
		return pr, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return pr, fmt.Errorf("smartrecruiters request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set(TokenHeader, c.token)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return pr, fmt.Errorf("smartrecruiters get: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return pr, &StatusError{Code: res.StatusCode, URL: u, Body: string(b)}
	}

	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&pr); err != nil {
		return pr, fmt.Errorf("smartrecruiters decode: %w", err)
	}
	return pr, nil
}

// EncodeParams turns a passthrough filter bag into query values.
func EncodeParams(params map[string]any) url.Values {
	q := url.Values{}
	for k, v := range params {
		switch t := v.(type) {
		case nil:
		case []any:
			for _, x := range t {
				q.Add(k, fmt.Sprint(x))
			}
		case []string:
			for _, x := range t {
				q.Add(k, x)
			}
		default:
			q.Set(k, fmt.Sprint(t))
		}
	}
	return q
}

func withQuery(base string, q url.Values) string {
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q)+2)
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
