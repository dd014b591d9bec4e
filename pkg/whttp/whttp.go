package whttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/pricescope/pricescope/pkg/catalog"
)

const (
	DefaultUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36"
	DefaultMaxInFlight = 5
	DefaultTimeout     = 25 * time.Second
)

// Request describes one HTTP call built from a vendor descriptor's request
// template plus the injected query.
type Request struct {
	Method  string // defaults to GET, or POST when Form is set
	URL     string
	Headers map[string]string
	Params  map[string]string
	Form    map[string]string
	Cookies map[string]string
}

// Fetcher issues HTTP requests for one vendor, bounding the number of
// concurrent in-flight calls and enforcing a per-call timeout. The
// underlying client is safe to share across fetchers.
type Fetcher struct {
	client  *http.Client
	sem     chan struct{}
	timeout time.Duration
	limiter *rate.Limiter
}

type Option func(*Fetcher)

// WithClient overrides the HTTP client. Tests use this to plug in a mock
// transport.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithMaxInFlight bounds concurrent requests through this fetcher.
func WithMaxInFlight(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.sem = make(chan struct{}, n)
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithRateLimit throttles requests to rps per second. Zero disables
// throttling; the semaphore alone bounds concurrency then.
func WithRateLimit(rps float64) Option {
	return func(f *Fetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  http.DefaultClient,
		sem:     make(chan struct{}, DefaultMaxInFlight),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchText performs the request and returns the raw body. Non-2xx statuses
// map to KindSearchFailed, transport failures and timeouts to
// KindProductFetchFailed. A single failed call fails the caller's whole
// pipeline; there are no retries.
func (f *Fetcher) FetchText(ctx context.Context, r *Request) (string, error) {
	if r == nil || r.URL == "" {
		return "", catalog.Errorf(catalog.KindConfiguration, "no URL provided to fetch")
	}

	select {
	case f.sem <- struct{}{}:
		defer func() { <-f.sem }()
	case <-ctx.Done():
		return "", catalog.NewError(catalog.KindProductFetchFailed, ctx.Err())
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", catalog.NewError(catalog.KindProductFetchFailed, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	method := r.Method
	var body io.Reader
	if len(r.Form) > 0 {
		if method == "" {
			method = http.MethodPost
		}
		form := url.Values{}
		for k, v := range r.Form {
			form.Set(k, v)
		}
		body = strings.NewReader(form.Encode())
	} else if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return "", catalog.NewError(catalog.KindProductFetchFailed, err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept-Language", "en")
	if len(r.Form) > 0 {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range r.Cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}

	if len(r.Params) > 0 {
		q := req.URL.Query()
		for k, v := range r.Params {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", catalog.Errorf(catalog.KindProductFetchFailed, "timeout fetching %s", r.URL)
		}
		return "", catalog.NewError(catalog.KindProductFetchFailed, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", catalog.NewError(catalog.KindProductFetchFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", catalog.Errorf(catalog.KindSearchFailed, "fetching %s: status %d", r.URL, resp.StatusCode)
	}

	return string(bodyBytes), nil
}

// FetchJSON performs the request and parses the body as JSON.
func (f *Fetcher) FetchJSON(ctx context.Context, r *Request) (gjson.Result, error) {
	body, err := f.FetchText(ctx, r)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.Valid(body) {
		return gjson.Result{}, catalog.Errorf(catalog.KindInvalidUpstreamResponse, "response from %s is not valid JSON", r.URL)
	}
	return gjson.Parse(body), nil
}
