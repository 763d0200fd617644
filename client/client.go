package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"runtime"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/adamwoolhether/avatax16/client/download"
	"github.com/adamwoolhether/avatax16/client/throttle"
	"github.com/adamwoolhether/avatax16/query"
)

// Version is the SDK version advertised in the default User-Agent.
const Version = "1.0.0"

// DefaultTimeout is the overall request timeout used unless overridden.
const DefaultTimeout = 30 * time.Second

const tracerName = "github.com/adamwoolhether/avatax16/client"

// DefaultUserAgent returns the User-Agent sent when none is configured.
func DefaultUserAgent() string {
	return "avatax16-go/" + Version + " " + runtime.Version()
}

// JSONDecoder turns a JSON response body into the value stored in
// [Response.Body].
type JSONDecoder func(data []byte) (any, error)

type hooks struct {
	beforeSend func(*http.Request)
	onSuccess  func(*Response)
	onError    func(*Response, error)
	onComplete func(*Response, error)
}

// Client wraps the std-lib *http.Client.
// It sets a default *http.Client and *http.Transport, which
// can be customized via optional funcs. Headers, cookies and the base
// URL persist across calls and are safe to change concurrently.
type Client struct {
	c           *http.Client
	logger      *slog.Logger
	jsonDecoder JSONDecoder
	verbose     bool
	hooks       hooks
	basicAuth   *credentials

	mu       sync.RWMutex
	baseURL  *url.URL
	header   http.Header
	cookies  []*http.Cookie
	referrer string
}

func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	hc := &http.Client{Timeout: DefaultTimeout}
	if opts.client != nil {
		hc = opts.client
	}

	if opts.timeout != nil {
		hc.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if opts.jar != nil {
		hc.Jar = opts.jar
	}

	client := &Client{
		c:           hc,
		logger:      slog.Default(),
		jsonDecoder: decodeJSON,
		verbose:     opts.verbose,
		hooks:       opts.hooks,
		basicAuth:   opts.basicAuth,
		baseURL:     opts.baseURL,
		header:      opts.header,
		cookies:     opts.cookies,
		referrer:    opts.referrer,
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.jsonDecoder != nil {
		client.jsonDecoder = opts.jsonDecoder
	}
	if client.header == nil {
		client.header = make(http.Header)
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = defaultTransport(opts.connectTimeout)
	}

	transport = recorder{next: transport}
	if opts.digestAuth != nil {
		transport = &digestAuth{creds: *opts.digestAuth, next: transport}
	}

	tracer := opts.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	transport = tracing{tracer: tracer, next: transport}

	ua := opts.userAgent
	if ua == "" {
		ua = DefaultUserAgent()
	}
	transport = userAgent{value: ua, base: transport}

	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(*opts.throttle, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	hc.Transport = transport

	return client, nil
}

func defaultTransport(connectTimeout time.Duration) http.RoundTripper {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if connectTimeout > 0 {
		t.DialContext = (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
	}

	return t
}

// Do fires the request and returns the decoded response.
//
// A transport failure returns a nil Response and a [*TransportError].
// A 4xx or 5xx status returns both the Response and a [*StatusError].
// Hooks run in order: before send, then success or error, then complete.
func (c *Client) Do(req *http.Request, optFns ...DoOption) (*Response, error) {
	var settings doOpts
	for _, opt := range optFns {
		if err := opt(&settings); err != nil {
			return nil, err
		}
	}

	req, sent := c.prepare(req)

	var resp *Response
	doFunc := func(r *http.Response) error {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return fmt.Errorf("reading body: %w", err)
		}

		resp = c.newResponse(r, sent, raw)
		c.dumpResponse(resp)

		if statusErr := newStatusError(r, settings.expCode, raw); statusErr != nil {
			statusErr.Response = resp
			return statusErr
		}

		if settings.responseBody != nil && !bodiless(r, raw) {
			if err := resp.decode(settings.responseBody, settings.useJSONNum); err != nil {
				return fmt.Errorf("decoding body: %w", err)
			}
		}

		return nil
	}

	err := c.exec(req, doFunc)
	c.finish(resp, err)

	return resp, err
}

// bodiless reports whether r carries no body by definition, in which case
// a destination is left untouched.
func bodiless(r *http.Response, raw []byte) bool {
	if len(raw) != 0 {
		return false
	}

	return r.StatusCode == http.StatusNoContent || (r.Request != nil && r.Request.Method == http.MethodHead)
}

// Download executes a request that's intended to stream the response body to destPath.
// Data streams to a temp file in the same directory, then the temp file is renamed to
// destPath on success or cleared on failure.
func (c *Client) Download(req *http.Request, destPath string, opts ...DownloadOption) error {
	if destPath == "" {
		return errors.New("destPath must not be empty")
	}

	return c.fetch(req, func(resp *http.Response) error {
		return download.Handle(req.Context(), resp.Body, resp.ContentLength, destPath, c.logger, opts...)
	})
}

// DownloadFunc streams the response body to a temp file and hands it to
// fn, rewound to the start. The file is removed once fn returns.
func (c *Client) DownloadFunc(req *http.Request, fn func(*os.File) error, opts ...DownloadOption) error {
	if fn == nil {
		return errors.New("fn must not be nil")
	}

	return c.fetch(req, func(resp *http.Response) error {
		return download.HandleFunc(req.Context(), resp.Body, resp.ContentLength, fn, c.logger, opts...)
	})
}

func (c *Client) fetch(req *http.Request, handle execFn) error {
	req, sent := c.prepare(req)

	var resp *Response
	dlFunc := func(r *http.Response) error {
		resp = c.newResponse(r, sent, nil)

		if statusErr := newStatusError(r, 0, nil); statusErr != nil {
			b, err := io.ReadAll(io.LimitReader(r.Body, maxErrBodySize))
			if err != nil {
				b = []byte("unable to read body")
			}
			statusErr.Body = string(b)
			return statusErr
		}

		if err := handle(r); err != nil {
			return fmt.Errorf("download: %w", err)
		}

		return nil
	}

	err := c.exec(req, dlFunc)
	c.finish(resp, err)

	return err
}

// exec runs the request and hands the response to fn, always draining
// and closing the body afterwards.
func (c *Client) exec(req *http.Request, fn execFn) error {
	if c.hooks.beforeSend != nil {
		c.hooks.beforeSend(req)
	}
	c.dumpRequest(req)

	resp, err := c.c.Do(req)
	if err != nil {
		return newTransportError(err)
	}

	discardBody := true
	defer func() {
		if discardBody {
			if _, err = io.Copy(io.Discard, resp.Body); err != nil {
				c.logger.Error("failed to discard unused body", "error", err)
			}
		}
		if err = resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	if err := fn(resp); err != nil {
		if _, ok := errors.AsType[*StatusError](err); !ok {
			discardBody = false
		}
		return err
	}

	return nil
}

func (c *Client) finish(resp *Response, err error) {
	switch {
	case err != nil && c.hooks.onError != nil:
		c.hooks.onError(resp, err)
	case err == nil && c.hooks.onSuccess != nil:
		c.hooks.onSuccess(resp)
	}

	if c.hooks.onComplete != nil {
		c.hooks.onComplete(resp, err)
	}
}

// prepare clones req and applies the persistent client state to it.
// Anything already set on req takes precedence.
func (c *Client) prepare(req *http.Request) (*http.Request, *sentRequest) {
	sent := &sentRequest{}
	req = req.Clone(context.WithValue(req.Context(), sentKey{}, sent))

	c.mu.RLock()
	defer c.mu.RUnlock()

	for k, v := range c.header {
		if _, ok := req.Header[k]; !ok {
			req.Header[k] = slices.Clone(v)
		}
	}

	for _, cookie := range c.cookies {
		if _, err := req.Cookie(cookie.Name); errors.Is(err, http.ErrNoCookie) {
			req.AddCookie(cookie)
		}
	}

	if c.referrer != "" && req.Referer() == "" {
		req.Header.Set("Referer", c.referrer)
	}

	if c.basicAuth != nil && req.Header.Get("Authorization") == "" {
		req.SetBasicAuth(c.basicAuth.username, c.basicAuth.password)
	}

	return req, sent
}

func (c *Client) dumpRequest(req *http.Request) {
	if !c.verbose {
		return
	}

	dump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		c.logger.Debug("dumping request", "error", err)
		return
	}

	c.logger.Debug("http request", "dump", string(dump))
}

func (c *Client) dumpResponse(resp *Response) {
	if !c.verbose {
		return
	}

	body := resp.Raw
	if len(body) > maxErrBodySize {
		body = body[:maxErrBodySize]
	}

	c.logger.Debug("http response", "header", resp.RawHeader(), "body", string(body))
}

// Request instantiates an *http.Request with the provided information.
// The client's persistent Content-Type header, if any, selects the body
// encoding when the request sets none.
func (c *Client) Request(ctx context.Context, reqURL *url.URL, method string, opts ...RequestOption) (*http.Request, error) {
	c.mu.RLock()
	contentType := c.header.Get("Content-Type")
	c.mu.RUnlock()

	return newRequest(ctx, reqURL, method, contentType, opts...)
}

// URL creates a url.URL for use in Request.
// It's just a convenience method that wraps the public URL func.
func (c *Client) URL(scheme, host, path string, opts ...URLOption) *url.URL {
	return URL(scheme, host, path, opts...)
}

// ResolveURL resolves ref against the client's base URL and appends the
// query data q. An empty ref yields the base URL itself. Without a base
// URL, ref must be absolute.
func (c *Client) ResolveURL(ref string, q any) (*url.URL, error) {
	base := c.BaseURL()

	var u *url.URL
	switch {
	case ref == "" && base == nil:
		return nil, ErrNoURL
	case ref == "":
		u = base
	default:
		parsed, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("parsing url: %w", err)
		}

		switch {
		case base != nil:
			u = base.ResolveReference(parsed)
		case parsed.IsAbs():
			u = parsed
		default:
			return nil, fmt.Errorf("%w: relative url %q", ErrNoURL, ref)
		}
	}

	appendQuery(u, q)

	return u, nil
}

// SetHeader sets a header sent with every subsequent request.
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.header.Set(key, value)
}

// UnsetHeader stops sending the persistent header key.
func (c *Client) UnsetHeader(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.header.Del(key)
}

// SetCookie sets a cookie sent with every subsequent request, replacing
// any cookie of the same name.
func (c *Client) SetCookie(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cookies = setCookie(c.cookies, name, value)
}

// UnsetCookie stops sending the persistent cookie name.
func (c *Client) UnsetCookie(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cookies = slices.DeleteFunc(c.cookies, func(ck *http.Cookie) bool { return ck.Name == name })
}

// SetBaseURL replaces the base URL used by [Client.ResolveURL].
func (c *Client) SetBaseURL(rawURL string) error {
	u, err := parseBaseURL(rawURL)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.baseURL = u

	return nil
}

// BaseURL returns a copy of the base URL, or nil when none is set.
func (c *Client) BaseURL() *url.URL {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.baseURL == nil {
		return nil
	}

	u := *c.baseURL
	return &u
}

// Request instantiates an *http.Request with the provided information.
// The body set by WithPayload is encoded by [EncodeBody].
func Request(ctx context.Context, reqURL *url.URL, method string, opts ...RequestOption) (*http.Request, error) {
	return newRequest(ctx, reqURL, method, "", opts...)
}

func newRequest(ctx context.Context, reqURL *url.URL, method, defaultContentType string, opts ...RequestOption) (*http.Request, error) {
	var settings requestOpts
	for _, opt := range opts {
		err := opt(&settings)
		if err != nil {
			return nil, err
		}
	}

	if reqURL == nil {
		return nil, ErrNoURL
	}

	contentType := defaultContentType
	if settings.contentType != nil {
		contentType = *settings.contentType
	}

	payload, encodedType, err := EncodeBody(settings.body, contentType)
	if err != nil {
		return nil, fmt.Errorf("encoding request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), payload)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	for _, cookie := range settings.cookies {
		req.AddCookie(cookie)
	}

	switch {
	case isMultipart(encodedType):
		req.Header.Set("Content-Type", encodedType)
	case settings.contentType != nil:
		req.Header.Set("Content-Type", *settings.contentType)
	case encodedType != "":
		req.Header.Set("Content-Type", encodedType)
	}

	for k, v := range settings.headers {
		for _, element := range v {
			req.Header.Add(k, element)
		}
	}

	return req, nil
}

// URL creates a url.URL for use in Request.
func URL(scheme, host, path string, opts ...URLOption) *url.URL {
	var settings urlOpts
	for _, opt := range opts {
		opt(&settings)
	}

	if settings.port != nil {
		host = fmt.Sprintf("%s:%d", host, *settings.port)
	}

	endpoint := url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   path,
	}

	if settings.queryStrings != nil {
		queryParams := url.Values{}
		for k, v := range settings.queryStrings {
			queryParams.Add(k, v)
		}

		endpoint.RawQuery = queryParams.Encode()
	}

	appendQuery(&endpoint, settings.query)

	return &endpoint
}

func appendQuery(u *url.URL, data any) {
	if data == nil {
		return
	}

	var encoded string
	if values, ok := data.(url.Values); ok {
		encoded = values.Encode()
	} else {
		encoded = query.Build(data)
	}

	switch {
	case encoded == "":
	case u.RawQuery == "":
		u.RawQuery = encoded
	default:
		u.RawQuery += "&" + encoded
	}
}

func parseBaseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", rawURL)
	}

	return u, nil
}

func setCookie(cookies []*http.Cookie, name, value string) []*http.Cookie {
	for i, ck := range cookies {
		if ck.Name == name {
			cookies[i] = &http.Cookie{Name: name, Value: value}
			return cookies
		}
	}

	return append(cookies, &http.Cookie{Name: name, Value: value})
}
