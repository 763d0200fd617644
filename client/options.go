package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/avatax16/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	connectTimeout    time.Duration
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	logger            *slog.Logger
	baseURL           *url.URL
	header            http.Header
	cookies           []*http.Cookie
	jar               http.CookieJar
	referrer          string
	basicAuth         *credentials
	digestAuth        *credentials
	tracer            trace.Tracer
	jsonDecoder       JSONDecoder
	verbose           bool
	hooks             hooks
}

type credentials struct {
	username string
	password string
}

// WithClient replaces the default [http.Client] used by the [Client].
// Its timeout is kept unless [WithTimeout] is also given.
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout. It defaults to
// [DefaultTimeout]; zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithConnectTimeout bounds the time spent dialing the server. It only
// applies to the default transport.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d <= 0 {
			return errors.New("connect timeout must be positive")
		}
		c.connectTimeout = d
		return nil
	}
}

// WithUserAgent replaces the default User-Agent header sent with all
// outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		if header == "" {
			return errors.New("user agent must not be empty")
		}
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		cfg := throttle.Config{RPS: rps, Burst: burst}
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.throttle = &cfg
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithBaseURL sets the URL that relative references passed to the verb
// helpers resolve against.
func WithBaseURL(rawURL string) Option {
	return func(c *options) error {
		u, err := parseBaseURL(rawURL)
		if err != nil {
			return err
		}
		c.baseURL = u
		return nil
	}
}

// WithHeader sets a header sent with every request. Headers set on a
// request take precedence.
func WithHeader(key, value string) Option {
	return func(c *options) error {
		if key == "" {
			return errors.New("header key must not be empty")
		}
		if c.header == nil {
			c.header = make(http.Header)
		}
		c.header.Set(key, value)
		return nil
	}
}

// WithCookie sets a cookie sent with every request.
func WithCookie(name, value string) Option {
	return func(c *options) error {
		if name == "" {
			return errors.New("cookie name must not be empty")
		}
		c.cookies = setCookie(c.cookies, name, value)
		return nil
	}
}

// WithCookieJar stores response cookies in jar and replays them on later
// requests.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *options) error {
		if jar == nil {
			return errors.New("cookie jar must not be nil")
		}
		c.jar = jar
		return nil
	}
}

// WithReferrer sets the Referer header sent with every request.
func WithReferrer(referrer string) Option {
	return func(c *options) error {
		c.referrer = referrer
		return nil
	}
}

// WithBasicAuth authenticates every request with HTTP basic auth.
func WithBasicAuth(username, password string) Option {
	return func(c *options) error {
		if c.digestAuth != nil {
			return errors.New("basic auth conflicts with digest auth")
		}
		c.basicAuth = &credentials{username: username, password: password}
		return nil
	}
}

// WithDigestAuth answers digest challenges with the given credentials.
func WithDigestAuth(username, password string) Option {
	return func(c *options) error {
		if c.basicAuth != nil {
			return errors.New("digest auth conflicts with basic auth")
		}
		c.digestAuth = &credentials{username: username, password: password}
		return nil
	}
}

// WithTracer records a client span for every round trip. Without it the
// globally registered tracer provider is used.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithJSONDecoder replaces the decoder used to populate [Response.Body]
// for JSON responses.
func WithJSONDecoder(fn JSONDecoder) Option {
	return func(c *options) error {
		if fn == nil {
			return errors.New("json decoder must not be nil")
		}
		c.jsonDecoder = fn
		return nil
	}
}

// WithVerbose logs every request and response at debug level.
func WithVerbose() Option {
	return func(c *options) error {
		c.verbose = true
		return nil
	}
}

// WithBeforeSend registers fn to run before every request is sent.
func WithBeforeSend(fn func(*http.Request)) Option {
	return func(c *options) error {
		if fn == nil {
			return errors.New("before send hook must not be nil")
		}
		c.hooks.beforeSend = fn
		return nil
	}
}

// WithOnSuccess registers fn to run after every successful call.
func WithOnSuccess(fn func(*Response)) Option {
	return func(c *options) error {
		if fn == nil {
			return errors.New("success hook must not be nil")
		}
		c.hooks.onSuccess = fn
		return nil
	}
}

// WithOnError registers fn to run after every failed call. resp is nil
// when no response was received.
func WithOnError(fn func(resp *Response, err error)) Option {
	return func(c *options) error {
		if fn == nil {
			return errors.New("error hook must not be nil")
		}
		c.hooks.onError = fn
		return nil
	}
}

// WithOnComplete registers fn to run after every call, after the success
// or error hook.
func WithOnComplete(fn func(resp *Response, err error)) Option {
	return func(c *options) error {
		if fn == nil {
			return errors.New("complete hook must not be nil")
		}
		c.hooks.onComplete = fn
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get("User-Agent") != "" {
		return ua.base.RoundTrip(r)
	}

	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// DoOption is a functional option for [Client.Do].
type DoOption func(options *doOpts) error

type doOpts struct {
	responseBody any
	useJSONNum   bool
	expCode      int
}

// WithDestination decodes the HTTP response body into bodyTemplate,
// as XML when the response declares an XML content type and as JSON
// otherwise. bodyTemplate must be a pointer. An empty 204 or HEAD
// response leaves it untouched, any other empty body is an error.
func WithDestination[T any](bodyTemplate *T) DoOption {
	return func(opts *doOpts) error {
		if bodyTemplate == nil {
			return errors.New("destination must not be nil")
		}
		opts.responseBody = bodyTemplate

		return nil
	}
}

// WithJSONNumb tells the JSON decoder to use [json.Decoder.UseNumber],
// preserving number precision as [json.Number] instead of float64.
func WithJSONNumb() DoOption {
	return func(opts *doOpts) error {
		opts.useJSONNum = true

		return nil
	}
}

// WithExpectedStatus fails the call with [ErrUnexpectedStatusCode] when
// the response status differs from code.
func WithExpectedStatus(code int) DoOption {
	return func(opts *doOpts) error {
		if code < 100 || code > 599 {
			return fmt.Errorf("invalid status code %d", code)
		}
		opts.expCode = code

		return nil
	}
}

// RequestOption is a functional option for [Request].
type RequestOption func(options *requestOpts) error

type requestOpts struct {
	body        any
	contentType *string
	cookies     []*http.Cookie
	headers     map[string][]string
}

// WithPayload sets the request body. See [EncodeBody] for how it is
// encoded.
func WithPayload(body any) RequestOption {
	return func(opts *requestOpts) error {
		opts.body = body

		return nil
	}
}

// WithContentType sets the Content-Type header, which also selects
// the encoding of map payloads.
func WithContentType(contentType string) RequestOption {
	return func(opts *requestOpts) error {
		if contentType == "" {
			return errors.New("cannot use empty content type")
		}

		opts.contentType = &contentType

		return nil
	}
}

// WithHeaders adds custom headers to the outgoing request.
func WithHeaders(headers map[string][]string) RequestOption {
	return func(opts *requestOpts) error {
		opts.headers = headers

		return nil
	}
}

// WithCookies attaches the given cookies to the outgoing request.
func WithCookies(cookies ...*http.Cookie) RequestOption {
	return func(opts *requestOpts) error {
		opts.cookies = append(opts.cookies, cookies...)

		return nil
	}
}

// URLOption is a functional option for [URL].
type URLOption func(options *urlOpts)

type urlOpts struct {
	queryStrings map[string]string
	query        any
	port         *int
}

// WithQueryStrings appends query parameters to the URL.
func WithQueryStrings(queryKV map[string]string) URLOption {
	return func(opts *urlOpts) {
		opts.queryStrings = queryKV
	}
}

// WithQuery appends nested query data to the URL, encoded by
// [query.Build].
func WithQuery(data any) URLOption {
	return func(opts *urlOpts) {
		opts.query = data
	}
}

// WithPort sets the port number on the URL's host.
func WithPort(port int) URLOption {
	return func(opts *urlOpts) {
		opts.port = &port
	}
}
