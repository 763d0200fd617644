// Package avataxtest runs an in-process fake of the AvaTax v16 service for
// tests and examples.
//
// The fake checks the AvalaraAuth license key, validates envelopes, keeps
// calculations and transactions in memory and applies a flat tax rate. It
// is not a tax engine.
//
//	srv := avataxtest.NewServer(avataxtest.WithRate(0.065))
//	defer srv.Close()
//
//	svc, err := avatax16.New(srv.URL, srv.AccountID, srv.LicenseKey)
package avataxtest

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/middleware"
	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/mux"
)

// Default credentials accepted by the fake service.
const (
	DefaultAccountID   = "1100000000"
	DefaultLicenseKey  = "avataxtest-license-key"
	DefaultCompanyCode = "DEFAULT"
)

// Option configures the fake service.
type Option func(*options)

type options struct {
	rate       float64
	accountID  string
	licenseKey string
	logger     *slog.Logger
	tracer     trace.Tracer
}

// WithRate sets the flat rate applied to every line.
func WithRate(rate float64) Option {
	return func(o *options) {
		o.rate = rate
	}
}

// WithAccount sets the account id and license key the service accepts.
func WithAccount(accountID, licenseKey string) Option {
	return func(o *options) {
		o.accountID = accountID
		o.licenseKey = licenseKey
	}
}

// WithLogger sets the request logger. Requests are not logged by default.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithTracer records a server span for every request.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

func apply(optFns []Option) options {
	opts := options{
		rate:       DefaultRate,
		accountID:  DefaultAccountID,
		licenseKey: DefaultLicenseKey,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range optFns {
		opt(&opts)
	}

	return opts
}

// NewHandler returns the fake service as an http.Handler.
func NewHandler(optFns ...Option) http.Handler {
	opts := apply(optFns)

	muxOpts := []mux.Option{
		mux.WithLogger(opts.logger),
		mux.WithMiddleware(
			middleware.Logger(opts.logger),
			middleware.Errors(opts.logger),
			middleware.Panics(opts.logger),
		),
	}
	if opts.tracer != nil {
		muxOpts = append(muxOpts, mux.WithTracer(opts.tracer))
	}

	app := mux.New(muxOpts...)

	h := handlers{
		store:      newStore(),
		rate:       opts.rate,
		accountID:  opts.accountID,
		licenseKey: opts.licenseKey,
	}
	h.routes(app)

	return app
}

// Server is a running fake service.
type Server struct {
	*httptest.Server

	AccountID   string
	CompanyCode string
	LicenseKey  string
}

// NewServer starts the fake service on a loopback address. Callers must
// Close it.
func NewServer(optFns ...Option) *Server {
	opts := apply(optFns)

	return &Server{
		Server:      httptest.NewServer(NewHandler(optFns...)),
		AccountID:   opts.accountID,
		CompanyCode: DefaultCompanyCode,
		LicenseKey:  opts.licenseKey,
	}
}
