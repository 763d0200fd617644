package avatax16

import (
	"errors"
	"log/slog"

	"github.com/adamwoolhether/avatax16/client"
)

// Option configures a Service.
type Option func(*options) error

type options struct {
	companyCode string
	logger      *slog.Logger
	clientOpts  []client.Option
}

// WithCompanyCode sets the company addressed by company scoped calls.
func WithCompanyCode(code string) Option {
	return func(o *options) error {
		if code == "" {
			return errors.New("company code must not be empty")
		}
		o.companyCode = code
		return nil
	}
}

// WithLogger sets the logger of the Service and its client.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithClientOptions passes options to the underlying [client.Client].
// They are applied after the Service's own, so they may override the
// logger or the default headers.
func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) error {
		o.clientOpts = append(o.clientOpts, opts...)
		return nil
	}
}
