// Package avatax16 calls the AvaTax v16 REST service: tax calculations,
// committed transactions and address resolution.
//
// A Service is bound to one account and, by default, one company. Every
// call validates its envelope before dispatch, sends it through the
// [client] transport wrapper and decodes the reply into the matching
// [document] type. A failed call returns the error together with a
// non-nil envelope whose Failed method reports true.
//
//	svc, err := avatax16.New("https://sandbox-rest.avatax.com", accountID, licenseKey,
//		avatax16.WithCompanyCode("ACME"),
//		avatax16.WithClientOptions(client.WithThrottle(10, 10)),
//	)
//	if err != nil {
//		return err
//	}
//
//	resp, err := svc.CreateCalculation(ctx, req)
package avatax16

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/adamwoolhether/avatax16/client"
	"github.com/adamwoolhether/avatax16/config"
)

// AuthScheme is the Authorization scheme carrying the license key.
const AuthScheme = "AvalaraAuth"

// ErrMissingCredentials is returned by New when the account id or the
// license key is empty.
var ErrMissingCredentials = errors.New("account id and license key are required")

// Service is a client of the AvaTax v16 service. It is safe for
// concurrent use.
type Service struct {
	client      *client.Client
	logger      *slog.Logger
	accountID   string
	companyCode string
}

// New returns a Service for the account at baseURL authenticated with
// licenseKey.
func New(baseURL, accountID, licenseKey string, optFns ...Option) (*Service, error) {
	if accountID == "" || licenseKey == "" {
		return nil, ErrMissingCredentials
	}

	opts := options{
		companyCode: config.DefaultCompanyCode,
		logger:      slog.Default(),
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying service option: %w", err)
		}
	}

	clientOpts := []client.Option{
		client.WithBaseURL(baseURL),
		client.WithLogger(opts.logger),
		client.WithHeader("Authorization", AuthScheme+" "+licenseKey),
		client.WithHeader("Content-Type", "application/json"),
		client.WithHeader("Accept", "application/json"),
	}

	c, err := client.Build(append(clientOpts, opts.clientOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("building client: %w", err)
	}

	return &Service{
		client:      c,
		logger:      opts.logger,
		accountID:   accountID,
		companyCode: opts.companyCode,
	}, nil
}

// NewFromConfig returns a Service configured by cfg. Options passed in
// optFns are applied after the ones derived from cfg.
func NewFromConfig(cfg *config.Config, optFns ...Option) (*Service, error) {
	var clientOpts []client.Option
	if cfg.Timeout > 0 {
		clientOpts = append(clientOpts, client.WithTimeout(cfg.Timeout))
	}
	if cfg.ConnectTimeout > 0 {
		clientOpts = append(clientOpts, client.WithConnectTimeout(cfg.ConnectTimeout))
	}
	if cfg.UserAgent != "" {
		clientOpts = append(clientOpts, client.WithUserAgent(cfg.UserAgent))
	}
	if cfg.ThrottleRPS > 0 {
		burst := cfg.ThrottleBurst
		if burst == 0 {
			burst = cfg.ThrottleRPS
		}
		clientOpts = append(clientOpts, client.WithThrottle(cfg.ThrottleRPS, burst))
	}

	base := []Option{
		WithCompanyCode(cfg.CompanyCode),
		WithLogger(cfg.Logger(os.Stderr)),
		WithClientOptions(clientOpts...),
	}

	return New(cfg.BaseURL, cfg.AccountID, cfg.LicenseKey, append(base, optFns...)...)
}

// Company returns a Service sharing s's client that addresses the
// company code instead.
func (s *Service) Company(code string) *Service {
	scoped := *s
	scoped.companyCode = code

	return &scoped
}

// AccountID returns the account the Service is bound to.
func (s *Service) AccountID() string {
	return s.accountID
}

// CompanyCode returns the company the Service addresses.
func (s *Service) CompanyCode() string {
	return s.companyCode
}

// Client exposes the underlying transport wrapper, for persistent
// headers, cookies or raw calls.
func (s *Service) Client() *client.Client {
	return s.client
}

// companyRef builds the reference of a company resource. Every element is
// path escaped.
func (s *Service) companyRef(elem ...string) string {
	parts := []string{"v2", "account", url.PathEscape(s.accountID), "company", url.PathEscape(s.companyCode)}
	for _, e := range elem {
		parts = append(parts, url.PathEscape(e))
	}

	return strings.Join(parts, "/")
}
