package avatax16

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/avatax16/document"
)

// ResolveAddress normalizes addr and lists the tax authorities of its
// jurisdiction.
func (s *Service) ResolveAddress(ctx context.Context, addr document.Address) (*document.ResolvedAddress, error) {
	const op = "resolve address"

	if err := document.Validate(addr); err != nil {
		return rejected[document.ResolvedAddress](op, fmt.Errorf("%w: %w", ErrValidation, err))
	}

	return invoke[document.ResolvedAddress](ctx, s, op, http.MethodPost, "v2/address/resolve", nil, addr)
}

// Ping reports the service version and whether the license key was
// accepted. It fails only when the service cannot be reached or answers
// with an error status.
func (s *Service) Ping(ctx context.Context) (*document.PingResult, error) {
	return invoke[document.PingResult](ctx, s, "ping", http.MethodGet, "v2/ping", nil, nil)
}
