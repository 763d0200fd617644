package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/errs"
	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/mux"
)

// AuthScheme prefixes the license key in the Authorization header.
const AuthScheme = "AvalaraAuth"

// Authenticate rejects requests whose Authorization header does not carry
// one of the given license keys.
func Authenticate(keys ...string) mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			scheme, key, _ := strings.Cut(r.Header.Get("Authorization"), " ")
			if scheme != AuthScheme {
				return errs.New(http.StatusUnauthorized, errs.CodeAuth, errors.New("missing "+AuthScheme+" authorization"))
			}

			if !slices.Contains(keys, key) {
				return errs.New(http.StatusUnauthorized, errs.CodeAuth, errors.New("invalid license key"))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
