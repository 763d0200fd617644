// Package middleware provides the handler middleware of the fake service.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/mux"
)

// Logger logs the start and completion of every request. Completions are
// logged at warn level for client errors and error level for server
// errors, with the account, company and error code when known.
func Logger(log *slog.Logger) mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v := mux.GetValues(ctx)

			path := r.URL.Path
			if r.URL.RawQuery != "" {
				path = fmt.Sprintf("%s?%s", path, r.URL.RawQuery)
			}

			reqLog := log.With("method", r.Method, "path", path, "correlation_id", v.CorrelationID)
			if v.AccountID != "" {
				reqLog = reqLog.With("account", v.AccountID, "company", v.CompanyCode)
			}

			reqLog.InfoContext(ctx, "request started")

			err := handler(ctx, w, r)

			attrs := []any{"statusCode", v.StatusCode, "since", time.Since(v.Now).String()}
			if v.ErrorCode != "" {
				attrs = append(attrs, "code", v.ErrorCode)
			}
			reqLog.Log(ctx, completionLevel(v.StatusCode), "request completed", attrs...)

			return err
		}

		return h
	}

	return m
}

func completionLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
