package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/errs"
	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/mux"
)

// Panics turns a panicking handler into an InternalError, logging the
// stack with the request's trace id.
func Panics(log *slog.Logger) mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				log.ErrorContext(ctx, "panic recovered",
					"trace_id", mux.GetValues(ctx).TraceID,
					"route", r.Pattern,
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()),
				)

				err = errs.NewInternal(fmt.Errorf("panic in %s: %v", r.Pattern, rec))
			}()

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
