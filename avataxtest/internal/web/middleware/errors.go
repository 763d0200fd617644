package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"

	"github.com/adamwoolhether/avatax16/avataxtest/internal/web"
	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/errs"
	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/mux"
)

// Errors answers a failed request with the error document. Errors that
// are not an *errs.Error become an InternalError whose message is hidden
// from the caller.
func Errors(log *slog.Logger) mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			appErr, ok := errors.AsType[*errs.Error](err)
			if !ok {
				appErr = errs.NewInternal(err)
			}

			reqLog := log.With("trace_id", mux.GetValues(ctx).TraceID, "code", appErr.Code)
			if len(appErr.Fields) > 0 {
				reqLog = reqLog.With("fields", appErr.Fields.Fields())
			}

			if appErr.Status >= http.StatusInternalServerError {
				reqLog.ErrorContext(ctx, err.Error(), "source_err_file", path.Base(appErr.FileName), "source_err_func", path.Base(appErr.FuncName))
			} else {
				reqLog.WarnContext(ctx, err.Error())
			}

			if appErr.InnerErr {
				appErr.Message = http.StatusText(appErr.Status)
			}

			mux.SetErrorCode(ctx, appErr.Code)

			return web.RespondError(ctx, w, appErr)
		}

		return h
	}

	return m
}
