package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adamwoolhether/avatax16/avataxtest/internal/web"
	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/errs"
	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/middleware"
	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/mux"
)

func newApp(log *slog.Logger) *mux.App {
	return mux.New(
		mux.WithLogger(log),
		mux.WithMiddleware(
			middleware.Logger(log),
			middleware.Errors(log),
			middleware.Panics(log),
		),
	)
}

func TestErrors(t *testing.T) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := map[string]struct {
		handler    mux.Handler
		expStatus  int
		expCode    string
		expMessage string
	}{
		"ok": {
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return web.RespondJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
			},
			expStatus: http.StatusOK,
		},
		"appError": {
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return errs.New(http.StatusNotFound, errs.CodeNotFound, errors.New("thing not found"))
			},
			expStatus:  http.StatusNotFound,
			expCode:    errs.CodeNotFound,
			expMessage: "thing not found",
		},
		"untypedErrorHidden": {
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return errors.New("database password is hunter2")
			},
			expStatus:  http.StatusInternalServerError,
			expCode:    errs.CodeInternal,
			expMessage: http.StatusText(http.StatusInternalServerError),
		},
		"panicRecovered": {
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				panic("boom")
			},
			expStatus:  http.StatusInternalServerError,
			expCode:    errs.CodeInternal,
			expMessage: http.StatusText(http.StatusInternalServerError),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			app := newApp(discard)
			app.Get("/test", tc.handler)

			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/test", nil))

			if w.Code != tc.expStatus {
				t.Fatalf("expected status %d, got %d", tc.expStatus, w.Code)
			}

			if tc.expCode == "" {
				return
			}

			var doc errs.Document
			if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
				t.Fatalf("decoding error document: %v", err)
			}
			if doc.Code != tc.expCode || doc.Message != tc.expMessage {
				t.Errorf("expected %s %q, got %s %q", tc.expCode, tc.expMessage, doc.Code, doc.Message)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	app := newApp(log)
	app.Get("/calc", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.RespondJSON(ctx, w, http.StatusCreated, struct{}{})
	})

	r := httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/calc?limit=5", nil)
	r.Header.Set(mux.CorrelationHeader, "corr-42")

	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)

	out := buf.String()
	for _, want := range []string{"request started", "request completed", "path=\"/calc?limit=5\"", "correlation_id=corr-42", "statusCode=201"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}

	if got := w.Header().Get(mux.CorrelationHeader); got != "corr-42" {
		t.Errorf("expected correlation id echoed, got %q", got)
	}
}

func TestAuthenticate(t *testing.T) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := newApp(discard)
	app.Get("/secure", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.RespondJSON(ctx, w, http.StatusOK, struct{}{})
	}, middleware.Authenticate("k1", "k2"))

	tests := map[string]struct {
		header    string
		expStatus int
	}{
		"missing":     {expStatus: http.StatusUnauthorized},
		"wrongScheme": {header: "Basic k1", expStatus: http.StatusUnauthorized},
		"wrongKey":    {header: "AvalaraAuth k3", expStatus: http.StatusUnauthorized},
		"firstKey":    {header: "AvalaraAuth k1", expStatus: http.StatusOK},
		"secondKey":   {header: "AvalaraAuth k2", expStatus: http.StatusOK},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/secure", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}

			w := httptest.NewRecorder()
			app.ServeHTTP(w, r)

			if w.Code != tc.expStatus {
				t.Errorf("expected status %d, got %d", tc.expStatus, w.Code)
			}
		})
	}
}

func TestLogger_CompanyRoute(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	app := newApp(log)
	company := app.Mount("/v2/account/{accountId}/company/{companyCode}")
	company.Get("/calculations/{transactionType}/{documentCode}", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errs.New(http.StatusNotFound, errs.CodeNotFound, errors.New("calculation Sale/INV-1 not found"))
	})

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/v2/account/42/company/ACME/calculations/Sale/INV-1", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	out := buf.String()
	for _, want := range []string{"level=WARN", "account=42", "company=ACME", "code=EntityNotFound", "statusCode=404"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestPanics(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	app := newApp(log)
	app.Get("/boom", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("rate table missing")
	})

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var doc errs.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decoding error document: %v", err)
	}
	if doc.Code != errs.CodeInternal || strings.Contains(doc.Message, "rate table") {
		t.Errorf("expected a hidden internal error, got %s %q", doc.Code, doc.Message)
	}

	out := buf.String()
	for _, want := range []string{"panic recovered", `panic="rate table missing"`, `route="GET /boom"`, "stack=", "level=ERROR"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
