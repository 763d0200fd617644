package mux_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/mux"
)

func TestApp_Mount(t *testing.T) {
	var order []string
	tag := func(name string) mux.Middleware {
		return func(next mux.Handler) mux.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return next(ctx, w, r)
			}
		}
	}

	app := mux.New(
		mux.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		mux.WithMiddleware(tag("app")),
	)

	group := app.Mount("/v2/account/{accountId}")
	group.Use(tag("group"))

	var gotAccount string
	group.Get("/items", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		gotAccount = r.PathValue("accountId")
		w.WriteHeader(http.StatusNoContent)
		return nil
	}, tag("route"))

	app.Get("/root", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusOK)
		return nil
	})

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/v2/account/42/items", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if gotAccount != "42" {
		t.Errorf("expected account 42, got %q", gotAccount)
	}

	exp := []string{"app", "group", "route"}
	if len(order) != len(exp) {
		t.Fatalf("middleware order = %v, want %v", order, exp)
	}
	for i := range exp {
		if order[i] != exp[i] {
			t.Errorf("middleware order = %v, want %v", order, exp)
			break
		}
	}

	order = nil
	w = httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/root", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(order) != 1 || order[0] != "app" {
		t.Errorf("group middleware leaked to the root app: %v", order)
	}
}

func TestApp_BaseValues(t *testing.T) {
	app := mux.New(mux.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	var v mux.BaseValues
	app.Get("/values", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		v = *mux.GetValues(ctx)
		w.WriteHeader(http.StatusOK)
		return nil
	})

	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/values", nil))

	if _, err := uuid.Parse(v.TraceID); err != nil {
		t.Errorf("expected a generated trace id, got %q", v.TraceID)
	}
	if v.Now.IsZero() || v.Tracer == nil {
		t.Errorf("base values not populated: %+v", v)
	}
}

func TestApp_CompanyValues(t *testing.T) {
	app := mux.New(mux.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	company := app.Mount("/v2/account/{accountId}/company/{companyCode}")

	var v mux.BaseValues
	company.Post("/transactions", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		mux.SetErrorCode(ctx, "DuplicateEntity")
		v = *mux.GetValues(ctx)
		w.WriteHeader(http.StatusConflict)
		return nil
	})

	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequestWithContext(t.Context(), http.MethodPost, "/v2/account/7/company/ACME/transactions", nil))

	if v.AccountID != "7" || v.CompanyCode != "ACME" {
		t.Errorf("expected account 7 company ACME, got %q %q", v.AccountID, v.CompanyCode)
	}
	if v.ErrorCode != "DuplicateEntity" {
		t.Errorf("expected error code recorded, got %q", v.ErrorCode)
	}
}

func TestGetValues_Default(t *testing.T) {
	v := mux.GetValues(t.Context())

	if v.TraceID != uuid.Nil.String() {
		t.Errorf("expected nil trace id, got %q", v.TraceID)
	}

	ctx, span := mux.AddSpan(t.Context(), "orphan")
	defer span.End()

	if ctx != t.Context() {
		t.Error("expected AddSpan to return the context unchanged without base values")
	}
}
