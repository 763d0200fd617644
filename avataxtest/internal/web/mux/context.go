package mux

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type ctxKey int

const (
	base ctxKey = iota + 1
)

// BaseValues carries the per-request state shared by the middleware: the
// trace, the account and company the route addresses, and the outcome
// once a handler has answered.
type BaseValues struct {
	TraceID       string
	CorrelationID string
	AccountID     string
	CompanyCode   string
	Now           time.Time
	Tracer        trace.Tracer
	StatusCode    int
	ErrorCode     string
}

// SetStatusCode records the status the request was answered with.
func SetStatusCode(ctx context.Context, statusCode int) {
	if v, ok := ctx.Value(base).(*BaseValues); ok {
		v.StatusCode = statusCode
	}
}

// SetErrorCode records the error code of a failed request and tags the
// request span with it.
func SetErrorCode(ctx context.Context, code string) {
	v, ok := ctx.Value(base).(*BaseValues)
	if !ok {
		return
	}

	v.ErrorCode = code
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("avatax.error_code", code))
}

// attrs returns the span attributes identifying the request's account.
func (v *BaseValues) attrs() []attribute.KeyValue {
	var kv []attribute.KeyValue
	if v.AccountID != "" {
		kv = append(kv, attribute.String("avatax.account_id", v.AccountID))
	}
	if v.CompanyCode != "" {
		kv = append(kv, attribute.String("avatax.company_code", v.CompanyCode))
	}

	return kv
}

// GetValues retrieves the BaseValues from the given context.
func GetValues(ctx context.Context) *BaseValues {
	v, ok := ctx.Value(base).(*BaseValues)
	if !ok {
		return &BaseValues{
			TraceID: uuid.Nil.String(),
			Tracer:  noop.NewTracerProvider().Tracer(""),
			Now:     time.Now(),
		}
	}

	return v
}

// AddSpan starts a child span of the request span, tagged with the
// request's account and company.
func AddSpan(ctx context.Context, spanName string, keyValues ...attribute.KeyValue) (context.Context, trace.Span) {
	v, ok := ctx.Value(base).(*BaseValues)
	if !ok || v.Tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	ctx, span := v.Tracer.Start(ctx, spanName)
	span.SetAttributes(v.attrs()...)
	span.SetAttributes(keyValues...)

	return ctx, span
}

func setValues(ctx context.Context, v *BaseValues) context.Context {
	return context.WithValue(ctx, base, v)
}
