package client

import (
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// CorrelationHeader carries a unique id for every request that does not
// already have one.
const CorrelationHeader = "X-Correlation-Id"

// tracing is an http.RoundTripper that records a client span per round
// trip, propagates its context and stamps the correlation id.
type tracing struct {
	tracer trace.Tracer
	next   http.RoundTripper
}

func (t tracing) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx, span := t.tracer.Start(r.Context(), "client.roundtrip", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	cpy := r.Clone(ctx)
	if cpy.Header.Get(CorrelationHeader) == "" {
		cpy.Header.Set(CorrelationHeader, uuid.NewString())
	}

	span.SetAttributes(
		attribute.String("http.method", r.Method),
		attribute.String("url", r.URL.Redacted()),
		attribute.String("correlation_id", cpy.Header.Get(CorrelationHeader)),
	)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(cpy.Header))

	resp, err := t.next.RoundTrip(cpy)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, resp.Status)
	}

	return resp, nil
}

type sentKey struct{}

// sentRequest holds the request line and headers of the last attempt
// that reached the base transport.
type sentRequest struct {
	line   string
	header http.Header
}

// recorder is an http.RoundTripper that captures the outgoing request
// into the sentRequest found in its context.
type recorder struct {
	next http.RoundTripper
}

func (rt recorder) RoundTrip(r *http.Request) (*http.Response, error) {
	if sent, ok := r.Context().Value(sentKey{}).(*sentRequest); ok {
		proto := r.Proto
		if proto == "" {
			proto = "HTTP/1.1"
		}

		sent.line = r.Method + " " + r.URL.RequestURI() + " " + proto
		sent.header = r.Header.Clone()
	}

	return rt.next.RoundTrip(r)
}
