package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// maxErrBodySize caps the amount of response body kept on a
// StatusError. This prevents unbounded memory usage when a large
// response arrives with a failing status.
const maxErrBodySize = 4 << 10 // 4KB

// execFn represents a func to operate on a response.
type execFn func(response *http.Response) error

var (
	// ErrTransport is wrapped by every [TransportError].
	ErrTransport = errors.New("transport failure")
	// ErrHTTPStatus is wrapped by a [StatusError] for 4xx and 5xx responses.
	ErrHTTPStatus = errors.New("http error status")
	// ErrUnexpectedStatusCode is wrapped by a [StatusError] when the status
	// differs from the one requested with [WithExpectedStatus].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined to the status sentinel when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
	// ErrNoURL is returned when neither a URL nor a base URL is available.
	ErrNoURL = errors.New("no url and no base url configured")
)

// StatusError is returned when the server answered with a failing status.
type StatusError struct {
	StatusCode int
	StatusLine string
	Body       string
	// Response is the full decoded response. It is nil for downloads.
	Response *Response
	Err      error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// newStatusError classifies resp, returning nil when its status is a
// success. A non-zero expCode requires an exact match.
func newStatusError(resp *http.Response, expCode int, body []byte) *StatusError {
	httpFailure := resp.StatusCode >= 400 && resp.StatusCode <= 599

	var err error
	switch {
	case expCode != 0 && resp.StatusCode != expCode && httpFailure:
		err = fmt.Errorf("%w: %w", ErrUnexpectedStatusCode, ErrHTTPStatus)
	case expCode != 0 && resp.StatusCode != expCode:
		err = ErrUnexpectedStatusCode
	case expCode == 0 && httpFailure:
		err = ErrHTTPStatus
	default:
		return nil
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		err = fmt.Errorf("%w: %w", ErrAuthFailure, err)
	}

	if len(body) > maxErrBodySize {
		body = body[:maxErrBodySize]
	}

	return &StatusError{
		StatusCode: resp.StatusCode,
		StatusLine: statusLine(resp),
		Body:       string(body),
		Err:        err,
	}
}

// TransportCode classifies a transport failure.
type TransportCode int

const (
	TransportUnknown TransportCode = iota + 1
	TransportDNS
	TransportConnect
	TransportTimeout
	TransportTLS
	TransportCanceled
)

func (c TransportCode) String() string {
	switch c {
	case TransportDNS:
		return "dns"
	case TransportConnect:
		return "connect"
	case TransportTimeout:
		return "timeout"
	case TransportTLS:
		return "tls"
	case TransportCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// TransportError is returned when no HTTP response was received.
type TransportError struct {
	Code TransportCode
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%v (%s): %v", ErrTransport, e.Code, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

func newTransportError(err error) *TransportError {
	return &TransportError{
		Code: transportCode(err),
		Err:  err,
	}
}

func transportCode(err error) TransportCode {
	if errors.Is(err, context.Canceled) {
		return TransportCanceled
	}

	if _, ok := errors.AsType[*net.DNSError](err); ok {
		return TransportDNS
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return TransportTimeout
	}
	if netErr, ok := errors.AsType[net.Error](err); ok && netErr.Timeout() {
		return TransportTimeout
	}

	if _, ok := errors.AsType[*tls.CertificateVerificationError](err); ok {
		return TransportTLS
	}
	if _, ok := errors.AsType[tls.RecordHeaderError](err); ok {
		return TransportTLS
	}

	if opErr, ok := errors.AsType[*net.OpError](err); ok && opErr.Op == "dial" {
		return TransportConnect
	}

	return TransportUnknown
}

// Outcome flattens a call result into a failure flag, a code and a message.
//
// HTTP failures carry the status code and the status line. Transport
// failures carry the TransportCode and the underlying error text. Any other
// error is reported as failed with a zero code.
type Outcome struct {
	Failed    bool
	Transport bool
	HTTP      bool
	Code      int
	Message   string
}

// Classify returns the Outcome of a call that returned err.
func Classify(err error) Outcome {
	if err == nil {
		return Outcome{}
	}

	if statusErr, ok := errors.AsType[*StatusError](err); ok {
		return Outcome{
			Failed:  true,
			HTTP:    true,
			Code:    statusErr.StatusCode,
			Message: statusErr.StatusLine,
		}
	}

	if transportErr, ok := errors.AsType[*TransportError](err); ok {
		return Outcome{
			Failed:    true,
			Transport: true,
			Code:      int(transportErr.Code),
			Message:   transportErr.Err.Error(),
		}
	}

	return Outcome{
		Failed:  true,
		Message: err.Error(),
	}
}
