package avatax16

import (
	"errors"
	"fmt"
	"maps"

	"github.com/adamwoolhether/avatax16/client"
	"github.com/adamwoolhether/avatax16/document"
)

// ErrValidation is wrapped by the error returned when an envelope fails
// validation before dispatch. The envelope's field errors are wrapped
// alongside it as a [document.FieldErrors].
var ErrValidation = errors.New("envelope validation failed")

// APIError is a failure reported by the service. It wraps the transport
// [*client.StatusError], so errors.Is matches [client.ErrHTTPStatus] and
// [client.ErrAuthFailure].
type APIError struct {
	StatusCode int
	// Code is the service error code, e.g. "EntityNotFound". It is empty
	// when the body was not an error document.
	Code    string
	Message string
	Fields  document.FieldErrors
	Err     error
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("avatax: %d: %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("avatax: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// errorDocument is the body the service answers failures with.
type errorDocument struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Errors  document.FieldErrors `json:"errors"`
}

func newAPIError(statusErr *client.StatusError) *APIError {
	apiErr := APIError{
		StatusCode: statusErr.StatusCode,
		Message:    statusErr.StatusLine,
		Err:        statusErr,
	}

	resp := statusErr.Response
	if resp == nil || !client.IsJSON(resp.ContentType) {
		return &apiErr
	}

	var doc errorDocument
	if err := resp.Decode(&doc); err != nil {
		return &apiErr
	}

	apiErr.Code = doc.Code
	apiErr.Fields = doc.Errors
	if doc.Message != "" {
		apiErr.Message = doc.Message
	}

	return &apiErr
}

// failures renders err as the Errors map of a failed envelope: one entry
// per failed field plus a "message" entry.
func failures(err error) map[string]string {
	out := make(map[string]string)

	if fields, ok := errors.AsType[document.FieldErrors](err); ok {
		maps.Copy(out, fields.Fields())
	}

	if apiErr, ok := errors.AsType[*APIError](err); ok {
		maps.Copy(out, apiErr.Fields.Fields())
		out["message"] = apiErr.Message
		return out
	}

	out["message"] = client.Classify(err).Message

	return out
}
