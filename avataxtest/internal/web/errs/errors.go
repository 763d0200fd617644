// Package errs defines the errors handlers return and the error document
// the fake service answers with.
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"github.com/adamwoolhether/avatax16/document"
)

// Codes reported in the error document.
const (
	CodeAuth         = "AuthenticationFailed"
	CodeNotFound     = "EntityNotFound"
	CodeConflict     = "DuplicateEntity"
	CodeInvalidState = "InvalidTransactionState"
	CodeBadRequest   = "InvalidRequest"
	CodeValidation   = "ValidationFailed"
	CodeInternal     = "InternalError"
)

// Error is a handler failure with the HTTP status it maps to.
type Error struct {
	Status   int
	Code     string
	Message  string
	Fields   document.FieldErrors
	FuncName string
	FileName string
	InnerErr bool
}

// New constructs an Error answered with status and code.
func New(status int, code string, err error) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Status:   status,
		Code:     code,
		Message:  err.Error(),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// NewInternal creates an error whose message is not shown to callers.
func NewInternal(err error) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Status:   http.StatusInternalServerError,
		Code:     CodeInternal,
		Message:  err.Error(),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
		InnerErr: true,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// IsInternal returns true if the error is internal.
func (e *Error) IsInternal() bool {
	return e.InnerErr
}

// FromValidation converts a document validation failure into a 400 with
// per-field details. Any other error passes through unchanged.
func FromValidation(err error) error {
	fields, ok := errors.AsType[document.FieldErrors](err)
	if !ok {
		return err
	}

	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Status:   http.StatusBadRequest,
		Code:     CodeValidation,
		Message:  "request failed validation",
		Fields:   fields,
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// Document is the JSON body of every error response.
type Document struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Errors  document.FieldErrors `json:"errors,omitempty"`
}

// Document renders e as the body sent to the caller.
func (e *Error) Document() Document {
	return Document{
		Code:    e.Code,
		Message: e.Message,
		Errors:  e.Fields,
	}
}
