package download

import (
	"errors"
	"fmt"
)

var (
	ErrContentLengthMismatch = errors.New("content length mismatch")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrDownloadCancelled     = errors.New("download cancelled")
)

// Error reports a download whose content did not match what was
// expected of it. Expected and Actual hold byte counts for a length
// mismatch and hex digests for a checksum mismatch.
type Error struct {
	Expected string
	Actual   string
	Written  int64
	Err      error
}

func lengthError(expected, written int64) *Error {
	return &Error{
		Expected: fmt.Sprintf("%d bytes", expected),
		Actual:   fmt.Sprintf("%d bytes", written),
		Written:  written,
		Err:      ErrContentLengthMismatch,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v after %d bytes: expected %s, got %s", e.Err, e.Written, e.Expected, e.Actual)
}

func (e *Error) Unwrap() error {
	return e.Err
}
