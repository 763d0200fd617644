package download

import (
	"errors"
	"fmt"
	"hash"
	"strings"
)

// Option defines optional settings for downloading files.
type Option func(*options) error

type options struct {
	checksum     *checksumVerifier
	progress     bool
	progressFn   ProgressFunc
	skipExisting bool
}

// ProgressFunc receives the bytes transferred so far and the expected
// total. total is -1 when the server sent no Content-Length.
type ProgressFunc func(transferred, total int64)

func apply(optFns []Option) (options, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return options{}, fmt.Errorf("applying option: %w", err)
		}
	}

	return opts, nil
}

// WithChecksum enables checksum validation of the downloaded file.
// h is a hash.Hash instance (e.g. sha256.New()), and expected is the
// hex-encoded digest, either alone or as a line of a checksum file.
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if strings.TrimSpace(expected) == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = newChecksumVerifier(h, expected)
		return nil
	}
}

// WithProgress enables periodic progress logging via the logger
// supplied to Handle.
func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}

// WithProgressFunc reports progress to fn after every write.
func WithProgressFunc(fn ProgressFunc) Option {
	return func(opts *options) error {
		if fn == nil {
			return errors.New("progress func must not be nil")
		}

		opts.progressFn = fn
		return nil
	}
}

// WithSkipExisting causes Handle to return nil immediately when
// the destination file already exists.
func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}
