// Package download streams HTTP response bodies to disk with optional
// checksum validation and progress reporting.
//
// [Handle] writes the body to a temporary file alongside the
// destination path, then renames it on success:
//
//	err := download.Handle(ctx, resp.Body, resp.ContentLength, destPath, logger,
//		download.WithChecksum(sha256.New(), expectedHex),
//	)
//
// [HandleFunc] hands the finished temp file to a callback instead and
// removes it afterwards.
//
// Most callers should use [github.com/adamwoolhether/avatax16/client],
// which invokes these internally.
package download
