package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Handle streams body to a temp file in the directory of destPath,
// renaming it to destPath on success. On any error the temp file is
// removed and destPath is left untouched.
func Handle(ctx context.Context, body io.Reader, contentLength int64, destPath string, logger *slog.Logger, optFns ...Option) error {
	if destPath == "" {
		return errors.New("destPath must not be empty")
	}

	opts, err := apply(optFns)
	if err != nil {
		return err
	}

	if opts.skipExisting {
		if _, err := os.Stat(destPath); err == nil {
			logger.Info("skipping existing file", "path", destPath)
			return nil
		}
	}

	file, err := os.CreateTemp(filepath.Dir(destPath), ".avatax16-dl-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error("defer closing temp file", "error", err)
		}
		if !successful {
			if err := os.Remove(file.Name()); err != nil {
				logger.Error("failed to remove temp file", "error", err)
			}
		}
	}()

	if err := stream(ctx, file, body, contentLength, logger, opts); err != nil {
		return err
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(file.Name(), destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	successful = true

	return nil
}

// HandleFunc streams body to an anonymous temp file, rewinds it and
// passes it to fn. The file is closed and removed once fn returns, so fn
// must not retain it.
func HandleFunc(ctx context.Context, body io.Reader, contentLength int64, fn func(*os.File) error, logger *slog.Logger, optFns ...Option) error {
	if fn == nil {
		return errors.New("fn must not be nil")
	}

	opts, err := apply(optFns)
	if err != nil {
		return err
	}
	if opts.skipExisting {
		return errors.New("skip existing requires a destination path")
	}

	file, err := os.CreateTemp("", ".avatax16-dl-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error("defer closing temp file", "error", err)
		}
		if err := os.Remove(file.Name()); err != nil {
			logger.Error("failed to remove temp file", "error", err)
		}
	}()

	if err := stream(ctx, file, body, contentLength, logger, opts); err != nil {
		return err
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding temp file: %w", err)
	}

	if err := fn(file); err != nil {
		return fmt.Errorf("download callback: %w", err)
	}

	return nil
}

// stream copies body into w, verifying its length and checksum.
func stream(ctx context.Context, w io.Writer, body io.Reader, contentLength int64, logger *slog.Logger, opts options) error {
	body = &contextReader{ctx: ctx, r: body}

	if opts.checksum != nil {
		w = io.MultiWriter(w, opts.checksum)
	}

	if opts.progress || opts.progressFn != nil {
		pw := &progressWriter{
			w:         w,
			total:     contentLength,
			startTime: time.Now(),
			report:    opts.progressFn,
		}
		if opts.progress {
			pw.logger = logger
		}
		w = pw
	}

	n, err := io.Copy(w, body)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %w", ErrDownloadCancelled, err)
		}

		return fmt.Errorf("copying file body: %w", err)
	}

	if contentLength >= 0 && n != contentLength {
		return lengthError(contentLength, n)
	}

	return opts.checksum.Verify()
}

// contextReader stops a copy once its context is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}
