package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileSink writes each snapshot to path via a temp-file-then-rename swap,
// retrying a bounded number of times on a transient write failure — the
// Go analogue of the reference's write_positions_json, which retries on
// PermissionError from a concurrent reader on Windows.
type FileSink struct {
	path    string
	retries int
	sleep   time.Duration
}

// NewFileSink creates a FileSink writing to path with the given retry
// policy. A retries of 0 falls back to the reference's default of 30
// attempts at a 10ms backoff.
func NewFileSink(path string, retries int, sleep time.Duration) *FileSink {
	if retries <= 0 {
		retries = 30
	}
	if sleep <= 0 {
		sleep = 10 * time.Millisecond
	}
	return &FileSink{path: path, retries: retries, sleep: sleep}
}

// Publish atomically replaces the sink's file with payload.
func (s *FileSink) Publish(ctx context.Context, payload []byte) error {
	dir := filepath.Dir(s.path)

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		tmp, err := os.CreateTemp(dir, "snapshot_*.json.tmp")
		if err != nil {
			lastErr = err
			time.Sleep(s.sleep)
			continue
		}
		tmpPath := tmp.Name()

		_, writeErr := tmp.Write(payload)
		syncErr := tmp.Sync()
		closeErr := tmp.Close()

		if writeErr != nil || syncErr != nil || closeErr != nil {
			os.Remove(tmpPath)
			lastErr = firstNonNil(writeErr, syncErr, closeErr)
			time.Sleep(s.sleep)
			continue
		}

		if err := os.Rename(tmpPath, s.path); err != nil {
			os.Remove(tmpPath)
			lastErr = err
			time.Sleep(s.sleep)
			continue
		}

		return nil
	}

	return fmt.Errorf("snapshot: file sink exhausted %d retries: %w", s.retries, lastErr)
}

func firstNonNil(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
