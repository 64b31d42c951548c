package utils

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrSizeUnknown          = errors.New("content length unknown, can't plan chunks")
	ErrChunkLength          = errors.New("chunk length does not match the requested range")
)

// RemoteChunkError is returned when the remote end answers a ranged or
// whole-file request with a non-success status, or with a ranged body whose
// length differs from the range. Range is empty for unranged requests.
type RemoteChunkError struct {
	URL        string
	Range      string
	StatusCode int
	// Expected and Received are set on length mismatches only.
	Expected int64
	Received int64
}

func (e *RemoteChunkError) Error() string {
	if e.lengthMismatch() {
		return fmt.Sprintf("got %d bytes, want %d for %s (%s, status %d)", e.Received, e.Expected, e.URL, e.Range, e.StatusCode)
	}
	if e.Range == "" {
		return fmt.Sprintf("unexpected status code %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("unexpected status code %d for %s (%s)", e.StatusCode, e.URL, e.Range)
}

func (e *RemoteChunkError) Unwrap() error {
	if e.lengthMismatch() {
		return ErrChunkLength
	}
	return nil
}

func (e *RemoteChunkError) lengthMismatch() bool {
	return e.Expected > 0 && e.Received != e.Expected
}

// TransportError wraps connection, timeout and body decode failures.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IOError wraps local filesystem failures (create, seek, write).
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Kind returns a short tag for err that separates configuration mistakes
// from remote, network and local disk failures.
func Kind(err error) string {
	var remoteErr *RemoteChunkError
	var transportErr *TransportError
	var ioErr *IOError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidConfiguration):
		return "config"
	case errors.Is(err, ErrSizeUnknown):
		return "size-unknown"
	case errors.As(err, &remoteErr):
		return "remote"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &ioErr):
		return "io"
	default:
		return "unknown"
	}
}

// StatusCode extracts the remote status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var remoteErr *RemoteChunkError
	if errors.As(err, &remoteErr) {
		return remoteErr.StatusCode, true
	}
	return 0, false
}
