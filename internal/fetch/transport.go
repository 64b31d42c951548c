package fetch

import (
	"context"
	"io"

	"github.com/tanq16/chunkr/internal/chunk"
)

// Response is the transport-neutral view of a GET. ContentLength is -1
// when the remote end did not declare one.
type Response struct {
	StatusCode    int
	ContentLength int64
	Body          io.ReadCloser
}

func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport issues a GET for url, restricted to r when r is non-nil.
// A non-success status is not an error at this level.
type Transport interface {
	Get(ctx context.Context, url string, r *chunk.ByteRange) (*Response, error)
}
