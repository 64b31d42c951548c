package fetch

import (
	"context"
	"io"

	"github.com/tanq16/chunkr/internal/chunk"
	"github.com/tanq16/chunkr/internal/utils"
)

// Segment is a fetched chunk and the absolute offset it belongs at.
type Segment struct {
	Offset int64
	Data   []byte
}

// FetchSegment issues a single ranged GET for r and reads the whole body.
// A body of any length other than r.Len() is rejected, which also catches
// servers that ignore the Range header. It never retries.
func FetchSegment(ctx context.Context, t Transport, url string, r chunk.ByteRange) (Segment, error) {
	resp, err := t.Get(ctx, url, &r)
	if err != nil {
		return Segment{}, &utils.TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if !resp.Success() {
		return Segment{}, &utils.RemoteChunkError{URL: url, Range: r.Header(), StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Segment{}, &utils.TransportError{URL: url, Err: err}
	}
	if int64(len(data)) != r.Len() {
		return Segment{}, &utils.RemoteChunkError{
			URL:        url,
			Range:      r.Header(),
			StatusCode: resp.StatusCode,
			Expected:   r.Len(),
			Received:   int64(len(data)),
		}
	}
	return Segment{Offset: r.Start, Data: data}, nil
}

// ContentLength queries url with an unranged GET and returns the declared
// length without reading the body.
func ContentLength(ctx context.Context, t Transport, url string) (int64, error) {
	resp, err := t.Get(ctx, url, nil)
	if err != nil {
		return 0, &utils.TransportError{URL: url, Err: err}
	}
	resp.Body.Close()
	if !resp.Success() {
		return 0, &utils.RemoteChunkError{URL: url, StatusCode: resp.StatusCode}
	}
	if resp.ContentLength < 0 {
		return 0, utils.ErrSizeUnknown
	}
	return resp.ContentLength, nil
}
