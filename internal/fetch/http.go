package fetch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tanq16/chunkr/internal/chunk"
	"github.com/tanq16/chunkr/internal/utils"
)

type HTTPTransport struct {
	client *utils.HTTPClient
}

func NewHTTPTransport(client *utils.HTTPClient) *HTTPTransport {
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Get(ctx context.Context, url string, r *chunk.ByteRange) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating GET request: %w", err)
	}
	if r != nil {
		req.Header.Set("Range", r.Header())
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode:    resp.StatusCode,
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}
