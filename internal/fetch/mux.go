package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tanq16/chunkr/internal/chunk"
)

// Mux routes requests to a transport by URL scheme, falling back to a
// default transport for unregistered schemes.
type Mux struct {
	routes   map[string]Transport
	fallback Transport
}

func NewMux(fallback Transport) *Mux {
	return &Mux{routes: make(map[string]Transport), fallback: fallback}
}

func (m *Mux) Handle(scheme string, t Transport) *Mux {
	m.routes[strings.ToLower(scheme)] = t
	return m
}

func (m *Mux) Get(ctx context.Context, rawURL string, r *chunk.ByteRange) (*Response, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if t, ok := m.routes[strings.ToLower(parsed.Scheme)]; ok {
		return t.Get(ctx, rawURL, r)
	}
	if m.fallback == nil {
		return nil, fmt.Errorf("unsupported scheme: %s", parsed.Scheme)
	}
	return m.fallback.Get(ctx, rawURL, r)
}
