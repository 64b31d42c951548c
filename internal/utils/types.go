package utils

import (
	"time"

	"github.com/google/uuid"
)

// FileRequest describes one file to fetch. Size, when set, is trusted as the
// remote length and spares a length lookup.
type FileRequest struct {
	ID   uuid.UUID
	Path string
	URL  string
	Size *int64
}

func NewFileRequest(url, path string, size *int64) FileRequest {
	return FileRequest{
		ID:   uuid.New(),
		Path: path,
		URL:  url,
		Size: size,
	}
}

// SizeOf is a convenience for building requests with a declared size.
func SizeOf(n int64) *int64 {
	return &n
}

type HTTPClientConfig struct {
	Timeout       time.Duration
	KATimeout     time.Duration
	KeepAlive     bool
	ProxyURL      string
	ProxyUsername string
	ProxyPassword string
	UserAgent     string
	Headers       map[string]string
	Token         string
}

type DownloadEntry struct {
	OutputPath string `yaml:"op"`
	URL        string `yaml:"link"`
	Size       *int64 `yaml:"size,omitempty"`
}
