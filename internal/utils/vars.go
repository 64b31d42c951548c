package utils

import "time"

const (
	DefaultChunkSize            int64 = 512000
	DefaultFetchConcurrency           = 150
	DefaultReadBufferSize             = 32 * 1024
	DefaultSmallFileThreshold   int64 = 16 * 1024 * 1024
	DefaultSmallFileConcurrency       = 8
	DefaultBlockingTimeout            = 100 * time.Second
	DefaultHTTPTimeout                = 60 * time.Second
	DefaultKATimeout                  = 90 * time.Second
	ToolUserAgent                     = "chunkr"
)
