package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/tanq16/chunkr/internal/downloaders/segmented"
	"github.com/tanq16/chunkr/internal/downloaders/whole"
	"github.com/tanq16/chunkr/internal/fetch"
	"github.com/tanq16/chunkr/internal/utils"
)

type Class int

const (
	Small Class = iota
	Large
)

func (c Class) String() string {
	if c == Small {
		return "small"
	}
	return "large"
}

// Result is the outcome of one request. Exactly one of File and Err is set.
type Result struct {
	Request utils.FileRequest
	File    afero.File
	Err     error
	Elapsed time.Duration
}

// Manager routes requests with a known small size to a whole-file pool and
// everything else to the segmented downloader, running both groups at once.
type Manager struct {
	whole            *whole.Downloader
	segmented        *segmented.Downloader
	smallThreshold   int64
	smallConcurrency int
}

type Option func(*Manager)

func WithSmallThreshold(n int64) Option {
	return func(m *Manager) { m.smallThreshold = n }
}

func WithSmallConcurrency(n int) Option {
	return func(m *Manager) { m.smallConcurrency = n }
}

func WithWholeDownloader(d *whole.Downloader) Option {
	return func(m *Manager) { m.whole = d }
}

func WithSegmentedDownloader(d *segmented.Downloader) Option {
	return func(m *Manager) { m.segmented = d }
}

func New(transport fetch.Transport, opts ...Option) (*Manager, error) {
	m := &Manager{
		smallThreshold:   utils.DefaultSmallFileThreshold,
		smallConcurrency: utils.DefaultSmallFileConcurrency,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.smallThreshold < 0 {
		return nil, fmt.Errorf("%w: negative small file threshold %d", utils.ErrInvalidConfiguration, m.smallThreshold)
	}
	if m.smallConcurrency <= 0 {
		return nil, fmt.Errorf("%w: small file concurrency must be greater than zero, got %d", utils.ErrInvalidConfiguration, m.smallConcurrency)
	}
	var err error
	if m.whole == nil {
		if m.whole, err = whole.New(transport); err != nil {
			return nil, err
		}
	}
	if m.segmented == nil {
		if m.segmented, err = segmented.New(transport); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Classify reports Small only for a declared size at or below the
// threshold. An unknown size is always Large.
func (m *Manager) Classify(req utils.FileRequest) Class {
	if req.Size != nil && *req.Size <= m.smallThreshold {
		return Small
	}
	return Large
}

// Download processes every request and returns the results of each group in
// completion order. Per-file failures are reported in Result.Err and never
// stop sibling downloads.
func (m *Manager) Download(ctx context.Context, reqs []utils.FileRequest) (small, large []Result) {
	var smallReqs, largeReqs []utils.FileRequest
	for _, req := range reqs {
		if req.ID == uuid.Nil {
			req.ID = uuid.New()
		}
		if m.Classify(req) == Small {
			smallReqs = append(smallReqs, req)
		} else {
			largeReqs = append(largeReqs, req)
		}
	}
	log.Debug().Str("op", "manager/download").Msgf("%d small and %d large files", len(smallReqs), len(largeReqs))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		small = m.downloadSmall(ctx, smallReqs)
	}()
	go func() {
		defer wg.Done()
		large = m.downloadLarge(ctx, largeReqs)
	}()
	wg.Wait()
	return small, large
}

func (m *Manager) downloadSmall(ctx context.Context, reqs []utils.FileRequest) []Result {
	var mu sync.Mutex
	results := make([]Result, 0, len(reqs))
	var g errgroup.Group
	g.SetLimit(m.smallConcurrency)
	for _, req := range reqs {
		g.Go(func() error {
			res := run(ctx, req, m.whole.Download)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return results
}

func (m *Manager) downloadLarge(ctx context.Context, reqs []utils.FileRequest) []Result {
	results := make([]Result, 0, len(reqs))
	for _, req := range reqs {
		results = append(results, run(ctx, req, m.segmented.Download))
	}
	return results
}

func run(ctx context.Context, req utils.FileRequest, download func(context.Context, utils.FileRequest) (afero.File, error)) Result {
	start := time.Now()
	file, err := download(ctx, req)
	res := Result{Request: req, File: file, Err: err, Elapsed: time.Since(start)}
	if err != nil {
		log.Warn().Str("op", "manager/download").Str("id", req.ID.String()).Str("kind", utils.Kind(err)).Err(err).Msgf("failed %s", req.URL)
	} else {
		log.Debug().Str("op", "manager/download").Str("id", req.ID.String()).Dur("elapsed", res.Elapsed).Msgf("completed %s", req.Path)
	}
	return res
}
