package segmented

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/tanq16/chunkr/internal/chunk"
	"github.com/tanq16/chunkr/internal/events"
	"github.com/tanq16/chunkr/internal/fetch"
	"github.com/tanq16/chunkr/internal/utils"
)

// Downloader fetches a file as fixed-size ranged chunks with a bounded
// number of requests in flight, writing each chunk at its own offset.
type Downloader struct {
	transport   fetch.Transport
	fs          afero.Fs
	chunkSize   int64
	concurrency int
	handlers    events.Handlers
}

type Option func(*Downloader)

func WithChunkSize(size int64) Option {
	return func(d *Downloader) { d.chunkSize = size }
}

func WithConcurrency(n int) Option {
	return func(d *Downloader) { d.concurrency = n }
}

func WithFs(fs afero.Fs) Option {
	return func(d *Downloader) { d.fs = fs }
}

func WithHandlers(handlers ...events.Handler) Option {
	return func(d *Downloader) { d.handlers = d.handlers.Add(handlers...) }
}

func New(transport fetch.Transport, opts ...Option) (*Downloader, error) {
	d := &Downloader{
		transport:   transport,
		fs:          afero.NewOsFs(),
		chunkSize:   utils.DefaultChunkSize,
		concurrency: utils.DefaultFetchConcurrency,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be greater than zero, got %d", utils.ErrInvalidConfiguration, d.chunkSize)
	}
	if d.concurrency <= 0 {
		return nil, fmt.Errorf("%w: fetch concurrency must be greater than zero, got %d", utils.ErrInvalidConfiguration, d.concurrency)
	}
	if transport == nil {
		return nil, fmt.Errorf("%w: no transport", utils.ErrInvalidConfiguration)
	}
	return d, nil
}

// Download fetches req into req.Path and returns the open file. On failure
// the partially written file is left on disk with unspecified content.
func (d *Downloader) Download(ctx context.Context, req utils.FileRequest) (afero.File, error) {
	fileSize, err := d.resolveSize(ctx, req)
	if err != nil {
		return nil, err
	}
	d.handlers.ContentLength(fileSize)

	file, err := d.fs.Create(req.Path)
	if err != nil {
		return nil, &utils.IOError{Op: "create", Path: req.Path, Err: err}
	}

	plan, err := chunk.NewPlan(fileSize, d.chunkSize)
	if err != nil {
		file.Close()
		return nil, err
	}
	log.Debug().Str("op", "segmented/download").Str("id", req.ID.String()).
		Msgf("downloading %s (%d bytes) in %d chunks, %d in flight", req.URL, fileSize, plan.Count(), d.concurrency)

	if err := d.run(ctx, req, plan, file); err != nil {
		log.Error().Str("op", "segmented/download").Str("id", req.ID.String()).Err(err).Msgf("download of %s failed", req.URL)
		file.Close()
		return nil, err
	}

	d.handlers.Finish(file)
	log.Debug().Str("op", "segmented/download").Str("id", req.ID.String()).Msgf("finished %s", req.Path)
	return file, nil
}

func (d *Downloader) resolveSize(ctx context.Context, req utils.FileRequest) (int64, error) {
	if req.Size != nil {
		if *req.Size < 0 {
			return 0, fmt.Errorf("%w: negative declared size %d", utils.ErrInvalidConfiguration, *req.Size)
		}
		return *req.Size, nil
	}
	log.Debug().Str("op", "segmented/download").Msgf("probing content length of %s", req.URL)
	size, err := fetch.ContentLength(ctx, d.transport, req.URL)
	if err != nil {
		return 0, fmt.Errorf("error getting file size: %w", err)
	}
	return size, nil
}

// run fans fetches out over an errgroup limited to d.concurrency and writes
// results from this goroutine only. The first fetch error cancels every
// in-flight sibling and stops scheduling.
func (d *Downloader) run(ctx context.Context, req utils.FileRequest, plan *chunk.Plan, file afero.File) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	segments := make(chan fetch.Segment)
	var fetchErr error
	go func() {
		defer close(segments)
		for r, ok := plan.Next(); ok; r, ok = plan.Next() {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				seg, err := fetch.FetchSegment(gctx, d.transport, req.URL, r)
				if err != nil {
					return fmt.Errorf("chunk %s: %w", r, err)
				}
				select {
				case segments <- seg:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		fetchErr = g.Wait()
	}()

	var writeErr error
	for seg := range segments {
		if writeErr != nil {
			continue
		}
		if err := writeAt(file, seg); err != nil {
			writeErr = &utils.IOError{Op: "write", Path: req.Path, Err: err}
			cancel()
			continue
		}
		d.handlers.Write(seg.Data)
	}

	if writeErr != nil {
		return writeErr
	}
	if fetchErr != nil {
		if errors.Is(fetchErr, context.Canceled) && ctx.Err() != nil {
			return fmt.Errorf("download canceled: %w", fetchErr)
		}
		return fetchErr
	}
	return nil
}

func writeAt(file afero.File, seg fetch.Segment) error {
	if _, err := file.Seek(seg.Offset, io.SeekStart); err != nil {
		return err
	}
	_, err := file.Write(seg.Data)
	return err
}
