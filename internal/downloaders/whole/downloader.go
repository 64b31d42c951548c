package whole

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/tanq16/chunkr/internal/events"
	"github.com/tanq16/chunkr/internal/fetch"
	"github.com/tanq16/chunkr/internal/utils"
)

// Downloader fetches a file with a single unranged request. It is meant for
// files small enough that splitting them costs more than it saves.
type Downloader struct {
	transport  fetch.Transport
	fs         afero.Fs
	bufferSize int
	buffered   bool
	handlers   events.Handlers
}

type Option func(*Downloader)

// WithReadBufferSize sets the increment used when streaming the body to disk.
func WithReadBufferSize(size int) Option {
	return func(d *Downloader) { d.bufferSize = size }
}

// WithBuffered reads the whole body into memory and writes it once.
func WithBuffered() Option {
	return func(d *Downloader) { d.buffered = true }
}

func WithFs(fs afero.Fs) Option {
	return func(d *Downloader) { d.fs = fs }
}

func WithHandlers(handlers ...events.Handler) Option {
	return func(d *Downloader) { d.handlers = d.handlers.Add(handlers...) }
}

func New(transport fetch.Transport, opts ...Option) (*Downloader, error) {
	d := &Downloader{
		transport:  transport,
		fs:         afero.NewOsFs(),
		bufferSize: utils.DefaultReadBufferSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.bufferSize <= 0 {
		return nil, fmt.Errorf("%w: read buffer size must be greater than zero, got %d", utils.ErrInvalidConfiguration, d.bufferSize)
	}
	if transport == nil {
		return nil, fmt.Errorf("%w: no transport", utils.ErrInvalidConfiguration)
	}
	return d, nil
}

func (d *Downloader) Download(ctx context.Context, req utils.FileRequest) (afero.File, error) {
	log.Debug().Str("op", "whole/download").Str("id", req.ID.String()).Msgf("fetching %s", req.URL)
	resp, err := d.transport.Get(ctx, req.URL, nil)
	if err != nil {
		return nil, &utils.TransportError{URL: req.URL, Err: err}
	}
	defer resp.Body.Close()
	if !resp.Success() {
		return nil, &utils.RemoteChunkError{URL: req.URL, StatusCode: resp.StatusCode}
	}

	file, err := d.fs.Create(req.Path)
	if err != nil {
		return nil, &utils.IOError{Op: "create", Path: req.Path, Err: err}
	}
	if resp.ContentLength >= 0 {
		d.handlers.ContentLength(resp.ContentLength)
	}

	if d.buffered {
		err = d.copyBuffered(req, resp.Body, file)
	} else {
		err = d.copyStreamed(req, resp.Body, file)
	}
	if err != nil {
		log.Error().Str("op", "whole/download").Str("id", req.ID.String()).Err(err).Msgf("download of %s failed", req.URL)
		file.Close()
		return nil, err
	}

	d.handlers.Finish(file)
	log.Debug().Str("op", "whole/download").Str("id", req.ID.String()).Msgf("finished %s", req.Path)
	return file, nil
}

func (d *Downloader) copyBuffered(req utils.FileRequest, body io.Reader, file afero.File) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return &utils.TransportError{URL: req.URL, Err: err}
	}
	if _, err := file.Write(data); err != nil {
		return &utils.IOError{Op: "write", Path: req.Path, Err: err}
	}
	d.handlers.Write(data)
	return nil
}

func (d *Downloader) copyStreamed(req utils.FileRequest, body io.Reader, file afero.File) error {
	buffer := make([]byte, d.bufferSize)
	var total int64
	for {
		n, err := body.Read(buffer)
		if n > 0 {
			if _, writeErr := file.Write(buffer[:n]); writeErr != nil {
				return &utils.IOError{Op: "write", Path: req.Path, Err: writeErr}
			}
			total += int64(n)
			d.handlers.Write(buffer[:n])
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return &utils.TransportError{URL: req.URL, Err: err}
		}
	}
	log.Debug().Str("op", "whole/download").Int64("bytes", total).Msg("stream copied")
	return nil
}
