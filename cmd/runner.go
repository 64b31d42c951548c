package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/tanq16/chunkr/internal/config"
	"github.com/tanq16/chunkr/internal/downloaders/segmented"
	"github.com/tanq16/chunkr/internal/downloaders/whole"
	"github.com/tanq16/chunkr/internal/fetch"
	"github.com/tanq16/chunkr/internal/manager"
	"github.com/tanq16/chunkr/internal/output"
	"github.com/tanq16/chunkr/internal/utils"
)

// runner wires configuration into a manager whose downloaders report to a
// shared progress line.
type runner struct {
	cfg      *config.Config
	manager  *manager.Manager
	progress *output.Progress
}

func newRunner(ctx context.Context, flags *pflag.FlagSet, reqs []utils.FileRequest, label string) (*runner, error) {
	fs := afero.NewOsFs()
	cfg, err := config.Load(fs, configPath, flags)
	if err != nil {
		return nil, err
	}
	utils.InitLogger(cfg.Log.Debug)

	segmentedMux := fetch.NewMux(fetch.NewHTTPTransport(utils.NewHTTPClient(cfg.HTTPClientConfig())))
	wholeMux := fetch.NewMux(fetch.NewHTTPTransport(utils.NewHTTPClient(cfg.WholeFileClientConfig())))
	if needsS3(reqs) {
		s3Transport, err := fetch.NewS3Transport(ctx, cfg.S3.Profile)
		if err != nil {
			return nil, err
		}
		segmentedMux.Handle("s3", s3Transport)
		wholeMux.Handle("s3", s3Transport)
	}

	progress := output.NewProgress(os.Stdout, label)
	segmentedDownloader, err := segmented.New(segmentedMux,
		segmented.WithChunkSize(cfg.Download.ChunkSize),
		segmented.WithConcurrency(cfg.Download.FetchConcurrency),
		segmented.WithFs(fs),
		segmented.WithHandlers(progress),
	)
	if err != nil {
		return nil, err
	}
	wholeDownloader, err := whole.New(wholeMux,
		whole.WithReadBufferSize(cfg.Download.ReadBufferSize),
		whole.WithFs(fs),
		whole.WithHandlers(progress),
	)
	if err != nil {
		return nil, err
	}
	m, err := manager.New(segmentedMux,
		manager.WithSmallThreshold(cfg.Download.SmallFileThreshold),
		manager.WithSmallConcurrency(cfg.Download.SmallFileConcurrency),
		manager.WithSegmentedDownloader(segmentedDownloader),
		manager.WithWholeDownloader(wholeDownloader),
	)
	if err != nil {
		return nil, err
	}
	return &runner{cfg: cfg, manager: m, progress: progress}, nil
}

// run downloads reqs, prints a summary and returns the number of failures.
func (r *runner) run(ctx context.Context, reqs []utils.FileRequest) int {
	log.Debug().Str("op", "cmd/run").Msgf("starting %d downloads", len(reqs))
	smallCount := 0
	for _, req := range reqs {
		if r.manager.Classify(req) == manager.Small {
			smallCount++
		}
	}
	output.PrintHeader(fmt.Sprintf("chunkr %s %d files", output.StyleSymbols["bullet"], len(reqs)))
	output.PrintInfo(fmt.Sprintf("%d small, %d large", smallCount, len(reqs)-smallCount))
	r.progress.Start(300 * time.Millisecond)
	small, large := r.manager.Download(ctx, reqs)
	r.progress.Stop()

	failed := output.PrintSummary(os.Stdout, small, large)
	for _, group := range [][]manager.Result{small, large} {
		for _, res := range group {
			if res.File != nil {
				res.File.Close()
			}
		}
	}
	if n := output.SizeUnknown(small, large); n > 0 {
		output.PrintWarning(fmt.Sprintf("%d downloads skipped because the server reported no size", n))
	}
	if failed > 0 {
		output.PrintError(fmt.Sprintf("%d of %d downloads failed", failed, len(reqs)))
	} else {
		output.PrintSuccess(fmt.Sprintf("%d downloads completed", len(reqs)))
	}
	return failed
}

func needsS3(reqs []utils.FileRequest) bool {
	for _, req := range reqs {
		if u, err := url.Parse(req.URL); err == nil && strings.EqualFold(u.Scheme, "s3") {
			return true
		}
	}
	return false
}
