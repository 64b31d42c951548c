package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tanq16/chunkr/internal/utils"
)

var ChunkrVersion = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:          "chunkr",
	Short:        "Chunkr is a segmented, concurrency-bounded file downloader",
	Version:      ChunkrVersion,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flags.Int64("chunk-size", utils.DefaultChunkSize, "Bytes per ranged request")
	flags.IntP("concurrency", "c", utils.DefaultFetchConcurrency, "Maximum ranged requests in flight per file")
	flags.Bool("keep-alive", false, "Send Connection: keep-alive")
	flags.Duration("blocking-timeout", utils.DefaultBlockingTimeout, "Timeout for single-request downloads")
	flags.Int64("small-threshold", utils.DefaultSmallFileThreshold, "Files with a known size at or below this are fetched in one request")
	flags.Int("small-concurrency", utils.DefaultSmallFileConcurrency, "Small files downloaded in parallel")
	flags.Int("buffer-size", utils.DefaultReadBufferSize, "Read increment for single-request downloads")
	flags.DurationP("timeout", "t", utils.DefaultHTTPTimeout, "HTTP client timeout for ranged requests (eg. 5s, 10m)")
	flags.StringP("user-agent", "a", utils.ToolUserAgent, "User agent")
	flags.StringArrayP("header", "H", []string{}, "Custom headers (like 'X-Api-Key: abc'); can be specified multiple times")
	flags.StringP("proxy", "p", "", "HTTP/HTTPS proxy URL (credentials may be embedded)")
	flags.String("token", "", "OAuth2 bearer token sent with every HTTP request")
	flags.String("profile", "default", "AWS profile for s3:// URLs")
	flags.Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newBatchCmd())
}
