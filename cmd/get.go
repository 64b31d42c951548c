package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tanq16/chunkr/internal/utils"
)

func newGetCmd() *cobra.Command {
	var outputPath string
	var size int64

	cmd := &cobra.Command{
		Use:   "get [URL] [--output OUTPUT_PATH] [--size BYTES]",
		Short: "Download a single file over HTTP/HTTPS or from S3",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link := args[0]
			if _, err := url.Parse(link); err != nil {
				return fmt.Errorf("invalid URL format: %w", err)
			}
			if outputPath == "" {
				outputPath = utils.OutputPathFromURL(link)
			}
			var declared *int64
			if size >= 0 {
				declared = utils.SizeOf(size)
			}
			reqs := []utils.FileRequest{utils.NewFileRequest(link, outputPath, declared)}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			r, err := newRunner(ctx, cmd.Flags(), reqs, outputPath)
			if err != nil {
				return err
			}
			if r.run(ctx, reqs) > 0 {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (inferred from the URL if not provided)")
	cmd.Flags().Int64Var(&size, "size", -1, "Declared file size in bytes; skips the length lookup")
	return cmd
}
