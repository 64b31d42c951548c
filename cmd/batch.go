package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tanq16/chunkr/internal/utils"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Process multiple downloads from a YAML list of {op, link, size}",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := loadBatch(afero.NewOsFs(), args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			r, err := newRunner(ctx, cmd.Flags(), reqs, args[0])
			if err != nil {
				return err
			}
			if r.run(ctx, reqs) > 0 {
				os.Exit(1)
			}
			return nil
		},
	}
	return cmd
}

func loadBatch(fs afero.Fs, path string) ([]utils.FileRequest, error) {
	entries, err := utils.ReadDownloadList(fs, path)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries found in %s", path)
	}
	reqs := make([]utils.FileRequest, 0, len(entries))
	for _, entry := range entries {
		reqs = append(reqs, entry.Request())
	}
	return reqs, nil
}
