package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/beam-cloud/pngme/pkg/common"
	"github.com/beam-cloud/pngme/pkg/pngme"
	"github.com/beam-cloud/pngme/pkg/scan"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type ScanCmdOptions struct {
	ChunkType string
	Workers   int
}

func NewScanCmd() *cobra.Command {
	scanOpts := &ScanCmdOptions{}

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "List the pngs under a directory and the chunks they carry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args[0], scanOpts)
		},
	}

	cmd.Flags().StringVarP(&scanOpts.ChunkType, "type", "t", "", "Only list files containing this chunk type")
	cmd.Flags().IntVar(&scanOpts.Workers, "workers", common.GetEnvInt(common.EnvScanWorkers, common.DefaultScanWorkers), "Number of files parsed concurrently")
	return cmd
}

func runScan(cmd *cobra.Command, root string, opts *ScanCmdOptions) error {
	index, err := pngme.Scan(cmd.Context(), pngme.ScanOptions{Root: root, Workers: opts.Workers})
	if err != nil {
		return err
	}

	var results []*scan.Result
	if opts.ChunkType != "" {
		results = index.WithType(opts.ChunkType)
	} else {
		index.Ascend(func(r *scan.Result) bool {
			results = append(results, r)
			return true
		})
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tCHUNKS\tSIZE\tTYPES")
	for _, r := range results {
		types := strings.Join(r.Types, ",")
		if r.Err != nil {
			types = "error: " + r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", r.Path, r.Chunks, humanize.Bytes(uint64(r.Size)), types)
	}
	return w.Flush()
}
