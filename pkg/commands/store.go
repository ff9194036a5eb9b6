package commands

import (
	"github.com/beam-cloud/pngme/pkg/pngme"
	"github.com/spf13/cobra"
)

func NewStoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "store <src> <dst>",
		Short: "Copy a png between storage locations (local path, s3://, https://)",
		Args:  cobra.ExactArgs(2),
		RunE:  runStore,
	}
}

func runStore(cmd *cobra.Command, args []string) error {
	return pngme.Store(cmd.Context(), pngme.StoreOptions{Source: args[0], Destination: args[1]})
}
