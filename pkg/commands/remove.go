package commands

import (
	"fmt"

	"github.com/beam-cloud/pngme/pkg/pngme"
	"github.com/spf13/cobra"
)

func NewRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path> <chunk-type>",
		Short: "Remove every chunk of a type",
		Args:  cobra.ExactArgs(2),
		RunE:  runRemove,
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	removed, err := pngme.Remove(cmd.Context(), pngme.RemoveOptions{Location: args[0], ChunkType: args[1]})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "removed %d %s chunk(s)\n", removed, args[1])
	return nil
}
