package commands

import (
	"errors"
	"fmt"

	"github.com/beam-cloud/pngme/pkg/chunk"
	"github.com/beam-cloud/pngme/pkg/common"
	"github.com/beam-cloud/pngme/pkg/pngme"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type DecodeCmdOptions struct {
	MessageOnly bool
}

func NewDecodeCmd() *cobra.Command {
	decodeOpts := &DecodeCmdOptions{}

	cmd := &cobra.Command{
		Use:   "decode <path> <chunk-type>",
		Short: "Print the first chunk of a type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, args[0], args[1], decodeOpts)
		},
	}

	cmd.Flags().BoolVarP(&decodeOpts.MessageOnly, "message", "m", false, "Print only the chunk's message")
	return cmd
}

func runDecode(cmd *cobra.Command, location, chunkType string, opts *DecodeCmdOptions) error {
	out := cmd.OutOrStdout()

	c, err := pngme.Decode(cmd.Context(), pngme.DecodeOptions{Location: location, ChunkType: chunkType})
	if errors.Is(err, common.ErrChunkNotFound) {
		fmt.Fprintf(out, "no chunk of type %s found\n", chunkType)
		return nil
	}
	if err != nil {
		return err
	}

	if !opts.MessageOnly {
		fmt.Fprintln(out, c)
		return nil
	}

	message, err := c.DataAsString()
	if err != nil {
		log.Warn().Str("type", chunkType).Msg("message is not valid utf-8, printing lossy rendering")
		message = chunk.LossyString(c.Data())
	}
	fmt.Fprintln(out, message)
	return nil
}
