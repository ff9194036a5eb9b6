package commands

import (
	"github.com/beam-cloud/pngme/pkg/pngme"
	"github.com/spf13/cobra"
)

func NewEncodeCmd() *cobra.Command {
	encodeOpts := &pngme.EncodeOptions{}

	cmd := &cobra.Command{
		Use:   "encode <path> <chunk-type> <message>",
		Short: "Append a message chunk to a png",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			encodeOpts.Location = args[0]
			encodeOpts.ChunkType = args[1]
			encodeOpts.Message = args[2]
			return runEncode(cmd, encodeOpts)
		},
	}

	cmd.Flags().StringVarP(&encodeOpts.OutputLocation, "output", "o", "", "Write the result here instead of in place")
	return cmd
}

func runEncode(cmd *cobra.Command, opts *pngme.EncodeOptions) error {
	return pngme.Encode(cmd.Context(), *opts)
}
