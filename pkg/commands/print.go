package commands

import (
	"github.com/beam-cloud/pngme/pkg/pngme"
	"github.com/spf13/cobra"
)

func NewPrintCmd() *cobra.Command {
	printOpts := &pngme.PrintOptions{}

	cmd := &cobra.Command{
		Use:   "print <path>",
		Short: "Print every chunk of a png",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printOpts.Location = args[0]
			printOpts.Out = cmd.OutOrStdout()
			return pngme.Print(cmd.Context(), *printOpts)
		},
	}

	cmd.Flags().BoolVarP(&printOpts.Verbose, "verbose", "v", false, "Show chunk properties and container size")
	return cmd
}
