package commands

import (
	"github.com/beam-cloud/pngme/pkg/common"
	"github.com/beam-cloud/pngme/pkg/pngme"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the pngme command tree.
func NewRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "pngme",
		Short:         "Hide messages in png chunks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return pngme.SetLogLevel(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", common.GetEnv(common.EnvLogLevel, common.DefaultLogLevel), "Log level (debug, info, warn, error, disabled)")

	rootCmd.AddCommand(
		NewEncodeCmd(),
		NewDecodeCmd(),
		NewRemoveCmd(),
		NewPrintCmd(),
		NewScanCmd(),
		NewStoreCmd(),
	)
	return rootCmd
}
