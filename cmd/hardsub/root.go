package main

import (
	"github.com/spf13/cobra"

	"github.com/hardsub/hardsub/internal/config"
)

// version is stamped by the release build; development builds report "dev".
var version = "dev"

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "hardsub",
		Short:         "Transcribe video speech to SRT subtitles and burn them into the picture",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "configuration file path")

	rootCmd.AddCommand(newTranscribeCommand(&configFlag))
	rootCmd.AddCommand(newBurnCommand(&configFlag))
	rootCmd.AddCommand(newServeCommand(&configFlag))
	rootCmd.AddCommand(newDoctorCommand(&configFlag))

	return rootCmd
}

func loadConfig(configFlag *string) (*config.Config, error) {
	cfg, _, _, err := config.Load(*configFlag)
	return cfg, err
}
