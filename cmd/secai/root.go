package main

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	apiKey  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "secai",
	Short: "Ask questions about SEC 10-Q and 10-K filings",
	Long: `secai searches EDGAR for a company, lets you pick quarterly and annual
reports, indexes their text and answers questions about them.

Run without a subcommand to start the interactive terminal UI.`,
	SilenceUsage: true,
	RunE:         runChat,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default ./config.yaml or ~/.config/secai/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "OpenAI API key (default from the environment variable named in the config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
