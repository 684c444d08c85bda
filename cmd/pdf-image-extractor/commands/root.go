package commands

import (
	"github.com/spf13/cobra"

	"github.com/edupipe/pdf-image-extractor/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pdf-image-extractor",
	Short: "Extract embedded images from PDF documents",
	Long: `pdf-image-extractor pulls every embedded image out of a PDF, retrying
failed extractions through a chain of fallback strategies, and writes a
markdown diagnostic report describing what succeeded, what failed and why.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig builds the effective configuration from the optional
// config file plus environment overrides and the verbose flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
