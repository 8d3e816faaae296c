package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/archdrift/archdrift/internal/appconfig"
	"github.com/archdrift/archdrift/internal/logging"
)

var (
	Version = "dev"

	cfgFile string
	verbose bool
	logger  *logging.Logger
	cfg     *appconfig.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "archdrift",
	Short:   "Detect architectural drift between a baseline dependency graph and a commit",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.INFO
		if verbose {
			level = logging.DEBUG
		}
		var err error
		logger, err = logging.New(logging.Config{Level: level, AddSource: verbose})
		if err != nil {
			logger = logging.Default()
		}

		cfg, err = appconfig.Load(cfgFile)
		if err != nil {
			logger.With("error", err).Warn("failed to load config, using defaults")
			cfg = appconfig.Default()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .archdrift/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(snapshotCmd)
}
