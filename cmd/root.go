// Package cmd contains the CLI commands for the TMSIS dashboard
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/nastad/tmsis-dashboard/pkg/engine"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Global vars needed for cobra CLI
var (
	cfgFile string
	logger  *logrus.Logger
)

// rootCmd represents the base command
//
//nolint:gochecknoglobals // Cobra commands are typically global
var rootCmd = &cobra.Command{
	Use:   "tmsis",
	Short: "TMSIS HIV services dashboard - Medicaid HIV claims by state, category, provider and month",
	Long: `tmsis serves the HIV services dashboard over the T-MSIS claims warehouse.
Pages are built from a fixed catalog of aggregate queries, filtered by state
and year, and cached for an hour.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var cerr *engine.ConfigError
		if errors.As(err, &cerr) {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", cerr)
			os.Exit(1)
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error, fatal, panic); overrides the config file")

	// Initialize logger
	logger = logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = "./config.yaml"
	}
}

// loadConfig reads the config file and applies the log level, preferring
// the --log-level flag over the file
func loadConfig(cmd *cobra.Command) (*engine.Config, error) {
	cfg, err := engine.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	logLevel := cfg.Logging
	if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
		logLevel = flag
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, defaulting to info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return cfg, nil
}
