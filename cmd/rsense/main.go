package main

import (
	"fmt"
	"os"

	"github.com/reviewsense/reviewsense/internal/config"
	"github.com/reviewsense/reviewsense/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
)

func main() {
	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rsense",
	Short: "ReviewSense - Review-quality tracking for AI-generated code",
	Long: `ReviewSense analyzes editor tracking events to measure how carefully
AI-generated code is reviewed before it lands: blind approvals, review
quality scores, autonomous agent sessions, and per-file review debt.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize logger
		logger = logrus.New()
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}

		// Load configuration
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}

		// Structured log file for the detection pipeline
		level := logging.ParseLevel(cfg.Logging.Level)
		if verbose {
			level = logging.DEBUG
		}
		if err := logging.Initialize(logging.DefaultConfig(level, cfg.Logging.Directory)); err != nil {
			logger.WithError(err).Warn("Failed to initialize log file, logging to stderr only")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .reviewsense/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Set custom version template
	rootCmd.SetVersionTemplate(`ReviewSense {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	// Add subcommands
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(thresholdsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sessionsCmd)
}
