package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meisterluk/fsintegrity/internal/config"
	"github.com/meisterluk/fsintegrity/internal/hashalgo"
	"github.com/meisterluk/fsintegrity/internal/logging"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
	flagWorkers   int
	flagAlgos     []string

	cfg  config.Config
	log  logging.Logger
	algo hashalgo.Set
)

// rootCmd is the root command, following Lucho00Cuba-mtc's cmd/root.go
// shape: PersistentPreRunE resolves logging + config before any
// subcommand's RunE executes.
var rootCmd = &cobra.Command{
	Use:   "fsintegrity",
	Short: "Offline integrity checker for filesystems and backups",
	Long: `fsintegrity scans a directory tree, computes cryptographic digests and
content heuristics per file, serializes the result into a self-checksummed
database container, and later compares a directory or another database
against that database to surface changes — emphasizing patterns that
suggest silent corruption.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		cfg = loaded

		if flagLogFormat != "" {
			cfg.LogFormat = flagLogFormat
		}
		if flagLogLevel != "" {
			cfg.LogLevel = flagLogLevel
		}
		if flagWorkers != 0 {
			cfg.Workers = flagWorkers
		}
		if len(flagAlgos) > 0 {
			cfg.Algorithms = nil
			for _, a := range flagAlgos {
				cfg.Algorithms = append(cfg.Algorithms, hashalgo.ID(a))
			}
		}

		set, err := cfg.AlgorithmSet()
		if err != nil {
			return err
		}
		algo = set

		if cfg.LogFormat == "json" {
			log = logging.NewJSON(cfg.LogLevel, os.Stderr)
		} else {
			log = logging.NewDevelopment(cfg.LogLevel)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to an optional JSONC config file (algorithms, workers, log format)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (default warn)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text or json (default text)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "Worker pool size; 0 means physical CPU count")
	rootCmd.PersistentFlags().StringArrayVar(&flagAlgos, "algo", nil, "Digest algorithm to enable (repeatable); default is the registry default")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fsintegrity:", err)
		if exitCode != 0 {
			return exitCode
		}
		return 3
	}
	return exitCode
}

// exitCode is set by whichever subcommand ran, since cobra's RunE only
// reports success/failure, not a specific exit code (spec §6).
var exitCode int
