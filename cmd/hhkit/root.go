package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Bidon15/hardhatkit"
	"github.com/Bidon15/hardhatkit/internal/hhconfig"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Global flag variables
var (
	cfgFile    string
	projectDir string
	logLevel   string
	logFormat  string
	verbose    bool
)

// Resolved per invocation by setup.
var (
	cfg    *viper.Viper
	logger = slog.Default()
)

// Input keys and the unprefixed environment variables they are read from.
var inputEnv = map[string]string{
	"networks_config":       "NETWORKS_CONFIG",
	"networks_config_file":  "NETWORKS_CONFIG_FILE",
	"output_file":           "OUTPUT_FILE",
	"exclude_contracts":     "EXCLUDE_CONTRACTS",
	"contracts_src":         "CONTRACTS_SRC",
	"coinmarketcap_api_key": "COINMARKETCAP_API_KEY",
	"currency":              "CURRENCY",
	"verification_url":      "VERIFICATION_URL",
	"network":               "NETWORK",
	"chain_id":              "CHAIN_ID",
	"rpc_url":               "RPC_URL",
	"private_key":           "PRIVATE_KEY",
	"api_key":               "API_KEY",
	"contract_address":      "CONTRACT_ADDRESS",
	"contract_name":         "CONTRACT_NAME",
	"function_name":         "FUNCTION_NAME",
	"function_params":       "FUNCTION_PARAMS",
	"artifacts_dir":         "ARTIFACTS_DIR",
	"constructor_args":      "CONSTRUCTOR_ARGS",
	"contract_path":         "CONTRACT_PATH",
	"block_number":          "BLOCK_NUMBER",
	"tx_hash":               "TX_HASH",
}

// rootCmd is the base command for the CLI
var rootCmd *cobra.Command

// versionCmd prints version information
var versionCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:   "hhkit",
		Short: "hhkit - Hardhat project configuration and deployment bookkeeping",
		Long: `hhkit edits hardhat.config.ts / hardhat.config.js in place and keeps
records of deployed contracts. Every subcommand takes its inputs from
environment variables, so it can run as a step of a larger pipeline.

The existing configuration is backed up to <config>.backup before it is
rewritten. Fields the tool does not manage are kept whenever the file can
be read back as data.

Configuration (in order of priority):
  1. Command-line flags (--dir, --log-level, --log-format)
  2. Environment variables (HHKIT_DIR, HHKIT_LOG_LEVEL, HHKIT_LOG_FORMAT,
     plus the per-command inputs such as NETWORKS_CONFIG)
  3. Config file (.hhkit.yaml in the project directory)`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print the version, commit hash, and build date of hhkit",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "hhkit %s\n", Version)
			if verbose {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  commit:  %s\n", Commit)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  built:   %s\n", BuildDate)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <dir>/.hhkit.yaml)")
	rootCmd.PersistentFlags().StringVar(&projectDir, "dir", "", "Hardhat project directory (or HHKIT_DIR env, default .)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (or HHKIT_LOG_LEVEL env)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "text or json (or HHKIT_LOG_FORMAT env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(
		versionCmd,
		newConfigureNetworksCmd(),
		newGasReporterCmd(),
		newVerificationCmd(),
		newInteractCmd(),
		newTrackCmd(),
	)
}

// Execute runs the root command, cancelling on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the root command with the provided arguments (for testing)
func ExecuteWithArgs(args []string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// SetOutput sets the output writer for the root command (for testing)
func SetOutput(w io.Writer) {
	rootCmd.SetOut(w)
	rootCmd.SetErr(w)
}

// ResetFlags resets all global flags to their defaults (for testing)
func ResetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
	cfg = nil
	logger = slog.Default()
}

// setup resolves configuration and installs the logger for one invocation.
func setup(cmd *cobra.Command, _ []string) error {
	if err := initConfig(cmd); err != nil {
		return err
	}
	l, err := newLogger(cmd.ErrOrStderr(), cfg.GetString("log_level"), cfg.GetString("log_format"))
	if err != nil {
		return err
	}
	logger = l.With(slog.String("run_id", uuid.NewString()))
	logger.Debug("configuration resolved",
		slog.String("command", cmd.Name()),
		slog.String("dir", cfg.GetString("dir")),
		slog.String("config_file", cfg.ConfigFileUsed()),
	)
	return nil
}

// initConfig initializes viper configuration.
func initConfig(cmd *cobra.Command) error {
	cfg = viper.New()

	// Set defaults
	cfg.SetDefault("dir", ".")
	cfg.SetDefault("log_level", "info")
	cfg.SetDefault("log_format", "text")
	cfg.SetDefault("eval_timeout", hardhatkit.DefaultEvalTimeout)
	cfg.SetDefault("output_file", "gas-report.txt")
	cfg.SetDefault("contracts_src", "./contracts")
	cfg.SetDefault("currency", "USD")

	// Flags
	flags := cmd.Root().PersistentFlags()
	_ = cfg.BindPFlag("dir", flags.Lookup("dir"))
	_ = cfg.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = cfg.BindPFlag("log_format", flags.Lookup("log-format"))

	// Environment variables
	cfg.SetEnvPrefix("HHKIT")
	cfg.AutomaticEnv()
	for key, env := range inputEnv {
		_ = cfg.BindEnv(key, env)
	}

	// Config file
	if cfgFile != "" {
		cfg.SetConfigFile(cfgFile)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		return nil
	}
	cfg.AddConfigPath(cfg.GetString("dir"))
	cfg.SetConfigType("yaml")
	cfg.SetConfigName(".hhkit")
	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("%w: log level %q", hardhatkit.ErrInvalidInput, level)
	}
	if verbose && lvl > slog.LevelDebug {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: log format %q", hardhatkit.ErrInvalidInput, format)
	}
}

// projectPath resolves p against the project directory.
func projectPath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.GetString("dir"), p)
}

// newStore creates the config store for the project directory.
func newStore() *hhconfig.Store {
	extractor := hhconfig.NewExtractor(logger, hhconfig.WithEvalTimeout(cfg.GetDuration("eval_timeout")))
	return hhconfig.NewStore(cfg.GetString("dir"), extractor, logger)
}

// logWarnings reports non-fatal problems at warn level.
func logWarnings(msg string, warnings []string) {
	for _, w := range warnings {
		logger.Warn(msg, slog.String("detail", w))
	}
}
