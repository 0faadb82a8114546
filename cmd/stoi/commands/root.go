package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/GnRlLeclerc/STOI/pkg/cli"
)

const appName = "stoi"

var (
	// Global flags
	cfgFile      string
	contextName  string
	outputFile   string
	inputFile    string
	outputJSON   bool
	formatOutput string
	jqExpr       string
	verbose      bool

	// Global configuration
	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "stoi",
	Short: "Speech intelligibility scoring (STOI / ESTOI)",
	Long: `stoi - Short-Time Objective Intelligibility scoring.

Scores how intelligible a degraded speech recording is relative to its
clean reference, using STOI or its extended variant ESTOI. Inputs may be
WAV files or raw 16-bit PCM, on local disk or in S3 (s3://bucket/key).

Configuration is stored in ~/.giztoy/stoi/ and supports multiple contexts,
similar to kubectl's context management.

Examples:
  # Score one pair
  stoi score clean.wav noisy.wav

  # Extended STOI as JSON
  stoi score --extended clean.wav noisy.wav --json

  # Score a manifest with 8 workers and upload the report
  stoi batch -f pairs.yaml --workers 8 --report s3://bucket/reports/run.yaml

  # Only the mean score of a batch
  stoi batch -f pairs.yaml --jq '.summary.mean'
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "", "config file (default is ~/.giztoy/stoi/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "input manifest file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().StringVar(&formatOutput, "format", "", "output format: yaml, json, table")
	rootCmd.PersistentFlags().StringVar(&jqExpr, "jq", "", "jq expression applied to the output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	var err error
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		// Non-config commands still run; getConfig reports the error.
		slog.Warn("config unavailable", "app", appName, "error", err)
	}
}

// getConfig returns the global configuration
func getConfig() (*cli.Config, error) {
	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return globalConfig, nil
}

// getContext returns the context configuration to use
func getContext() (*cli.Context, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	return cfg.ResolveContext(contextName)
}

// outputFormat resolves --json and --format.
func outputFormat() (cli.OutputFormat, error) {
	if outputJSON {
		return cli.FormatJSON, nil
	}
	return cli.ParseFormat(formatOutput)
}

// outputResult writes result using the global output flags.
func outputResult(result any) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	return cli.Output(result, cli.OutputOptions{
		Format: format,
		File:   outputFile,
		Query:  jqExpr,
	})
}

// printVerbose prints verbose output if enabled
func printVerbose(format string, args ...any) {
	cli.PrintVerbose(verbose, format, args...)
}
