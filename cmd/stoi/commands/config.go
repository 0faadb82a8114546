package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GnRlLeclerc/STOI/pkg/audio/octave"
	"github.com/GnRlLeclerc/STOI/pkg/audio/resampler"
	"github.com/GnRlLeclerc/STOI/pkg/cli"
	"github.com/GnRlLeclerc/STOI/pkg/stoi"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and contexts.

A context is a named set of scoring defaults (mode, gate, resampler,
workers, cache and S3 settings), similar to kubectl's contexts.

Configuration is stored in ~/.giztoy/stoi/config.yaml`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add or replace a context",
	Long: `Add a context with the specified name, replacing any existing one.

Example:
  stoi config add-context estoi --extended
  stoi config add-context minio --s3-endpoint http://localhost:9000 --s3-path-style
  stoi config add-context ci --no-cache --workers 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		flags := cmd.Flags()

		ctx := &cli.Context{}
		var err error
		if ctx.Extended, err = flags.GetBool("extended"); err != nil {
			return fmt.Errorf("failed to read 'extended' flag: %w", err)
		}
		if ctx.Gate, err = flags.GetString("gate"); err != nil {
			return fmt.Errorf("failed to read 'gate' flag: %w", err)
		}
		if _, err := stoi.ParseGate(ctx.Gate); err != nil {
			return err
		}
		if ctx.Weighting, err = flags.GetString("weighting"); err != nil {
			return fmt.Errorf("failed to read 'weighting' flag: %w", err)
		}
		if _, err := octave.ParseWeighting(ctx.Weighting); err != nil {
			return err
		}
		if ctx.Resampler, err = flags.GetString("resampler"); err != nil {
			return fmt.Errorf("failed to read 'resampler' flag: %w", err)
		}
		if _, err := resampler.ByName(ctx.Resampler); err != nil {
			return err
		}
		if ctx.Workers, err = flags.GetInt("workers"); err != nil {
			return fmt.Errorf("failed to read 'workers' flag: %w", err)
		}

		cacheDir, _ := flags.GetString("cache-dir")
		noCache, _ := flags.GetBool("no-cache")
		if cacheDir != "" || noCache {
			ctx.Cache = &cli.CacheSettings{Dir: cacheDir, Disabled: noCache}
		}

		region, _ := flags.GetString("s3-region")
		endpoint, _ := flags.GetString("s3-endpoint")
		pathStyle, _ := flags.GetBool("s3-path-style")
		if region != "" || endpoint != "" || pathStyle {
			ctx.S3 = &cli.S3Settings{Region: region, Endpoint: endpoint, PathStyle: pathStyle}
		}

		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q added successfully", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q deleted", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context %q", args[0])
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Display the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			fmt.Println("No current context set")
			return nil
		}
		fmt.Println(cfg.CurrentContext)
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"get-contexts"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if len(cfg.Contexts) == 0 {
			fmt.Println("No contexts configured")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tMODE\tGATE\tRESAMPLER\tCACHE")
		for _, name := range cfg.ListContexts() {
			ctx := cfg.Contexts[name]
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", current, name,
				stoi.ModeOf(ctx.Extended), orDefault(ctx.Gate), orDefault(ctx.Resampler), cacheState(ctx))
		}
		return w.Flush()
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Config file: %s\n", cfg.Path())
		fmt.Printf("Current context: %s\n", cfg.CurrentContext)
		fmt.Printf("Contexts: %d\n", len(cfg.Contexts))

		for _, name := range cfg.ListContexts() {
			ctx := cfg.Contexts[name]
			fmt.Printf("\n  %s:\n", name)
			fmt.Printf("    Mode: %s\n", stoi.ModeOf(ctx.Extended))
			fmt.Printf("    Gate: %s\n", orDefault(ctx.Gate))
			fmt.Printf("    Weighting: %s\n", orDefault(ctx.Weighting))
			fmt.Printf("    Resampler: %s\n", orDefault(ctx.Resampler))
			if ctx.Workers > 0 {
				fmt.Printf("    Workers: %d\n", ctx.Workers)
			}
			fmt.Printf("    Cache: %s\n", cacheState(ctx))
			if ctx.S3 != nil {
				fmt.Printf("    S3 Region: %s\n", orDefault(ctx.S3.Region))
				if ctx.S3.Endpoint != "" {
					fmt.Printf("    S3 Endpoint: %s\n", ctx.S3.Endpoint)
				}
			}
		}
		return nil
	},
}

func init() {
	configAddContextCmd.Flags().Bool("extended", false, "Use extended STOI by default")
	configAddContextCmd.Flags().String("gate", "", "Silence gate signal: reference, degraded")
	configAddContextCmd.Flags().String("weighting", "", "Band weights: rectangular, triangular")
	configAddContextCmd.Flags().String("resampler", "", "Resampler: poly, soxr")
	configAddContextCmd.Flags().Int("workers", 0, "Concurrent scoring jobs (0 = all CPUs)")
	configAddContextCmd.Flags().String("cache-dir", "", "Score cache directory")
	configAddContextCmd.Flags().Bool("no-cache", false, "Disable the score cache")
	configAddContextCmd.Flags().String("s3-region", "", "S3 region")
	configAddContextCmd.Flags().String("s3-endpoint", "", "S3-compatible endpoint URL")
	configAddContextCmd.Flags().Bool("s3-path-style", false, "Use path-style S3 addressing")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

func cacheState(ctx *cli.Context) string {
	switch {
	case ctx.Cache == nil:
		return "(default)"
	case ctx.Cache.Disabled:
		return "disabled"
	case ctx.Cache.Dir != "":
		return ctx.Cache.Dir
	default:
		return "(default)"
	}
}
