package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GnRlLeclerc/STOI/cmd/stoi/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputJSON || formatOutput != "" {
			return outputResult(build.Get())
		}
		fmt.Println(build.String())
		if verbose {
			info := build.Get()
			fmt.Printf("  go:     %s\n", info.Go)
			if cfg, err := getConfig(); err == nil {
				fmt.Printf("  config: %s\n", cfg.Path())
			} else {
				fmt.Printf("  config: (unavailable: %v)\n", err)
			}
		}
		return nil
	},
}
