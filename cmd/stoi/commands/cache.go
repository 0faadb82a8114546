package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/GnRlLeclerc/STOI/pkg/cache"
	"github.com/GnRlLeclerc/STOI/pkg/cli"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the score cache",
	Long: `Inspect or clear the on-disk score cache of the current context.

Scores are cached by a digest of both signals, the mode, the resampler and
the engine settings, so cached entries never go stale.`,
}

// cacheStats is the output of cache stats.
type cacheStats struct {
	Dir string `json:"dir" yaml:"dir"`
	cache.Stats `yaml:",inline"`
	Size string `json:"size" yaml:"size"`
	Disk string `json:"disk,omitempty" yaml:"disk,omitempty"`
}

func (s *cacheStats) TableHeaders() []string {
	return []string{"DIR", "ENTRIES", "SIZE", "DISK", "CORRUPT", "OLDEST", "NEWEST"}
}

func (s *cacheStats) TableRows() [][]string {
	oldest, newest := "-", "-"
	if !s.Oldest.IsZero() {
		oldest = s.Oldest.Format("2006-01-02 15:04:05")
		newest = s.Newest.Format("2006-01-02 15:04:05")
	}
	disk := s.Disk
	if disk == "" {
		disk = "-"
	}
	return [][]string{{s.Dir, fmt.Sprint(s.Entries), s.Size, disk, fmt.Sprint(s.Corrupt), oldest, newest}}
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContext()
		if err != nil {
			return err
		}
		store, err := openCache(c)
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := cache.NewScores(store, nil).Stats(cmd.Context())
		if err != nil {
			return err
		}
		return outputResult(&cacheStats{
			Dir:   cacheDirOf(c),
			Stats: st,
			Size:  cli.FormatBytes(st.Bytes),
			Disk:  cli.FormatBytes(store.DiskSize()),
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached score",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContext()
		if err != nil {
			return err
		}
		store, err := openCache(c)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := cache.NewScores(store, nil).Clear(cmd.Context())
		if err != nil {
			return err
		}
		if err := store.Compact(cmd.Context()); err != nil {
			slog.Warn("cache compaction failed", "error", err)
		}
		cli.PrintSuccess("Removed %d cached scores", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func cacheDirOf(c *cli.Context) string {
	if c.Cache != nil && c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	if paths, err := cli.NewPaths(appName); err == nil {
		return paths.CacheDir()
	}
	return ""
}
