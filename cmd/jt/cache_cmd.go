package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/raphi011/jt/internal/cache"
	"github.com/raphi011/jt/internal/output"
	"github.com/raphi011/jt/internal/storage"
	"github.com/raphi011/jt/internal/ui/prompt"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Short:   "Inspect or clear the local cache",
		GroupID: GroupMaintain,
	}

	cmd.AddCommand(newCachePathCmd())
	cmd.AddCommand(newCacheStatsCmd())
	cmd.AddCommand(newCacheClearCmd())
	return cmd
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache database path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			path, err := storage.CacheDBPath()
			if err != nil {
				return err
			}
			out.Println(path)
			return nil
		},
	}
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the cache holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			s, err := openCacheDB()
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.Stats(ctx)
			if err != nil {
				return err
			}

			types := make([]string, 0, len(stats.Entities))
			for t := range stats.Entities {
				types = append(types, t)
			}
			sort.Strings(types)

			for _, t := range types {
				out.Printf("%-16s %d\n", t, stats.Entities[t])
			}
			out.Printf("%-16s %d\n", "queries", stats.Queries)
			out.Printf("%-16s %.1f KiB\n", "size", float64(stats.Size)/1024)
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop all cached data",
		Args:  cobra.NoArgs,
		Long: `Drop all cached data.

Nothing is lost except offline access: the next command fetches
everything from the server again. Asks before clearing when run on a
terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			if !force && isatty.IsTerminal(os.Stdin.Fd()) {
				result, err := prompt.Confirm("Clear the entire cache?")
				if err != nil {
					return err
				}
				if !result.Confirmed {
					return nil
				}
			}

			s, err := openCacheDB()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Clear(ctx); err != nil {
				return err
			}
			out.Noteln("cache cleared")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}

func openCacheDB() (*cache.SQLite, error) {
	path, err := storage.CacheDBPath()
	if err != nil {
		return nil, err
	}
	s, err := cache.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("opening cache at %s: %w", path, err)
	}
	return s, nil
}
