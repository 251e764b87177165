package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/jt/internal/format"
	"github.com/raphi011/jt/internal/history"
	"github.com/raphi011/jt/internal/output"
	"github.com/raphi011/jt/internal/ui/static"
)

func newRecentCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "recent",
		Short:   "List recently viewed issues",
		GroupID: GroupBrowse,
		Args:    cobra.NoArgs,
		Example: `  jt recent
  jt recent --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			entries, err := history.Load()
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			if len(entries) == 0 {
				out.Noteln("Nothing viewed yet")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Key,
					format.Truncate(e.Summary, 70),
					format.RelativeTime(e.ViewedAt),
				})
			}
			out.Print(static.RenderTable([]string{"KEY", "SUMMARY", "VIEWED"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many entries")
	return cmd
}
