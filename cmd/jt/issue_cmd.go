package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/jt/internal/format"
	"github.com/raphi011/jt/internal/history"
	"github.com/raphi011/jt/internal/log"
	"github.com/raphi011/jt/internal/output"
)

func newIssueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issue <key>",
		Short:   "Show one issue",
		GroupID: GroupBrowse,
		Args:    cobra.ExactArgs(1),
		Example: `  jt issue PROJ-123
  jt issue proj-123   # case does not matter`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			key := format.NormalizeIssueKey(args[0])
			if err := format.ValidateIssueKey(key); err != nil {
				return err
			}

			dir, closeStore, err := newDirectory(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := dir.Issue(ctx, key)
			if err != nil {
				return err
			}

			if err := history.Record(key, res.Value.Summary); err != nil {
				log.FromContext(ctx).Debug("recording history failed", "err", err)
			}

			out.Print(renderIssue(res.Value))
			out.Notef("%s\n", provenanceNote(res.Source, res.CachedAt))
			return nil
		},
	}
	return cmd
}
