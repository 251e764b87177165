package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/raphi011/jt/internal/cache"
	"github.com/raphi011/jt/internal/format"
	"github.com/raphi011/jt/internal/jira"
	"github.com/raphi011/jt/internal/output"
	"github.com/raphi011/jt/internal/ui/progress"
	"github.com/raphi011/jt/internal/ui/static"
)

func newIssuesCmd() *cobra.Command {
	var (
		jql     string
		board   int
		project string
		epic    string
		limit   int
	)

	cmd := &cobra.Command{
		Use:     "issues",
		Short:   "List issues",
		Aliases: []string{"ls"},
		GroupID: GroupBrowse,
		Args:    cobra.NoArgs,
		Long: `List issues as a table.

Without flags the configured JQL (or project) decides what to list.
Results come from the local cache when it is fresh; otherwise the
server is asked only for what changed since the last fetch. The line
under the table says which one happened.`,
		Example: `  jt issues                           # configured filter
  jt issues --jql 'status = "To Do"'  # ad-hoc query
  jt issues --board 42                # a board's issues
  jt issues --epic PROJ-100           # an epic's issues
  jt issues -p PROJ --limit 20        # a project's latest 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			dir, closeStore, err := newDirectory(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if jql == "" {
				if project != "" {
					jql = "project = " + project + " ORDER BY updated DESC"
				} else {
					jql = defaultJQL()
				}
			}

			sp := progress.NewSpinner("fetching issues")
			if isatty.IsTerminal(os.Stderr.Fd()) && !quiet {
				sp.Start()
			}

			var res cache.Result[[]jira.IssueSummary]
			switch {
			case epic != "":
				res, err = dir.EpicIssues(ctx, format.NormalizeIssueKey(epic))
			case board != 0:
				res, err = dir.BoardIssues(ctx, board, "")
			default:
				res, err = dir.SearchIssues(ctx, jql)
			}
			sp.Stop()
			if err != nil {
				return err
			}

			issues := res.Value
			if limit > 0 && len(issues) > limit {
				issues = issues[:limit]
			}

			if len(issues) == 0 {
				out.Noteln("No issues found")
				return nil
			}

			rows := make([][]string, 0, len(issues))
			for _, issue := range issues {
				rows = append(rows, static.IssueTableRow(issue))
			}
			out.Print(static.RenderTable(static.IssueHeaders, rows))
			out.Notef("%s\n", provenanceNote(res.Source, res.CachedAt))

			return nil
		},
	}

	cmd.Flags().StringVar(&jql, "jql", "", "JQL filter")
	cmd.Flags().IntVar(&board, "board", 0, "List a board's issues")
	cmd.Flags().StringVar(&epic, "epic", "", "List an epic's issues")
	cmd.Flags().StringVarP(&project, "project", "p", "", "List a project's issues")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many issues")

	return cmd
}
