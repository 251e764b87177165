package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/jt/internal/output"
	"github.com/raphi011/jt/internal/ui/static"
)

func newBoardsCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:     "boards",
		Short:   "List boards",
		GroupID: GroupBrowse,
		Args:    cobra.NoArgs,
		Example: `  jt boards
  jt boards -p PROJ`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			dir, closeStore, err := newDirectory(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if project == "" {
				project = cfg.Project
			}

			res, err := dir.Boards(ctx, project)
			if err != nil {
				return err
			}
			if len(res.Value) == 0 {
				out.Noteln("No boards found")
				return nil
			}

			rows := make([][]string, 0, len(res.Value))
			for _, board := range res.Value {
				rows = append(rows, static.BoardTableRow(board))
			}
			out.Print(static.RenderTable(static.BoardHeaders, rows))
			out.Notef("%s\n", provenanceNote(res.Source, res.CachedAt))
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Limit to a project")
	return cmd
}
