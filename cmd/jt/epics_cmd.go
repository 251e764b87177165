package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/raphi011/jt/internal/output"
	"github.com/raphi011/jt/internal/ui/static"
)

func newEpicsCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:     "epics",
		Short:   "List a project's epics",
		GroupID: GroupBrowse,
		Args:    cobra.NoArgs,
		Long: `List a project's epics as a table.

Use "jt issues --epic KEY" to see the issues inside one. Installations
that rename the epic link field set epic_field in the config.`,
		Example: `  jt epics -p PROJ
  jt issues --epic PROJ-100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			if project == "" {
				project = cfg.Project
			}
			if project == "" {
				return errors.New("no project given: use -p or set project in the config")
			}

			dir, closeStore, err := newDirectory(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			res, err := dir.Epics(ctx, project)
			if err != nil {
				return err
			}
			if len(res.Value) == 0 {
				out.Noteln("No epics found")
				return nil
			}

			rows := make([][]string, 0, len(res.Value))
			for _, epic := range res.Value {
				rows = append(rows, static.IssueTableRow(epic))
			}
			out.Print(static.RenderTable(static.IssueHeaders, rows))
			out.Notef("%s\n", provenanceNote(res.Source, res.CachedAt))
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project key")
	return cmd
}
