package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/raphi011/jt/internal/ui"
)

func newBrowseCmd() *cobra.Command {
	var (
		jql     string
		board   int
		project string
		epics   bool
	)

	cmd := &cobra.Command{
		Use:     "browse",
		Short:   "Browse boards and issues interactively",
		GroupID: GroupBrowse,
		Args:    cobra.NoArgs,
		Long: `Open the interactive browser.

Without flags it starts at the board list. --jql or --board jump
straight to an issue list. Data is served from the cache first and
refreshed in the background; the footer of every screen says whether
you are looking at live, cached, or offline data.`,
		Example: `  jt browse                          # board list
  jt browse --board 42               # one board's issues
  jt browse --jql 'project = PROJ'   # issues matching a query
  jt browse --epics -p PROJ          # a project's epics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if epics {
				return runBrowseEpics(cmd.Context(), project)
			}
			return runBrowse(cmd.Context(), jql, board, project)
		},
	}

	cmd.Flags().StringVar(&jql, "jql", "", "Start at the issues matching this JQL")
	cmd.Flags().IntVar(&board, "board", 0, "Start at this board's issues")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Limit the board list to a project")
	cmd.Flags().BoolVar(&epics, "epics", false, "Start at the project's epic list")

	return cmd
}

func runBrowseEpics(ctx context.Context, project string) error {
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

	return ui.BrowseEpics(dir, cfg.URL, project)
}

func runBrowse(ctx context.Context, jql string, board int, project string) error {
	dir, closeStore, err := newDirectory(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	switch {
	case jql != "":
		return ui.BrowseIssues(dir, cfg.URL, "Issues", jql)
	case board != 0:
		return ui.BrowseBoard(dir, cfg.URL, board)
	default:
		if project == "" {
			project = cfg.Project
		}
		return ui.Browse(dir, cfg.URL, project)
	}
}
