package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	jtcmd "github.com/raphi011/jt/internal/cmd"
	"github.com/raphi011/jt/internal/format"
	"github.com/raphi011/jt/internal/output"
)

func newOpenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "open <key>",
		Short:   "Open an issue in the browser",
		GroupID: GroupAct,
		Args:    cobra.ExactArgs(1),
		Example: `  jt open PROJ-123`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			key := format.NormalizeIssueKey(args[0])
			if err := format.ValidateIssueKey(key); err != nil {
				return err
			}
			if err := cfg.RequireURL(); err != nil {
				return err
			}

			url := strings.TrimRight(cfg.URL, "/") + "/browse/" + key
			if err := jtcmd.OpenBrowser(ctx, url); err != nil {
				if errors.Is(err, jtcmd.ErrNoOpener) {
					// No browser on this box: the URL is the output.
					out.Println(url)
					return nil
				}
				return err
			}
			out.Notef("opened %s\n", url)
			return nil
		},
	}
	return cmd
}
