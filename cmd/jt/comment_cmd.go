package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/raphi011/jt/internal/format"
	"github.com/raphi011/jt/internal/output"
	"github.com/raphi011/jt/internal/ui/prompt"
)

func newCommentCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:     "comment <key>",
		Short:   "Comment on an issue",
		GroupID: GroupAct,
		Args:    cobra.ExactArgs(1),
		Example: `  jt comment PROJ-123 -m "deployed to staging"
  jt comment PROJ-123         # type it interactively`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			key := format.NormalizeIssueKey(args[0])
			if err := format.ValidateIssueKey(key); err != nil {
				return err
			}

			body := strings.TrimSpace(message)
			if body == "" {
				if !isatty.IsTerminal(os.Stdin.Fd()) {
					return fmt.Errorf("no comment given and not a terminal; run 'jt comment %s -m <text>'", key)
				}
				result, err := prompt.TextInput("Comment on "+key, "say something useful")
				if err != nil {
					return err
				}
				if result.Cancelled {
					return nil
				}
				body = strings.TrimSpace(result.Value)
			}
			if body == "" {
				return fmt.Errorf("comment is empty")
			}

			dir, closeStore, err := newDirectory(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := dir.AddComment(ctx, key, body); err != nil {
				return err
			}
			out.Notef("commented on %s\n", key)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Comment text")
	return cmd
}
