package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/raphi011/jt/internal/format"
	"github.com/raphi011/jt/internal/output"
	"github.com/raphi011/jt/internal/ui/prompt"
)

func newMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "move <key> [status]",
		Short:   "Transition an issue to another status",
		Aliases: []string{"mv"},
		GroupID: GroupAct,
		Args:    cobra.RangeArgs(1, 2),
		Long: `Transition an issue to another status.

With a status argument the matching workflow transition is applied
directly. Without one, the transitions available right now are listed
to pick from; that needs a terminal.`,
		Example: `  jt move PROJ-123 "In Progress"
  jt move PROJ-123            # pick interactively`,
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

			var status string
			if len(args) == 2 {
				status = args[1]
			} else {
				if !isatty.IsTerminal(os.Stdin.Fd()) {
					return fmt.Errorf("no status given and not a terminal; run 'jt move %s <status>'", key)
				}

				// Transitions are always fetched live: what is allowed
				// depends on the workflow state right now.
				transitions, err := dir.Client().ListTransitions(ctx, key)
				if err != nil {
					return err
				}
				if len(transitions) == 0 {
					return fmt.Errorf("no transitions available for %s", key)
				}

				options := make([]string, len(transitions))
				for i, t := range transitions {
					options[i] = fmt.Sprintf("%s → %s", t.Name, t.To)
				}
				result, err := prompt.Select("Move "+key+" to", options)
				if err != nil {
					return err
				}
				if result.Cancelled {
					return nil
				}
				status = transitions[result.Index].To
			}

			if err := dir.MoveIssue(ctx, key, status); err != nil {
				return err
			}
			out.Notef("%s moved to %s\n", key, status)
			return nil
		},
	}
	return cmd
}
