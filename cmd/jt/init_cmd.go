package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/jt/internal/config"
	"github.com/raphi011/jt/internal/output"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Write a starter config file",
		GroupID: GroupMaintain,
		Args:    cobra.NoArgs,
		Example: `  jt init
  jt init --force   # overwrite an existing config`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			path, err := config.Init(force)
			if err != nil {
				return err
			}
			out.Notef("wrote %s\n", path)
			out.Noteln("set server url and credentials there, then run 'jt doctor'")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	return cmd
}
