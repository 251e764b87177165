package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/jt/internal/doctor"
	"github.com/raphi011/jt/internal/output"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "doctor",
		Short:   "Diagnose configuration and connectivity",
		GroupID: GroupMaintain,
		Args:    cobra.NoArgs,
		Long: `Diagnose the jt setup.

Checks that the config parses, auth material is present, the server
answers, and the cache database opens.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			var failed int
			for _, r := range doctor.RunAll(ctx, doctor.Checks(cfg)) {
				if r.Err != nil {
					out.Printf("✗ %-8s %v\n", r.Name, r.Err)
					failed++
					continue
				}
				out.Printf("✓ %-8s %s\n", r.Name, r.Detail)
			}

			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}
