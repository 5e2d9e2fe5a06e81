package cli

import (
	"fmt"

	"defect-ledger/internal/ledger"

	"github.com/spf13/cobra"
)

func (a *App) verifyCmd() *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that 累計 and № follow row order, optionally renumbering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			mismatches := ledger.CheckOrdinals(s.Records())
			fmt.Fprintf(a.out, "=== ORDINAL CHECK: %s ===\n", s.Table())
			if len(mismatches) == 0 {
				fmt.Fprintf(a.out, "%s %d entries numbered 1..%d\n", okMark, len(s.Records()), len(s.Records()))
				return nil
			}

			for _, m := range mismatches {
				fmt.Fprintf(a.out, "%s row %d: 累計=%d №=%d, expected %d\n",
					warnMark, m.Row, m.Sequence, m.OrdinalNo, m.Want)
			}

			if !fix {
				return fmt.Errorf("%d entries out of order (run with --fix to renumber)", len(mismatches))
			}
			if err := s.Renumber(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s Renumbered %d entries\n", okMark, len(s.Records()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "Rewrite the ordinal columns")
	return cmd
}
