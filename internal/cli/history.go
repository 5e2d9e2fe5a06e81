package cli

import (
	"fmt"

	"defect-ledger/internal/logger"

	"github.com/spf13/cobra"
)

func (a *App) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage the recently opened workbooks",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show recently opened workbooks, most recent first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				items := a.history.Items()
				if len(items) == 0 {
					fmt.Fprintln(a.out, "No history")
					return nil
				}
				for i, item := range items {
					fmt.Fprintf(a.out, "%2d  %s\n", i+1, item)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <path>",
			Short: "Forget one workbook",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a.history.Remove(args[0])
				fmt.Fprintf(a.out, "%s Removed %s\n", okMark, args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget every workbook",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a.history.Clear()
				fmt.Fprintf(a.out, "%s History cleared\n", okMark)
				return nil
			},
		},
	)
	return cmd
}

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.cfg.Print()
			fmt.Fprintf(a.out, "Active log:       %s (verbose: %v)\n", logger.GetLogFilePath(), logger.IsVerbose())
		},
	}
}
