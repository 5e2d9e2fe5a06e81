package cli

import (
	"fmt"
	"path/filepath"

	"defect-ledger/internal/importer"
	"defect-ledger/internal/ledger"
	"defect-ledger/internal/model"
	"defect-ledger/internal/ui"

	"github.com/spf13/cobra"
)

func (a *App) newCmd() *cobra.Command {
	var opts ledger.TemplateOptions
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create this month's ledger workbook and notice folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("dir") {
				opts.BaseDir = a.cfg.Template.BaseDir
			}
			if !cmd.Flags().Changed("creator") {
				opts.Creator = a.cfg.Template.Creator
			}
			if !cmd.Flags().Changed("title") {
				opts.Title = a.cfg.Template.Title
			}

			path, err := ledger.CreateWorkbook(opts)
			if err != nil {
				return err
			}
			if a.cfg.History.Enabled {
				a.history.Add(path)
			}

			fmt.Fprintf(a.out, "%s Ledger ready: %s\n", okMark, path)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.BaseDir, "dir", "", "Parent folder of the monthly data folder (default template.base_dir)")
	fs.StringVar(&opts.Creator, "creator", "", "作成者 written into the title block (default template.creator)")
	fs.StringVar(&opts.Title, "title", "", "Title written into A1 (default template.title)")
	return cmd
}

func (a *App) sheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "List the sheet names of the workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.file == "" {
				return fmt.Errorf("%w: no workbook selected (use --file or ledger.file)", model.ErrValidation)
			}
			names, err := ledger.Sheets(a.file)
			if err != nil {
				return err
			}
			for i, name := range names {
				fmt.Fprintf(a.out, "%d\t%s\n", i+1, name)
			}
			return nil
		},
	}
}

func (a *App) importCmd() *cobra.Command {
	var (
		opts     importer.Options
		noHeader bool
		quiet    bool
	)
	cmd := &cobra.Command{
		Use:   "import <csv>",
		Short: "Append every row of a CSV file (12 columns in ledger order)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("encoding") {
				opts.Encoding = a.cfg.Import.Encoding
			}
			opts.HasHeader = a.cfg.Import.HasHeader && !noHeader

			pipeline := ui.NewPipeline([]ui.Phase{ui.PhaseReading, ui.PhaseWriting})
			if quiet {
				pipeline.Disable()
			}

			bar := pipeline.NextPhase(1)
			bar.Describe(filepath.Base(args[0]))
			recs, err := importer.ReadRecords(args[0], opts)
			if err != nil {
				return err
			}
			_ = bar.Increment()

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			bar = pipeline.NextPhase(len(recs))
			if err := s.AppendAll(recs, bar); err != nil {
				return err
			}
			pipeline.Finish()

			fmt.Fprintf(a.out, "%s Imported %d entries (%d total)\n", okMark, len(recs), len(s.Records()))
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.Encoding, "encoding", "", "CSV encoding: auto, utf-8 or shift_jis (default import.encoding)")
	fs.BoolVar(&noHeader, "no-header", false, "Treat the first line as data")
	fs.BoolVarP(&quiet, "quiet", "q", false, "Disable progress bars")
	return cmd
}
