package cli

import (
	"fmt"
	"strings"

	"defect-ledger/internal/filter"
	"defect-ledger/internal/ledger"
	"defect-ledger/internal/model"
	"defect-ledger/internal/ui"

	"github.com/spf13/cobra"
)

func (a *App) filterCmd() *cobra.Command {
	var (
		p       filter.Predicates
		export  string
		choices bool
		raw     bool
		quiet   bool
	)
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Show entries matching every given condition, optionally exporting them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			records := s.Records()
			if choices {
				printChoices(a, filter.UniqueValues(records))
				return nil
			}

			pipeline := ui.NewPipeline([]ui.Phase{ui.PhaseFiltering, ui.PhaseExporting})
			if quiet || export == "" {
				pipeline.Disable()
			}

			bar := pipeline.NextPhase(len(records))
			matched := records
			if !p.IsEmpty() {
				matched = make([]model.Record, 0, len(records))
				for _, rec := range records {
					if filter.Match(rec, p) {
						matched = append(matched, rec)
					}
					_ = bar.Increment()
				}
			}

			if export == "" {
				printRecords(a.out, s.Table().Columns, matched, raw)
				return nil
			}

			bar = pipeline.NextPhase(len(matched))
			if err := ledger.Export(export, s.Table().Columns, matched, bar); err != nil {
				return err
			}
			pipeline.Finish()

			fmt.Fprintf(a.out, "%s Exported %d of %d entries to %s\n", okMark, len(matched), len(records), export)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&p.DateFrom, "from", "", "発生日 lower bound, inclusive (YYYY/MM/DD)")
	fs.StringVar(&p.DateTo, "to", "", "発生日 upper bound, inclusive (YYYY/MM/DD)")
	fs.StringVar(&p.Category, "category", "", "項目 contains")
	fs.StringVar(&p.Event, "event", "", "事象 contains")
	fs.StringVar(&p.EventPrimary, "primary", "", "事象（一次） contains")
	fs.StringVar(&p.EventSecondary, "secondary", "", "事象（二次） contains")
	fs.StringVar(&p.PartNumber, "part", "", "品番 contains")
	fs.StringVar(&p.SupplierName, "supplier", "", "サプライヤー名 contains")
	fs.StringVar(&p.IncidentNo, "incident", "", "不良発生№ contains")
	fs.StringVarP(&p.FreeText, "text", "t", "", "Any field contains")
	fs.StringVarP(&export, "export", "o", "", "Write matches to a new xlsx file")
	fs.BoolVar(&choices, "choices", false, "List the distinct values of the choice columns instead")
	fs.BoolVar(&raw, "raw", false, "Print notice paths with the platform separator instead of ¥")
	fs.BoolVarP(&quiet, "quiet", "q", false, "Disable progress bars")
	return cmd
}

func printChoices(a *App, c filter.Choices) {
	groups := []struct {
		label  string
		values []string
	}{
		{"項目", c.Categories},
		{"事象", c.Events},
		{"事象（一次）", c.EventPrimaries},
		{"事象（二次）", c.EventSecondaries},
		{"サプライヤー名", c.Suppliers},
	}
	for _, g := range groups {
		bold.Fprintf(a.out, "%s:", g.label)
		if len(g.values) == 0 {
			fmt.Fprintln(a.out, " -")
			continue
		}
		fmt.Fprintf(a.out, " %s\n", strings.Join(g.values, ", "))
	}
}
