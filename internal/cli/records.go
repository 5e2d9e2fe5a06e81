package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"defect-ledger/internal/model"
	"defect-ledger/internal/pathcodec"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const maxCellWidth = 24

// recordFlags binds one flag per editable ledger column
type recordFlags struct {
	month, date, category, event, primary, secondary string
	part, supplier, notice, incident                 string
}

func (rf *recordFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&rf.month, "month", "", "発生月 (occurrence month)")
	fs.StringVar(&rf.date, "date", "", "発生日 (occurrence date, YYYY/MM/DD)")
	fs.StringVar(&rf.category, "category", "", "項目 (category)")
	fs.StringVar(&rf.event, "event", "", "事象 (event)")
	fs.StringVar(&rf.primary, "primary", "", "事象（一次） (primary event)")
	fs.StringVar(&rf.secondary, "secondary", "", "事象（二次） (secondary event)")
	fs.StringVar(&rf.part, "part", "", "品番 (part number)")
	fs.StringVar(&rf.supplier, "supplier", "", "サプライヤー名 (supplier)")
	fs.StringVar(&rf.notice, "notice", "", "不良発生連絡書発行 (notice path, ¥ or / separated)")
	fs.StringVar(&rf.incident, "incident", "", "不良発生№ (incident number)")
}

// apply overlays the flags the user actually set onto rec
func (rf *recordFlags) apply(fs *pflag.FlagSet, rec *model.Record) error {
	set := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("month", &rec.OccurrenceMonth, rf.month)
	set("date", &rec.OccurrenceDate, rf.date)
	set("category", &rec.Category, rf.category)
	set("event", &rec.Event, rf.event)
	set("primary", &rec.EventPrimary, rf.primary)
	set("secondary", &rec.EventSecondary, rf.secondary)
	set("part", &rec.PartNumber, rf.part)
	set("supplier", &rec.SupplierName, rf.supplier)
	set("incident", &rec.IncidentNo, rf.incident)
	if fs.Changed("notice") {
		if !utf8.ValidString(rf.notice) {
			return fmt.Errorf("%w: notice path is not valid UTF-8: %q", model.ErrValidation, rf.notice)
		}
		rec.NoticePath = pathcodec.ToRaw(rf.notice)
	}
	return nil
}

func (a *App) listCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show every entry of the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			printRecords(a.out, s.Table().Columns, s.Records(), raw)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print notice paths with the platform separator instead of ¥")
	return cmd
}

func (a *App) addCmd() *cobra.Command {
	var rf recordFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append an entry and renumber the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			var rec model.Record
			if err := rf.apply(cmd.Flags(), &rec); err != nil {
				return err
			}
			if err := s.Append(rec); err != nil {
				return err
			}

			recs := s.Records()
			fmt.Fprintf(a.out, "%s Added entry №%d\n", okMark, len(recs))
			return nil
		},
	}
	rf.bind(cmd.Flags())
	return cmd
}

func (a *App) updateCmd() *cobra.Command {
	var (
		rf  recordFlags
		row int
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change fields of the entry on a row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			rec, ok := findRow(s.Records(), row)
			if !ok {
				return fmt.Errorf("%w: no entry on row %d", model.ErrNotFound, row)
			}
			if err := rf.apply(cmd.Flags(), &rec); err != nil {
				return err
			}
			if err := s.UpdateAt(row, rec); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s Updated row %d\n", okMark, row)
			return nil
		},
	}
	cmd.Flags().IntVar(&row, "row", 0, "Physical row number of the entry (required)")
	_ = cmd.MarkFlagRequired("row")
	rf.bind(cmd.Flags())
	return cmd
}

func (a *App) deleteCmd() *cobra.Command {
	var row int
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the entry on a row and renumber the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.DeleteAt(row); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s Deleted row %d (%d entries left)\n", okMark, row, len(s.Records()))
			return nil
		},
	}
	cmd.Flags().IntVar(&row, "row", 0, "Physical row number of the entry (required)")
	_ = cmd.MarkFlagRequired("row")
	return cmd
}

func findRow(records []model.Record, row int) (model.Record, bool) {
	for _, rec := range records {
		if rec.Row == row {
			return rec, true
		}
	}
	return model.Record{}, false
}

// printRecords renders records as an aligned table prefixed with the row number
func printRecords(w io.Writer, columns []string, records []model.Record, raw bool) {
	header := append([]string{"Row"}, columns...)
	lines := make([][]string, 0, len(records))
	for _, rec := range records {
		values := rec.Values()
		if !raw {
			values[model.ColNoticePath] = pathcodec.ToDisplay(values[model.ColNoticePath])
		}
		lines = append(lines, append([]string{strconv.Itoa(rec.Row)}, values...))
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, line := range lines {
		for i, v := range line {
			if i < len(widths) {
				widths[i] = max(widths[i], min(runewidth.StringWidth(v), maxCellWidth))
			}
		}
	}

	bold.Fprintln(w, formatLine(header, widths))
	for _, line := range lines {
		fmt.Fprintln(w, formatLine(line, widths))
	}
	fmt.Fprintf(w, "%d entries\n", len(records))
}

func formatLine(values []string, widths []int) string {
	var b strings.Builder
	for i, w := range widths {
		v := ""
		if i < len(values) {
			v = runewidth.Truncate(values[i], maxCellWidth, "…")
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(runewidth.FillRight(v, w))
	}
	return strings.TrimRight(b.String(), " ")
}
