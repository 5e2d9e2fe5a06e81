// Package cli wires the ledger packages into cobra commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"defect-ledger/internal/config"
	"defect-ledger/internal/history"
	"defect-ledger/internal/ledger"
	"defect-ledger/internal/logger"
	"defect-ledger/internal/model"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const (
	appVersion = "1.0.0"
	appDesc    = "Defect ledger (不具合品一覧表) maintenance on xlsx workbooks"
)

// App holds state shared by every command for one invocation
type App struct {
	cfg     *config.Config
	history *history.Store
	out     io.Writer

	configPath string
	verbose    bool
	file       string
	sheet      string
}

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("!")
	bold     = color.New(color.Bold)
)

// NewRootCmd builds the command tree writing results to out
func NewRootCmd(out io.Writer) *cobra.Command {
	a := &App{out: out}

	root := &cobra.Command{
		Use:           "defect-ledger",
		Short:         appDesc,
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "config.yaml", "Path to configuration file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging (DEBUG level)")
	pf.StringVarP(&a.file, "file", "f", "", "Ledger workbook (defaults to ledger.file from config)")
	pf.StringVarP(&a.sheet, "sheet", "s", "", "Sheet name (defaults to the first sheet)")

	root.AddCommand(
		a.newCmd(),
		a.sheetsCmd(),
		a.listCmd(),
		a.addCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.filterCmd(),
		a.importCmd(),
		a.historyCmd(),
		a.noticeCmd(),
		a.verifyCmd(),
		a.configCmd(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	if err := NewRootCmd(os.Stdout).Execute(); err != nil {
		logger.Error("%v", err)
		logger.Close()
		return 1
	}
	return 0
}

func (a *App) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	if err := logger.Init(os.Stderr, cfg.LogPath(), a.verbose || cfg.Log.Verbose); err != nil {
		// Without a log file the CLI is still usable
		fmt.Fprintf(os.Stderr, "WARN: %v\n", err)
		if err := logger.Init(os.Stderr, "", a.verbose); err != nil {
			return err
		}
	}

	historyFile := ""
	if cfg.History.Enabled {
		historyFile = cfg.History.File
	}
	a.history = history.New(historyFile)

	if a.file == "" {
		a.file = cfg.Ledger.File
	}
	if a.sheet == "" {
		a.sheet = cfg.Ledger.Sheet
	}
	return nil
}

// openStore opens the selected workbook and records it in the history
func (a *App) openStore() (*ledger.Store, error) {
	if a.file == "" {
		return nil, fmt.Errorf("%w: no workbook selected (use --file or ledger.file)", model.ErrValidation)
	}

	s := ledger.NewStore()
	t, err := s.Open(a.file, a.sheet)
	if err != nil {
		return nil, err
	}
	if a.cfg.History.Enabled {
		a.history.Add(a.file)
	}

	logger.Debug("Using %s", t)
	return s, nil
}
