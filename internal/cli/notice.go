package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"defect-ledger/internal/logger"
	"defect-ledger/internal/model"
	"defect-ledger/internal/pathcodec"

	"github.com/spf13/cobra"
)

func (a *App) noticeCmd() *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "notice <path>",
		Short: "Show the display, raw and stored forms of a notice path",
		Long: `Converts a 不良発生連絡書発行 path between the ¥-separated form shown to
users, the platform form used on disk and the escaped form stored in the
workbook. Stored (escaped) input is decoded first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if pathcodec.IsEscaped(input) {
				decoded, err := pathcodec.Decode(input)
				if err != nil {
					return err
				}
				input = decoded
			}

			raw := pathcodec.Normalize(pathcodec.ToRaw(input))
			fmt.Fprintf(a.out, "display: %s\n", pathcodec.ToDisplay(raw))
			fmt.Fprintf(a.out, "raw:     %s\n", raw)
			fmt.Fprintf(a.out, "stored:  %s\n", pathcodec.Escape(raw))

			if !open {
				return nil
			}
			return openNotice(raw)
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "Open the file with the system viewer")
	return cmd
}

// openNotice hands path to the platform's default application
func openNotice(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", model.ErrNotFound, abs)
		}
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}

	var c *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		c = exec.Command("cmd", "/c", "start", "", abs)
	case "darwin":
		c = exec.Command("open", abs)
	default:
		c = exec.Command("xdg-open", abs)
	}

	logger.Debug("Opening %s", abs)
	if err := c.Start(); err != nil {
		return fmt.Errorf("%w: open %s: %v", model.ErrIO, abs, err)
	}
	return nil
}
