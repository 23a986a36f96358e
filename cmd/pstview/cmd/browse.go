package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/wesm/pstview/internal/browser"
	"github.com/wesm/pstview/internal/fileutil"
	"github.com/wesm/pstview/internal/pstfile"
	"github.com/wesm/pstview/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse [file.pst]",
	Short: "Open the interactive terminal browser",
	Long: `Open an interactive terminal UI for browsing a PST archive.

When a file is given it is opened immediately; otherwise enter a path on
the open screen.

Navigation:
  ↑/k, ↓/j    Move up/down
  PgUp/PgDn   Page up/down
  Enter       Open folder, message, or item
  Esc         Go back
  n           Jump to any level of the navigation stack
  p           Properties of the folder or message
  1-9         Run an export action (message view)
  E           Eject the archive
  q           Quit

Downloads and exports are written to export.dir (default ~/.pstview/exports).
Log output goes to ~/.pstview/pstview.log while the browser is running.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return errors.New("browse needs an interactive terminal; use 'pstview folders' or 'pstview export' instead")
		}

		// Log lines written to stderr would corrupt the screen.
		if err := fileutil.MkdirAll(cfg.HomeDir, 0o700); err != nil {
			return fmt.Errorf("create home directory %s: %w", cfg.HomeDir, err)
		}
		logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		tuiLogger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))

		resolver, err := newResolver()
		if err != nil {
			return err
		}

		session := browser.New(browser.Options{
			Opener:   pstfile.Open,
			Resolver: resolver,
			Sink:     newSink("", tuiLogger),
			Logger:   tuiLogger,
			Encoding: cfg.Store.ANSIEncoding,
			Context:  cmd.Context(),
		})
		defer session.Close()
		if len(args) == 1 {
			session.SetSource(args[0])
		}

		model := tui.New(session, tui.Options{Version: Version})
		p := tea.NewProgram(model,
			tea.WithAltScreen(),
			tea.WithOutput(os.Stdout),
			tea.WithContext(cmd.Context()),
		)

		restore := redirectStdout(logFile)
		_, err = p.Run()
		restore()
		if err != nil {
			if errors.Is(err, tea.ErrProgramKilled) && cmd.Context().Err() != nil {
				return cmd.Context().Err()
			}
			return fmt.Errorf("run tui: %w", err)
		}
		return nil
	},
}

// redirectStdout points os.Stdout at w until restore is called. go-pst
// prints parser diagnostics with fmt.Printf, which would draw over the
// screen the program owns.
func redirectStdout(w *os.File) (restore func()) {
	orig := os.Stdout
	os.Stdout = w
	return func() { os.Stdout = orig }
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
