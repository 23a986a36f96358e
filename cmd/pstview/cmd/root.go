package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesm/pstview/internal/config"
)

var (
	cfgFile  string
	homeDir  string
	verbose  bool
	encoding string // overrides store.ansi_encoding
	cfg      *config.Config
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pstview",
	Short: "Browse Outlook PST archives in the terminal",
	Long: `pstview opens an Outlook PST archive read-only and lets you walk its
folders, read messages and contacts, inspect raw properties, save
attachments, and export items as EML or vCard files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		if cmd.Name() == "version" {
			return nil
		}

		// Set up logging
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		// Load config (--home is passed through so it influences
		// where config.toml is loaded from, like PSTVIEW_HOME).
		var err error
		cfg, err = config.Load(cfgFile, homeDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if encoding != "" {
			cfg.Store.ANSIEncoding = encoding
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("--encoding: %w", err)
			}
		}
		return nil
	},
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context,
// enabling graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.pstview/config.toml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "home directory (overrides PSTVIEW_HOME)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&encoding, "encoding", "", "legacy ANSI encoding of the archive (overrides store.ansi_encoding)")
}
