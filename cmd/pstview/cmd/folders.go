package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesm/pstview/internal/browser"
)

var foldersCmd = &cobra.Command{
	Use:   "folders <file.pst>",
	Short: "Print the folder tree of an archive",
	Long: `Print every folder of a PST archive in tree order with its index,
indentation by depth, and direct item count. The index is what
'pstview export --folder' expects.

Examples:
  pstview folders archive.pst
  pstview folders --encoding windows-1251 old.pst`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, src, err := openArchive(ctx, args[0])
		if err != nil {
			return err
		}
		defer src.Close()
		defer store.Close()

		root, err := store.RootFolder(ctx)
		if err != nil {
			return fmt.Errorf("open root folder: %w", err)
		}
		nodes, err := browser.FlattenFolders(ctx, root)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d folders\n", store.DisplayName(), len(nodes))
		for i, n := range nodes {
			fmt.Fprintf(out, "%4d  %s%s (%s)\n", i, strings.Repeat("  ", n.Depth), n.Name, n.Summary())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(foldersCmd)
}
