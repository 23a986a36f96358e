package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesm/pstview/internal/browser"
	"github.com/wesm/pstview/internal/export"
)

var (
	exportFolder  int
	exportMessage int
	exportFormat  string
	exportOutput  string
)

// formatExtensions maps --format values to the file extension of the
// matching export action.
var formatExtensions = map[string]string{
	"eml": ".eml",
	"vcf": ".vcf",
	"msg": ".msg",
}

var exportCmd = &cobra.Command{
	Use:   "export <file.pst>",
	Short: "Export one item without the browser",
	Long: `Export a single item of a PST archive as EML (mail notes) or vCard
(contacts). Use 'pstview folders' to find the folder index; message
indexes count from 0 within the folder.

Examples:
  pstview export archive.pst --folder 3 --message 0
  pstview export archive.pst --folder 5 --message 12 --format vcf -o ./cards`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ext, ok := formatExtensions[strings.ToLower(exportFormat)]
		if !ok {
			return fmt.Errorf("unknown format %q (want eml, vcf or msg)", exportFormat)
		}

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
		if exportFolder < 0 || exportFolder >= len(nodes) {
			return fmt.Errorf("folder index %d out of range (archive has %d folders)", exportFolder, len(nodes))
		}
		node := nodes[exportFolder]

		msgs, err := node.Folder.Messages(ctx)
		if err != nil {
			return fmt.Errorf("list messages in %q: %w", node.Name, err)
		}
		if exportMessage < 0 || exportMessage >= len(msgs) {
			return fmt.Errorf("message index %d out of range (%q has %d items)", exportMessage, node.Name, len(msgs))
		}
		msg := msgs[exportMessage]

		resolver, err := newResolver()
		if err != nil {
			return err
		}
		action, err := findAction(resolver.Actions(msg, true), ext)
		if err != nil {
			return fmt.Errorf("%q: %w", msg.Subject(), err)
		}

		data, err := action.Run(ctx)
		if err != nil {
			return err
		}
		path, err := newSink(exportOutput, logger).Deliver(ctx, data, action.FileName, action.MediaType)
		if err != nil {
			return fmt.Errorf("%s: %w", action.Label, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), export.FormatResult(path, len(data)))
		return nil
	},
}

var errFormatUnavailable = errors.New("format not available for this item")

// findAction returns the action whose file name ends in ext.
func findAction(actions []export.Action, ext string) (export.Action, error) {
	for _, a := range actions {
		if strings.HasSuffix(a.FileName, ext) {
			return a, nil
		}
	}
	labels := make([]string, len(actions))
	for i, a := range actions {
		labels[i] = a.Label
	}
	if len(labels) == 0 {
		return export.Action{}, errFormatUnavailable
	}
	return export.Action{}, fmt.Errorf("%w (available: %s)", errFormatUnavailable, strings.Join(labels, ", "))
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().IntVar(&exportFolder, "folder", 0, "folder index from 'pstview folders'")
	exportCmd.Flags().IntVar(&exportMessage, "message", 0, "item index within the folder")
	exportCmd.Flags().StringVar(&exportFormat, "format", "eml", "export format: eml, vcf or msg")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output directory (default: export.dir)")
	_ = exportCmd.MarkFlagRequired("folder")
	_ = exportCmd.MarkFlagRequired("message")
}
