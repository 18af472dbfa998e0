package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docxer/docxer/internal/document"
	"github.com/docxer/docxer/internal/intake"
	"github.com/docxer/docxer/internal/markdown"
	"github.com/docxer/docxer/internal/pipeline"
	"github.com/docxer/docxer/internal/render"
)

func newRenderCmd() *cobra.Command {
	var title, id string
	cmd := &cobra.Command{
		Use:   "render <markdown-file>",
		Short: "Render a markdown file to .docx without calling an LLM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			base := filepath.Base(args[0])
			if id == "" {
				id = intake.Slugify(strings.TrimSuffix(base, filepath.Ext(base)))
			}
			if id == "" {
				return fmt.Errorf("cannot derive a document id from %q; use --id", base)
			}

			doc := pipeline.NewRenderer(a.cfg).Render(string(src), render.Metadata{Title: title, Source: base})
			path, err := document.Save(a.cfg.OutputDir, document.FileName(id), doc)
			if err != nil {
				return err
			}
			a.log.Debug("rendered", "path", path, "elements", len(doc.Elements))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "document title")
	cmd.Flags().StringVar(&id, "id", "", "output name, written as documentation_<id>.docx")
	return cmd
}

func newInspectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <docx>",
		Short: "Print the outline of a generated document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outline, err := document.InspectFile(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(outline)
			}
			printOutline(cmd.OutOrStdout(), outline)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the outline as JSON")
	return cmd
}

func printOutline(w io.Writer, o *document.Outline) {
	for _, it := range o.Items {
		switch it.Kind {
		case document.ItemTitle:
			fmt.Fprintf(w, "%s\n", it.Text)
		case document.ItemSubtitle:
			fmt.Fprintf(w, "  %s\n", it.Text)
		case document.ItemHeading:
			fmt.Fprintf(w, "%s %s\n", strings.Repeat("#", it.Level), it.Text)
		case document.ItemBullet:
			fmt.Fprintf(w, "  - %s\n", it.Text)
		case document.ItemNumbered:
			fmt.Fprintf(w, "  %d. %s\n", it.Ordinal, it.Text)
		case document.ItemCodeLabel:
			fmt.Fprintf(w, "  [%s]\n", it.Text)
		case document.ItemCode:
			for _, line := range it.Lines {
				fmt.Fprintf(w, "    %s\n", line)
			}
		default:
			fmt.Fprintf(w, "%s\n", it.Text)
		}
	}
}

func newPreviewCmd() *cobra.Command {
	var fragment bool
	cmd := &cobra.Command{
		Use:   "preview <markdown-file>",
		Short: "Write an HTML preview of a markdown file to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var out string
			if fragment {
				out, err = markdown.PreviewHTML(string(src))
			} else {
				out, err = markdown.PreviewPage(filepath.Base(args[0]), string(src))
			}
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&fragment, "fragment", false, "omit the surrounding HTML page")
	return cmd
}
