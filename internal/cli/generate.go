package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/docxer/docxer/internal/intake"
	"github.com/docxer/docxer/internal/pipeline"
)

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <file|glob>...",
		Short: "Document source files with the configured LLM",
		Long: `Generate documentation for each source file and write it to the output
directory as documentation_<name>.docx.

Examples:
  docxer generate server.js
  docxer generate 'src/**/*.ts' --output-dir docs`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			paths, err := expandArgs(args)
			if err != nil {
				return err
			}
			orch, gen, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer gen.Close()

			failed := 0
			for _, path := range paths {
				out, err := documentFile(cmd.Context(), a, orch, path)
				if err != nil {
					a.log.Error("documentation failed", "file", path, "error", err)
					failed++
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(paths))
			}
			return nil
		},
	}
}

// expandArgs resolves doublestar patterns. Plain paths are kept as given so
// a missing file is reported when it is read.
func expandArgs(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, arg := range args {
		matches := []string{arg}
		if strings.ContainsAny(arg, "*?[{") {
			var err error
			matches, err = doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match %q", arg)
			}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// documentID names the output for a source file, e.g. app.js -> app-js.
func documentID(path string) string {
	if id := intake.Slugify(filepath.Base(path)); id != "" {
		return id
	}
	return "source"
}

func documentFile(ctx context.Context, a *app, orch *pipeline.Orchestrator, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	name := filepath.Base(path)
	code, err := intake.ReadSource(name, f, a.cfg.MaxUploadBytes)
	if err != nil {
		var ve *intake.ValidationError
		if errors.As(err, &ve) {
			return "", fmt.Errorf("%s: %s", name, ve.Message)
		}
		return "", err
	}

	log := a.log.With("file", path)
	res, err := orch.Generate(ctx, documentID(path), pipeline.FileRequest(name, code),
		func(_ pipeline.TaskStatus, progress int, message string) {
			log.Debug(message, "progress", progress)
		})
	if err != nil {
		return "", err
	}
	log.Info("documentation written", "path", res.Path)
	return res.Path, nil
}
