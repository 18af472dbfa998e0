package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/docxer/docxer/internal/document"
	"github.com/docxer/docxer/internal/llm"
	"github.com/docxer/docxer/internal/markdown"
	"github.com/docxer/docxer/internal/render"
)

// Result is the outcome of one successful run.
type Result struct {
	Markdown string
	Path     string
	Document *render.Document
}

// ReportFunc receives progress updates during a run.
type ReportFunc func(status TaskStatus, progress int, message string)

// Worker generates documentation for one request at a time.
type Worker struct {
	gen       llm.Generator
	renderer  *render.Renderer
	outputDir string
	maxTokens int
	backoff   func(int) time.Duration
	log       *slog.Logger
}

func NewWorker(gen llm.Generator, renderer *render.Renderer, outputDir string, maxTokens int, log *slog.Logger) *Worker {
	return &Worker{
		gen:       gen,
		renderer:  renderer,
		outputDir: outputDir,
		maxTokens: maxTokens,
		backoff:   Backoff,
		log:       log,
	}
}

// Process runs a queued task and records its outcome on the task.
func (w *Worker) Process(ctx context.Context, task *Task) {
	req := task.Request()
	log := w.log.With("task_id", task.ID, "kind", req.Kind, "filename", req.Filename)

	res, err := w.Run(ctx, task.ID, req, task.Advance)
	if err != nil {
		log.Error("documentation failed", "error", err)
		task.Fail(failureMessage(err))
		return
	}
	task.SetMarkdown(res.Markdown)
	task.Complete(res.Path)
	log.Info("documentation written", "path", res.Path, "elements", len(res.Document.Elements))
}

// Run generates, renders and saves documentation for req as
// documentation_<id>.docx in the output directory.
func (w *Worker) Run(ctx context.Context, id string, req Request, report ReportFunc) (*Result, error) {
	if report == nil {
		report = func(TaskStatus, int, string) {}
	}
	log := w.log.With("task_id", id)

	report(StatusProcessing, 10, "Reading uploaded files...")
	prompt := req.Prompt()
	if err := llm.CheckBudget(prompt, w.maxTokens); err != nil {
		return nil, err
	}

	report(StatusProcessing, 30, "Generating documentation with AI...")
	start := time.Now()
	md, err := generateWithRetry(ctx, w.gen, prompt, w.backoff, log)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	log.Info("generation complete", "model", w.gen.Model(), "duration_ms", time.Since(start).Milliseconds(), "chars", len(md))

	report(StatusProcessing, 70, "Creating Word document...")
	blocks := markdown.Scan(md)
	log.Debug("scanned markdown",
		"headings", markdown.CountKind(blocks, markdown.KindHeading),
		"code_blocks", markdown.CountKind(blocks, markdown.KindCodeBlock),
	)
	doc := w.renderer.RenderBlocks(blocks, req.Metadata())

	report(StatusProcessing, 90, "Saving document...")
	path, err := document.Save(w.outputDir, document.FileName(id), doc)
	if err != nil {
		return nil, err
	}
	return &Result{Markdown: md, Path: path, Document: doc}, nil
}

// failureMessage maps an error to the status message shown to clients.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, llm.ErrPromptTooLarge):
		return "Upload is too large to document in one request"
	case llm.IsRetryable(err):
		return "LLM service is busy, please try again later"
	case llm.IsProviderError(err):
		return "LLM generation failed: " + err.Error()
	case document.IsPersistenceError(err):
		return "Failed to save the document"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Processing was cancelled"
	}
	return "Processing failed: " + err.Error()
}
