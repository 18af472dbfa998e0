package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docxer/docxer/internal/config"
	"github.com/docxer/docxer/internal/document"
	"github.com/docxer/docxer/internal/llm"
	"github.com/docxer/docxer/internal/render"
	"github.com/docxer/docxer/internal/session"
)

const answer = "## Overview\nParses files.\n\n## Functions\n- **parse**: reads input\n```python\ndef parse():\n    pass\n```\n"

// scriptedGenerator returns errs in order, then text.
type scriptedGenerator struct {
	mu      sync.Mutex
	errs    []error
	text    string
	calls   int
	prompts []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		return "", err
	}
	return g.text, nil
}

func (g *scriptedGenerator) Model() string { return "scripted" }
func (g *scriptedGenerator) Close()        {}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noBackoff(int) time.Duration { return 0 }

func testWorker(t *testing.T, gen llm.Generator, maxTokens int) (*Worker, string) {
	t.Helper()
	dir := t.TempDir()
	w := NewWorker(gen, render.New(render.Options{}), dir, maxTokens, discardLogger())
	w.backoff = noBackoff
	return w, dir
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		WorkerCount:     1,
		MaxQueueSize:    4,
		OutputDir:       t.TempDir(),
		TaskTTL:         time.Hour,
		MaxPromptTokens: 100000,
		CodeStyle:       "github",
	}
}

func TestTask_Lifecycle(t *testing.T) {
	task := NewTask(FileRequest("main.py", "print('hello world')"))
	if task.Status != StatusUploaded {
		t.Fatalf("expected uploaded, got %q", task.Status)
	}
	if task.ID == "" {
		t.Fatal("expected generated id")
	}

	task.Advance(StatusProcessing, 30, "generating")
	task.Advance(StatusProcessing, 10, "stale update")
	snap := task.Snapshot()
	if snap.Progress != 30 {
		t.Errorf("expected progress to stay at 30, got %d", snap.Progress)
	}
	if snap.Message != "stale update" {
		t.Errorf("expected latest message, got %q", snap.Message)
	}

	task.Advance(StatusProcessing, 250, "overflow")
	if got := task.Snapshot().Progress; got != 100 {
		t.Errorf("expected progress clamped to 100, got %d", got)
	}

	task.Complete("/out/documentation_x.docx")
	snap = task.Snapshot()
	if snap.Status != StatusCompleted || snap.FilePath != "/out/documentation_x.docx" {
		t.Errorf("unexpected completed snapshot %+v", snap)
	}
	if snap.Kind != KindFile || snap.Filename != "main.py" {
		t.Errorf("expected request details in snapshot, got %+v", snap)
	}
}

func TestTaskStore_TTLCleanup(t *testing.T) {
	store := NewTaskStore(time.Minute)

	old := NewTask(FileRequest("a.py", ""))
	old.UpdatedAt = time.Now().Add(-2 * time.Minute)
	fresh := NewTask(FileRequest("b.py", ""))
	store.Put(old)
	store.Put(fresh)

	if n := store.Cleanup(); n != 1 {
		t.Errorf("expected 1 evicted task, got %d", n)
	}
	if store.Get(old.ID) != nil {
		t.Error("expected expired task to be removed")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh task to remain")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 task left, got %d", store.Len())
	}
}

func TestGenerateWithRetry(t *testing.T) {
	busy := &llm.RetryableError{StatusCode: 429, Message: "slow down"}
	empty := &llm.ProviderError{Provider: "test", Message: "empty response from LLM"}

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"first try", nil, 1, false},
		{"recovers after retries", []error{busy, busy}, 3, false},
		{"gives up after max retries", []error{busy, busy, busy, busy}, MaxRetries, true},
		{"permanent error is not retried", []error{empty}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scriptedGenerator{errs: tt.errs, text: answer}
			text, err := generateWithRetry(context.Background(), gen, "p", noBackoff, discardLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && text != answer {
				t.Errorf("unexpected text %q", text)
			}
			if gen.callCount() != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, gen.callCount())
			}
		})
	}
}

func TestGenerateWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &scriptedGenerator{errs: []error{&llm.RetryableError{StatusCode: 503}}}
	slow := func(int) time.Duration { return time.Hour }

	_, err := generateWithRetry(ctx, gen, "p", slow, discardLogger())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBackoff(t *testing.T) {
	for attempt, base := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		d := Backoff(attempt)
		if d < base || d >= base+base/2 {
			t.Errorf("attempt %d: backoff %v outside [%v, %v)", attempt, d, base, base+base/2)
		}
	}
	if d := Backoff(10); d > 45*time.Second {
		t.Errorf("expected backoff capped, got %v", d)
	}
}

func TestWorker_RunWritesDocument(t *testing.T) {
	gen := &scriptedGenerator{text: answer}
	w, dir := testWorker(t, gen, 100000)

	var progress []int
	res, err := w.Run(context.Background(), "t1", FileRequest("parser.py", "def parse(): pass"), func(_ TaskStatus, p int, _ string) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.Path != filepath.Join(dir, "documentation_t1.docx") {
		t.Errorf("unexpected path %q", res.Path)
	}
	if res.Markdown != answer {
		t.Errorf("expected raw markdown kept")
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Errorf("progress went backwards: %v", progress)
		}
	}

	outline, err := document.InspectFile(res.Path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(outline.Headings()) != 2 {
		t.Errorf("expected 2 headings, got %+v", outline.Headings())
	}
	if outline.Count(document.ItemCode) != 1 {
		t.Errorf("expected 1 code block, got %d", outline.Count(document.ItemCode))
	}
	if !strings.Contains(gen.prompts[0], "parser.py") {
		t.Error("expected filename in prompt")
	}
}

func TestWorker_PromptTooLarge(t *testing.T) {
	gen := &scriptedGenerator{text: answer}
	w, _ := testWorker(t, gen, 50)

	task := NewTask(FileRequest("big.py", strings.Repeat("token ", 500)))
	w.Process(context.Background(), task)

	snap := task.Snapshot()
	if snap.Status != StatusError {
		t.Fatalf("expected error status, got %q", snap.Status)
	}
	if gen.callCount() != 0 {
		t.Error("expected no LLM call for an oversized prompt")
	}
}

func TestWorker_ProviderErrorFailsTask(t *testing.T) {
	gen := &scriptedGenerator{errs: []error{&llm.ProviderError{Provider: "test", Message: "empty response from LLM"}}}
	w, dir := testWorker(t, gen, 0)

	task := NewTask(FileRequest("main.go", "package main"))
	w.Process(context.Background(), task)

	snap := task.Snapshot()
	if snap.Status != StatusError {
		t.Fatalf("expected error status, got %q", snap.Status)
	}
	if !strings.Contains(snap.Message, "empty response") {
		t.Errorf("expected provider message, got %q", snap.Message)
	}
	if task.Markdown() != "" {
		t.Error("expected no markdown on failure")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no output file, got %d", len(entries))
	}
}

func TestWorker_PersistenceFailure(t *testing.T) {
	gen := &scriptedGenerator{text: answer}
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewWorker(gen, render.New(render.Options{}), blocker, 0, discardLogger())

	task := NewTask(FileRequest("main.go", "package main"))
	w.Process(context.Background(), task)

	snap := task.Snapshot()
	if snap.Status != StatusError || snap.Message != "Failed to save the document" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestOrchestrator_ProcessesSubmittedTask(t *testing.T) {
	cfg := testConfig(t)
	gen := &scriptedGenerator{text: answer}
	orch := NewOrchestrator(cfg, gen, session.NewStore(time.Hour), discardLogger())
	orch.Start(context.Background())
	defer orch.Stop()

	task := NewTask(FileRequest("main.py", "print('hello world')"))
	if err := orch.Submit(task); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if orch.GetTask(task.ID) != task {
		t.Fatal("expected task registered")
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := task.Snapshot().Status; s == StatusCompleted || s == StatusError {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	snap := task.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %+v", snap)
	}
	if _, err := os.Stat(snap.FilePath); err != nil {
		t.Errorf("expected document on disk: %v", err)
	}
	if task.Markdown() != answer {
		t.Error("expected markdown stored on task")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxQueueSize = 1
	orch := NewOrchestrator(cfg, &scriptedGenerator{text: answer}, nil, discardLogger())

	first := NewTask(FileRequest("a.py", "x"))
	second := NewTask(FileRequest("b.py", "y"))
	if err := orch.Submit(first); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := orch.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if second.Snapshot().Status != StatusError {
		t.Errorf("expected rejected task marked as error")
	}
	if orch.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", orch.QueueDepth())
	}

	orch.Stop()
	orch.Stop()
	if snap := first.Snapshot(); snap.Status != StatusError || snap.Message != "Server is shutting down" {
		t.Errorf("expected never-started task failed on stop, got %s %q", snap.Status, snap.Message)
	}
	if err := orch.Submit(NewTask(FileRequest("c.py", "z"))); err == nil {
		t.Error("expected submit after stop to fail")
	}
}

// blockingGenerator holds every call until its context is cancelled.
type blockingGenerator struct {
	started chan struct{}
}

func (g *blockingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.started <- struct{}{}
	<-ctx.Done()
	return "", ctx.Err()
}

func (g *blockingGenerator) Model() string { return "blocking" }
func (g *blockingGenerator) Close()        {}

func TestOrchestrator_StopFailsQueuedTasks(t *testing.T) {
	cfg := testConfig(t)
	gen := &blockingGenerator{started: make(chan struct{}, 1)}
	orch := NewOrchestrator(cfg, gen, nil, discardLogger())
	orch.Start(context.Background())

	busy := NewTask(FileRequest("a.py", "x"))
	if err := orch.Submit(busy); err != nil {
		t.Fatalf("submit: %v", err)
	}
	select {
	case <-gen.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first task")
	}

	queued := []*Task{NewTask(FileRequest("b.py", "y")), NewTask(FileRequest("c.py", "z"))}
	for _, task := range queued {
		if err := orch.Submit(task); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		orch.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return")
	}

	for _, task := range queued {
		snap := task.Snapshot()
		if snap.Status != StatusError || snap.Message != "Server is shutting down" {
			t.Errorf("task %s: expected shutdown failure, got %s %q", snap.Filename, snap.Status, snap.Message)
		}
	}
	if orch.QueueDepth() != 0 {
		t.Errorf("expected empty queue after stop, got %d", orch.QueueDepth())
	}
}

func TestOrchestrator_CleanupEvictsSessions(t *testing.T) {
	sessions := session.NewStore(time.Nanosecond)
	sessions.Create(session.KindReact)
	orch := NewOrchestrator(testConfig(t), &scriptedGenerator{}, sessions, discardLogger())

	time.Sleep(time.Millisecond)
	orch.Cleanup()
	if sessions.Len() != 0 {
		t.Errorf("expected expired session removed, %d left", sessions.Len())
	}
}

func TestOrchestrator_GenerateSynchronously(t *testing.T) {
	cfg := testConfig(t)
	orch := NewOrchestrator(cfg, &scriptedGenerator{text: answer}, nil, discardLogger())

	res, err := orch.Generate(context.Background(), "cli", FileRequest("main.rs", "fn main() {}"), nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if filepath.Base(res.Path) != "documentation_cli.docx" {
		t.Errorf("unexpected path %q", res.Path)
	}
}

func TestFromSession(t *testing.T) {
	react := &session.Session{
		ID:          "r",
		Kind:        session.KindReact,
		PackageJSON: `{"name":"web"}`,
		Component:   session.File{Name: "App.jsx", Content: "export default App"},
	}
	req, err := FromSession(react)
	if err != nil {
		t.Fatalf("react: %v", err)
	}
	if req.Kind != KindReact || req.Filename != "App.jsx" {
		t.Errorf("unexpected request %+v", req)
	}
	if !strings.Contains(req.Prompt(), "Component (App.jsx)") {
		t.Error("expected react prompt")
	}
	if req.Metadata().Title != "React Component Documentation" {
		t.Errorf("unexpected title %q", req.Metadata().Title)
	}

	node := &session.Session{
		ID:          "n",
		Kind:        session.KindNode,
		PackageJSON: `{"name":"api"}`,
		Server:      session.File{Name: "server.js", Content: "app.listen(3000)"},
		Extras:      []session.File{{Name: "routes.js", Content: "router.get()"}},
	}
	req, err = FromSession(node)
	if err != nil {
		t.Fatalf("node: %v", err)
	}
	if len(req.Extras) != 1 || !strings.Contains(req.Prompt(), "Additional file (routes.js)") {
		t.Errorf("expected extras carried into prompt")
	}

	if _, err := FromSession(&session.Session{ID: "x", Kind: session.KindNode, PackageJSON: "{}"}); err == nil {
		t.Error("expected error for incomplete session")
	}
}

func TestFileRequestMetadataDefaults(t *testing.T) {
	meta := FileRequest("main.py", "").Metadata()
	if meta.Title != "" || meta.Source != "main.py" {
		t.Errorf("expected renderer defaults with source set, got %+v", meta)
	}
}
