package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docxer/docxer/internal/config"
	"github.com/docxer/docxer/internal/llm"
	"github.com/docxer/docxer/internal/render"
	"github.com/docxer/docxer/internal/session"
)

// Orchestrator manages the documentation worker pool.
type Orchestrator struct {
	tasks    *TaskStore
	sessions *session.Store
	queue    chan *Task
	gen      llm.Generator
	renderer *render.Renderer
	log      *slog.Logger
	cfg      config.Config

	cleanupEvery time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewRenderer builds the renderer described by cfg.
func NewRenderer(cfg config.Config) *render.Renderer {
	theme := render.DefaultTheme()
	if cfg.CodeStyle != "" {
		theme.CodeStyle = cfg.CodeStyle
	}
	return render.New(render.Options{Theme: theme, Highlight: cfg.HighlightCode})
}

// NewOrchestrator creates the pipeline. sessions may be nil.
func NewOrchestrator(cfg config.Config, gen llm.Generator, sessions *session.Store, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		tasks:        NewTaskStore(cfg.TaskTTL),
		sessions:     sessions,
		queue:        make(chan *Task, cfg.MaxQueueSize),
		gen:          gen,
		renderer:     NewRenderer(cfg),
		log:          log,
		cfg:          cfg,
		cleanupEvery: 5 * time.Minute,
	}
}

func (o *Orchestrator) newWorker() *Worker {
	return NewWorker(o.gen, o.renderer, o.cfg.OutputDir, o.cfg.MaxPromptTokens, o.log)
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := o.newWorker()
			for {
				select {
				case <-workerCtx.Done():
					return
				case task, ok := <-o.queue:
					if !ok {
						return
					}
					if workerCtx.Err() != nil {
						task.Fail("Server is shutting down")
						continue
					}
					w.Process(workerCtx, task)
				}
			}
		}()
	}

	// Expire finished tasks and abandoned sessions.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.cleanupEvery)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.Cleanup()
			}
		}
	}()
}

// Cleanup evicts expired tasks and sessions.
func (o *Orchestrator) Cleanup() {
	tasks := o.tasks.Cleanup()
	sessions := 0
	if o.sessions != nil {
		sessions = o.sessions.Cleanup()
	}
	if tasks > 0 || sessions > 0 {
		o.log.Info("expired state removed", "tasks", tasks, "sessions", sessions)
	}
}

// Stop gracefully shuts down the pipeline. Tasks still queued when the
// workers exit are failed so their status reaches a terminal state.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()

	dropped := 0
	for task := range o.queue {
		task.Fail("Server is shutting down")
		dropped++
	}
	if dropped > 0 {
		o.log.Warn("queued tasks failed on shutdown", "count", dropped)
	}
}

// Submit registers the task and queues it. A full queue fails the task
// immediately instead of blocking the caller.
func (o *Orchestrator) Submit(task *Task) error {
	o.tasks.Put(task)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		task.Fail("Server is shutting down")
		return fmt.Errorf("pipeline stopped")
	}
	select {
	case o.queue <- task:
		return nil
	default:
		task.Fail("Server is busy, please try again later")
		return fmt.Errorf("task queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetTask returns a task by ID, or nil.
func (o *Orchestrator) GetTask(id string) *Task {
	return o.tasks.Get(id)
}

// DeleteTask forgets a task. It reports whether the task existed.
func (o *Orchestrator) DeleteTask(id string) bool {
	return o.tasks.Delete(id)
}

// OutputDir is where documents are written.
func (o *Orchestrator) OutputDir() string {
	return o.cfg.OutputDir
}

// Generate runs a request synchronously on the caller's goroutine.
func (o *Orchestrator) Generate(ctx context.Context, id string, req Request, report ReportFunc) (*Result, error) {
	return o.newWorker().Run(ctx, id, req, report)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Sessions returns the project session store, or nil.
func (o *Orchestrator) Sessions() *session.Store {
	return o.sessions
}
