package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the client-visible state of a documentation task.
type TaskStatus string

const (
	StatusUploaded   TaskStatus = "uploaded"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusError      TaskStatus = "error"
)

// Task tracks one upload through generation and rendering.
type Task struct {
	mu sync.Mutex

	ID       string     `json:"task_id"`
	Status   TaskStatus `json:"status"`
	Progress int        `json:"progress"`
	Message  string     `json:"message"`
	FilePath string     `json:"file_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	request  Request
	markdown string
}

// NewTask creates a task in the uploaded state.
func NewTask(req Request) *Task {
	now := time.Now()
	return &Task{
		ID:        uuid.NewString(),
		Status:    StatusUploaded,
		Message:   "File uploaded successfully. Processing will begin shortly.",
		CreatedAt: now,
		UpdatedAt: now,
		request:   req,
	}
}

// Request returns what the task documents.
func (t *Task) Request() Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.request
}

// Advance moves the task forward. Progress never decreases.
func (t *Task) Advance(status TaskStatus, progress int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = status
	t.Progress = max(t.Progress, min(progress, 100))
	t.Message = message
	t.UpdatedAt = time.Now()
}

// Fail marks the task as errored with a client-facing message.
func (t *Task) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = StatusError
	t.Message = message
	t.UpdatedAt = time.Now()
}

// Complete records the written document.
func (t *Task) Complete(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = StatusCompleted
	t.Progress = 100
	t.Message = "Documentation generated successfully!"
	t.FilePath = path
	t.UpdatedAt = time.Now()
}

func (t *Task) SetMarkdown(md string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.markdown = md
}

// Markdown returns the raw LLM answer, empty until generation succeeds.
func (t *Task) Markdown() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.markdown
}

// TaskSnapshot is a read-only, JSON-safe copy of task state.
type TaskSnapshot struct {
	ID       string     `json:"task_id"`
	Kind     Kind       `json:"kind"`
	Filename string     `json:"filename"`
	Status   TaskStatus `json:"status"`
	Progress int        `json:"progress"`
	Message  string     `json:"message"`
	FilePath string     `json:"file_path,omitempty"`
}

func (t *Task) Snapshot() TaskSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TaskSnapshot{
		ID:       t.ID,
		Kind:     t.request.Kind,
		Filename: t.request.Filename,
		Status:   t.Status,
		Progress: t.Progress,
		Message:  t.Message,
		FilePath: t.FilePath,
	}
}

func (t *Task) lastUpdate() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.UpdatedAt
}

// TaskStore is a thread-safe in-memory task registry with TTL eviction.
type TaskStore struct {
	mu    sync.Mutex
	tasks map[string]*Task
	ttl   time.Duration
}

func NewTaskStore(ttl time.Duration) *TaskStore {
	return &TaskStore{
		tasks: make(map[string]*Task),
		ttl:   ttl,
	}
}

func (s *TaskStore) Put(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
}

func (s *TaskStore) Get(id string) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id]
}

// Cleanup removes tasks idle longer than the TTL and returns how many.
func (s *TaskStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := 0
	for id, t := range s.tasks {
		if now.Sub(t.lastUpdate()) > s.ttl {
			delete(s.tasks, id)
			n++
		}
	}
	return n
}

func (s *TaskStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *TaskStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[id]
	delete(s.tasks, id)
	return ok
}
