package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/docxer/docxer/internal/document"
	"github.com/docxer/docxer/internal/intake"
	"github.com/docxer/docxer/internal/markdown"
	"github.com/docxer/docxer/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// processingResponse acknowledges a queued task.
type processingResponse struct {
	TaskID  string              `json:"task_id"`
	Status  pipeline.TaskStatus `json:"status"`
	Message string              `json:"message"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	filename, content, ok := s.readSourceUpload(w, r)
	if !ok {
		return
	}

	task := pipeline.NewTask(pipeline.FileRequest(filename, content))
	if _, err := intake.SaveUpload(s.cfg.UploadDir, task.ID, filename, content); err != nil {
		s.log.Warn("failed to keep upload copy", "task_id", task.ID, "error", err)
	}
	s.submit(w, task)
}

// readSourceUpload parses the multipart form and validates its "file" part
// as a source file. It writes the error response itself.
func (s *Server) readSourceUpload(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		formError(w, err)
		return "", "", false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "No file provided", http.StatusBadRequest)
		return "", "", false
	}
	defer file.Close()

	filename := intake.SanitizeFilename(header.Filename)
	content, err := intake.ReadSource(filename, file, s.cfg.MaxUploadBytes)
	if err != nil {
		jsonError(w, err.Error(), intake.StatusOf(err))
		return "", "", false
	}
	return filename, content, true
}

func (s *Server) submit(w http.ResponseWriter, task *pipeline.Task) {
	if err := s.orchestrator.Submit(task); err != nil {
		s.log.Error("submit failed", "task_id", task.ID, "error", err)
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	snap := task.Snapshot()
	writeJSON(w, http.StatusAccepted, processingResponse{
		TaskID:  snap.ID,
		Status:  snap.Status,
		Message: snap.Message,
	})
}

func (s *Server) task(w http.ResponseWriter, r *http.Request) (*pipeline.Task, bool) {
	task := s.orchestrator.GetTask(chi.URLParam(r, "taskID"))
	if task == nil {
		jsonError(w, "Task not found", http.StatusNotFound)
		return nil, false
	}
	return task, true
}

func (s *Server) completedTask(w http.ResponseWriter, r *http.Request) (pipeline.TaskSnapshot, bool) {
	task, ok := s.task(w, r)
	if !ok {
		return pipeline.TaskSnapshot{}, false
	}
	snap := task.Snapshot()
	if snap.Status != pipeline.StatusCompleted || snap.FilePath == "" {
		jsonError(w, "Document not ready", http.StatusBadRequest)
		return snap, false
	}
	return snap, true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	task, ok := s.task(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, task.Snapshot())
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.completedTask(w, r)
	if !ok {
		return
	}
	f, err := os.Open(snap.FilePath)
	if err != nil {
		jsonError(w, "File not found", http.StatusNotFound)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		jsonError(w, "File not found", http.StatusNotFound)
		return
	}

	name := filepath.Base(snap.FilePath)
	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	task, ok := s.task(w, r)
	if !ok {
		return
	}
	md := task.Markdown()
	if md == "" {
		jsonError(w, "Preview not available", http.StatusBadRequest)
		return
	}
	snap := task.Snapshot()
	page, err := markdown.PreviewPage(snap.Filename, md)
	if err != nil {
		s.log.Error("preview failed", "task_id", snap.ID, "error", err)
		jsonError(w, "failed to render preview", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.completedTask(w, r)
	if !ok {
		return
	}
	outline, err := document.InspectFile(snap.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			jsonError(w, "File not found", http.StatusNotFound)
			return
		}
		s.log.Error("inspect failed", "task_id", snap.ID, "error", err)
		jsonError(w, "failed to read document", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, outline)
}

// formError maps a multipart parse failure to a response.
func formError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
}
