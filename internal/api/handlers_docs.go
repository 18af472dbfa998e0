package api

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/docxer/docxer/internal/document"
	"github.com/go-chi/chi/v5"
)

type documentInfo struct {
	TaskID     string    `json:"task_id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// handleListDocuments lists generated documents in the output directory,
// newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.orchestrator.OutputDir())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	docs := []documentInfo{}
	for _, e := range entries {
		id, ok := document.ParseFileName(e.Name())
		if !ok || e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		docs = append(docs, documentInfo{
			TaskID:     id,
			Filename:   e.Name(),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ModifiedAt.After(docs[j].ModifiedAt) })

	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleDeleteDocument removes a generated document and forgets its task.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")
	if _, ok := document.ParseFileName(document.FileName(id)); !ok || filepath.Base(id) != id {
		jsonError(w, "invalid task id", http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.orchestrator.OutputDir(), document.FileName(id))
	err := os.Remove(path)
	removedFile := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	removedTask := s.orchestrator.DeleteTask(id)

	if !removedFile && !removedTask {
		jsonError(w, "Document not found", http.StatusNotFound)
		return
	}
	s.log.Info("document deleted", "task_id", id, "file", removedFile)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
