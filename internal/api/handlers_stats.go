package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	snap := s.stats.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"model":       snap.Model,
		"stats":       snap,
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
