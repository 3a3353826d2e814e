package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/smallnest/adaptiverag/stream"
	"github.com/smallnest/adaptiverag/workflow"
)

// chatRequest is the body of POST /api/chat and POST /api/chat/stream.
type chatRequest struct {
	Question        string `json:"question"`
	SessionID       string `json:"session_id,omitempty"`
	MaxRetries      int    `json:"max_retries,omitempty"`
	IncludeSources  bool   `json:"include_sources,omitempty"`
	IncludeWorkflow bool   `json:"include_workflow,omitempty"`
	RenderHTML      bool   `json:"render_html,omitempty"`
}

func (r *chatRequest) validate() error {
	n := utf8.RuneCountInString(r.Question)
	if n == 0 {
		return fmt.Errorf("question is required")
	}
	if n > maxQuestionLen {
		return fmt.Errorf("question exceeds %d characters", maxQuestionLen)
	}
	if r.MaxRetries < 0 || r.MaxRetries > maxRetriesCap {
		return fmt.Errorf("max_retries must be between 1 and %d", maxRetriesCap)
	}
	return nil
}

type chatResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
	LoopStep  int    `json:"loop_step"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (*chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return nil, false
	}
	if err := req.validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return nil, false
	}
	return &req, true
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	final, err := s.engine.Ask(r.Context(), workflow.Request{
		Question:   req.Question,
		SessionID:  req.SessionID,
		MaxRetries: req.MaxRetries,
	})
	if err != nil {
		s.logger.Error("chat request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "workflow failed"})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:    final.Generation,
		SessionID: final.SessionID,
		LoopStep:  final.LoopStep,
	})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	sse, err := stream.NewSSEWriter(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	snaps, errs := s.engine.Stream(r.Context(), workflow.Request{
		Question:   req.Question,
		SessionID:  req.SessionID,
		MaxRetries: req.MaxRetries,
	})

	adapter := stream.NewAdapter(stream.Options{
		IncludeSources:  req.IncludeSources,
		IncludeWorkflow: req.IncludeWorkflow,
		RenderHTML:      req.RenderHTML,
	})
	if err := adapter.Pump(r.Context(), snaps, errs, sse.WriteEvent); err != nil {
		s.logger.Warn("stream ended early: %v", err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "session_id is required"})
		return
	}

	entries, err := s.engine.History(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("history lookup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load history"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"steps":      entries,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
