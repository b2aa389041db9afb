package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/baterms/chatbot/internal/engine"
)

// chatRequest is the JSON body of POST /chat.
type chatRequest struct {
	Message   string `json:"message" validate:"required"`
	Language  string `json:"language,omitempty" validate:"omitempty,oneof=english amharic afaan_oromo"`
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=128"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("field %s failed on '%s'", verrs[0].Field(), verrs[0].Tag()))
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "invalid request")
		return
	}

	resp, err := s.engine.ProcessMessage(r.Context(), engine.Request{
		Message:   req.Message,
		Language:  req.Language,
		SessionID: req.SessionID,
	})
	if err != nil {
		if errors.Is(err, engine.ErrEmptyInput) {
			writeError(w, http.StatusUnprocessableEntity, "message must not be empty")
			return
		}
		writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.engine.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "initializing"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.RefreshKnowledge(r.Context()); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}
