package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/baterms/chatbot/internal/engine"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Message   string `json:"message"`
	Language  string `json:"language,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// wsError is sent when a message cannot be processed. Successful turns are
// answered with the engine response verbatim.
type wsError struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWSError(conn, "", "invalid message format")
			continue
		}

		resp, err := s.engine.ProcessMessage(r.Context(), engine.Request{
			Message:   req.Message,
			Language:  req.Language,
			SessionID: req.SessionID,
		})
		if err != nil {
			if errors.Is(err, engine.ErrEmptyInput) {
				s.sendWSError(conn, req.SessionID, "message must not be empty")
				continue
			}
			s.sendWSError(conn, req.SessionID, "processing failed: "+err.Error())
			continue
		}

		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("server: websocket write: %v", err)
			return
		}
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, sessionID, message string) {
	if err := conn.WriteJSON(wsError{Type: "error", SessionID: sessionID, Error: message}); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}
