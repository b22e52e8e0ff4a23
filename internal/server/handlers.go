package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gettakaro/MCP/internal/mcp"
)

const (
	sessionHeader  = "Mcp-Session-Id"
	maxRequestSize = 4 << 20 // 4MB
	keepAliveEvery = 30 * time.Second
)

// handleMCP serves the protocol endpoint. POST carries a single JSON-RPC
// request; GET opens a server-sent-events stream that only emits keep-alive
// comments, which some clients use to hold a connection open.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleMCPPost(w, r)
	case http.MethodGet:
		s.handleMCPStream(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMCPPost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		writeRPCError(w, mcp.NullID, mcp.CodeInternalError, "failed to read request body")
		return
	}

	var req mcp.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeRPCError(w, mcp.NullID, mcp.CodeInvalidParams, "malformed JSON-RPC request")
		return
	}

	sessionID := r.Header.Get(sessionHeader)
	resp, newSessionID := s.dispatcher.Handle(r.Context(), &req, sessionID)

	if newSessionID != "" {
		w.Header().Set(sessionHeader, newSessionID)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMCPStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusNotImplemented)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(keepAliveEvery)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// headers are already sent, nothing left to do
		return
	}
}

func writeRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	writeJSON(w, http.StatusOK, mcp.NewErrorResponse(id, code, message))
}
