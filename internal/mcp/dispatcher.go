package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gettakaro/MCP/internal/client"
	"github.com/gettakaro/MCP/internal/common"
	"github.com/gettakaro/MCP/internal/tools"
)

// Dispatcher routes JSON-RPC requests to protocol method handlers. It owns
// the session lifecycle: initialize mints a session, and tools/call demands
// one. tools/list is deliberately open so clients can inspect the tool set
// before initializing.
type Dispatcher struct {
	registry *tools.Registry
	client   *client.Client
	sessions *SessionStore
	logger   *common.Logger
	name     string
	version  string
}

// NewDispatcher creates a dispatcher serving the given registry.
func NewDispatcher(registry *tools.Registry, c *client.Client, logger *common.Logger, name, version string) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		client:   c,
		sessions: NewSessionStore(),
		logger:   logger,
		name:     name,
		version:  version,
	}
}

// Sessions exposes the session store, primarily for the HTTP layer.
func (d *Dispatcher) Sessions() *SessionStore {
	return d.sessions
}

// Handle processes a single request. sessionID is the caller-supplied
// session identifier, empty when none was sent. When initialize mints a new
// session its id is returned so the transport can hand it back to the
// client; otherwise the second return is empty.
func (d *Dispatcher) Handle(ctx context.Context, req *Request, sessionID string) (*Response, string) {
	switch req.Method {
	case "initialize":
		return d.handleInitialize(req, sessionID)
	case "tools/list":
		return d.handleToolsList(req), ""
	case "tools/call":
		return d.handleToolsCall(ctx, req, sessionID), ""
	default:
		return NewErrorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method)), ""
	}
}

func (d *Dispatcher) handleInitialize(req *Request, sessionID string) (*Response, string) {
	newSessionID := ""
	if _, ok := d.sessions.Get(sessionID); !ok {
		session := d.sessions.Create()
		newSessionID = session.ID
		d.logger.Info().Str("session", session.ID).Msg("session initialized")
	}

	result := InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    Capabilities{Tools: ToolsCapability{}},
		ServerInfo:      ServerInfo{Name: d.name, Version: d.version},
	}
	return NewResponse(req.ID, result), newSessionID
}

func (d *Dispatcher) handleToolsList(req *Request) *Response {
	return NewResponse(req.ID, ToolsListResult{Tools: d.registry.Protocol()})
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req *Request, sessionID string) *Response {
	if sessionID == "" {
		return NewErrorResponse(req.ID, CodeInvalidParams, "missing Mcp-Session-Id header; call initialize first")
	}
	if _, ok := d.sessions.Get(sessionID); !ok {
		return NewErrorResponse(req.ID, CodeInvalidParams, "unknown session; call initialize first")
	}

	var params CallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, "malformed tools/call parameters")
	}
	if params.Name == "" {
		return NewErrorResponse(req.ID, CodeInvalidParams, "tool name is required")
	}

	tool, ok := d.registry.Get(params.Name)
	if !ok {
		return NewErrorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Tool not found: %q", params.Name))
	}

	call := &tools.CallContext{
		Client:    d.client,
		SessionID: sessionID,
	}

	result, err := tool.Execute(ctx, params.Arguments, call)
	if err != nil {
		var verr *tools.ValidationError
		if errors.As(err, &verr) {
			return NewErrorResponse(req.ID, CodeInvalidParams, verr.Error())
		}
		d.logger.Error().Str("tool", params.Name).Str("error", err.Error()).Msg("tool execution failed")
		return NewErrorResponse(req.ID, CodeInternalError, "internal error executing tool")
	}

	return NewResponse(req.ID, result)
}
