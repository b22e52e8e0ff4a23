// Package tools defines the callable tool contract, the registry that holds
// tool definitions, and the generator that derives tools from the Takaro
// OpenAPI description.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gettakaro/MCP/internal/client"
)

// Tool is the uniform contract every tool kind conforms to: generated search
// tools and hand-written custom tools alike. The registry and dispatcher are
// agnostic to which kind they hold.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]any
	Execute(ctx context.Context, args map[string]any, call *CallContext) (*mcp.CallToolResult, error)
}

// CallContext carries per-call state into a tool execution. It is
// constructed fresh for every call and discarded afterwards; the client
// handle it carries is the process-wide authenticated singleton.
type CallContext struct {
	Client    *client.Client
	SessionID string
}

// ValidationError reports tool input that failed schema validation. The
// dispatcher maps it to an invalid-params protocol error.
type ValidationError struct {
	Tool    string
	Missing []string
	Detail  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("invalid arguments for %s: missing required parameter(s): %s", e.Tool, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Detail)
}

// MissingParameterError reports a path-template placeholder with no
// corresponding input field.
type MissingParameterError struct {
	Param string
	Path  string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required path parameter %q for %s", e.Param, e.Path)
}

// HandlerFunc is the execution function for hand-written custom tools.
type HandlerFunc func(ctx context.Context, args map[string]any, call *CallContext) (*mcp.CallToolResult, error)

// CustomTool is a hand-written tool conforming to the Tool contract.
type CustomTool struct {
	name        string
	description string
	inputSchema map[string]any
	handler     HandlerFunc
}

// NewCustom creates a custom tool with the given handler. A nil schema
// defaults to an empty object schema.
func NewCustom(name, description string, inputSchema map[string]any, handler HandlerFunc) *CustomTool {
	if inputSchema == nil {
		inputSchema = map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}
	return &CustomTool{
		name:        name,
		description: description,
		inputSchema: inputSchema,
		handler:     handler,
	}
}

func (t *CustomTool) Name() string                { return t.name }
func (t *CustomTool) Description() string         { return t.description }
func (t *CustomTool) InputSchema() map[string]any { return t.inputSchema }

func (t *CustomTool) Execute(ctx context.Context, args map[string]any, call *CallContext) (*mcp.CallToolResult, error) {
	return t.handler(ctx, args, call)
}
