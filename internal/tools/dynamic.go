package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/xeipuuv/gojsonschema"

	"github.com/gettakaro/MCP/internal/common"
	"github.com/gettakaro/MCP/internal/format"
)

// DynamicTool wraps an invocation binding into the uniform tool contract.
// Input is validated against the generated schema before any network call;
// remote API failures are folded into tool-result text, never into protocol
// errors.
type DynamicTool struct {
	name        string
	description string
	inputSchema map[string]any
	schemaJSON  []byte
	binding     *InvocationBinding
	logger      *common.Logger
}

// NewDynamic creates a dynamic tool. The schema is marshalled once so every
// call validates against the same bytes.
func NewDynamic(name, description string, inputSchema map[string]any, binding *InvocationBinding, logger *common.Logger) (*DynamicTool, error) {
	schemaJSON, err := json.Marshal(inputSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input schema for %s: %w", name, err)
	}
	return &DynamicTool{
		name:        name,
		description: description,
		inputSchema: inputSchema,
		schemaJSON:  schemaJSON,
		binding:     binding,
		logger:      logger,
	}, nil
}

func (t *DynamicTool) Name() string                { return t.name }
func (t *DynamicTool) Description() string         { return t.description }
func (t *DynamicTool) InputSchema() map[string]any { return t.inputSchema }

// Binding returns the tool's invocation binding.
func (t *DynamicTool) Binding() *InvocationBinding { return t.binding }

// Execute validates args, invokes the bound HTTP call, and shapes the result.
func (t *DynamicTool) Execute(ctx context.Context, args map[string]any, call *CallContext) (*mcp.CallToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}

	if err := t.validate(args); err != nil {
		return nil, err
	}

	body, err := t.binding.Invoke(ctx, args, call.Client)
	if err != nil {
		// A placeholder can be optional in the schema yet required by the
		// path template; surface that as a validation failure too.
		if missing, ok := err.(*MissingParameterError); ok {
			return nil, &ValidationError{Tool: t.name, Missing: []string{missing.Param}}
		}
		t.logger.Warn().Str("tool", t.name).Str("error", err.Error()).Msg("tool call failed")
		return mcp.NewToolResultError(format.Error(err)), nil
	}

	return mcp.NewToolResultText(format.Result(body)), nil
}

// validate checks args against the tool's input schema.
func (t *DynamicTool) validate(args map[string]any) error {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(t.schemaJSON),
		gojsonschema.NewBytesLoader(argsJSON),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", t.name, err)
	}
	if result.Valid() {
		return nil
	}

	var missing []string
	var details []string
	for _, verr := range result.Errors() {
		if verr.Type() == "required" {
			if prop, ok := verr.Details()["property"].(string); ok {
				missing = append(missing, prop)
				continue
			}
		}
		details = append(details, verr.String())
	}
	return &ValidationError{
		Tool:    t.name,
		Missing: missing,
		Detail:  strings.Join(details, "; "),
	}
}
