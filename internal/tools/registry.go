package tools

import (
	"encoding/json"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gettakaro/MCP/internal/common"
)

// Registry holds the tools exposed over the protocol. Lookup is by exact
// name; listing preserves registration order. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	logger *common.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *common.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// Register adds a tool under its name. Registering a name that already
// exists replaces the previous tool in place: the newer definition wins and
// the original position in the listing is kept.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		r.logger.Warn().Str("tool", name).Msg("replacing previously registered tool")
	} else {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// RegisterAll registers each tool in sequence.
func (r *Registry) RegisterAll(tools []Tool) {
	for _, tool := range tools {
		r.Register(tool)
	}
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns the registered tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Protocol projects the registry into the wire representation served by
// tools/list. The projection carries name, description, and input schema
// only; invocation details never leave the server.
func (r *Registry) Protocol() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		schema, err := marshalSchema(tool.InputSchema())
		if err != nil {
			r.logger.Warn().Str("tool", name).Str("error", err.Error()).Msg("omitting tool with unmarshalable schema")
			continue
		}
		out = append(out, mcp.NewToolWithRawSchema(name, tool.Description(), schema))
	}
	return out
}

// Size returns the number of registered tools.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func marshalSchema(schema map[string]any) ([]byte, error) {
	if schema == nil {
		schema = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return json.Marshal(schema)
}

// Clear removes all registered tools.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = make(map[string]Tool)
	r.order = nil
}
