package tools

import (
	"fmt"
	"strings"

	"github.com/gettakaro/MCP/internal/common"
	"github.com/gettakaro/MCP/internal/openapi"
)

// searchSuffix marks paths whose POST operation becomes a search tool.
const searchSuffix = "/search"

// Generator derives tool definitions from the Takaro OpenAPI description.
type Generator struct {
	doc      *openapi.Document
	resolver *openapi.Resolver
	logger   *common.Logger
}

// NewGenerator creates a generator over the given document.
func NewGenerator(doc *openapi.Document, logger *common.Logger) *Generator {
	return &Generator{
		doc:      doc,
		resolver: openapi.NewResolver(doc, logger),
		logger:   logger,
	}
}

// SearchTools walks the path table and builds one tool per search operation:
// a path ending in "/search" with a POST operation and a JSON request body.
// Paths are visited in sorted order, so repeated generation from the same
// document yields the same tools in the same sequence. A malformed operation
// is skipped with a warning; generation itself never fails.
func (g *Generator) SearchTools() []Tool {
	var generated []Tool

	for _, path := range g.doc.PathNames() {
		if !strings.HasSuffix(path, searchSuffix) {
			continue
		}
		op, ok := g.doc.Operation(path, "post")
		if !ok {
			continue
		}

		entity := EntityType(path)
		if entity == "" {
			g.logger.Warn().Str("path", path).Msg("skipping search operation with no entity segment")
			continue
		}
		name := "search" + capitalize(entity)

		schema, ok := openapi.RequestBodySchema(op)
		if !ok {
			g.logger.Warn().Str("path", path).Msg("skipping search operation without JSON request body")
			continue
		}

		resolved, err := g.resolver.Resolve(schema, nil)
		if err != nil {
			g.logger.Warn().Str("path", path).Str("error", err.Error()).Msg("skipping search operation with unresolvable schema")
			continue
		}
		resolvedMap, ok := resolved.(map[string]any)
		if !ok {
			g.logger.Warn().Str("path", path).Msg("skipping search operation with non-object schema")
			continue
		}

		inputSchema := wrapObjectSchema(openapi.ToToolSchema(resolvedMap))

		description := openapi.OperationSummary(op)
		if description == "" {
			description = fmt.Sprintf("Search %s on the Takaro platform. Supports filtering, sorting, and pagination.", entity)
		}

		binding := &InvocationBinding{
			Method:       "post",
			PathTemplate: path,
		}

		tool, err := NewDynamic(name, description, inputSchema, binding, g.logger)
		if err != nil {
			g.logger.Warn().Str("path", path).Str("error", err.Error()).Msg("skipping search operation")
			continue
		}

		g.logger.Debug().Str("tool", name).Str("path", path).Msg("generated search tool")
		generated = append(generated, tool)
	}

	return generated
}

// EntityType extracts the entity segment immediately preceding "/search":
// "/gameserver/search" yields "gameserver". Returns "" when the path has no
// such segment.
func EntityType(path string) string {
	if !strings.HasSuffix(path, searchSuffix) {
		return ""
	}
	trimmed := strings.TrimSuffix(path, searchSuffix)
	segments := strings.Split(trimmed, "/")
	return segments[len(segments)-1]
}

// OperationAccessor maps an operationId like "PlayerController.search" to
// the camel-case accessor name "playerSearch": the first segment is
// decapitalized and stripped of a trailing "Controller", subsequent segments
// are concatenated with their leading character capitalized. The mapping is
// deterministic: the same identifier always yields the same name.
func OperationAccessor(operationID string) string {
	segments := strings.Split(operationID, ".")
	if len(segments) == 0 || segments[0] == "" {
		return ""
	}

	head := decapitalize(segments[0])
	head = strings.TrimSuffix(head, "Controller")

	var sb strings.Builder
	sb.WriteString(head)
	for _, segment := range segments[1:] {
		sb.WriteString(capitalize(segment))
	}
	return sb.String()
}

// wrapObjectSchema ensures the input schema is a top-level object schema.
func wrapObjectSchema(schema map[string]any) map[string]any {
	if schema == nil {
		schema = map[string]any{}
	}
	if _, ok := schema["type"]; !ok {
		schema["type"] = "object"
	}
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]any{}
	}
	return schema
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func decapitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
