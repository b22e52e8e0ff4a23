// Package openapi handles acquisition and processing of the Takaro API
// description: fetching the OpenAPI document, expanding schema references,
// and converting schemas into the dialect tool consumers understand.
package openapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Document is the parsed OpenAPI description. The tree is kept raw
// (map[string]any) so reference resolution can preserve unresolved pointer
// nodes verbatim. Treated as read-only once parsed.
type Document struct {
	raw map[string]any
}

// Parse parses an OpenAPI JSON document.
func Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse openapi document: %w", err)
	}
	if _, ok := raw["openapi"]; !ok {
		return nil, fmt.Errorf("not an openapi document: missing openapi field")
	}
	if _, ok := raw["paths"].(map[string]any); !ok {
		return nil, fmt.Errorf("openapi document has no paths")
	}
	return &Document{raw: raw}, nil
}

// Raw returns the underlying document tree.
func (d *Document) Raw() map[string]any {
	return d.raw
}

// Title returns the API title from the info block, if present.
func (d *Document) Title() string {
	info, _ := d.raw["info"].(map[string]any)
	title, _ := info["title"].(string)
	return title
}

// PathNames returns all path keys in sorted order. Generation iterates in
// this order so repeated runs produce tools in the same sequence.
func (d *Document) PathNames() []string {
	paths, _ := d.raw["paths"].(map[string]any)
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Operation returns the operation object for a path and lower-case HTTP method.
func (d *Document) Operation(path, method string) (map[string]any, bool) {
	paths, _ := d.raw["paths"].(map[string]any)
	item, _ := paths[path].(map[string]any)
	op, ok := item[strings.ToLower(method)].(map[string]any)
	return op, ok
}

// RequestBodySchema extracts the application/json request body schema from an
// operation, if it has one.
func RequestBodySchema(op map[string]any) (map[string]any, bool) {
	body, _ := op["requestBody"].(map[string]any)
	content, _ := body["content"].(map[string]any)
	mt, _ := content["application/json"].(map[string]any)
	schema, ok := mt["schema"].(map[string]any)
	return schema, ok
}

// OperationID returns the operationId of an operation, if set.
func OperationID(op map[string]any) string {
	id, _ := op["operationId"].(string)
	return id
}

// OperationSummary returns the summary (falling back to description) of an operation.
func OperationSummary(op map[string]any) string {
	if s, _ := op["summary"].(string); s != "" {
		return s
	}
	s, _ := op["description"].(string)
	return s
}
