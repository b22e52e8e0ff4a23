package openapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gettakaro/MCP/internal/common"
)

// ReferenceError reports a $ref pointer that could not be resolved against
// the document: either a missing path segment or a non-local reference.
type ReferenceError struct {
	Ref     string
	Segment string
	Reason  string
}

func (e *ReferenceError) Error() string {
	if e.Segment != "" {
		return fmt.Sprintf("cannot resolve reference %q: segment %q not found", e.Ref, e.Segment)
	}
	return fmt.Sprintf("cannot resolve reference %q: %s", e.Ref, e.Reason)
}

// Resolver expands local $ref pointers inside schemas into self-contained
// trees. The input is never mutated; resolution operates on deep copies.
type Resolver struct {
	root   map[string]any
	logger *common.Logger
}

// NewResolver creates a resolver over the given OpenAPI document.
func NewResolver(doc *Document, logger *common.Logger) *Resolver {
	return &Resolver{root: doc.Raw(), logger: logger}
}

// Resolve returns a copy of node with every local $ref expanded inline.
// visited tracks pointers on the current resolution path: a revisited pointer
// marks a cycle, in which case the pointer node is preserved verbatim and a
// warning is logged. Pass nil for a fresh resolution.
func (r *Resolver) Resolve(node any, visited map[string]bool) (any, error) {
	if visited == nil {
		visited = make(map[string]bool)
	}
	return r.resolve(deepCopy(node), visited)
}

func (r *Resolver) resolve(node any, visited map[string]bool) (any, error) {
	switch n := node.(type) {
	case map[string]any:
		if ref, ok := n["$ref"].(string); ok {
			return r.resolveRef(n, ref, visited)
		}
		for k, v := range n {
			resolved, err := r.resolve(v, visited)
			if err != nil {
				return nil, err
			}
			n[k] = resolved
		}
		return n, nil
	case []any:
		for i, v := range n {
			resolved, err := r.resolve(v, visited)
			if err != nil {
				return nil, err
			}
			n[i] = resolved
		}
		return n, nil
	default:
		return node, nil
	}
}

// resolveRef expands one reference node. Sibling keys beside $ref are merged
// over the resolved target, siblings winning on conflict.
func (r *Resolver) resolveRef(node map[string]any, ref string, visited map[string]bool) (any, error) {
	if visited[ref] {
		r.logger.Warn().Str("ref", ref).Msg("circular schema reference detected, leaving pointer unresolved")
		return node, nil
	}

	target, err := r.lookup(ref)
	if err != nil {
		return nil, err
	}

	visited[ref] = true
	resolved, err := r.resolve(deepCopy(target), visited)
	delete(visited, ref)
	if err != nil {
		return nil, err
	}

	merged, ok := resolved.(map[string]any)
	if !ok {
		// Non-object target: nothing to merge siblings into.
		return resolved, nil
	}
	for k, v := range node {
		if k == "$ref" {
			continue
		}
		sibling, err := r.resolve(v, visited)
		if err != nil {
			return nil, err
		}
		merged[k] = sibling
	}
	return merged, nil
}

// lookup walks a local JSON pointer ("#/components/schemas/Foo") through the
// document tree. Escape sequences ~1 and ~0 decode to "/" and "~".
func (r *Resolver) lookup(ref string) (any, error) {
	if !strings.HasPrefix(ref, "#/") {
		return nil, &ReferenceError{Ref: ref, Reason: "external references are not supported"}
	}

	var current any = r.root
	for _, segment := range strings.Split(ref[2:], "/") {
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")

		switch c := current.(type) {
		case map[string]any:
			next, ok := c[segment]
			if !ok {
				return nil, &ReferenceError{Ref: ref, Segment: segment}
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, &ReferenceError{Ref: ref, Segment: segment}
			}
			current = c[idx]
		default:
			return nil, &ReferenceError{Ref: ref, Segment: segment}
		}
	}
	return current, nil
}

// deepCopy copies a JSON-shaped value (maps, slices, scalars).
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}
