package openapi

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/gettakaro/MCP/internal/common"
)

func docFromJSON(t *testing.T, raw string) *Document {
	t.Helper()
	doc, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc
}

func newTestResolver(t *testing.T, raw string) *Resolver {
	t.Helper()
	return NewResolver(docFromJSON(t, raw), common.NewSilentLogger())
}

func TestResolveSimpleRef(t *testing.T) {
	r := newTestResolver(t, `{
		"openapi": "3.0.0",
		"paths": {},
		"components": {"schemas": {"Widget": {"type": "object", "properties": {"id": {"type": "string"}}}}}
	}`)

	input := map[string]any{"$ref": "#/components/schemas/Widget"}
	resolved, err := r.Resolve(input, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	m, ok := resolved.(map[string]any)
	if !ok {
		t.Fatalf("expected map result, got %T", resolved)
	}
	if m["type"] != "object" {
		t.Errorf("expected expanded schema, got %v", m)
	}
	if _, hasRef := m["$ref"]; hasRef {
		t.Error("$ref key should not survive expansion")
	}
}

func TestResolveNestedAndRepeatedRefs(t *testing.T) {
	r := newTestResolver(t, `{
		"openapi": "3.0.0",
		"paths": {},
		"components": {"schemas": {
			"ID": {"type": "string", "format": "uuid"},
			"Pair": {
				"type": "object",
				"properties": {
					"first": {"$ref": "#/components/schemas/ID"},
					"second": {"$ref": "#/components/schemas/ID"}
				}
			}
		}}
	}`)

	resolved, err := r.Resolve(map[string]any{"$ref": "#/components/schemas/Pair"}, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	props := resolved.(map[string]any)["properties"].(map[string]any)
	for _, name := range []string{"first", "second"} {
		prop, ok := props[name].(map[string]any)
		if !ok {
			t.Fatalf("property %s missing", name)
		}
		if prop["format"] != "uuid" {
			t.Errorf("property %s not fully expanded: %v", name, prop)
		}
	}
}

func TestResolveSiblingKeysWin(t *testing.T) {
	r := newTestResolver(t, `{
		"openapi": "3.0.0",
		"paths": {},
		"components": {"schemas": {"Widget": {"type": "object", "description": "original"}}}
	}`)

	input := map[string]any{
		"$ref":        "#/components/schemas/Widget",
		"description": "overridden",
	}
	resolved, err := r.Resolve(input, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	m := resolved.(map[string]any)
	if m["description"] != "overridden" {
		t.Errorf("sibling key should override resolved target, got %v", m["description"])
	}
	if m["type"] != "object" {
		t.Errorf("non-conflicting target keys should be kept, got %v", m)
	}
}

func TestResolveEscapedPointerSegments(t *testing.T) {
	r := newTestResolver(t, `{
		"openapi": "3.0.0",
		"paths": {},
		"components": {"schemas": {"a/b~c": {"type": "integer"}}}
	}`)

	resolved, err := r.Resolve(map[string]any{"$ref": "#/components/schemas/a~1b~0c"}, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.(map[string]any)["type"] != "integer" {
		t.Errorf("escaped segment lookup failed: %v", resolved)
	}
}

func TestResolveCircularReference(t *testing.T) {
	r := newTestResolver(t, `{
		"openapi": "3.0.0",
		"paths": {},
		"components": {"schemas": {
			"Node": {
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"next": {"$ref": "#/components/schemas/Node"}
				}
			}
		}}
	}`)

	resolved, err := r.Resolve(map[string]any{"$ref": "#/components/schemas/Node"}, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// The outer node expands; the self-reference stays a pointer marker.
	props := resolved.(map[string]any)["properties"].(map[string]any)
	next, ok := props["next"].(map[string]any)
	if !ok {
		t.Fatal("next property missing")
	}
	if next["$ref"] != "#/components/schemas/Node" {
		t.Errorf("cycle should preserve the pointer node verbatim, got %v", next)
	}
}

func TestResolveMutualCycleTerminates(t *testing.T) {
	r := newTestResolver(t, `{
		"openapi": "3.0.0",
		"paths": {},
		"components": {"schemas": {
			"A": {"type": "object", "properties": {"b": {"$ref": "#/components/schemas/B"}}},
			"B": {"type": "object", "properties": {"a": {"$ref": "#/components/schemas/A"}}}
		}}
	}`)

	resolved, err := r.Resolve(map[string]any{"$ref": "#/components/schemas/A"}, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	// A -> B expands, B -> A is the cycle marker.
	b := resolved.(map[string]any)["properties"].(map[string]any)["b"].(map[string]any)
	a := b["properties"].(map[string]any)["a"].(map[string]any)
	if a["$ref"] != "#/components/schemas/A" {
		t.Errorf("expected cycle marker at B.a, got %v", a)
	}
}

func TestResolveExternalReference(t *testing.T) {
	r := newTestResolver(t, `{"openapi": "3.0.0", "paths": {}}`)

	_, err := r.Resolve(map[string]any{"$ref": "https://example.com/schema.json#/Foo"}, nil)
	var refErr *ReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected ReferenceError, got %v", err)
	}
	if refErr.Reason == "" {
		t.Error("external reference error should carry a reason")
	}
}

func TestResolveMissingSegment(t *testing.T) {
	r := newTestResolver(t, `{"openapi": "3.0.0", "paths": {}, "components": {"schemas": {}}}`)

	_, err := r.Resolve(map[string]any{"$ref": "#/components/schemas/Missing"}, nil)
	var refErr *ReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected ReferenceError, got %v", err)
	}
	if refErr.Segment != "Missing" {
		t.Errorf("expected failing segment %q, got %q", "Missing", refErr.Segment)
	}
}

func TestResolveArrayIndexSegment(t *testing.T) {
	r := newTestResolver(t, `{
		"openapi": "3.0.0",
		"paths": {},
		"components": {"lists": {"items": [{"type": "boolean"}]}}
	}`)

	resolved, err := r.Resolve(map[string]any{"$ref": "#/components/lists/items/0"}, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.(map[string]any)["type"] != "boolean" {
		t.Errorf("array index lookup failed: %v", resolved)
	}
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	r := newTestResolver(t, `{
		"openapi": "3.0.0",
		"paths": {},
		"components": {"schemas": {"Widget": {"type": "object"}}}
	}`)

	input := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"w": map[string]any{"$ref": "#/components/schemas/Widget"},
		},
	}
	before, _ := json.Marshal(input)

	if _, err := r.Resolve(input, nil); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	after, _ := json.Marshal(input)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("input mutated: before=%s after=%s", before, after)
	}
}

func TestResolveIsIdempotentOnResolvedSchemas(t *testing.T) {
	r := newTestResolver(t, `{
		"openapi": "3.0.0",
		"paths": {},
		"components": {"schemas": {"Widget": {"type": "object", "properties": {"id": {"type": "string"}}}}}
	}`)

	once, err := r.Resolve(map[string]any{"$ref": "#/components/schemas/Widget"}, nil)
	if err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	twice, err := r.Resolve(once, nil)
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("resolving an already-resolved schema changed it:\nonce=%v\ntwice=%v", once, twice)
	}
}
