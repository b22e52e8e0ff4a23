package openapi

import (
	"reflect"
	"testing"
)

func TestParseRejectsInvalidDocuments(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{`},
		{"missing openapi field", `{"paths": {}}`},
		{"missing paths", `{"openapi": "3.0.0"}`},
		{"paths not an object", `{"openapi": "3.0.0", "paths": []}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.body)); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestPathNamesSorted(t *testing.T) {
	doc := docFromJSON(t, `{
		"openapi": "3.0.0",
		"paths": {"/zebra": {}, "/alpha": {}, "/middle": {}}
	}`)

	want := []string{"/alpha", "/middle", "/zebra"}
	if got := doc.PathNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("PathNames() = %v, want %v", got, want)
	}
}

func TestOperationLookup(t *testing.T) {
	doc := docFromJSON(t, `{
		"openapi": "3.0.0",
		"paths": {"/player/search": {"post": {"operationId": "PlayerController.search"}}}
	}`)

	op, ok := doc.Operation("/player/search", "POST")
	if !ok {
		t.Fatal("expected operation for upper-case method")
	}
	if OperationID(op) != "PlayerController.search" {
		t.Errorf("unexpected operationId: %v", op)
	}

	if _, ok := doc.Operation("/player/search", "get"); ok {
		t.Error("expected no GET operation")
	}
	if _, ok := doc.Operation("/missing", "post"); ok {
		t.Error("expected no operation for unknown path")
	}
}

func TestRequestBodySchema(t *testing.T) {
	doc := docFromJSON(t, `{
		"openapi": "3.0.0",
		"paths": {
			"/player/search": {"post": {
				"requestBody": {"content": {"application/json": {"schema": {"type": "object"}}}}
			}},
			"/bare": {"post": {}}
		}
	}`)

	op, _ := doc.Operation("/player/search", "post")
	schema, ok := RequestBodySchema(op)
	if !ok || schema["type"] != "object" {
		t.Errorf("expected request body schema, got %v (ok=%v)", schema, ok)
	}

	bare, _ := doc.Operation("/bare", "post")
	if _, ok := RequestBodySchema(bare); ok {
		t.Error("expected no schema for body-less operation")
	}
}

func TestOperationSummaryFallsBackToDescription(t *testing.T) {
	op := map[string]any{"description": "long form"}
	if got := OperationSummary(op); got != "long form" {
		t.Errorf("OperationSummary() = %q", got)
	}
	op["summary"] = "short form"
	if got := OperationSummary(op); got != "short form" {
		t.Errorf("OperationSummary() = %q", got)
	}
}

func TestTitle(t *testing.T) {
	doc := docFromJSON(t, `{
		"openapi": "3.0.0",
		"info": {"title": "Takaro app API"},
		"paths": {}
	}`)
	if doc.Title() != "Takaro app API" {
		t.Errorf("Title() = %q", doc.Title())
	}
}
