package openapi

// annotationKeys are OpenAPI-only annotation fields that tool schema
// consumers do not understand. They are stripped during dialect conversion.
var annotationKeys = []string{
	"example",
	"examples",
	"deprecated",
	"readOnly",
	"writeOnly",
	"discriminator",
	"externalDocs",
	"xml",
}

// Keys whose value is a map of name -> schema. The container itself is not a
// schema, so property names that collide with annotation keys survive.
var schemaMapKeys = []string{"properties", "patternProperties", "definitions", "$defs"}

// Keys whose value is a list of schemas.
var schemaListKeys = []string{"allOf", "anyOf", "oneOf", "prefixItems"}

// Keys whose value is a single subschema (or a tuple of them, for items).
var schemaChildKeys = []string{"items", "additionalProperties", "not", "contains"}

// ToToolSchema converts a resolved OpenAPI schema into the JSON Schema
// dialect used for tool input: annotation fields are stripped and
// nullable flags are converted into explicit type unions that include
// "null". Conversion only applies at schema positions, so a property that
// happens to be named "example" or "nullable" is left alone. The input is
// not mutated.
func ToToolSchema(schema map[string]any) map[string]any {
	converted, _ := convertSchema(deepCopy(schema)).(map[string]any)
	return converted
}

// convertSchema rewrites one schema node and descends into its subschemas.
func convertSchema(node any) any {
	switch n := node.(type) {
	case map[string]any:
		for _, key := range annotationKeys {
			delete(n, key)
		}
		if nullable, _ := n["nullable"].(bool); nullable {
			delete(n, "nullable")
			switch t := n["type"].(type) {
			case string:
				n["type"] = []any{t, "null"}
			case []any:
				if !containsType(t, "null") {
					n["type"] = append(t, "null")
				}
			}
		} else {
			delete(n, "nullable")
		}

		for _, key := range schemaMapKeys {
			if m, ok := n[key].(map[string]any); ok {
				for name, sub := range m {
					m[name] = convertSchema(sub)
				}
			}
		}
		for _, key := range schemaListKeys {
			if list, ok := n[key].([]any); ok {
				for i, sub := range list {
					list[i] = convertSchema(sub)
				}
			}
		}
		for _, key := range schemaChildKeys {
			if sub, ok := n[key]; ok {
				n[key] = convertSchema(sub)
			}
		}
		return n
	case []any:
		// Tuple form of items.
		for i, v := range n {
			n[i] = convertSchema(v)
		}
		return n
	default:
		return node
	}
}

func containsType(types []any, want string) bool {
	for _, t := range types {
		if s, ok := t.(string); ok && s == want {
			return true
		}
	}
	return false
}
