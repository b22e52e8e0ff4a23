// Package format renders Takaro API responses as human-readable tool output.
package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gettakaro/MCP/internal/client"
)

// Result formats a raw API response body. Paginated list envelopes
// ({data: [...], meta: {...}}) get a count header and the items; anything
// else is rendered as a single entity.
func Result(body []byte) string {
	if len(body) == 0 {
		return "(empty response)"
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return string(body)
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return prettyJSON(parsed)
	}

	if items, meta, isPage := paginated(obj); isPage {
		return formatPage(items, meta)
	}

	// Single-entity envelope: unwrap the data field when present.
	if data, ok := obj["data"]; ok {
		return prettyJSON(data)
	}
	return prettyJSON(obj)
}

// Error formats a failed API call as tool output. Structured API error
// detail is surfaced when the remote provided it; anything else gets a
// generic failure message.
func Error(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Takaro API error (HTTP %d)", apiErr.Status))
		if apiErr.Code != "" {
			sb.WriteString(": " + apiErr.Code)
		}
		if apiErr.Message != "" {
			sb.WriteString("\n" + apiErr.Message)
		}
		if len(apiErr.Details) > 0 {
			var details any
			if json.Unmarshal(apiErr.Details, &details) == nil {
				sb.WriteString("\nDetails: " + prettyJSON(details))
			}
		}
		return sb.String()
	}
	return fmt.Sprintf("Request failed: %v", err)
}

// paginated detects the Takaro list envelope.
func paginated(obj map[string]any) ([]any, map[string]any, bool) {
	items, ok := obj["data"].([]any)
	if !ok {
		return nil, nil, false
	}
	meta, ok := obj["meta"].(map[string]any)
	if !ok {
		return nil, nil, false
	}
	return items, meta, true
}

func formatPage(items []any, meta map[string]any) string {
	var sb strings.Builder

	count := len(items)
	if total, ok := meta["total"].(float64); ok {
		sb.WriteString(fmt.Sprintf("Found %d result(s), showing %d", int(total), count))
	} else {
		sb.WriteString(fmt.Sprintf("Found %d result(s)", count))
	}
	if page, ok := meta["page"].(float64); ok {
		sb.WriteString(fmt.Sprintf(" (page %d", int(page)))
		if limit, ok := meta["limit"].(float64); ok {
			sb.WriteString(fmt.Sprintf(", limit %d", int(limit)))
		}
		sb.WriteString(")")
	}
	sb.WriteString("\n\n")
	sb.WriteString(prettyJSON(items))
	return sb.String()
}

func prettyJSON(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}
