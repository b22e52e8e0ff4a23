package tools

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/gettakaro/MCP/internal/client"
)

// placeholderPattern matches {name} placeholders in a path template.
var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// InvocationBinding is the recipe for turning structured tool input into a
// concrete HTTP request: method, path template, and parameter placement.
// Placeholder fields go into the path, the rest into the query string for
// read-style methods or the request body otherwise.
type InvocationBinding struct {
	Method       string
	PathTemplate string
}

// Invoke builds and executes the HTTP request for the given input. The
// caller's input map is never mutated. The raw response body or error from
// the client is propagated unchanged.
func (b *InvocationBinding) Invoke(ctx context.Context, input map[string]any, c *client.Client) ([]byte, error) {
	remaining := make(map[string]any, len(input))
	for k, v := range input {
		remaining[k] = v
	}

	path := b.PathTemplate
	for _, match := range placeholderPattern.FindAllStringSubmatch(b.PathTemplate, -1) {
		name := match[1]
		val, ok := remaining[name]
		if !ok {
			return nil, &MissingParameterError{Param: name, Path: b.PathTemplate}
		}
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(fmt.Sprint(val)))
		delete(remaining, name)
	}

	cfg := client.RequestConfig{
		Method: b.Method,
		Path:   path,
	}

	switch strings.ToUpper(b.Method) {
	case "GET", "DELETE":
		if len(remaining) > 0 {
			query := url.Values{}
			for k, v := range remaining {
				query.Set(k, fmt.Sprint(v))
			}
			cfg.Query = query
		}
	default:
		if len(remaining) > 0 {
			cfg.Body = remaining
		}
	}

	return c.Request(ctx, cfg)
}
