package dumpling

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/petal-labs/dumpling-mcp/tool"
)

// Body is a decoded upstream JSON object. Numbers are json.Number so they
// render exactly as received.
type Body map[string]any

// Field selects one upstream member into a projection.
type Field struct {
	// Key is the output member name.
	Key string
	// From is the upstream member name; it defaults to Key.
	From string
	// Required fields must be present and non-null, otherwise the response is
	// treated as malformed. Optional fields are omitted when absent, null or empty.
	Required bool
	// List requires the value to be a JSON array.
	List bool
	// Pick keeps only these members of an object value, or of each object
	// element of an array value, in the listed order.
	Pick []string
}

// Projection is an ordered set of field selections.
type Projection []Field

// Apply builds the projected object from body.
func (p Projection) Apply(body Body) (*tool.Object, error) {
	out := tool.NewObject()
	for _, field := range p {
		from := field.From
		if from == "" {
			from = field.Key
		}
		value, present := body[from]
		if !present || value == nil {
			if field.Required {
				return nil, malformed("upstream response is missing required field %q", from)
			}
			continue
		}
		if !field.Required && isEmpty(value) {
			continue
		}
		if field.List {
			if _, ok := value.([]any); !ok {
				return nil, malformed("upstream field %q must be an array, got %s", from, jsonKind(value))
			}
		}
		if len(field.Pick) > 0 {
			value = pick(value, field.Pick)
		}
		out.Set(field.Key, value)
	}
	return out, nil
}

// Render applies the projection and formats it as indented JSON text.
func (p Projection) Render(body Body) (tool.Result, error) {
	obj, err := p.Apply(body)
	if err != nil {
		return tool.Result{}, err
	}
	return renderJSON(obj)
}

func renderJSON(value any) (tool.Result, error) {
	compact, err := tool.EncodeJSON(value)
	if err != nil {
		return tool.Result{}, tool.NewError(tool.ToolErrorCodeMalformedResponse, "render projection", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return tool.Result{}, tool.NewError(tool.ToolErrorCodeMalformedResponse, "render projection", err)
	}
	return tool.TextResult(out.String()), nil
}

func pick(value any, keys []string) any {
	switch v := value.(type) {
	case map[string]any:
		return pickObject(v, keys)
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, pickObject(obj, keys))
				continue
			}
			out = append(out, item)
		}
		return out
	default:
		return value
	}
}

func pickObject(obj map[string]any, keys []string) *tool.Object {
	out := tool.NewObject()
	for _, key := range keys {
		value, ok := obj[key]
		if !ok || value == nil {
			continue
		}
		out.Set(key, value)
	}
	return out
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

// requiredString returns a required string member of body.
func requiredString(body Body, key string) (string, error) {
	value, ok := body[key]
	if !ok || value == nil {
		return "", malformed("upstream response is missing required field %q", key)
	}
	str, ok := value.(string)
	if !ok {
		return "", malformed("upstream field %q must be a string, got %s", key, jsonKind(value))
	}
	return str, nil
}

// optionalString returns a string member when it is present and non-empty.
func optionalString(body Body, key string) (string, bool) {
	str, ok := body[key].(string)
	if !ok || strings.TrimSpace(str) == "" {
		return "", false
	}
	return str, true
}

func malformed(format string, args ...any) error {
	return tool.Errorf(tool.ToolErrorCodeMalformedResponse, format, args...)
}

func jsonKind(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}
