package tool

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Parameter type literals used by tool schemas.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

var validTypes = map[string]struct{}{
	TypeString:  {},
	TypeInteger: {},
	TypeNumber:  {},
	TypeBoolean: {},
	TypeArray:   {},
	TypeObject:  {},
}

// FieldSpec declares one tool parameter.
type FieldSpec struct {
	Name        string
	Type        string
	Required    bool
	Description string
	Enum        []string
	Minimum     *float64
	Maximum     *float64
	// Items describes array elements; Name is ignored.
	Items *FieldSpec
	// Properties describes object members in declaration order. An object
	// without properties accepts any members.
	Properties Schema
}

// Schema is an ordered parameter list. Declaration order is the order in which
// arguments are validated and published.
type Schema []FieldSpec

// Bound is a convenience for FieldSpec.Minimum and FieldSpec.Maximum literals.
func Bound(v float64) *float64 {
	return &v
}

// Arguments holds decoded call arguments keyed by parameter name.
type Arguments map[string]any

// Check validates the schema declaration itself and returns the first problem.
func (s Schema) Check() error {
	return checkFields("", s)
}

func checkFields(prefix string, fields Schema) error {
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return fmt.Errorf("tool: schema %s has a field with an empty name", describePrefix(prefix))
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("tool: schema field %q is declared twice", joinPath(prefix, name))
		}
		seen[name] = struct{}{}
		if err := checkField(joinPath(prefix, name), field); err != nil {
			return err
		}
	}
	return nil
}

func checkField(path string, field FieldSpec) error {
	if !isValidType(field.Type) {
		return fmt.Errorf("tool: schema field %q has unsupported type %q; allowed: string, integer, number, boolean, array, object", path, field.Type)
	}
	if len(field.Enum) > 0 && field.Type != TypeString {
		return fmt.Errorf("tool: schema field %q declares enum on non-string type %q", path, field.Type)
	}
	if (field.Minimum != nil || field.Maximum != nil) && field.Type != TypeInteger && field.Type != TypeNumber {
		return fmt.Errorf("tool: schema field %q declares bounds on non-numeric type %q", path, field.Type)
	}
	if field.Minimum != nil && field.Maximum != nil && *field.Minimum > *field.Maximum {
		return fmt.Errorf("tool: schema field %q has minimum greater than maximum", path)
	}
	switch field.Type {
	case TypeArray:
		if field.Items == nil {
			return fmt.Errorf("tool: schema field %q: items is required when type is array", path)
		}
		return checkField(path+"[]", *field.Items)
	case TypeObject:
		return checkFields(path, field.Properties)
	}
	return nil
}

// Validate checks args against the schema and returns an INVALID_ARGUMENTS
// ToolError describing the first violation in declaration order. Arguments
// that the schema does not declare are ignored. A JSON null counts as absent.
func (s Schema) Validate(args Arguments) error {
	return validateFields("", s, args)
}

func validateFields(prefix string, fields Schema, values map[string]any) error {
	for _, field := range fields {
		path := joinPath(prefix, field.Name)
		value, present := values[field.Name]
		if !present || value == nil {
			if field.Required {
				return invalidArgument(path, "parameter %q is required", path)
			}
			continue
		}
		if err := validateValue(path, field, value); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(path string, field FieldSpec, value any) error {
	switch field.Type {
	case TypeString:
		str, ok := value.(string)
		if !ok {
			return typeMismatch(path, field.Type, value)
		}
		if len(field.Enum) > 0 && !slices.Contains(field.Enum, str) {
			return invalidArgument(path, "parameter %q must be one of %s, got %q", path, strings.Join(field.Enum, ", "), str)
		}
	case TypeInteger:
		num, ok := asNumber(value)
		if !ok || num != math.Trunc(num) {
			return typeMismatch(path, field.Type, value)
		}
		if !fitsInt64(value, num) {
			return invalidArgument(path, "parameter %q is out of the 64-bit integer range, got %s", path, formatNumber(num))
		}
		return checkBounds(path, field, num)
	case TypeNumber:
		num, ok := asNumber(value)
		if !ok {
			return typeMismatch(path, field.Type, value)
		}
		return checkBounds(path, field, num)
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return typeMismatch(path, field.Type, value)
		}
	case TypeArray:
		items, ok := value.([]any)
		if !ok {
			return typeMismatch(path, field.Type, value)
		}
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if item == nil {
				return invalidArgument(itemPath, "parameter %q must not be null", itemPath)
			}
			if err := validateValue(itemPath, *field.Items, item); err != nil {
				return err
			}
		}
	case TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return typeMismatch(path, field.Type, value)
		}
		return validateFields(path, field.Properties, obj)
	}
	return nil
}

func checkBounds(path string, field FieldSpec, num float64) error {
	if field.Minimum != nil && num < *field.Minimum {
		return invalidArgument(path, "parameter %q must be >= %s, got %s", path, formatNumber(*field.Minimum), formatNumber(num))
	}
	if field.Maximum != nil && num > *field.Maximum {
		return invalidArgument(path, "parameter %q must be <= %s, got %s", path, formatNumber(*field.Maximum), formatNumber(num))
	}
	return nil
}

func typeMismatch(path, want string, value any) error {
	return invalidArgument(path, "parameter %q must be %s %s, got %s", path, article(want), want, describeType(value))
}

func invalidArgument(path, format string, args ...any) error {
	return Errorf(ToolErrorCodeInvalidArguments, format, args...).
		WithDetails(map[string]any{"field": path})
}

// JSONSchema renders the schema as a JSON Schema object for tool listings.
// Properties are listed in declaration order.
func (s Schema) JSONSchema() map[string]any {
	properties := NewObject()
	required := make([]string, 0)
	for _, field := range s {
		properties.Set(field.Name, fieldJSONSchema(field))
		if field.Required {
			required = append(required, field.Name)
		}
	}
	out := map[string]any{
		"type":       TypeObject,
		"properties": properties,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func fieldJSONSchema(field FieldSpec) map[string]any {
	out := map[string]any{"type": field.Type}
	if field.Description != "" {
		out["description"] = field.Description
	}
	if len(field.Enum) > 0 {
		out["enum"] = slices.Clone(field.Enum)
	}
	if field.Minimum != nil {
		out["minimum"] = *field.Minimum
	}
	if field.Maximum != nil {
		out["maximum"] = *field.Maximum
	}
	switch field.Type {
	case TypeArray:
		if field.Items != nil {
			out["items"] = fieldJSONSchema(*field.Items)
		}
	case TypeObject:
		if len(field.Properties) > 0 {
			nested := field.Properties.JSONSchema()
			out["properties"] = nested["properties"]
			if req, ok := nested["required"]; ok {
				out["required"] = req
			}
		}
	}
	return out
}

// Canonicalize returns a copy of args in which every declared integer
// parameter is a json.Number in plain decimal form, so 2.0 and 1e1 reach
// handlers as 2 and 10. Undeclared members are copied unchanged. args must
// have passed Validate.
func (s Schema) Canonicalize(args Arguments) Arguments {
	return Arguments(canonicalFields(s, args))
}

func canonicalFields(fields Schema, values map[string]any) map[string]any {
	out := maps.Clone(values)
	if out == nil {
		out = make(map[string]any)
	}
	for _, field := range fields {
		if value, ok := out[field.Name]; ok && value != nil {
			out[field.Name] = canonicalValue(field, value)
		}
	}
	return out
}

func canonicalValue(field FieldSpec, value any) any {
	switch field.Type {
	case TypeInteger:
		if n, ok := canonicalInteger(value); ok {
			return n
		}
	case TypeArray:
		items, ok := value.([]any)
		if !ok || field.Items == nil {
			return value
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = canonicalValue(*field.Items, item)
		}
		return out
	case TypeObject:
		if obj, ok := value.(map[string]any); ok && len(field.Properties) > 0 {
			return canonicalFields(field.Properties, obj)
		}
	}
	return value
}

func canonicalInteger(value any) (json.Number, bool) {
	if n, ok := value.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return json.Number(strconv.FormatInt(i, 10)), true
		}
	}
	num, ok := asNumber(value)
	if !ok || num != math.Trunc(num) || !inInt64Range(num) {
		return "", false
	}
	return json.Number(strconv.FormatInt(int64(num), 10)), true
}

func fitsInt64(value any, num float64) bool {
	if n, ok := value.(json.Number); ok {
		if _, err := n.Int64(); err == nil {
			return true
		}
	}
	return inInt64Range(num)
}

func inInt64Range(num float64) bool {
	return num >= math.MinInt64 && num < math.MaxInt64
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func describeType(value any) string {
	switch value.(type) {
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case float64, float32, int, int32, int64, json.Number:
		return "a number"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func article(typeName string) string {
	switch typeName {
	case TypeInteger, TypeArray, TypeObject:
		return "an"
	default:
		return "a"
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isValidType(typeName string) bool {
	_, ok := validTypes[typeName]
	return ok
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func describePrefix(prefix string) string {
	if prefix == "" {
		return "root"
	}
	return fmt.Sprintf("%q", prefix)
}
