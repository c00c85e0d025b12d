package tool

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"
)

func testSchema() Schema {
	return Schema{
		{Name: "query", Type: TypeString, Required: true},
		{Name: "page", Type: TypeInteger, Minimum: Bound(1), Maximum: Bound(10)},
		{Name: "dateRange", Type: TypeString, Enum: []string{"pastDay", "pastWeek"}},
		{Name: "ratio", Type: TypeNumber, Minimum: Bound(0)},
		{Name: "scrape", Type: TypeBoolean},
		{Name: "files", Type: TypeArray, Items: &FieldSpec{Type: TypeString}},
		{Name: "options", Type: TypeObject, Properties: Schema{
			{Name: "format", Type: TypeString, Required: true, Enum: []string{"markdown", "html"}},
		}},
		{Name: "metadata", Type: TypeObject},
	}
}

func TestSchemaValidateAcceptsValidArguments(t *testing.T) {
	err := testSchema().Validate(Arguments{
		"query":     "rust ownership",
		"page":      float64(2),
		"dateRange": "pastDay",
		"ratio":     0.5,
		"scrape":    false,
		"files":     []any{"a", "b"},
		"options":   map[string]any{"format": "html"},
		"metadata":  map[string]any{"anything": []any{1.0}},
		"unknown":   "ignored",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestSchemaValidateViolations(t *testing.T) {
	tests := []struct {
		name      string
		args      Arguments
		wantField string
		wantText  string
	}{
		{
			name:      "missing required",
			args:      Arguments{},
			wantField: "query",
			wantText:  `parameter "query" is required`,
		},
		{
			name:      "null counts as absent",
			args:      Arguments{"query": nil},
			wantField: "query",
			wantText:  "is required",
		},
		{
			name:      "wrong string type",
			args:      Arguments{"query": 42.0},
			wantField: "query",
			wantText:  `parameter "query" must be a string, got a number`,
		},
		{
			name:      "fractional integer",
			args:      Arguments{"query": "q", "page": 1.5},
			wantField: "page",
			wantText:  "must be an integer",
		},
		{
			name:      "below minimum",
			args:      Arguments{"query": "q", "page": 0.0},
			wantField: "page",
			wantText:  `parameter "page" must be >= 1, got 0`,
		},
		{
			name:      "above maximum",
			args:      Arguments{"query": "q", "page": 11.0},
			wantField: "page",
			wantText:  "must be <= 10",
		},
		{
			name:      "enum mismatch",
			args:      Arguments{"query": "q", "dateRange": "yesterday"},
			wantField: "dateRange",
			wantText:  "must be one of pastDay, pastWeek",
		},
		{
			name:      "boolean type",
			args:      Arguments{"query": "q", "scrape": "yes"},
			wantField: "scrape",
			wantText:  "must be a boolean",
		},
		{
			name:      "array item",
			args:      Arguments{"query": "q", "files": []any{"a", 3.0}},
			wantField: "files[1]",
			wantText:  `parameter "files[1]" must be a string`,
		},
		{
			name:      "nested required",
			args:      Arguments{"query": "q", "options": map[string]any{}},
			wantField: "options.format",
			wantText:  `parameter "options.format" is required`,
		},
		{
			name:      "object type",
			args:      Arguments{"query": "q", "metadata": "x"},
			wantField: "metadata",
			wantText:  "must be an object, got a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testSchema().Validate(tt.args)
			if err == nil {
				t.Fatal("Validate() error = nil, want non-nil")
			}
			toolErr, ok := AsToolError(err)
			if !ok {
				t.Fatalf("Validate() error = %T, want *ToolError", err)
			}
			if toolErr.Code != ToolErrorCodeInvalidArguments {
				t.Fatalf("Code = %q, want %q", toolErr.Code, ToolErrorCodeInvalidArguments)
			}
			if got := toolErr.Details["field"]; got != tt.wantField {
				t.Fatalf("Details[field] = %v, want %q", got, tt.wantField)
			}
			if !strings.Contains(toolErr.Message, tt.wantText) {
				t.Fatalf("Message = %q, want substring %q", toolErr.Message, tt.wantText)
			}
		})
	}
}

func TestSchemaValidateReportsFirstViolationInDeclarationOrder(t *testing.T) {
	err := testSchema().Validate(Arguments{
		"files":  "not-an-array",
		"page":   "two",
		"scrape": "yes",
	})
	if got := ErrorCode(err); got != ToolErrorCodeInvalidArguments {
		t.Fatalf("ErrorCode = %q, want INVALID_ARGUMENTS", got)
	}
	toolErr, _ := AsToolError(err)
	if toolErr.Details["field"] != "query" {
		t.Fatalf("first violation = %v, want query", toolErr.Details["field"])
	}

	err = testSchema().Validate(Arguments{
		"query":  "q",
		"files":  "not-an-array",
		"page":   "two",
		"scrape": "yes",
	})
	toolErr, _ = AsToolError(err)
	if toolErr.Details["field"] != "page" {
		t.Fatalf("first violation = %v, want page", toolErr.Details["field"])
	}
}

func TestSchemaValidateAcceptsJSONNumber(t *testing.T) {
	schema := Schema{{Name: "count", Type: TypeInteger, Required: true}}
	if err := schema.Validate(Arguments{"count": json.Number("3")}); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := schema.Validate(Arguments{"count": json.Number("3.5")}); err == nil {
		t.Fatal("Validate() error = nil, want fractional rejection")
	}
}

func TestSchemaCheck(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		wantErr string
	}{
		{name: "valid", schema: testSchema()},
		{name: "empty name", schema: Schema{{Type: TypeString}}, wantErr: "empty name"},
		{name: "duplicate", schema: Schema{{Name: "a", Type: TypeString}, {Name: "a", Type: TypeString}}, wantErr: "declared twice"},
		{name: "bad type", schema: Schema{{Name: "a", Type: "uuid"}}, wantErr: "unsupported type"},
		{name: "array without items", schema: Schema{{Name: "a", Type: TypeArray}}, wantErr: "items is required"},
		{name: "enum on integer", schema: Schema{{Name: "a", Type: TypeInteger, Enum: []string{"1"}}}, wantErr: "enum on non-string"},
		{name: "bounds on string", schema: Schema{{Name: "a", Type: TypeString, Minimum: Bound(1)}}, wantErr: "bounds on non-numeric"},
		{name: "inverted bounds", schema: Schema{{Name: "a", Type: TypeInteger, Minimum: Bound(5), Maximum: Bound(1)}}, wantErr: "minimum greater than maximum"},
		{name: "nested", schema: Schema{{Name: "o", Type: TypeObject, Properties: Schema{{Name: "x", Type: "date"}}}}, wantErr: `"o.x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Check()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Check() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Check() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestSchemaJSONSchema(t *testing.T) {
	out := testSchema().JSONSchema()
	if out["type"] != TypeObject {
		t.Fatalf("type = %v, want object", out["type"])
	}
	required, _ := out["required"].([]string)
	if !slices.Equal(required, []string{"query"}) {
		t.Fatalf("required = %v, want [query]", required)
	}
	properties := out["properties"].(*Object)
	wantOrder := []string{"query", "page", "dateRange", "ratio", "scrape", "files", "options", "metadata"}
	if got := properties.Keys(); !slices.Equal(got, wantOrder) {
		t.Fatalf("properties = %v, want declaration order %v", got, wantOrder)
	}
	pageValue, _ := properties.Get("page")
	page := pageValue.(map[string]any)
	if page["type"] != TypeInteger || page["minimum"] != 1.0 || page["maximum"] != 10.0 {
		t.Fatalf("page schema = %v", page)
	}
	filesValue, _ := properties.Get("files")
	if items := filesValue.(map[string]any)["items"].(map[string]any); items["type"] != TypeString {
		t.Fatalf("files.items = %v", items)
	}
	optionsValue, _ := properties.Get("options")
	options := optionsValue.(map[string]any)
	if req, _ := options["required"].([]string); !slices.Equal(req, []string{"format"}) {
		t.Fatalf("options.required = %v, want [format]", options["required"])
	}

	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("json.Marshal(JSONSchema()) error = %v", err)
	}
	last := -1
	for _, name := range wantOrder {
		idx := strings.Index(string(raw), `"`+name+`":{`)
		if idx <= last {
			t.Fatalf("property %q out of declaration order in %s", name, raw)
		}
		last = idx
	}
}

func TestSchemaCanonicalizeIntegers(t *testing.T) {
	schema := Schema{
		{Name: "page", Type: TypeInteger},
		{Name: "ratio", Type: TypeNumber},
		{Name: "ids", Type: TypeArray, Items: &FieldSpec{Type: TypeInteger}},
		{Name: "options", Type: TypeObject, Properties: Schema{{Name: "depth", Type: TypeInteger}}},
		{Name: "metadata", Type: TypeObject},
	}
	args := Arguments{
		"page":     json.Number("2.0"),
		"ratio":    json.Number("1.50"),
		"ids":      []any{json.Number("1e1"), 3.0},
		"options":  map[string]any{"depth": json.Number("20E-1")},
		"metadata": map[string]any{"n": json.Number("9007199254740993"), "f": json.Number("2.0")},
		"extra":    json.Number("4.0"),
	}
	if err := schema.Validate(args); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	got := schema.Canonicalize(args)
	if got["page"] != json.Number("2") {
		t.Fatalf("page = %#v, want 2", got["page"])
	}
	if got["ratio"] != json.Number("1.50") {
		t.Fatalf("ratio = %#v, numbers must be left alone", got["ratio"])
	}
	if ids := got["ids"].([]any); ids[0] != json.Number("10") || ids[1] != json.Number("3") {
		t.Fatalf("ids = %#v", ids)
	}
	if depth := got["options"].(map[string]any)["depth"]; depth != json.Number("2") {
		t.Fatalf("options.depth = %#v", depth)
	}
	metadata := got["metadata"].(map[string]any)
	if metadata["n"] != json.Number("9007199254740993") || metadata["f"] != json.Number("2.0") {
		t.Fatalf("metadata = %#v, free-form members must be untouched", metadata)
	}
	if got["extra"] != json.Number("4.0") {
		t.Fatalf("extra = %#v", got["extra"])
	}
	if args["page"] != json.Number("2.0") {
		t.Fatalf("Canonicalize() modified its input: %#v", args["page"])
	}
}

func TestSchemaValidateIntegerRange(t *testing.T) {
	schema := Schema{{Name: "n", Type: TypeInteger}}
	if err := schema.Validate(Arguments{"n": json.Number("9223372036854775807")}); err != nil {
		t.Fatalf("Validate(max int64) error = %v", err)
	}
	err := schema.Validate(Arguments{"n": json.Number("1e30")})
	if !HasCode(err, ToolErrorCodeInvalidArguments) || !strings.Contains(err.Error(), "64-bit integer range") {
		t.Fatalf("Validate(1e30) error = %v", err)
	}
}

func TestSchemaJSONSchemaOmitsEmptyRequired(t *testing.T) {
	out := Schema{{Name: "a", Type: TypeString}}.JSONSchema()
	if _, ok := out["required"]; ok {
		t.Fatalf("required present for schema without required fields: %v", out)
	}
}
