package jsonschema

import (
	"strings"
	"testing"
)

const personSchema = `{
	"type": "object",
	"properties": {
		"name": { "type": "string" },
		"age": { "type": "integer", "minimum": 0 }
	},
	"required": ["name"],
	"additionalProperties": false
}`

func TestCompile(t *testing.T) {
	if _, err := Compile("person.json", personSchema); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if _, err := Compile("broken.json", `{"type": `); err == nil {
		t.Error("Compile() with truncated schema: expected error, got nil")
	}
}

func TestSchema_ValidateJSON(t *testing.T) {
	schema := MustCompile("person.json", personSchema)

	tests := []struct {
		name      string
		json      string
		wantValid bool
		wantIn    string
	}{
		{name: "valid", json: `{"name": "Ada", "age": 36}`, wantValid: true},
		{name: "missing required", json: `{"age": 36}`, wantIn: "name"},
		{name: "wrong type", json: `{"name": "Ada", "age": "old"}`, wantIn: "/age"},
		{name: "below minimum", json: `{"name": "Ada", "age": -1}`, wantIn: "/age"},
		{name: "unknown property", json: `{"name": "Ada", "height": 170}`, wantIn: "height"},
		{name: "not JSON", json: `{"name": `, wantIn: "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := schema.ValidateJSON([]byte(tt.json))
			if tt.wantValid {
				if errs != nil {
					t.Fatalf("ValidateJSON() = %v, want valid", errs)
				}
				return
			}
			if len(errs) == 0 {
				t.Fatal("ValidateJSON() returned no errors for invalid document")
			}
			if !strings.Contains(errs.Error(), tt.wantIn) {
				t.Errorf("ValidateJSON() = %q, want it to mention %q", errs.Error(), tt.wantIn)
			}
		})
	}
}

func TestSchema_ValidateDecodedDocument(t *testing.T) {
	schema := MustCompile("person.json", personSchema)

	// yaml.v3 decodes integers as int, not float64.
	doc := map[string]interface{}{"name": "Ada", "age": 36}
	if errs := schema.Validate(doc); errs != nil {
		t.Errorf("Validate() = %v, want valid", errs)
	}

	doc = map[string]interface{}{"age": 36}
	if errs := schema.Validate(doc); len(errs) == 0 {
		t.Error("Validate() returned no errors for document without name")
	}

	if errs := schema.Validate(map[string]interface{}{"name": make(chan int)}); len(errs) != 1 {
		t.Errorf("Validate() of non-JSON value = %v, want one error", errs)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var none ValidationErrors
	if none.Error() != "" {
		t.Errorf("empty ValidationErrors.Error() = %q, want empty", none.Error())
	}

	errs := MustCompile("person.json", personSchema).ValidateJSON([]byte(`{"age": "x", "extra": 1}`))
	if len(errs) < 2 {
		t.Fatalf("expected several leaf errors, got %v", errs)
	}
	if !strings.Contains(errs.Error(), "; ") {
		t.Errorf("Error() = %q, want messages joined by '; '", errs.Error())
	}
}
