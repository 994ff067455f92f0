package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateEmptyContract(t *testing.T) {
	for _, data := range []any{
		nil,
		map[string]any{},
		[]any{},
	} {
		valid, msg := Validate(data, "")
		if valid {
			t.Errorf("Expected invalid for %v", data)
		}
		if msg != "Contract data is empty" {
			t.Errorf("Expected empty-data message, got %q", msg)
		}
	}
}

func TestValidateListShape(t *testing.T) {
	data := []any{
		map[string]any{"name": "a", "type": "string"},
	}

	valid, msg := Validate(data, "")
	if !valid {
		t.Errorf("Expected valid after conversion, got message %q", msg)
	}
	if msg != "" {
		t.Errorf("Expected empty message, got %q", msg)
	}
}

func TestValidateNonObject(t *testing.T) {
	valid, msg := Validate("a string", "")
	if valid {
		t.Error("Expected invalid for non-object payload")
	}
	if msg == "" {
		t.Error("Expected a message")
	}
}

func TestValidateMissingProperties(t *testing.T) {
	data := map[string]any{"name": "pointer contract"}

	// Without a document type hint the contract must define properties.
	valid, msg := Validate(data, "")
	if valid {
		t.Error("Expected invalid without properties and without hint")
	}
	if !strings.Contains(msg, "properties") {
		t.Errorf("Expected message mentioning properties, got %q", msg)
	}

	// A document type hint allows a properties-less pointer contract.
	valid, msg = Validate(data, "invoice")
	if !valid {
		t.Errorf("Expected valid with document type hint, got %q", msg)
	}
}

func TestValidatePropertiesMustBeObject(t *testing.T) {
	valid, _ := Validate(map[string]any{"properties": "oops"}, "")
	if valid {
		t.Error("Expected invalid for non-object properties")
	}
}

func TestValidateFieldWithoutType(t *testing.T) {
	data := map[string]any{
		"properties": map[string]any{
			"x": map[string]any{"notype": 1},
		},
	}

	valid, msg := Validate(data, "")
	if valid {
		t.Error("Expected invalid for field without type")
	}
	if !strings.Contains(msg, "'x'") {
		t.Errorf("Expected message naming field x, got %q", msg)
	}
}

func TestValidateFieldDefinitionNotObject(t *testing.T) {
	data := map[string]any{
		"properties": map[string]any{
			"y": "just a string",
		},
	}

	valid, msg := Validate(data, "")
	if valid {
		t.Error("Expected invalid for non-object field definition")
	}
	if !strings.Contains(msg, "'y'") {
		t.Errorf("Expected message naming field y, got %q", msg)
	}
}

func TestValidateUnknownTypeAccepted(t *testing.T) {
	// The validator is an advisory gate: unknown type strings pass because
	// consumption defaults them to string.
	data := map[string]any{
		"properties": map[string]any{
			"z": map[string]any{"type": "fancy-custom-type"},
		},
	}

	valid, msg := Validate(data, "")
	if !valid {
		t.Errorf("Expected valid for unknown type string, got %q", msg)
	}
}

func TestValidateRaw(t *testing.T) {
	valid, msg := ValidateRaw(json.RawMessage(`[{"name":"a","type":"string"}]`), "")
	if !valid || msg != "" {
		t.Errorf("Expected (true, \"\"), got (%v, %q)", valid, msg)
	}

	valid, msg = ValidateRaw(json.RawMessage(`{`), "")
	if valid {
		t.Error("Expected invalid for malformed JSON")
	}
	if msg == "" {
		t.Error("Expected a message for malformed JSON")
	}

	valid, msg = ValidateRaw(nil, "")
	if valid || msg != "Contract data is empty" {
		t.Errorf("Expected empty-data failure, got (%v, %q)", valid, msg)
	}
}
