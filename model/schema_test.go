package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestPropertiesPreserveInsertionOrder(t *testing.T) {
	var p Properties
	p.Set("zebra", Field{Type: TypeString})
	p.Set("apple", Field{Type: TypeNumber})
	p.Set("mango", Field{Type: TypeBoolean})

	if got := p.Names(); !reflect.DeepEqual(got, []string{"zebra", "apple", "mango"}) {
		t.Errorf("Expected insertion order, got %v", got)
	}

	// Replacing a field keeps its position.
	p.Set("apple", Field{Type: TypeString, Description: "updated"})
	if got := p.Names(); !reflect.DeepEqual(got, []string{"zebra", "apple", "mango"}) {
		t.Errorf("Expected stable order after replace, got %v", got)
	}
	f, _ := p.Get("apple")
	if f.Description != "updated" {
		t.Errorf("Expected updated field, got %+v", f)
	}
}

func TestPropertiesJSONOrder(t *testing.T) {
	input := `{"b":{"type":"string"},"a":{"type":"number"},"c":{"type":"boolean","description":"flag"}}`

	var p Properties
	if err := json.Unmarshal([]byte(input), &p); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if got := p.Names(); !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
		t.Errorf("Expected decode to keep input order, got %v", got)
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if string(out) != input {
		t.Errorf("Expected order-preserving round trip:\n in: %s\nout: %s", input, out)
	}
}

func TestPropertiesUnmarshalRejectsNonObject(t *testing.T) {
	var p Properties
	if err := json.Unmarshal([]byte(`["not", "an", "object"]`), &p); err == nil {
		t.Error("Expected error for non-object properties")
	}
}

func TestSchemaCanonicalJSON(t *testing.T) {
	var p Properties
	p.Set("employer", Field{Type: TypeString, Description: "Employer name"})
	s := Schema{Type: TypeObject, Properties: p, Required: []string{"employer"}}

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	expected := `{"type":"object","properties":{"employer":{"type":"string","description":"Employer name"}},"required":["employer"]}`
	if string(out) != expected {
		t.Errorf("Unexpected canonical JSON:\n%s", out)
	}
}

func TestIsKnownFieldType(t *testing.T) {
	for _, ft := range []string{TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeArray, TypeObject} {
		if !IsKnownFieldType(ft) {
			t.Errorf("Expected %q to be known", ft)
		}
	}
	if IsKnownFieldType("decimal") {
		t.Error("Expected 'decimal' to be unknown")
	}
}
