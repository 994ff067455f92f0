package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Recognized field types. Unknown type strings are accepted on input and
// treated as "string" when the schema is consumed.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// IsKnownFieldType reports whether t is one of the recognized field types.
func IsKnownFieldType(t string) bool {
	switch t {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeArray, TypeObject:
		return true
	}
	return false
}

// Field describes a single extractable field in a schema.
type Field struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Properties is an insertion-ordered mapping from field name to Field.
// JSON object keys carry no order in encoding/json maps, but consumers
// display fields in the order the contract author wrote them, so the
// order observed during decode (or Set calls) is preserved on encode.
type Properties struct {
	keys   []string
	fields map[string]Field
}

// Set adds or replaces a field. A new name is appended to the key order;
// replacing an existing name keeps its original position.
func (p *Properties) Set(name string, f Field) {
	if p.fields == nil {
		p.fields = make(map[string]Field)
	}
	if _, exists := p.fields[name]; !exists {
		p.keys = append(p.keys, name)
	}
	p.fields[name] = f
}

// Get returns the field for name.
func (p *Properties) Get(name string) (Field, bool) {
	f, ok := p.fields[name]
	return f, ok
}

// Names returns the field names in insertion order.
func (p *Properties) Names() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of fields.
func (p *Properties) Len() int {
	return len(p.keys)
}

// MarshalJSON encodes the properties as a JSON object in insertion order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(p.fields[name])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the key order of the input.
func (p *Properties) UnmarshalJSON(data []byte) error {
	p.keys = nil
	p.fields = make(map[string]Field)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("properties must be a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected properties key token %v", keyTok)
		}
		var f Field
		if err := dec.Decode(&f); err != nil {
			return fmt.Errorf("field definition for %q: %w", name, err)
		}
		p.Set(name, f)
	}
	// Consume closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// Schema is the canonical structured-field specification applied during
// extraction. Its JSON shape is {"type":"object","properties":{...},"required":[...]}.
type Schema struct {
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
	Required   []string   `json:"required,omitempty"`
}

// IsEmpty reports whether the schema defines no fields. An empty-but-present
// schema is legitimate and not an error.
func (s Schema) IsEmpty() bool {
	return s.Properties.Len() == 0
}
