package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/thakurdishanttt/Project-DocuLens/model"
)

// ListField is the legacy list-shape field descriptor. Upstream producers
// emit contracts either as a canonical JSON-Schema object or as an ordered
// list of these records.
type ListField struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// ConvertFieldList converts the list shape into the canonical schema.
// Entries without a name are skipped rather than rejected, since upstream
// producers occasionally emit malformed rows. The list shape carries no
// requiredness information, so Required stays empty. Conversion is a pure
// function of the input: the same list always yields the same schema with
// the same field order.
func ConvertFieldList(fields []ListField) model.Schema {
	s := model.Schema{Type: model.TypeObject}
	for _, f := range fields {
		if f.Name == "" {
			continue
		}
		fieldType := f.Type
		if fieldType == "" {
			fieldType = model.TypeString
		}
		desc := f.Description
		if desc == "" {
			desc = fmt.Sprintf("Extract the %s", f.Name)
		}
		s.Properties.Set(f.Name, model.Field{Type: fieldType, Description: desc})
	}
	return s
}

// DecodeShape normalizes a raw contract payload, in either accepted shape,
// into the canonical schema. The shape is decided once here so downstream
// code never branches on representation again.
func DecodeShape(raw json.RawMessage) (model.Schema, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return model.Schema{}, fmt.Errorf("%w: empty payload", ErrInvalidInput)
	}

	switch trimmed[0] {
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return model.Schema{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		fields := make([]ListField, 0, len(entries))
		for _, entry := range entries {
			var f ListField
			// Non-object rows are skipped, same as nameless ones.
			if err := json.Unmarshal(entry, &f); err != nil {
				continue
			}
			fields = append(fields, f)
		}
		return ConvertFieldList(fields), nil

	case '{':
		var s model.Schema
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return model.Schema{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if s.Type == "" {
			s.Type = model.TypeObject
		}
		// Keep the required-subset-of-properties invariant without
		// rejecting the contract outright.
		if len(s.Required) > 0 {
			kept := s.Required[:0]
			for _, name := range s.Required {
				if _, ok := s.Properties.Get(name); ok {
					kept = append(kept, name)
				}
			}
			s.Required = kept
		}
		return s, nil
	}

	return model.Schema{}, fmt.Errorf("%w: payload must be a JSON object or array", ErrInvalidInput)
}
