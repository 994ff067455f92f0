package schema

import (
	"encoding/json"
	"fmt"
)

// Validate checks a contract payload before it is persisted. data is the
// decoded JSON value of the payload (object or list shape). documentType,
// when non-empty, allows a properties-less contract that just points at a
// template. Rules are evaluated in order and short-circuit on the first
// failure; the message is user-facing and returned verbatim.
//
// Validation is an advisory gate only: type values are not checked against
// the recognized enumeration, since unknown types default to string when
// the schema is consumed.
func Validate(data any, documentType string) (bool, string) {
	if isEmptyPayload(data) {
		return false, "Contract data is empty"
	}

	// List shape runs through the converter first; the converted object is
	// what gets validated.
	if list, ok := data.([]any); ok {
		data = convertListPayload(list)
	}

	obj, ok := data.(map[string]any)
	if !ok {
		return false, "Contract data must be an object or a list of field definitions"
	}

	props, hasProps := obj["properties"]
	if !hasProps {
		if documentType == "" {
			return false, "Contract must have a 'properties' field defining the data structure"
		}
		return true, ""
	}

	propsMap, ok := props.(map[string]any)
	if !ok {
		return false, "Contract properties must be an object"
	}

	for name, def := range propsMap {
		defMap, ok := def.(map[string]any)
		if !ok {
			return false, fmt.Sprintf("Field definition for '%s' must be an object", name)
		}
		if _, ok := defMap["type"]; !ok {
			return false, fmt.Sprintf("Field '%s' must have a 'type' property", name)
		}
	}

	return true, ""
}

// ValidateRaw decodes a raw JSON payload and validates it.
func ValidateRaw(raw json.RawMessage, documentType string) (bool, string) {
	if len(raw) == 0 {
		return false, "Contract data is empty"
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return false, "Contract data must be valid JSON"
	}
	return Validate(data, documentType)
}

func isEmptyPayload(data any) bool {
	switch v := data.(type) {
	case nil:
		return true
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}

// convertListPayload mirrors ConvertFieldList for decoded-JSON values, so
// the validator sees the same object the converter would produce.
func convertListPayload(list []any) map[string]any {
	props := make(map[string]any)
	for _, entry := range list {
		field, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, ok := field["name"].(string)
		if !ok || name == "" {
			continue
		}
		fieldType, _ := field["type"].(string)
		if fieldType == "" {
			fieldType = "string"
		}
		desc, _ := field["description"].(string)
		if desc == "" {
			desc = fmt.Sprintf("Extract the %s", name)
		}
		props[name] = map[string]any{"type": fieldType, "description": desc}
	}
	return map[string]any{"type": "object", "properties": props}
}
