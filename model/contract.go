package model

import (
	"encoding/json"
	"time"
)

// Contract is a named, versioned association between a document type and a
// field schema, owned by an organization. Fields holds the raw schema as
// stored, which may be either the canonical object shape or the legacy list
// shape; it is normalized when the contract registry loads.
type Contract struct {
	ID           string          `json:"id"`
	OrgID        string          `json:"org_id,omitempty"`
	UserID       string          `json:"user_id,omitempty"`
	Name         string          `json:"name"`
	DocumentType string          `json:"document_type"`
	TemplateID   string          `json:"system_contract_id,omitempty"`
	Fields       json.RawMessage `json:"fields,omitempty"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty"`
}

// ContractTemplate is an immutable, organization-independent predefined
// contract. Users copy templates into their own namespace, optionally
// customizing fields along the way.
type ContractTemplate struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	DocumentType string          `json:"document_type"`
	Fields       json.RawMessage `json:"fields,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
