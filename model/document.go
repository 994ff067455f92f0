package model

import (
	"time"
)

// Document represents an uploaded document and its processing outcome.
type Document struct {
	ID            string         `json:"id"`
	FileName      string         `json:"file_name"`
	FileType      string         `json:"file_type,omitempty"`
	StoragePath   string         `json:"storage_path,omitempty"`
	DocumentType  string         `json:"document_type"`
	Confidence    float64        `json:"confidence"`
	ExtractedData map[string]any `json:"extracted_data,omitempty"`
	Status        string         `json:"status"`
	Error         string         `json:"error,omitempty"`
	UserID        string         `json:"user_id,omitempty"`
	OrgID         string         `json:"org_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Document status constants
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// User is an account identified by email, optionally belonging to an
// organization.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	OrgID       string    `json:"org_id,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Organization groups users and scopes the contract namespace.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEntry records a mutating action against an entity.
type AuditEntry struct {
	OrgID       string    `json:"org_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Action      string    `json:"action"`
	EntityID    string    `json:"entity_id"`
	EntityType  string    `json:"entity_type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
