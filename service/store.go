package service

import (
	"context"
	"encoding/json"

	"github.com/thakurdishanttt/Project-DocuLens/model"
)

// Store is the persistence boundary for contracts, documents, users,
// organizations and audit logs. The contract registry consumes the
// GetUserContracts view; handlers use the rest.
type Store interface {
	// GetUserContracts returns the live (not soft-deleted) contracts keyed
	// by document type, optionally filtered by organization. Values are
	// raw schema payloads in either accepted shape. When the same document
	// type appears more than once, the row with the lowest id wins so
	// resolution stays deterministic.
	GetUserContracts(ctx context.Context, orgID string) (map[string]json.RawMessage, error)

	ListUserContracts(ctx context.Context, orgID string) ([]model.Contract, error)
	GetUserContract(ctx context.Context, id string) (*model.Contract, error)
	InsertUserContract(ctx context.Context, c *model.Contract) error
	DeleteUserContract(ctx context.Context, id string) error

	ListTemplates(ctx context.Context) ([]model.ContractTemplate, error)
	GetTemplate(ctx context.Context, id string) (*model.ContractTemplate, error)
	ActiveTemplate(ctx context.Context) (*model.ContractTemplate, error)
	SelectActiveTemplate(ctx context.Context, id string) error

	SaveDocument(ctx context.Context, d *model.Document) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)

	// EnsureUserOrg gets or creates a user by email, and an organization by
	// name when one is given, returning both ids.
	EnsureUserOrg(ctx context.Context, email, orgName string) (userID, orgID string, err error)

	// AppendAuditLog records a mutating action. Callers treat failures as
	// best-effort and log a warning rather than failing the operation.
	AppendAuditLog(ctx context.Context, e model.AuditEntry) error

	Close() error
}
