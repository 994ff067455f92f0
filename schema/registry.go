package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/thakurdishanttt/Project-DocuLens/model"
)

// ContractSource provides the raw contracts the registry caches, keyed by
// document type. Implementations may return either accepted schema shape.
type ContractSource interface {
	GetUserContracts(ctx context.Context, orgID string) (map[string]json.RawMessage, error)
}

// snapshot is an immutable view of the loaded contracts. Reload builds a
// fresh snapshot and swaps the pointer, so a resolution in flight observes
// either the old or the new view, never a torn one.
type snapshot struct {
	byType map[string]model.Schema
	// keys are sorted so fuzzy scans and duplicate handling stay
	// deterministic across reloads.
	keys []string
}

// Registry is the in-memory cache mapping document type to canonical
// schema. It is loaded once at construction and refreshed only by explicit
// Reload calls; staleness between reloads is accepted.
type Registry struct {
	source ContractSource
	orgID  string
	snap   atomic.Pointer[snapshot]
}

// NewRegistry builds a registry and performs the initial load.
func NewRegistry(ctx context.Context, source ContractSource, orgID string) (*Registry, error) {
	r := &Registry{source: source, orgID: orgID}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload fetches the contracts again and atomically swaps in the new
// snapshot. Contracts whose schema cannot be decoded are skipped with a
// warning rather than failing the whole load.
func (r *Registry) Reload(ctx context.Context) error {
	raw, err := r.source.GetUserContracts(ctx, r.orgID)
	if err != nil {
		return fmt.Errorf("loading contracts: %w", err)
	}

	snap := &snapshot{
		byType: make(map[string]model.Schema, len(raw)),
		keys:   make([]string, 0, len(raw)),
	}
	for docType, fields := range raw {
		s, err := DecodeShape(fields)
		if err != nil {
			slog.Warn("skipping contract with undecodable schema",
				"document_type", docType,
				"error", err,
			)
			continue
		}
		snap.byType[docType] = s
		snap.keys = append(snap.keys, docType)
	}
	sort.Strings(snap.keys)

	r.snap.Store(snap)
	slog.Info("contract registry loaded", "contracts", len(snap.keys), "org_id", r.orgID)
	return nil
}

// Resolve maps a raw document-type string to the schema to use for
// extraction. Match strategies are tried in order: exact, case-insensitive,
// normalized. A miss returns ErrNotFound; Resolve never panics on unknown
// input.
func (r *Registry) Resolve(documentType string) (model.Schema, error) {
	snap := r.snap.Load()

	if s, ok := snap.byType[documentType]; ok {
		return s, nil
	}

	for _, key := range snap.keys {
		if strings.EqualFold(documentType, key) {
			return snap.byType[key], nil
		}
	}

	normalized := Normalize(documentType)
	for _, key := range snap.keys {
		if normalized == Normalize(key) {
			return snap.byType[key], nil
		}
	}

	return model.Schema{}, fmt.Errorf("%w: %s", ErrNotFound, documentType)
}

// Types returns the loaded document types in sorted order. They double as
// the candidate labels handed to the classifier.
func (r *Registry) Types() []string {
	snap := r.snap.Load()
	out := make([]string, len(snap.keys))
	copy(out, snap.keys)
	return out
}

// Len returns the number of loaded contracts.
func (r *Registry) Len() int {
	return len(r.snap.Load().keys)
}
