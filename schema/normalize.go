// Package schema holds the contract resolution core: document-type
// normalization, schema shape conversion, contract validation, and the
// in-memory contract registry used for lookups.
package schema

import "strings"

// typoCorrections maps known misspellings to their corrected substring.
// The table is fixed at compile time; extend it here, not via config.
var typoCorrections = []struct {
	typo, fix string
}{
	{"employement", "employment"},
}

// Normalize canonicalizes a document-type string for fuzzy matching:
// lowercase, strip spaces/underscores/hyphens, then apply the typo table.
// It is pure and idempotent, so resolution stays deterministic and
// explainable.
func Normalize(documentType string) string {
	if documentType == "" {
		return ""
	}

	normalized := strings.ToLower(documentType)
	normalized = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(normalized)

	for _, c := range typoCorrections {
		normalized = strings.ReplaceAll(normalized, c.typo, c.fix)
	}

	return normalized
}
