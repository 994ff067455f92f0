package schema

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

// fakeSource serves contracts from a plain map and lets tests swap the
// backing data between reloads.
type fakeSource struct {
	mu        sync.Mutex
	contracts map[string]json.RawMessage
	err       error
}

func (f *fakeSource) GetUserContracts(_ context.Context, _ string) (map[string]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]json.RawMessage, len(f.contracts))
	for k, v := range f.contracts {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSource) set(contracts map[string]json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contracts = contracts
}

var testContracts = map[string]json.RawMessage{
	"employment_verification": json.RawMessage(`{
		"type": "object",
		"properties": {"employer": {"type": "string"}},
		"required": ["employer"]
	}`),
	"invoice": json.RawMessage(`[
		{"name": "amount", "type": "number"},
		{"name": "date"}
	]`),
}

func newTestRegistry(t *testing.T) (*Registry, *fakeSource) {
	t.Helper()
	src := &fakeSource{contracts: testContracts}
	reg, err := NewRegistry(context.Background(), src, "org-1")
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}
	return reg, src
}

func TestRegistryResolveExact(t *testing.T) {
	reg, _ := newTestRegistry(t)

	s, err := reg.Resolve("employment_verification")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := s.Properties.Get("employer"); !ok {
		t.Error("Expected employer field in resolved schema")
	}
}

func TestRegistryResolveCaseInsensitive(t *testing.T) {
	reg, _ := newTestRegistry(t)

	s, err := reg.Resolve("EMPLOYMENT_VERIFICATION")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := s.Properties.Get("employer"); !ok {
		t.Error("Expected employer field in resolved schema")
	}
}

func TestRegistryResolveNormalized(t *testing.T) {
	reg, _ := newTestRegistry(t)

	// Spacing, hyphens and the known typo all resolve to the same contract.
	for _, docType := range []string{
		"Employment Verification",
		"employment-verification",
		"Employement Verification",
	} {
		s, err := reg.Resolve(docType)
		if err != nil {
			t.Fatalf("Resolve(%q): unexpected error: %v", docType, err)
		}
		if _, ok := s.Properties.Get("employer"); !ok {
			t.Errorf("Resolve(%q): expected employer field", docType)
		}
	}
}

func TestRegistryResolveListShapeContract(t *testing.T) {
	reg, _ := newTestRegistry(t)

	s, err := reg.Resolve("invoice")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	amount, ok := s.Properties.Get("amount")
	if !ok || amount.Type != "number" {
		t.Errorf("Expected converted amount field, got %+v", amount)
	}
	if len(s.Required) != 0 {
		t.Errorf("Expected no required fields for list shape, got %v", s.Required)
	}
}

func TestRegistryResolveNotFound(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.Resolve("tax return")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	// Missing contracts are a result, never a panic, including for the
	// empty string.
	_, err = reg.Resolve("")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for empty input, got %v", err)
	}
}

func TestRegistrySkipsUndecodableContracts(t *testing.T) {
	src := &fakeSource{contracts: map[string]json.RawMessage{
		"good": json.RawMessage(`{"properties": {"a": {"type": "string"}}}`),
		"bad":  json.RawMessage(`"not a schema"`),
	}}

	reg, err := NewRegistry(context.Background(), src, "")
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Expected 1 loaded contract, got %d", reg.Len())
	}
	if _, err := reg.Resolve("bad"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected bad contract to be skipped, got %v", err)
	}
}

func TestRegistryReload(t *testing.T) {
	reg, src := newTestRegistry(t)

	src.set(map[string]json.RawMessage{
		"paystub": json.RawMessage(`{"properties": {"period": {"type": "string"}}}`),
	})
	if err := reg.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if _, err := reg.Resolve("invoice"); !errors.Is(err, ErrNotFound) {
		t.Error("Expected old contracts gone after reload")
	}
	if _, err := reg.Resolve("paystub"); err != nil {
		t.Errorf("Expected new contract resolvable, got %v", err)
	}
}

func TestRegistryReloadErrorKeepsSnapshot(t *testing.T) {
	reg, src := newTestRegistry(t)

	src.mu.Lock()
	src.err = errors.New("store unavailable")
	src.mu.Unlock()

	if err := reg.Reload(context.Background()); err == nil {
		t.Fatal("Expected reload error")
	}

	// The previous snapshot stays readable.
	if _, err := reg.Resolve("invoice"); err != nil {
		t.Errorf("Expected old snapshot intact, got %v", err)
	}
}

func TestRegistryConcurrentReadsDuringReload(t *testing.T) {
	reg, src := newTestRegistry(t)

	alt := map[string]json.RawMessage{
		"w9":   json.RawMessage(`{"properties": {"tin": {"type": "string"}}}`),
		"1099": json.RawMessage(`{"properties": {"payer": {"type": "string"}}}`),
	}

	done := make(chan struct{})
	var wg sync.WaitGroup

	// Readers must always observe a complete snapshot: every type listed
	// by Types() resolves against the same view.
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				types := reg.Types()
				if n := len(types); n != 2 {
					t.Errorf("Observed torn snapshot with %d types: %v", n, types)
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			src.set(alt)
		} else {
			src.set(testContracts)
		}
		if err := reg.Reload(context.Background()); err != nil {
			t.Fatalf("Reload failed: %v", err)
		}
	}

	close(done)
	wg.Wait()
}
