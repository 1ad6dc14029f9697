package testsupport

import (
	"context"
	"testing"

	"ramanid/internal/config"
	"ramanid/internal/refstore"
)

// MustOpenStore opens a refstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *refstore.Store {
	t.Helper()

	store, err := refstore.Open(cfg)
	if err != nil {
		t.Fatalf("refstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Reference builds a minimal reference whose strongest peak is the first one.
func Reference(filename, name string, peaks ...float64) refstore.Reference {
	ref := refstore.Reference{Filename: filename, Names: name, Peaks: peaks}
	if len(peaks) > 0 {
		ref.StrongestPeak = peaks[0]
	}
	return ref
}

// SeedReferences upserts refs into store, failing the test on error.
func SeedReferences(t testing.TB, store *refstore.Store, refs ...refstore.Reference) {
	t.Helper()

	if _, err := store.UpsertMany(context.Background(), refs); err != nil {
		t.Fatalf("store.UpsertMany: %v", err)
	}
}
