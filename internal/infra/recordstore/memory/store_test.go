package memory

import (
	"context"
	"testing"

	"quotecore/pkg/domain"
)

func TestStoreRoundTripIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if store.Driver() != "memory" {
		t.Fatalf("driver: %s", store.Driver())
	}
	empty, err := store.Load(ctx)
	if err != nil || len(empty.Quotes) != 0 || len(empty.Projects) != 0 {
		t.Fatalf("expected empty snapshot, got %+v (%v)", empty, err)
	}
	snapshot := domain.Snapshot{
		Quotes:   []domain.Quote{{ID: 1, Project: "alpha", Supplier: "acme", UnitPrice: 2, Quantity: 3, Total: 6}},
		Projects: []domain.Project{{Name: "alpha", BufferDays: 5}},
	}
	if err := store.Save(ctx, snapshot); err != nil {
		t.Fatalf("save: %v", err)
	}
	// mutate the caller's copy; the store must hold its own
	snapshot.Quotes[0].Supplier = "changed"
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Quotes[0].Supplier != "acme" {
		t.Fatalf("store shared memory with caller: %+v", loaded.Quotes[0])
	}
	loaded.Projects[0].BufferDays = 99
	again, _ := store.Load(ctx)
	if again.Projects[0].BufferDays != 5 {
		t.Fatalf("loaded snapshot shared memory with store")
	}
}
