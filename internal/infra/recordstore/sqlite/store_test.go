package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"quotecore/pkg/domain"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "quotes.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEmptyDatabaseLoadsEmpty(t *testing.T) {
	store := newTempStore(t)
	snapshot, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snapshot.Quotes) != 0 || len(snapshot.Projects) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snapshot)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	snapshot := domain.Snapshot{
		Quotes: []domain.Quote{
			{ID: 1, Project: "alpha", Item: "pump", Supplier: "acme", UnitPrice: 10, Quantity: 4, Total: 40, Status: domain.StatusOrdered, ExpectedDelivery: domain.NewDate(2026, 5, 1)},
		},
		Projects: []domain.Project{{Name: "alpha", DueDate: domain.NewDate(2026, 5, 10), BufferDays: 3}},
	}
	if err := store.Save(ctx, snapshot); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Quotes) != 1 || len(loaded.Projects) != 1 {
		t.Fatalf("unexpected shape %+v", loaded)
	}
	q := loaded.Quotes[0]
	if q.Supplier != "acme" || q.Total != 40 || q.Status != domain.StatusOrdered || !q.ExpectedDelivery.Equal(domain.NewDate(2026, 5, 1)) {
		t.Fatalf("quote fields lost: %+v", q)
	}
	if loaded.Projects[0].BufferDays != 3 {
		t.Fatalf("project fields lost: %+v", loaded.Projects[0])
	}
}

func TestSaveReplacesBuckets(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if err := store.Save(ctx, domain.Snapshot{Quotes: []domain.Quote{{ID: 1}, {ID: 2}}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, domain.Snapshot{Quotes: []domain.Quote{{ID: 3}}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Quotes) != 1 || loaded.Quotes[0].ID != 3 {
		t.Fatalf("expected bucket replacement, got %+v", loaded.Quotes)
	}
}
