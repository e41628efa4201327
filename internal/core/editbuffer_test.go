package core

import (
	"testing"

	"quotecore/pkg/domain"
)

func TestParseEditTolerantCells(t *testing.T) {
	edit, errs := ParseEdit(RawEdit{
		ID:                "12",
		Selected:          "TRUE",
		Supplier:          "acme",
		UnitPrice:         "not-a-price",
		Quantity:          "3",
		Status:            "quoted",
		ExpectedDelivery:  "2026-04-01",
		MarkedForDeletion: "yes",
	})
	if edit.ID != 12 {
		t.Fatalf("id: %d", edit.ID)
	}
	if edit.UnitPrice != nil {
		t.Fatalf("unparsable price must stay absent")
	}
	if len(errs) != 1 || errs[0].Field != "unit_price" {
		t.Fatalf("expected one unit_price error, got %+v", errs)
	}
	if edit.Quantity == nil || *edit.Quantity != 3 {
		t.Fatalf("quantity lost")
	}
	if edit.Selected == nil || !*edit.Selected {
		t.Fatalf("selected lost")
	}
	if edit.MarkedForDeletion == nil || *edit.MarkedForDeletion {
		t.Fatalf("junk deletion flag must normalize to false")
	}
	if edit.Status == nil || *edit.Status != StatusQuoted {
		t.Fatalf("status lost")
	}
	if edit.ExpectedDelivery == nil || !edit.ExpectedDelivery.Equal(domain.NewDate(2026, 4, 1)) {
		t.Fatalf("date lost")
	}
}

func TestParseEditBadIDInvalidatesRow(t *testing.T) {
	edit, errs := ParseEdit(RawEdit{ID: "twelve", UnitPrice: "1", Quantity: "1", Status: "quoted"})
	if edit.ID != 0 {
		t.Fatalf("row with bad id must not match any quote")
	}
	if len(errs) != 1 || errs[0].Field != "id" {
		t.Fatalf("expected id error, got %+v", errs)
	}
}

func TestEditBufferStageReplacesWholesale(t *testing.T) {
	buffer := NewEditBuffer()
	key := GroupKey{Project: "alpha", Item: "pump"}
	supplier := "acme"
	buffer.Stage(key, []QuoteEdit{{ID: 1, Supplier: &supplier}, {ID: 2}})
	if buffer.Len() != 1 || len(buffer.Snapshot(key)) != 2 {
		t.Fatalf("stage failed")
	}
	buffer.Stage(key, []QuoteEdit{{ID: 3}})
	rows := buffer.Snapshot(key)
	if len(rows) != 1 || rows[0].ID != 3 {
		t.Fatalf("restage must replace the snapshot, got %+v", rows)
	}
	buffer.Clear()
	if buffer.Len() != 0 || buffer.Snapshot(key) != nil {
		t.Fatalf("clear failed")
	}
}

func TestEditBufferKeysSorted(t *testing.T) {
	buffer := NewEditBuffer()
	buffer.Stage(GroupKey{Project: "beta", Item: "pump"}, nil)
	buffer.Stage(GroupKey{Project: "alpha", Item: "valve"}, nil)
	buffer.Stage(GroupKey{Project: "alpha", Item: "pump"}, nil)
	keys := buffer.Keys()
	want := []GroupKey{
		{Project: "alpha", Item: "pump"},
		{Project: "alpha", Item: "valve"},
		{Project: "beta", Item: "pump"},
	}
	if len(keys) != len(want) {
		t.Fatalf("keys: %+v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("key order: got %+v want %+v", keys, want)
		}
	}
}

func TestDeletionFlagStagedPrecedence(t *testing.T) {
	buffer := NewEditBuffer()
	marked := true
	unmarked := false
	buffer.Stage(GroupKey{Project: "alpha", Item: "pump"}, []QuoteEdit{
		{ID: 1, MarkedForDeletion: &marked},
		{ID: 2, MarkedForDeletion: &unmarked},
		{ID: 3},
	})
	if v, ok := buffer.deletionFlag(1); !ok || !v {
		t.Fatalf("staged true lost")
	}
	if v, ok := buffer.deletionFlag(2); !ok || v {
		t.Fatalf("staged false lost")
	}
	if _, ok := buffer.deletionFlag(3); ok {
		t.Fatalf("absent flag must defer to canonical state")
	}
	if _, ok := buffer.deletionFlag(99); ok {
		t.Fatalf("unknown id must report no staged flag")
	}
}
