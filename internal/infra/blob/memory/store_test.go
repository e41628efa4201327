package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"quotecore/internal/blob/core"
)

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()
	if store.Driver() != core.DriverMemory {
		t.Fatalf("driver: %s", store.Driver())
	}
	if _, err := store.Put(ctx, "attachments/a", bytes.NewReader([]byte("data")), core.PutOptions{ContentType: "text/plain"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "attachments/a", bytes.NewReader([]byte("dup")), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate failure")
	}
	info, rc, err := store.Get(ctx, "attachments/a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "data" || info.Size != 4 || info.ContentType != "text/plain" {
		t.Fatalf("unexpected get %+v %q", info, b)
	}
	if _, err := store.Head(ctx, "missing"); err == nil {
		t.Fatalf("expected head miss")
	}
	if _, err := store.Put(ctx, "other/b", bytes.NewReader(nil), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	list, err := store.List(ctx, "attachments/")
	if err != nil || len(list) != 1 || list[0].Key != "attachments/a" {
		t.Fatalf("list: %v %+v", err, list)
	}
	if _, err := store.PresignURL(ctx, "attachments/a", core.SignedURLOptions{}); err != core.ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	ok, err := store.Delete(ctx, "attachments/a")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, "attachments/a")
	if err != nil || ok {
		t.Fatalf("second delete should report missing")
	}
}
