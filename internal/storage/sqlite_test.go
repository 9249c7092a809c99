//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreLayerContract(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reservoir.db")
	store := NewSQLiteStore(dbPath)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "reservoir.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.SaveLayer(ctx, sampleRecord("l1", "2026-01-02T00:00:00Z")); err != nil {
		t.Fatalf("save layer: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := NewSQLiteStore(dbPath)
	if err := reopened.Init(ctx); err != nil {
		t.Fatalf("reinit: %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	loaded, ok, err := reopened.GetLayer(ctx, "l1")
	if err != nil || !ok {
		t.Fatalf("get layer after reopen: ok=%v err=%v", ok, err)
	}
	if loaded.Spectral.Scale != 1.125 {
		t.Fatalf("unexpected spectral summary: %+v", loaded.Spectral)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "reservoir.db"))
	if _, _, err := store.GetLayer(context.Background(), "x"); err == nil {
		t.Fatal("expected error before init")
	}
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore("sqlite", filepath.Join(t.TempDir(), "reservoir.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
}
