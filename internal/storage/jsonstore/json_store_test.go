package jsonstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sportstore/internal/storage"
	"sportstore/internal/storage/storagetest"
)

func TestContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.DataStore {
		store, err := NewJSONStore(filepath.Join(t.TempDir(), ".test_store"))
		if err != nil {
			t.Fatalf("NewJSONStore() failed: %v", err)
		}
		return store
	})
}

func TestNewJSONStore(t *testing.T) {
	tempDir := t.TempDir()
	basePath := filepath.Join(tempDir, ".test_store")

	store, err := NewJSONStore(basePath)
	if err != nil {
		t.Fatalf("NewJSONStore() failed: %v", err)
	}
	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		t.Errorf("NewJSONStore() did not create the base directory: %s", basePath)
	}
	if store.GetBasePath() != basePath {
		t.Errorf("GetBasePath() returned %q, want %q", store.GetBasePath(), basePath)
	}
}

func TestRecordFileLayout(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), ".test_store")
	store, err := NewJSONStore(basePath)
	if err != nil {
		t.Fatalf("NewJSONStore() failed: %v", err)
	}

	rec, err := store.Insert(context.Background(), "hero_slides", storage.Record{"id": "slide-1", "title": "Summer", "order": 0})
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	expected := filepath.Join(basePath, "hero_slides", rec.ID()+".json")
	if _, err := os.Stat(expected); os.IsNotExist(err) {
		t.Fatalf("Insert() did not create the expected file: %s", expected)
	}

	// A second store over the same directory sees the record.
	reopened, err := NewJSONStore(basePath)
	if err != nil {
		t.Fatalf("NewJSONStore() reopen failed: %v", err)
	}
	got, err := reopened.Get(context.Background(), "hero_slides", "slide-1")
	if err != nil {
		t.Fatalf("Get() after reopen failed: %v", err)
	}
	if got["title"] != "Summer" {
		t.Errorf("Get() title = %v, want Summer", got["title"])
	}
}

func TestRejectsPathLikeIDs(t *testing.T) {
	store, err := NewJSONStore(filepath.Join(t.TempDir(), ".test_store"))
	if err != nil {
		t.Fatalf("NewJSONStore() failed: %v", err)
	}
	for _, id := range []string{"../escape", `a\b`, ".hidden"} {
		_, err := store.Get(context.Background(), "brands", id)
		if err == nil || errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Get(%q) error = %v, want an invalid id error", id, err)
		}
	}
}
