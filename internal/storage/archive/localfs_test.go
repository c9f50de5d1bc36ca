// internal/storage/archive/localfs_test.go
package archive

import (
	"context"
	"testing"
)

func TestLocalFS_ImplementsArchive(t *testing.T) {
	var _ Archive = (*LocalFS)(nil)
}

func TestLocalFS_StoreLoad(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte(`{"date":"2024-03-04"}`)

	if err := fs.Store(ctx, "daily/2024-03-04.json", data); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := fs.Load(ctx, "daily/2024-03-04.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestLocalFS_StoreOverwrites(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Store(ctx, "monthly/2024-03.json", []byte("first"))
	if err := fs.Store(ctx, "monthly/2024-03.json", []byte("second")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, _ := fs.Load(ctx, "monthly/2024-03.json")
	if string(got) != "second" {
		t.Errorf("got %q, want %q", got, "second")
	}
}

func TestLocalFS_Exists(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	exists, _ := fs.Exists(ctx, "daily/2024-01-01.json")
	if exists {
		t.Error("expected false for missing report")
	}

	fs.Store(ctx, "daily/2024-01-01.json", []byte("{}"))
	exists, _ = fs.Exists(ctx, "daily/2024-01-01.json")
	if !exists {
		t.Error("expected true for stored report")
	}
}

func TestLocalFS_List(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Store(ctx, "daily/2024-03-04.json", []byte("a"))
	fs.Store(ctx, "daily/2024-03-05.json", []byte("b"))
	fs.Store(ctx, "weekly/2024-W10.json", []byte("c"))

	paths, err := fs.List(ctx, "daily")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d: %v", len(paths), paths)
	}
	for _, p := range paths {
		if p != "daily/2024-03-04.json" && p != "daily/2024-03-05.json" {
			t.Errorf("unexpected path %q", p)
		}
	}

	empty, err := fs.List(ctx, "quarterly")
	if err != nil {
		t.Fatalf("List missing prefix: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty list, got %v", empty)
	}
}
