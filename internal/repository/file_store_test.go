package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSnapshotStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileSnapshotStore(filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if got, err := fs.Load(ctx, "liferpg_state_v1"); err != nil || got != nil {
		t.Fatalf("missing key: got=%q err=%v", got, err)
	}
	if err := fs.Save(ctx, "liferpg_state_v1", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := fs.Save(ctx, "liferpg_state_v1", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := fs.Load(ctx, "liferpg_state_v1")
	if err != nil || string(got) != `{"a":2}` {
		t.Fatalf("got=%q err=%v", got, err)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "data"))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFileSnapshotStoreSanitizesKey(t *testing.T) {
	fs, err := NewFileSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	p := fs.Path("../etc/passwd")
	if filepath.Dir(p) != fs.dir {
		t.Fatalf("path escaped store dir: %s", p)
	}
}

func TestOpenSnapshotStore(t *testing.T) {
	dir := t.TempDir()
	store, closer, err := OpenSnapshotStore(StoreOptions{Engine: EngineSQLite, DBPath: filepath.Join(dir, "liferpg.db")})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if err := store.Save(context.Background(), "k", []byte(`{}`)); err != nil {
		t.Fatalf("sqlite save: %v", err)
	}
	closer.Close()

	if _, c, err := OpenSnapshotStore(StoreOptions{Engine: "JSON", JSONPath: dir}); err != nil {
		t.Fatalf("json: %v", err)
	} else {
		c.Close()
	}
	if _, _, err := OpenSnapshotStore(StoreOptions{Engine: "redis"}); err == nil {
		t.Fatalf("expected unknown engine error")
	}
}
