package instlock

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLockExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", ".lock")
	a, b := New(path), New(path)

	if err := a.Lock(); err != nil {
		t.Fatalf("a.Lock: %v", err)
	}
	if err := b.TryLock(); !errors.Is(err, ErrLocked) {
		t.Fatalf("b.TryLock err = %v, want ErrLocked", err)
	}
	if err := a.Lock(); err == nil {
		t.Fatalf("re-entrant lock should fail")
	}
	if err := a.Unlock(); err != nil {
		t.Fatalf("a.Unlock: %v", err)
	}
	if err := b.TryLock(); err != nil {
		t.Fatalf("b.TryLock after release: %v", err)
	}
	if err := b.Unlock(); err != nil {
		t.Fatalf("b.Unlock: %v", err)
	}
	if err := b.Unlock(); err != nil {
		t.Fatalf("double unlock: %v", err)
	}
}
