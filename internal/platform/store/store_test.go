package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.Load(ctx, "slot:a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}
	if err := s.Save(ctx, "slot:a", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, "slot:a", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Load(ctx, "slot:a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Fatalf("expected whole-record replace, got %s", got)
	}
	if err := s.Delete(ctx, "slot:a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load(ctx, "slot:a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "slot:missing"); err != nil {
		t.Fatalf("deleting a missing key must succeed: %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	v := []byte("abc")
	_ = m.Save(ctx, "k", v)
	v[0] = 'x'
	got, _ := m.Load(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("store kept a reference to the caller's slice: %s", got)
	}
}

func TestBolt(t *testing.T) {
	b, err := OpenBolt(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()
	exerciseStore(t, b)
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.db")
	b, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := b.Save(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("save: %v", err)
	}
	b.Close()

	b, err = OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()
	got, err := b.Load(context.Background(), "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("expected v after reopen, got %q %v", got, err)
	}
}

func TestCachedWithoutRedisFallsThrough(t *testing.T) {
	exerciseStore(t, NewCached(NewMemory(), nil, 0, zerolog.Nop()))
}
