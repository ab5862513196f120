package store

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/bookrec/core"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("Get(missing) err = %v, want not found", err)
	}

	buf := []byte("v1")
	if err := s.Set(ctx, "k", buf, 0); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'x'
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v1" {
		t.Fatalf("Get(k) = %q, %v; want v1", got, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after Delete err = %v", err)
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	s.data["old"] = entry{value: []byte("x"), expire: time.Now().Add(-time.Second)}
	if _, err := s.Get(ctx, "old"); !core.IsStoreNotFound(err) {
		t.Errorf("expired key err = %v, want not found", err)
	}
	if err := s.Set(ctx, "fresh", []byte("y"), 60); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh key err = %v", err)
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{})
	if err != nil || s.Name() != "memory" {
		t.Fatalf("Open(default) = %v, %v", s, err)
	}
	s.Close()

	if _, err := Open(Config{Backend: "etcd"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestMemoryStore_CloseTwice(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
