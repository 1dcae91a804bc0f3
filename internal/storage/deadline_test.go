package storage

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func TestDeadlineStorage_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewDeadlineStorage()

	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("expected missing key")
	}

	if err := s.Set(ctx, "k", "100"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || v != "100" {
		t.Fatalf("get = %q, %v, %v; want 100, true, nil", v, ok, err)
	}

	if err := s.Set(ctx, "k", "200"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _, _ := s.Get(ctx, "k"); v != "200" {
		t.Errorf("expected overwrite, got %q", v)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("expected key to be deleted")
	}

	if err := s.Delete(ctx, "missing"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestDeadlineStorage_DeleteBySuffix(t *testing.T) {
	ctx := context.Background()
	s := NewDeadlineStorage()
	_ = s.Set(ctx, "1:test_timer_a", "1")
	_ = s.Set(ctx, "2:test_timer_a", "1")
	_ = s.Set(ctx, "1:test_timer_b", "1")

	if err := s.DeleteBySuffix(ctx, "test_timer_a"); err != nil {
		t.Fatalf("delete by suffix: %v", err)
	}

	if s.Len() != 1 {
		t.Fatalf("expected 1 key left, got %d", s.Len())
	}
	if _, ok, _ := s.Get(ctx, "1:test_timer_b"); !ok {
		t.Error("unrelated key was removed")
	}
}

func TestDeadlineStorage_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewDeadlineStorage()

	_ = s.Set(ctx, "old", strconv.FormatInt(now.Add(-time.Hour).UnixMilli(), 10))
	_ = s.Set(ctx, "fresh", strconv.FormatInt(now.Add(time.Hour).UnixMilli(), 10))
	_ = s.Set(ctx, "garbage", "not-a-number")

	n, err := s.PurgeExpired(ctx, now)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 purged keys, got %d", n)
	}
	if _, ok, _ := s.Get(ctx, "fresh"); !ok {
		t.Error("fresh deadline must survive the purge")
	}
}
