package service_test

import (
	"testing"
	"time"

	"github.com/msomdec/account-portal/internal/service"
)

func TestTokenBucket_AllowsUpToCapacity(t *testing.T) {
	tb := service.NewTokenBucket(1, 3) // rate=1/s, capacity=3

	// Should allow 3 requests immediately (full bucket).
	for i := 0; i < 3; i++ {
		if !tb.Allow("test-key") {
			t.Fatalf("request %d should be allowed (bucket not yet empty)", i+1)
		}
	}

	// 4th request should be denied (bucket empty).
	if tb.Allow("test-key") {
		t.Fatal("4th request should be denied (bucket empty)")
	}
}

func TestTokenBucket_DifferentKeysAreIndependent(t *testing.T) {
	tb := service.NewTokenBucket(1, 1) // capacity=1

	if !tb.Allow("ip-a") {
		t.Fatal("ip-a first request should be allowed")
	}
	if tb.Allow("ip-a") {
		t.Fatal("ip-a second request should be denied")
	}

	// ip-b has its own bucket.
	if !tb.Allow("ip-b") {
		t.Fatal("ip-b first request should be allowed (independent bucket)")
	}
}

func TestTokenBucket_NewKeyStartsFull(t *testing.T) {
	tb := service.NewTokenBucket(10, 5)

	for i := 0; i < 5; i++ {
		if !tb.Allow("new-key") {
			t.Fatalf("new key request %d should be allowed (starts full)", i+1)
		}
	}
	if tb.Allow("new-key") {
		t.Fatal("6th request should be denied")
	}
}

func TestTokenBucket_ZeroRateNeverRefills(t *testing.T) {
	tb := service.NewTokenBucket(0, 2) // never refills

	if !tb.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if !tb.Allow("k") {
		t.Fatal("second request should be allowed")
	}
	if tb.Allow("k") {
		t.Fatal("third request should be denied (no refill)")
	}
}

func TestTokenBucket_RefillsOverTime(t *testing.T) {
	tb := service.NewTokenBucket(1, 1)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tb.SetClock(func() time.Time { return now })

	if !tb.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if tb.Allow("k") {
		t.Fatal("second request should be denied")
	}

	now = now.Add(time.Second)
	if !tb.Allow("k") {
		t.Fatal("request after one second should be allowed (refilled)")
	}
}

func TestTokenBucket_DropsIdleBuckets(t *testing.T) {
	tb := service.NewTokenBucket(1, 1)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tb.SetClock(func() time.Time { return now })

	tb.Allow("idle")
	if tb.Len() != 1 {
		t.Fatalf("expected 1 bucket, got %d", tb.Len())
	}

	now = now.Add(11 * time.Minute)
	tb.Allow("fresh")

	if tb.Len() != 1 {
		t.Fatalf("expected idle bucket to be dropped, got %d buckets", tb.Len())
	}
}
