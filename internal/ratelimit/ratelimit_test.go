package ratelimit

import (
	"testing"
	"time"
)

func TestAllowExactlyMaxRequestsPerWindow(t *testing.T) {
	l := New(Config{MaxRequests: 5, Window: 5 * time.Second})
	now := time.Unix(1000, 0)
	l.SetNow(func() time.Time { return now })

	for i := 0; i < 5; i++ {
		res := l.Allow("k")
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if want := 5 - (i + 1); res.Remaining != want {
			t.Errorf("request %d: remaining = %d, want %d", i+1, res.Remaining, want)
		}
	}

	res := l.Allow("k")
	if res.Allowed {
		t.Fatal("6th request in window should be rejected")
	}
	if res.Remaining != 0 {
		t.Errorf("rejected remaining = %d, want 0", res.Remaining)
	}
	if want := now.Add(5 * time.Second); !res.ResetAt.Equal(want) {
		t.Errorf("resetAt = %v, want %v", res.ResetAt, want)
	}
}

func TestWindowResetsAfterElapse(t *testing.T) {
	l := New(Config{MaxRequests: 2, Window: time.Second})
	now := time.Unix(1000, 0)
	l.SetNow(func() time.Time { return now })

	l.Allow("k")
	l.Allow("k")
	if l.Allow("k").Allowed {
		t.Fatal("3rd request should be rejected inside the window")
	}

	// Still inside the window: boundary is strictly greater-than.
	now = now.Add(time.Second)
	if l.Allow("k").Allowed {
		t.Fatal("request exactly at window edge should still be rejected")
	}

	now = now.Add(time.Millisecond)
	res := l.Allow("k")
	if !res.Allowed {
		t.Fatal("request after window elapse should be allowed")
	}
	if res.Remaining != 1 {
		t.Errorf("remaining after reset = %d, want 1", res.Remaining)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(Config{MaxRequests: 1, Window: time.Minute})

	if !l.Allow("a").Allowed {
		t.Fatal("first request for key a should be allowed")
	}
	if l.Allow("a").Allowed {
		t.Fatal("second request for key a should be rejected")
	}
	if !l.Allow("b").Allowed {
		t.Fatal("key b should have its own window")
	}
}

func TestForgetDropsState(t *testing.T) {
	l := New(Config{MaxRequests: 1, Window: time.Minute})

	l.Allow("k")
	if l.Allow("k").Allowed {
		t.Fatal("second request should be rejected")
	}

	l.Forget("k")
	if l.Len() != 0 {
		t.Errorf("tracked keys = %d, want 0", l.Len())
	}
	if !l.Allow("k").Allowed {
		t.Fatal("request after Forget should start a fresh window")
	}
}

func TestSanitizesConfig(t *testing.T) {
	l := New(Config{})
	res := l.Allow("k")
	if !res.Allowed || res.Limit <= 0 {
		t.Fatalf("zero config should fall back to usable defaults, got %+v", res)
	}
}
