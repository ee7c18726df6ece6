package ratelimit

import (
	"testing"
	"time"
)

func TestAllow_BurstThenDeny(t *testing.T) {
	r := NewRegistry(5, time.Minute)

	for i := 0; i < 5; i++ {
		if !r.Allow("1.2.3.4") {
			t.Fatalf("request %d denied within allowance", i+1)
		}
	}
	if r.Allow("1.2.3.4") {
		t.Error("request over allowance was permitted")
	}
}

func TestAllow_KeysIndependent(t *testing.T) {
	r := NewRegistry(1, time.Minute)

	if !r.Allow("1.2.3.4") {
		t.Fatal("first key denied its allowance")
	}
	if r.Allow("1.2.3.4") {
		t.Error("first key exceeded allowance")
	}
	if !r.Allow("5.6.7.8") {
		t.Error("second key should have its own allowance")
	}
}

func TestPrune_DropsIdleKeys(t *testing.T) {
	r := NewRegistry(5, time.Minute)

	current := time.Now()
	r.now = func() time.Time { return current }

	r.Allow("old-client")
	current = current.Add(11 * time.Minute) // past the 10-window TTL
	r.Allow("new-client")

	if r.Len() != 1 {
		t.Errorf("registry holds %d keys after prune, expected 1", r.Len())
	}
}

func TestNewRegistry_DefensiveArguments(t *testing.T) {
	r := NewRegistry(0, 0)
	if !r.Allow("k") {
		t.Error("registry with clamped arguments denied the first request")
	}
}
