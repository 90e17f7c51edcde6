package ratelimit

import (
	"testing"
	"time"
)

func TestAllowPerKey(t *testing.T) {
	l := NewLimiter(2, time.Hour)
	defer l.Stop()

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("expected first two requests to pass")
	}
	if l.Allow("a") {
		t.Fatalf("expected third request to be limited")
	}
	if !l.Allow("b") {
		t.Fatalf("expected other key to have its own bucket")
	}
	if !l.Allow("") {
		t.Fatalf("expected empty key to be unlimited")
	}
}
