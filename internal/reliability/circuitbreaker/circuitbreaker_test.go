package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

func TestTripAndRecover(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(2, 1, time.Minute)
	cb.now = func() time.Time { return now }

	var transitions []string
	cb.OnStateChange(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	boom := errors.New("redis down")
	cb.Record(boom)
	if cb.State() != StateClosed {
		t.Fatalf("expected closed after one failure")
	}
	cb.Record(boom)
	if cb.State() != StateOpen || cb.Allow() {
		t.Fatalf("expected open breaker to reject calls")
	}

	now = now.Add(2 * time.Minute)
	if !cb.Allow() || cb.State() != StateHalfOpen {
		t.Fatalf("expected half-open after cooldown")
	}
	cb.Record(nil)
	if cb.State() != StateClosed {
		t.Fatalf("expected closed after successful probe")
	}

	want := []string{"closed->open", "open->half_open", "half_open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("unexpected transitions %v", transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transition %d: want %s got %s", i, want[i], transitions[i])
		}
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(1, 2, time.Second)
	cb.now = func() time.Time { return now }

	cb.Record(errors.New("x"))
	now = now.Add(time.Second)
	if !cb.Allow() {
		t.Fatalf("expected probe to be allowed")
	}
	cb.Record(errors.New("still down"))
	if cb.State() != StateOpen || cb.Allow() {
		t.Fatalf("expected breaker to reopen")
	}
}
