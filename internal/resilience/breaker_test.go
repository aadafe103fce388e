package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestBreakerStartsClosed(t *testing.T) {
	b := New("test", Settings{})

	if b.State() != StateClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
	if err := b.Allow(); err != nil {
		t.Errorf("closed breaker should allow: %v", err)
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 3, Cooldown: time.Minute})

	fail := errors.New("remote down")
	for i := 0; i < 3; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("allow %d failed: %v", i, err)
		}
		b.Record(fail)
	}

	if b.State() != StateOpen {
		t.Errorf("expected open after threshold, got %s", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open breaker should refuse, got %v", err)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 3})

	fail := errors.New("flaky")
	b.Record(fail)
	b.Record(fail)
	b.Record(nil)
	b.Record(fail)
	b.Record(fail)

	if b.State() != StateClosed {
		t.Errorf("interleaved successes should keep breaker closed, got %s", b.State())
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1, Cooldown: 10 * time.Millisecond})

	b.Record(errors.New("down"))
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	time.Sleep(20 * time.Millisecond)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open after cooldown, got %s", b.State())
	}

	// First probe admitted, second refused while the probe is in flight.
	if err := b.Allow(); err != nil {
		t.Fatalf("probe should be admitted: %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second probe should be refused, got %v", err)
	}

	b.Record(nil)
	if b.State() != StateClosed {
		t.Errorf("successful probe should close breaker, got %s", b.State())
	}
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1, Cooldown: 10 * time.Millisecond})

	b.Record(errors.New("down"))
	time.Sleep(20 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Fatalf("probe should be admitted: %v", err)
	}
	b.Record(errors.New("still down"))

	if b.State() != StateOpen {
		t.Errorf("failed probe should reopen breaker, got %s", b.State())
	}
}

func TestBreakerCancelFreesHalfOpenSlot(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1, Cooldown: 10 * time.Millisecond})

	b.Record(errors.New("down"))
	time.Sleep(20 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Fatalf("first admission failed: %v", err)
	}
	// The admitted call is abandoned before it goes out.
	b.Cancel()

	if err := b.Allow(); err != nil {
		t.Errorf("slot should be free after cancel, got %v", err)
	}
	b.Record(nil)
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful retry, got %s", b.State())
	}
}

func TestBreakerStateChangeCallback(t *testing.T) {
	var transitions []string
	b := New("test", Settings{
		FailureThreshold: 1,
		Cooldown:         time.Minute,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	b.Record(errors.New("down"))
	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("unexpected transitions: %v", transitions)
	}
}
