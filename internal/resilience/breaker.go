package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Allow while the breaker refuses traffic.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures breaker behavior.
type Settings struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// breaker from the closed state.
	FailureThreshold uint32
	// Cooldown is how long the breaker stays open before probing again.
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes.
	OnStateChange func(name string, from, to State)
}

// Breaker guards calls to an unreliable remote. Callers check Allow before
// the call and Record the outcome after. A run of failures opens the
// breaker; after the cooldown a single probe decides whether it closes.
type Breaker struct {
	name     string
	settings Settings

	mu            sync.Mutex
	state         State
	failures      uint32
	reopenAt      time.Time
	probeInFlight bool
}

// New creates a circuit breaker with the given settings.
func New(name string, settings Settings) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Breaker{name: name, settings: settings, state: StateClosed}
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, accounting for cooldown expiry.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh(time.Now())
	return b.state
}

// Allow reports whether a call may proceed. In the half-open state only one
// probe is admitted at a time.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.refresh(now)

	switch b.state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probeInFlight {
			return ErrCircuitOpen
		}
		b.probeInFlight = true
	}
	return nil
}

// Cancel releases a call admitted by Allow that never reached the remote.
// No outcome is counted; in the half-open state the slot is freed so a later
// caller can be admitted. Every Allow must be paired with exactly one Record
// or Cancel.
func (b *Breaker) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeInFlight = false
}

// Record reports a call outcome. Pass the call's error (nil on success).
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.refresh(now)

	if err == nil {
		b.failures = 0
		if b.state == StateHalfOpen {
			b.transition(StateClosed, now)
		}
		return
	}

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.settings.FailureThreshold {
			b.transition(StateOpen, now)
		}
	case StateHalfOpen:
		b.transition(StateOpen, now)
	}
}

// refresh moves an expired open breaker to half-open. Caller holds the lock.
func (b *Breaker) refresh(now time.Time) {
	if b.state == StateOpen && now.After(b.reopenAt) {
		b.transition(StateHalfOpen, now)
	}
}

func (b *Breaker) transition(state State, now time.Time) {
	if b.state == state {
		return
	}
	prev := b.state
	b.state = state
	b.failures = 0
	b.probeInFlight = false
	if state == StateOpen {
		b.reopenAt = now.Add(b.settings.Cooldown)
	}
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, state)
	}
}
