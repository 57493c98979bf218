// Package breaker implements a per-dependency circuit breaker gating
// calls to the main pipeline and the LLM provider. Grounded on
// original_source/utils/resilience.py's CircuitBreakerState (threshold/
// reset-timeout shape) and common/httpx/httpx.go's atomic open-until
// deadline pattern.
package breaker

import (
	"sync"
	"time"
)

// State is one of closed, open, half-open.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker gates calls to a single named dependency. The half-open to
// closed transition requires exactly one success, per spec.md §4.2's
// "next call succeeds" wording — the Python original's two-success
// threshold is not carried forward.
type Breaker struct {
	mu           sync.Mutex
	name         string
	threshold    int
	resetTimeout time.Duration
	state        State
	failureCount int
	openedAt     time.Time
	lastProbeAt  time.Time
}

// New creates a breaker with the given failure threshold and reset timeout.
func New(name string, threshold int, resetTimeout time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 60 * time.Second
	}
	return &Breaker{name: name, threshold: threshold, resetTimeout: resetTimeout, state: Closed}
}

// Name returns the dependency name this breaker guards.
func (b *Breaker) Name() string { return b.name }

// Allow reports whether a call may proceed: true when closed or
// half-open (a probe), false when open.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Open:
		if time.Since(b.openedAt) >= b.resetTimeout {
			b.state = HalfOpen
			b.lastProbeAt = time.Now()
			return true
		}
		return false
	case HalfOpen:
		return true
	default:
		return true
	}
}

// Record updates the breaker's counters and transitions state following
// a completed call.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case HalfOpen:
		if success {
			b.state = Closed
			b.failureCount = 0
		} else {
			b.state = Open
			b.openedAt = time.Now()
			b.failureCount++
		}
	default:
		if success {
			b.failureCount = 0
			return
		}
		b.failureCount++
		if b.failureCount >= b.threshold {
			b.state = Open
			b.openedAt = time.Now()
		}
	}
}

// Snapshot is a point-in-time read of the breaker's exported state.
type Snapshot struct {
	Name         string
	State        State
	FailureCount int
	OpenedAt     time.Time
	LastProbeAt  time.Time
}

func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Name:         b.name,
		State:        b.state,
		FailureCount: b.failureCount,
		OpenedAt:     b.openedAt,
		LastProbeAt:  b.lastProbeAt,
	}
}

// Registry owns a fixed set of named breakers (one per downstream
// dependency: "main_pipeline", "llm").
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	threshold int
	resetTimeout time.Duration
}

func NewRegistry(threshold int, resetTimeout time.Duration) *Registry {
	return &Registry{breakers: make(map[string]*Breaker), threshold: threshold, resetTimeout: resetTimeout}
}

// Get returns the breaker for name, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return b
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	b = New(name, r.threshold, r.resetTimeout)
	r.breakers[name] = b
	return b
}
