package circuitbreaker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Registry lazily allocates one breaker per partner id and evicts breakers
// unused for a quiet period.
type Registry struct {
	mutex      sync.RWMutex
	breakers   map[string]*CircuitBreaker
	lastAccess map[string]time.Time
	config     Config

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
}

// NewRegistry creates a registry whose breakers all share cfg.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		breakers:   make(map[string]*CircuitBreaker),
		lastAccess: make(map[string]time.Time),
		config:     cfg,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Permit is returned by Acquire when a call is allowed to proceed. Exactly
// one of RecordSuccess or RecordFailure must be called on it afterwards.
type Permit struct {
	breaker *CircuitBreaker
}

// RecordSuccess reports a call that completed without a transport error.
func (p *Permit) RecordSuccess(duration time.Duration) {
	p.breaker.RecordSuccess(duration)
}

// RecordFailure reports an I/O error, timeout, or unhandled fault.
func (p *Permit) RecordFailure(duration time.Duration, cause error) {
	p.breaker.RecordFailure(duration, cause)
}

// Acquire returns a permit for partnerID, creating its breaker on first use.
// ok is false when the breaker is OPEN — the caller must not perform wire
// I/O and must not call RecordSuccess/RecordFailure on the nil permit.
func (r *Registry) Acquire(partnerID string) (*Permit, bool) {
	cb := r.getOrCreate(partnerID)

	r.mutex.Lock()
	r.lastAccess[partnerID] = time.Now()
	r.mutex.Unlock()

	if !cb.Allow() {
		return nil, false
	}
	return &Permit{breaker: cb}, true
}

func (r *Registry) getOrCreate(partnerID string) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[partnerID]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it.
	if cb, exists = r.breakers[partnerID]; exists {
		return cb
	}

	cb = New(r.config)
	r.breakers[partnerID] = cb
	return cb
}

// State returns the current state of partnerID's breaker, or StateClosed if
// it has never been used (matching a fresh breaker's initial state).
func (r *Registry) State(partnerID string) State {
	r.mutex.RLock()
	cb, exists := r.breakers[partnerID]
	r.mutex.RUnlock()
	if !exists {
		return StateClosed
	}
	return cb.State()
}

// Reset discards all breakers.
func (r *Registry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.breakers = make(map[string]*CircuitBreaker)
	r.lastAccess = make(map[string]time.Time)
}

// Stats returns the current state of every known breaker.
func (r *Registry) Stats() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]State, len(r.breakers))
	for id, cb := range r.breakers {
		stats[id] = cb.State()
	}
	return stats
}

// StartEvictionSweeper launches the background sweep (spec §4.2: every
// SweepInterval, remove breakers whose last access is older than
// EvictionQuietPeriod). It returns immediately; call Stop to shut it down.
func (r *Registry) StartEvictionSweeper(logger *slog.Logger) {
	r.mutex.Lock()
	r.started = true
	r.mutex.Unlock()

	go func() {
		defer close(r.doneCh)
		ticker := time.NewTicker(r.config.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.sweep(logger)
			}
		}
	}()
}

func (r *Registry) sweep(logger *slog.Logger) {
	now := time.Now()

	r.mutex.Lock()
	var evicted []string
	for id, accessedAt := range r.lastAccess {
		if now.Sub(accessedAt) > r.config.EvictionQuietPeriod {
			evicted = append(evicted, id)
		}
	}
	for _, id := range evicted {
		delete(r.breakers, id)
		delete(r.lastAccess, id)
	}
	r.mutex.Unlock()

	if len(evicted) > 0 && logger != nil {
		logger.Info("evicted inactive circuit breakers",
			slog.Int("count", len(evicted)),
			slog.Any("partners", evicted))
	}
}

// Stop halts the eviction sweeper. It is safe to call multiple times and
// safe to call even if StartEvictionSweeper was never invoked.
func (r *Registry) Stop(ctx context.Context) error {
	r.mutex.RLock()
	started := r.started
	r.mutex.RUnlock()
	if !started {
		return nil
	}

	r.stopOnce.Do(func() {
		close(r.stopCh)
	})

	select {
	case <-r.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
