package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/i2mint/rh/internal/engine"
	"github.com/i2mint/rh/internal/metrics"
	"github.com/i2mint/rh/internal/value"
)

// Store owns the live value set between propagation passes. Edits from
// any transport funnel through Apply, which serializes them with a mutex:
// the engine requires one complete pass at a time, and a rejected pass
// must leave the committed set untouched.
type Store struct {
	mu     sync.Mutex
	engine *engine.Engine
	values value.Set
}

// NewStore creates a store seeded with the settled initial values.
func NewStore(eng *engine.Engine, initial value.Set) *Store {
	return &Store{engine: eng, values: initial.Clone()}
}

// Values returns a snapshot of the current value set.
func (s *Store) Values() value.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Clone()
}

// Apply runs one propagation pass for the edit and, on success, commits
// the resulting value set. On failure the committed set is unchanged.
func (s *Store) Apply(ctx context.Context, name string, v cty.Value) (value.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	next, err := s.engine.Propagate(ctx, name, v, s.values)
	metrics.PropagationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		var cyc *engine.CyclicError
		if errors.As(err, &cyc) {
			metrics.PropagationsTotal.WithLabelValues(metrics.ResultCycle).Inc()
		} else {
			metrics.PropagationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		}
		return nil, err
	}

	metrics.PropagationsTotal.WithLabelValues(metrics.ResultOK).Inc()
	s.values = next
	return next.Clone(), nil
}
