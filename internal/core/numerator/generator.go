package numerator

import (
	"context"
	"sync"
	"time"
)

// Generator generates sequential document numbers.
// Implementations join the transaction carried by ctx, so a rolled back
// command does not consume a number.
type Generator interface {
	Next(ctx context.Context, cfg Config, period time.Time) (string, error)
}

// Memory is an in-process Generator for tests and the in-memory store.
type Memory struct {
	mu   sync.Mutex
	seqs map[string]int64
}

// NewMemory creates an empty in-memory generator.
func NewMemory() *Memory {
	return &Memory{seqs: make(map[string]int64)}
}

// Next implements Generator.
func (m *Memory) Next(_ context.Context, cfg Config, period time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := cfg.Key(period)
	m.seqs[key]++
	return cfg.Format(period, m.seqs[key]), nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*Memory)(nil)
