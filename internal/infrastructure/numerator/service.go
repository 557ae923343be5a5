// Package numerator provides PostgreSQL implementation of document auto-numbering.
// It implements core/numerator.Generator on the sys_sequences table.
package numerator

import (
	"context"
	"fmt"
	"time"

	corenumerator "opserp/internal/core/numerator"
	"opserp/internal/infrastructure/storage/postgres"
)

// Service issues numbers with an UPSERT ... RETURNING on sys_sequences.
// Inside a transaction the sequence row stays locked until commit, so
// numbers are gapless and concurrent commands queue on the same key.
type Service struct {
	txManager *postgres.TxManager
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator backed by the given transaction manager.
func New(txManager *postgres.TxManager) *Service {
	return &Service{txManager: txManager}
}

// Next implements corenumerator.Generator.
func (s *Service) Next(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	key := cfg.Key(period)
	var num int64
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next number for %s: %w", key, postgres.MapError(err))
	}
	return cfg.Format(period, num), nil
}
