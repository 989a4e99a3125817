package kv

import (
	"context"
	"time"
)

// Metrics observes store transactions.
type Metrics interface {
	// RecordTransaction records a finished View ("view") or Update ("update").
	RecordTransaction(kind string, duration time.Duration, err error)
}

// Instrument wraps store so every transaction is reported to m. A nil m
// returns store unchanged.
func Instrument(store Store, m Metrics) Store {
	if m == nil {
		return store
	}
	return &instrumented{Store: store, metrics: m}
}

type instrumented struct {
	Store
	metrics Metrics
}

func (s *instrumented) View(ctx context.Context, fn func(txn Txn) error) error {
	start := time.Now()
	err := s.Store.View(ctx, fn)
	s.metrics.RecordTransaction("view", time.Since(start), err)
	return err
}

func (s *instrumented) Update(ctx context.Context, fn func(txn Txn) error) error {
	start := time.Now()
	err := s.Store.Update(ctx, fn)
	s.metrics.RecordTransaction("update", time.Since(start), err)
	return err
}

// Unwrap returns the wrapped store.
func (s *instrumented) Unwrap() Store { return s.Store }
