// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/metrics"
	"github.com/tomtom215/seedmap/internal/models"
)

// BreakerSettings configures BreakerStore.
type BreakerSettings struct {
	FailureThreshold uint32        // consecutive failures that open the circuit
	MaxRequests      uint32        // probes allowed while half-open
	Interval         time.Duration // closed-state count reset period
	Timeout          time.Duration // open -> half-open delay
}

// BreakerStore guards a Store with a circuit breaker.
//
// ErrNotFound counts as success: a missing marker says nothing about the
// health of the backend. While the circuit is open calls fail fast with
// ErrUnavailable.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker[any]
	name  string
}

// NewBreakerStore wraps inner.
func NewBreakerStore(inner Store, settings BreakerSettings) *BreakerStore {
	cbName := "store-" + inner.Name()
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= settings.FailureThreshold
			if trip {
				logging.Warn().
					Str("breaker", cbName).
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},

		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerStore{inner: inner, cb: cb, name: cbName}
}

func (b *BreakerStore) Unwrap() Store { return b.inner }

func (b *BreakerStore) Name() string { return b.inner.Name() }

// State reports the current breaker state ("closed", "half-open", "open").
func (b *BreakerStore) State() string { return stateToString(b.cb.State()) }

func (b *BreakerStore) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if errors.Is(err, ErrNotFound) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func (b *BreakerStore) List(ctx context.Context, seed string) ([]models.Marker, error) {
	return castResult[[]models.Marker](b.execute(func() (any, error) {
		return b.inner.List(ctx, seed)
	}))
}

func (b *BreakerStore) Create(ctx context.Context, seed string, in *models.MarkerInput) (*models.Marker, error) {
	return castResult[*models.Marker](b.execute(func() (any, error) {
		return b.inner.Create(ctx, seed, in)
	}))
}

func (b *BreakerStore) Get(ctx context.Context, id string) (*models.Marker, error) {
	return castResult[*models.Marker](b.execute(func() (any, error) {
		return b.inner.Get(ctx, id)
	}))
}

func (b *BreakerStore) Delete(ctx context.Context, id string) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.inner.Delete(ctx, id)
	})
	return err
}

func (b *BreakerStore) Ping(ctx context.Context) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.inner.Ping(ctx)
	})
	return err
}

func (b *BreakerStore) Close() error { return b.inner.Close() }

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
