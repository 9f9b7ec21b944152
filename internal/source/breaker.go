package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// ErrUnavailable is returned while the breaker is open.
var ErrUnavailable = errors.New("data source temporarily unavailable")

// BreakerConfig tunes a Breaker.
type BreakerConfig struct {
	Name string
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval clears the failure counts while closed.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32
	Logger   *slog.Logger
}

// Breaker guards a data source with a circuit breaker so a failing backend is
// not hit on every view change.
type Breaker[T core.Record] struct {
	next core.DataSource[T]
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next.
func NewBreaker[T core.Record](next core.DataSource[T], cfg BreakerConfig) *Breaker[T] {
	if cfg.Name == "" {
		cfg.Name = "datasource"
	}
	if cfg.Failures == 0 {
		cfg.Failures = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
		IsSuccessful: func(err error) bool {
			// a superseded or abandoned fetch says nothing about backend health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return &Breaker[T]{next: next, cb: cb}
}

// Fetch forwards to the wrapped source unless the breaker is open.
func (b *Breaker[T]) Fetch(ctx context.Context, req core.FetchRequest) (core.FetchResult[T], error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Fetch(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return core.FetchResult[T]{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return core.FetchResult[T]{}, err
	}
	return res.(core.FetchResult[T]), nil
}

// State reports the breaker state.
func (b *Breaker[T]) State() gobreaker.State {
	return b.cb.State()
}
