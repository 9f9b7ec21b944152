package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgrid/internal/testutil"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

func TestMemory_Fetch(t *testing.T) {
	m := NewMemory(testutil.Products(42), MemoryConfig{Logger: testutil.NewTestLogger(t)})

	res, err := m.Fetch(context.Background(), core.FetchRequest{
		Page:          5,
		PageSize:      10,
		Filters:       core.FilterSet{},
		SortField:     "name",
		SortDirection: core.Asc,
	})
	require.NoError(t, err)

	assert.Len(t, res.Data, 2)
	assert.Equal(t, core.Pagination{Page: 5, PageSize: 10, Total: 42, TotalPages: 5}, res.Pagination)
}

func TestMemory_Latency(t *testing.T) {
	m := NewMemory(testutil.Products(3), MemoryConfig{Latency: 40 * time.Millisecond})

	start := time.Now()
	_, err := m.Fetch(context.Background(), core.FetchRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestMemory_CanceledDuringLatency(t *testing.T) {
	m := NewMemory(testutil.Products(3), MemoryConfig{Latency: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Fetch(ctx, core.FetchRequest{Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_Replace(t *testing.T) {
	m := NewMemory(testutil.Products(3), MemoryConfig{})
	m.Replace(testutil.Products(12), "v2")

	assert.Equal(t, 12, m.Len())
	assert.Equal(t, "v2", m.Version())

	res, err := m.Fetch(context.Background(), core.FetchRequest{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	boom := errors.New("backend down")
	calls := 0
	failing := core.DataSourceFunc[core.Product](func(context.Context, core.FetchRequest) (core.FetchResult[core.Product], error) {
		calls++
		return core.FetchResult[core.Product]{}, boom
	})
	b := NewBreaker[core.Product](failing, BreakerConfig{Failures: 2, Timeout: time.Minute})

	for range 2 {
		_, err := b.Fetch(context.Background(), core.FetchRequest{})
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Fetch(context.Background(), core.FetchRequest{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, calls, "open breaker short-circuits")
}

func TestBreaker_CancellationIsNotAFailure(t *testing.T) {
	canceled := core.DataSourceFunc[core.Product](func(ctx context.Context, _ core.FetchRequest) (core.FetchResult[core.Product], error) {
		return core.FetchResult[core.Product]{}, context.Canceled
	})
	b := NewBreaker[core.Product](canceled, BreakerConfig{Failures: 1})

	for range 3 {
		_, err := b.Fetch(context.Background(), core.FetchRequest{})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_PassesResults(t *testing.T) {
	m := NewMemory(testutil.Products(15), MemoryConfig{})
	b := NewBreaker[core.Product](m, BreakerConfig{})

	res, err := b.Fetch(context.Background(), core.FetchRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, res.Data, 10)
	assert.Equal(t, 15, res.Pagination.Total)
}
