package cache

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(v any) func(context.Context) (any, error) {
	return func(context.Context) (any, error) { return v, nil }
}

func failing(err error) func(context.Context) (any, error) {
	return func(context.Context) (any, error) { return nil, err }
}

func TestUnknownIsNotZero(t *testing.T) {
	s, err := New(16)
	require.NoError(t, err)

	e := s.Get("balance")
	assert.False(t, e.Known)
	assert.Nil(t, e.Value)

	require.NoError(t, s.Refresh(context.Background(), Query{Key: "balance", Fetch: value(big.NewInt(0))}))
	e = s.Get("balance")
	assert.True(t, e.Known)
	assert.Equal(t, big.NewInt(0), e.Value)
	assert.False(t, e.FetchedAt.IsZero())
}

func TestFailedFetchKeepsLastValue(t *testing.T) {
	s, _ := New(16)
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx, Query{Key: "rate", Fetch: value("1.05")}))
	boom := errors.New("rpc down")
	err := s.Refresh(ctx, Query{Key: "rate", Fetch: failing(boom)})
	assert.ErrorIs(t, err, boom)

	e := s.Get("rate")
	assert.True(t, e.Known)
	assert.Equal(t, "1.05", e.Value)
	assert.ErrorIs(t, e.Err, boom)

	require.NoError(t, s.Refresh(ctx, Query{Key: "rate", Fetch: value("1.06")}))
	e = s.Get("rate")
	assert.NoError(t, e.Err)
	assert.Equal(t, "1.06", e.Value)
}

func TestStaleResponseIsDropped(t *testing.T) {
	s, _ := New(16)
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{})
	slow := Query{Key: "balance", Fetch: func(context.Context) (any, error) {
		close(started)
		<-release
		return "old", nil
	}}

	done := make(chan error)
	go func() { done <- s.Refresh(ctx, slow) }()
	<-started

	require.NoError(t, s.Refresh(ctx, Query{Key: "balance", Fetch: value("new")}))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, "new", s.Get("balance").Value)
}

func TestParallelRefresh(t *testing.T) {
	s, _ := New(16)
	qs := []Query{}
	for _, k := range []string{"a", "b", "c", "d"} {
		qs = append(qs, Query{Key: k, Fetch: value(k)})
	}
	require.NoError(t, s.Refresh(context.Background(), qs...))
	for _, k := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, k, s.Get(k).Value)
	}
}

func TestInvalidateAndClearOwner(t *testing.T) {
	s, _ := New(16)
	ctx := context.Background()
	alice := common.HexToAddress("0x01")
	bob := common.HexToAddress("0x02")

	require.NoError(t, s.Refresh(ctx,
		Query{Key: "rate", Fetch: value(1)},
		Query{Key: "alice/balance", Owner: alice, Fetch: value(2)},
		Query{Key: "bob/balance", Owner: bob, Fetch: value(3)},
	))

	s.Invalidate("rate", "missing")
	assert.True(t, s.Get("rate").Stale)
	assert.True(t, s.Get("rate").Known)

	s.ClearOwner(alice)
	assert.False(t, s.Get("alice/balance").Known)
	assert.True(t, s.Get("bob/balance").Known)
	assert.True(t, s.Get("rate").Known)
	assert.Equal(t, 2, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestClearDropsInFlightResult(t *testing.T) {
	s, _ := New(16)
	alice := common.HexToAddress("0x01")

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- s.Refresh(context.Background(), Query{Key: "alice/balance", Owner: alice, Fetch: func(context.Context) (any, error) {
			close(started)
			<-release
			return 5, nil
		}})
	}()
	<-started
	s.ClearOwner(alice)
	close(release)
	require.NoError(t, <-done)

	assert.False(t, s.Get("alice/balance").Known)
}
