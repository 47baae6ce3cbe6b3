package service

import (
	"context"
	"errors"
	"testing"

	"github.com/docflow/docflow/internal/apperr"
	"github.com/docflow/docflow/internal/lock"
	"github.com/docflow/docflow/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// failingRepo simulates a store that cannot be reached.
type failingRepo struct{}

func (failingRepo) FindByDocumentID(context.Context, string) (*lock.Lock, bool, error) {
	return nil, false, apperr.Store("find lock", errors.New("connection refused"))
}
func (failingRepo) Insert(context.Context, *lock.Lock) (*lock.Lock, bool, error) {
	return nil, false, apperr.Store("insert lock", errors.New("connection refused"))
}
func (failingRepo) DeleteByDocumentID(context.Context, string, string) (bool, error) {
	return false, apperr.Store("delete lock", errors.New("connection refused"))
}

func TestGetAbsentIsNotAnError(t *testing.T) {
	m := NewMemoryManager()
	l, found, err := m.Get(context.Background(), "d1")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, l)
}

func TestAcquire(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()

	l, err := m.Acquire(ctx, "d1", "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", l.Owner)

	// re-entrant for the owner
	l, err = m.Acquire(ctx, "d1", "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", l.Owner)

	before := testutil.ToFloat64(metrics.LockOperations.WithLabelValues("acquire", "locked"))
	_, err = m.Acquire(ctx, "d1", "bob")
	require.ErrorIs(t, err, apperr.ErrLocked)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.LockOperations.WithLabelValues("acquire", "locked")))
}

func TestReleaseOwnerChecked(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryManager()

	ok, err := m.Release(ctx, "d1", "alice")
	require.NoError(t, err)
	require.False(t, ok, "no lock to release")

	_, err = m.Acquire(ctx, "d1", "alice")
	require.NoError(t, err)

	ok, err = m.Release(ctx, "d1", "bob")
	require.NoError(t, err)
	require.False(t, ok)
	l, found, err := m.Get(ctx, "d1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "alice", l.Owner)

	ok, err = m.Release(ctx, "d1", "alice")
	require.NoError(t, err)
	require.True(t, ok)
	_, found, err = m.Get(ctx, "d1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestStoreFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	m := NewManager(failingRepo{})

	_, _, err := m.Get(ctx, "d1")
	require.ErrorIs(t, err, apperr.ErrUnavailable)
	_, err = m.Acquire(ctx, "d1", "alice")
	require.ErrorIs(t, err, apperr.ErrUnavailable)
	ok, err := m.Release(ctx, "d1", "alice")
	require.ErrorIs(t, err, apperr.ErrUnavailable)
	require.False(t, ok)
}
