package service

import (
	"context"
	"fmt"

	"github.com/docflow/docflow/internal/apperr"
	"github.com/docflow/docflow/internal/lock"
	"github.com/docflow/docflow/internal/lock/repository"
	"github.com/docflow/docflow/pkg/logger"
	"github.com/docflow/docflow/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/docflow/docflow/internal/lock/service")

// Service defines the lock operations used by the handler layer.
type Service interface {
	Get(ctx context.Context, documentID string) (*lock.Lock, bool, error)
	Acquire(ctx context.Context, documentID, requester string) (*lock.Lock, error)
	Release(ctx context.Context, documentID, requester string) (bool, error)
}

// Manager implements Service: lock lookup, acquisition and owner-checked
// release.
type Manager struct {
	repo repository.Store
}

func NewManager(r repository.Store) *Manager {
	return &Manager{repo: r}
}

// NewMemoryManager returns a Manager backed by the in-memory store.
func NewMemoryManager() *Manager {
	return NewManager(repository.NewMemoryRepo())
}

// Get looks up the lock on a document. A missing lock is reported through
// found, never as an error.
func (m *Manager) Get(ctx context.Context, documentID string) (l *lock.Lock, found bool, err error) {
	ctx, span := tracer.Start(ctx, "lock.Get")
	defer span.End()
	l, found, err = m.repo.FindByDocumentID(ctx, documentID)
	if err != nil {
		span.RecordError(err)
	}
	return l, found, err
}

// Acquire claims the edit lock for requester. It is re-entrant for the
// current owner and fails with ErrLocked when another identity holds it.
func (m *Manager) Acquire(ctx context.Context, documentID, requester string) (l *lock.Lock, err error) {
	ctx, span := tracer.Start(ctx, "lock.Acquire")
	defer func() {
		metrics.LockOperations.WithLabelValues("acquire", metrics.Outcome(err)).Inc()
		span.End()
	}()
	span.SetAttributes(attribute.String("document.id", documentID))

	cur, created, err := m.repo.Insert(ctx, &lock.Lock{DocumentID: documentID, Owner: requester})
	if err != nil {
		return nil, err
	}
	if !created && !cur.HeldBy(requester) {
		return nil, fmt.Errorf("%w: document %s is being edited by %s", apperr.ErrLocked, documentID, cur.Owner)
	}
	if created {
		logger.Debugf("lock acquired: document=%s owner=%s", documentID, requester)
	}
	return cur, nil
}

// Release drops the lock when requester owns it. It returns false, without
// error, when there is no lock or another identity holds it.
func (m *Manager) Release(ctx context.Context, documentID, requester string) (released bool, err error) {
	ctx, span := tracer.Start(ctx, "lock.Release")
	defer func() {
		outcome := metrics.Outcome(err)
		if err == nil && !released {
			outcome = "refused"
		}
		metrics.LockOperations.WithLabelValues("release", outcome).Inc()
		span.End()
	}()
	span.SetAttributes(attribute.String("document.id", documentID))

	cur, found, err := m.repo.FindByDocumentID(ctx, documentID)
	if err != nil {
		return false, err
	}
	if !found || !cur.HeldBy(requester) {
		return false, nil
	}
	released, err = m.repo.DeleteByDocumentID(ctx, documentID, requester)
	if err != nil {
		return false, err
	}
	if released {
		logger.Debugf("lock released: document=%s owner=%s", documentID, requester)
	}
	return released, nil
}
