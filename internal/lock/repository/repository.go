package repository

import (
	"context"

	"github.com/docflow/docflow/internal/lock"
)

// insertAttempts bounds the insert/lookup loop of Insert when a lock is
// released between a refused insert and the follow-up read.
const insertAttempts = 3

// Store persists at most one lock per document.
type Store interface {
	FindByDocumentID(ctx context.Context, documentID string) (*lock.Lock, bool, error)
	// Insert creates the lock unless one exists; it then returns the current
	// holder with created == false.
	Insert(ctx context.Context, l *lock.Lock) (current *lock.Lock, created bool, err error)
	// DeleteByDocumentID removes the lock only while owner still holds it and
	// reports whether a record was removed.
	DeleteByDocumentID(ctx context.Context, documentID, owner string) (bool, error)
}
