package repository

import (
	"context"
	"sync"
	"time"

	"github.com/docflow/docflow/internal/lock"
)

// MemoryRepo keeps locks in a map. Single-process only.
type MemoryRepo struct {
	mu    sync.Mutex
	locks map[string]lock.Lock
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{locks: make(map[string]lock.Lock)}
}

func (m *MemoryRepo) FindByDocumentID(_ context.Context, documentID string) (*lock.Lock, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[documentID]
	if !ok {
		return nil, false, nil
	}
	return &l, true, nil
}

func (m *MemoryRepo) Insert(_ context.Context, l *lock.Lock) (*lock.Lock, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.locks[l.DocumentID]; ok {
		return &cur, false, nil
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	m.locks[l.DocumentID] = *l
	out := *l
	return &out, true, nil
}

func (m *MemoryRepo) DeleteByDocumentID(_ context.Context, documentID, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.locks[documentID]
	if !ok || cur.Owner != owner {
		return false, nil
	}
	delete(m.locks, documentID)
	return true, nil
}
