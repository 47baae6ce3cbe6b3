package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/docflow/docflow/internal/apperr"
	"github.com/docflow/docflow/internal/document"
	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Store used for local runs and unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
	order []string
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document), now: time.Now}
}

func (m *MemoryRepo) Insert(_ context.Context, doc *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, ok := m.store[doc.ID]; ok {
		return fmt.Errorf("%w: document %s already exists", apperr.ErrConflict, doc.ID)
	}
	doc.Version = 0
	doc.CreatedAt = m.now().UTC()
	doc.UpdatedAt = doc.CreatedAt
	cp := *doc
	m.store[doc.ID] = &cp
	m.order = append(m.order, doc.ID)
	return nil
}

func (m *MemoryRepo) FindByID(_ context.Context, id string) (*document.Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.store[id]
	if !ok {
		return nil, false, nil
	}
	cp := *d
	return &cp, true, nil
}

func (m *MemoryRepo) Save(_ context.Context, doc *document.Document, expected int64) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.store[doc.ID]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", apperr.ErrNotFound, doc.ID)
	}
	if cur.Version != expected {
		return nil, fmt.Errorf("%w: document %s is at version %d, not %d", apperr.ErrConflict, doc.ID, cur.Version, expected)
	}
	cur.Title = doc.Title
	cur.Body = doc.Body
	cur.Editor = doc.Editor
	cur.Status = doc.Status
	cur.Version++
	cur.UpdatedAt = m.now().UTC()
	out := *cur
	return &out, nil
}

func (m *MemoryRepo) FindPage(_ context.Context, number, size int) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := number * size
	if start >= len(m.order) || size <= 0 {
		return []*document.Document{}, nil
	}
	end := start + size
	if end > len(m.order) {
		end = len(m.order)
	}
	out := make([]*document.Document, 0, end-start)
	for _, id := range m.order[start:end] {
		cp := *m.store[id]
		out = append(out, &cp)
	}
	return out, nil
}
