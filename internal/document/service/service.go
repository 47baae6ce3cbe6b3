package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/docflow/docflow/internal/apperr"
	"github.com/docflow/docflow/internal/document"
	"github.com/docflow/docflow/internal/document/repository"
	"github.com/docflow/docflow/internal/lock"
	"github.com/docflow/docflow/pkg/logger"
	"github.com/docflow/docflow/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	archiveURLTTL   = 15 * time.Minute
)

var tracer = otel.Tracer("github.com/docflow/docflow/internal/document/service")

// Service defines the document business operations used by the handler layer.
type Service interface {
	Create(ctx context.Context, candidate *document.Document, creator string) (document.Summary, error)
	Get(ctx context.Context, id string) (*document.Document, error)
	List(ctx context.Context, req document.PageRequest) (*document.Page, error)
	Update(ctx context.Context, id string, patch document.Patch, requester string) (*document.Document, error)
	SetStatus(ctx context.Context, id string, target document.Status) (*document.Document, error)
	ArchiveURL(ctx context.Context, id string) (string, error)
}

// LockReader is the part of the lock manager the update protocol consults.
type LockReader interface {
	Get(ctx context.Context, documentID string) (*lock.Lock, bool, error)
}

// Archiver receives a snapshot of every document that reaches VALIDATED.
type Archiver interface {
	Archive(ctx context.Context, d *document.Document) error
	URL(ctx context.Context, documentID string, expires time.Duration) (string, error)
}

type Option func(*Manager)

// WithArchiver enables snapshot archiving on validation.
func WithArchiver(a Archiver) Option {
	return func(m *Manager) { m.archive = a }
}

// WithMaxPageSize caps the page size accepted by List.
func WithMaxPageSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxPageSize = n
		}
	}
}

// Manager implements Service on a document store and the lock manager.
type Manager struct {
	repo        repository.Store
	locks       LockReader
	archive     Archiver
	maxPageSize int
}

func NewManager(repo repository.Store, locks LockReader, opts ...Option) *Manager {
	m := &Manager{repo: repo, locks: locks, maxPageSize: MaxPageSize}
	for _, o := range opts {
		o(m)
	}
	return m
}

// NewMemoryManager returns a Manager backed by the in-memory document store.
func NewMemoryManager(locks LockReader, opts ...Option) *Manager {
	return NewManager(repository.NewMemoryRepo(), locks, opts...)
}

func finish(span trace.Span, op string, err error) {
	metrics.DocumentOperations.WithLabelValues(op, metrics.Outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, metrics.Outcome(err))
	}
	span.End()
}

// Create stores a new document owned by creator. A proposed id that is
// already taken fails with ErrConflict.
func (m *Manager) Create(ctx context.Context, candidate *document.Document, creator string) (sum document.Summary, err error) {
	ctx, span := tracer.Start(ctx, "document.Create")
	defer func() { finish(span, "create", err) }()

	d := &document.Document{
		ID:      candidate.ID,
		Title:   candidate.Title,
		Body:    candidate.Body,
		Status:  document.StatusCreated,
		Creator: creator,
		Editor:  creator,
	}
	if err := m.repo.Insert(ctx, d); err != nil {
		return document.Summary{}, err
	}
	span.SetAttributes(attribute.String("document.id", d.ID))
	logger.Infof("document created: id=%s creator=%s", d.ID, creator)
	return document.Summarize(d), nil
}

func (m *Manager) Get(ctx context.Context, id string) (d *document.Document, err error) {
	ctx, span := tracer.Start(ctx, "document.Get", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { finish(span, "get", err) }()
	return m.find(ctx, id)
}

func (m *Manager) find(ctx context.Context, id string) (*document.Document, error) {
	d, found, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: no document with id %s", apperr.ErrNotFound, id)
	}
	return d, nil
}

// List returns one page of summaries. The page metadata echoes the request.
func (m *Manager) List(ctx context.Context, req document.PageRequest) (p *document.Page, err error) {
	ctx, span := tracer.Start(ctx, "document.List")
	defer func() { finish(span, "list", err) }()

	if req.Number < 0 || req.Size < 0 {
		return nil, fmt.Errorf("%w: page and size must not be negative", apperr.ErrBadRequest)
	}
	if req.Size == 0 {
		req.Size = DefaultPageSize
	}
	if req.Size > m.maxPageSize {
		req.Size = m.maxPageSize
	}
	if req.Number > math.MaxInt/req.Size {
		return nil, fmt.Errorf("%w: page %d is out of range", apperr.ErrBadRequest, req.Number)
	}
	docs, err := m.repo.FindPage(ctx, req.Number, req.Size)
	if err != nil {
		return nil, err
	}
	out := make([]document.Summary, 0, len(docs))
	for _, d := range docs {
		out = append(out, document.Summarize(d))
	}
	return &document.Page{Data: out, NbElements: req.Size, Page: req.Number}, nil
}

// Update applies patch on behalf of requester. Checks run in this order:
// missing document, validated document, lock held by someone else, stale
// version. The write itself is conditional on the version that was checked,
// so a concurrent writer turns into ErrConflict rather than a lost update.
func (m *Manager) Update(ctx context.Context, id string, patch document.Patch, requester string) (d *document.Document, err error) {
	ctx, span := tracer.Start(ctx, "document.Update", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { finish(span, "update", err) }()

	cur, err := m.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status.Frozen() {
		return nil, fmt.Errorf("%w: document %s is validated and can no longer be edited", apperr.ErrForbidden, id)
	}
	// No lock record means anyone may edit.
	l, locked, err := m.locks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if locked && !l.HeldBy(requester) {
		return nil, fmt.Errorf("%w: document %s is being edited by %s", apperr.ErrLocked, id, l.Owner)
	}
	if patch.Version != cur.Version {
		return nil, fmt.Errorf("%w: document %s is at version %d, got %d", apperr.ErrConflict, id, cur.Version, patch.Version)
	}

	if patch.Title != nil {
		cur.Title = *patch.Title
	}
	if patch.Body != nil {
		cur.Body = *patch.Body
	}
	cur.Editor = requester
	saved, err := m.repo.Save(ctx, cur, patch.Version)
	if err != nil {
		return nil, err
	}
	logger.Debugf("document updated: id=%s editor=%s version=%d", id, requester, saved.Version)
	return saved, nil
}

// SetStatus moves a document along its workflow. Only VALIDATED is accepted
// as a target and the transition happens once.
func (m *Manager) SetStatus(ctx context.Context, id string, target document.Status) (d *document.Document, err error) {
	ctx, span := tracer.Start(ctx, "document.SetStatus", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { finish(span, "set_status", err) }()

	if target != document.StatusValidated {
		return nil, fmt.Errorf("%w: the status must be %s", apperr.ErrBadRequest, document.StatusValidated)
	}
	cur, err := m.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status.Frozen() {
		return nil, fmt.Errorf("%w: document %s is already validated", apperr.ErrForbidden, id)
	}
	cur.Status = target
	saved, err := m.repo.Save(ctx, cur, cur.Version)
	if err != nil {
		return nil, err
	}
	logger.Infof("document validated: id=%s version=%d", id, saved.Version)

	if m.archive != nil {
		if aerr := m.archive.Archive(ctx, saved); aerr != nil {
			logger.Warnf("archive validated document %s: %v", id, aerr)
		}
	}
	return saved, nil
}

// ArchiveURL returns a time-limited link to the snapshot taken when the
// document was validated.
func (m *Manager) ArchiveURL(ctx context.Context, id string) (u string, err error) {
	ctx, span := tracer.Start(ctx, "document.ArchiveURL", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { finish(span, "archive_url", err) }()

	if m.archive == nil {
		return "", fmt.Errorf("%w: archiving is not configured", apperr.ErrNotFound)
	}
	d, err := m.find(ctx, id)
	if err != nil {
		return "", err
	}
	if !d.Status.Frozen() {
		return "", fmt.Errorf("%w: document %s has no archived snapshot until validated", apperr.ErrNotFound, id)
	}
	u, err = m.archive.URL(ctx, id, archiveURLTTL)
	if err != nil {
		return "", apperr.Store("presign archive", err)
	}
	return u, nil
}
