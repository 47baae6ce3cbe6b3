package repository

import (
	"context"

	"github.com/docflow/docflow/internal/document"
)

// Store is the persistence contract used by the document manager. Lookups
// report absence through the found flag; every other failure is an error
// classified with the apperr kinds.
type Store interface {
	// Insert stores a new document, assigning an id when empty and setting
	// version 0 and both timestamps. A taken id yields apperr.ErrConflict.
	Insert(ctx context.Context, doc *document.Document) error
	FindByID(ctx context.Context, id string) (*document.Document, bool, error)
	// Save overwrites the mutable fields of the stored document only while its
	// version still equals expected, bumping the version and updated time.
	// A lost race yields apperr.ErrConflict.
	Save(ctx context.Context, doc *document.Document, expected int64) (*document.Document, error)
	// FindPage returns documents in insertion order.
	FindPage(ctx context.Context, number, size int) ([]*document.Document, error)
}
