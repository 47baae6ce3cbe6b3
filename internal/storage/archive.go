package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docflow/docflow/internal/document"
)

// DocumentArchive writes the frozen snapshot of a validated document as JSON
// under "<prefix><id>.json".
type DocumentArchive struct {
	store  *MinIOStorage
	prefix string
}

func NewDocumentArchive(s *MinIOStorage, prefix string) *DocumentArchive {
	if prefix == "" {
		prefix = "documents/"
	}
	return &DocumentArchive{store: s, prefix: prefix}
}

func (a *DocumentArchive) key(id string) string {
	return a.prefix + id + ".json"
}

func (a *DocumentArchive) Archive(ctx context.Context, d *document.Document) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := a.store.UploadFile(ctx, a.key(d.ID), bytes.NewReader(b), int64(len(b)), "application/json"); err != nil {
		return fmt.Errorf("upload snapshot %s: %w", d.ID, err)
	}
	return nil
}

func (a *DocumentArchive) URL(ctx context.Context, id string, expires time.Duration) (string, error) {
	return a.store.GetPresignedURL(ctx, a.key(id), expires)
}
