package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/docflow/docflow/internal/apperr"
)

// Status is the workflow state of a document.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusValidated Status = "VALIDATED"
)

// ParseStatus accepts the textual form sent by clients ("VALIDATED", "validated",
// or a JSON-quoted string).
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.Trim(strings.TrimSpace(raw), `"`)))
	switch s {
	case StatusCreated, StatusValidated:
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", apperr.ErrBadRequest, raw)
}

// Frozen reports whether the status forbids further title/body edits.
func (s Status) Frozen() bool { return s == StatusValidated }

// Document is the persistent document model. Version starts at 0 and is
// bumped by the store on every successful write.
type Document struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Body      string    `json:"body" bson:"body"`
	Creator   string    `json:"creator" bson:"creator"`
	Editor    string    `json:"editor" bson:"editor"`
	Status    Status    `json:"status" bson:"status"`
	Version   int64     `json:"version" bson:"version"`
	CreatedAt time.Time `json:"created" bson:"created"`
	UpdatedAt time.Time `json:"updated" bson:"updated"`
}

// Summary is the listing projection of a document; it never carries the body.
type Summary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Creator string `json:"creator"`
	Status  Status `json:"status"`
}

// Summarize projects a document onto its summary.
func Summarize(d *Document) Summary {
	return Summary{ID: d.ID, Title: d.Title, Creator: d.Creator, Status: d.Status}
}

// Patch carries the client-editable fields of an update. Nil fields are left
// untouched; Version is the version the client last read.
type Patch struct {
	Title   *string
	Body    *string
	Version int64
}

// PageRequest selects a page of the document listing (0-based number).
type PageRequest struct {
	Number int
	Size   int
}

// Page is a listing result. NbElements and Page echo the request rather than
// the size of Data.
type Page struct {
	Data       []Summary `json:"data"`
	NbElements int       `json:"nbElements"`
	Page       int       `json:"page"`
}
