// Package lock holds the advisory per-document edit lock. A lock is a hint
// between editors, not a storage mutex: the document version check remains
// the guard against lost updates.
package lock

import "time"

// Lock is an exclusive edit claim on one document.
type Lock struct {
	DocumentID string    `json:"documentId" bson:"_id"`
	Owner      string    `json:"owner" bson:"owner"`
	CreatedAt  time.Time `json:"created" bson:"created"`
}

// HeldBy reports whether the lock belongs to user.
func (l *Lock) HeldBy(user string) bool { return l != nil && l.Owner == user }
