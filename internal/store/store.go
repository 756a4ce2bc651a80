// Package store defines the document persistence contract and its default
// Badger implementation. Events, invitations and guests are stored as JSON
// documents addressed by id or by an indexed field such as share_code.
package store

import (
	"context"
	"regexp"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
)

// Collection names.
const (
	CollectionEvents      = "events"
	CollectionInvitations = "invitations"
	CollectionGuests      = "guests"
)

// Field names used for lookups and patches.
const (
	FieldID            = "id"
	FieldCreatedAt     = "created_at"
	FieldUpdatedAt     = "updated_at"
	FieldShareCode     = "share_code"
	FieldEventID       = "event_id"
	FieldInvitationID  = "invitation_id"
	FieldRSVPSubmitted = "rsvp_submitted"
	FieldRSVPDate      = "rsvp_date"
)

// Filter selects documents whose top-level fields equal the given values.
// An empty filter selects every document.
type Filter map[string]string

// Patch is a partial update merged into the stored document.
// id and created_at are never overwritten; updated_at is always stamped.
type Patch map[string]any

// Collection is the persistence contract for one document type.
// Every implementation exposes the identifier as "id" regardless of how the
// backend keys its records.
type Collection[T any] interface {
	// Get returns the document with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*T, error)
	// FindOne returns the first document whose field equals value, or ErrNotFound.
	FindOne(ctx context.Context, field, value string) (*T, error)
	// Find returns every document matching the filter.
	Find(ctx context.Context, filter Filter) ([]*T, error)
	// Insert stores a new document. Duplicate ids or unique fields return ErrAlreadyExists.
	Insert(ctx context.Context, id string, doc *T) error
	// Update merges patch into the stored document and returns the result.
	Update(ctx context.Context, id string, patch Patch) (*T, error)
	// Delete removes a document. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// Collections groups the three collections of the application.
type Collections struct {
	Events      Collection[domain.Event]
	Invitations Collection[domain.Invitation]
	Guests      Collection[domain.Guest]
}

// Backend is an opened storage backend.
type Backend interface {
	// Name identifies the backend in logs and health output.
	Name() string
	// Collections returns the collections served by the backend.
	Collections() *Collections
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend.
	Close() error
}

var fieldPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// CheckField returns ErrInvalidField unless name is a plain snake_case field name.
func CheckField(name string) error {
	if !fieldPattern.MatchString(name) {
		return ErrInvalidField.WithMessage("invalid field name: " + name)
	}
	return nil
}
