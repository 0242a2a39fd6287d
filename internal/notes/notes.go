package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a note does not exist for the given owner.
var ErrNotFound = errors.New("note not found")

// ErrConflict is returned when creating a note whose id already exists.
var ErrConflict = errors.New("note already exists")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Note is the canonical note entity. OwnerID is set at creation and every
// store operation filters by it; cross-owner access is always denied.
type Note struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	// DefaultPageSize is used when pageSize is omitted or out of range.
	DefaultPageSize = 10

	// MaxPageSize is the largest accepted pageSize.
	MaxPageSize = 50
)

// Sort keys accepted by ListPaged. Anything else falls back to updatedAt.
const (
	OrderCreatedAt = "createdAt"
	OrderUpdatedAt = "updatedAt"
	OrderTitle     = "title"
)

// ListParams describes an owner-scoped paged listing request.
type ListParams struct {
	OwnerID   string
	Page      int
	PageSize  int
	OrderBy   string
	Direction string
}

// Normalize coerces out-of-range paging values and unknown sort parameters
// to their defaults: page >= 1, pageSize in (0, MaxPageSize], orderBy from
// the allow-list, direction asc/desc (case-insensitive).
func (p ListParams) Normalize() ListParams {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 || p.PageSize > MaxPageSize {
		p.PageSize = DefaultPageSize
	}
	switch p.OrderBy {
	case OrderCreatedAt, OrderUpdatedAt, OrderTitle:
	default:
		p.OrderBy = OrderUpdatedAt
	}
	switch strings.ToLower(p.Direction) {
	case "asc":
		p.Direction = "asc"
	case "desc":
		p.Direction = "desc"
	default:
		p.Direction = "desc"
	}
	return p
}

// Offset returns the skip count for the normalized page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Store is the note persistence contract. Implementations are selected once
// at startup (sqlite or memory); business code never branches on the backend.
type Store interface {
	// Create persists a new note. A blank id is assigned (uuid); both
	// timestamps are set to now. Returns ErrConflict when a caller-supplied
	// id already exists and a ValidationError when title is empty.
	Create(ctx context.Context, n Note) (Note, error)

	// GetByID returns the note when it exists and belongs to ownerID,
	// otherwise ErrNotFound.
	GetByID(ctx context.Context, id, ownerID string) (Note, error)

	// List returns all notes for ownerID with no ordering guarantee.
	List(ctx context.Context, ownerID string) ([]Note, error)

	// ListPaged returns one page plus the total matching count. Ordering is
	// a total order: the requested sort key, then id ascending, so pages
	// never skip or repeat rows when the sort key has duplicates.
	ListPaged(ctx context.Context, p ListParams) ([]Note, int, error)

	// Update replaces title, content, tags and summary of an existing note
	// owned by n.OwnerID and refreshes UpdatedAt. Returns ErrNotFound when
	// the note is absent.
	Update(ctx context.Context, n Note) (Note, error)

	// Delete removes the note. Deleting a nonexistent note is a no-op.
	Delete(ctx context.Context, id, ownerID string) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// ValidateNew checks caller-settable fields before a create.
func ValidateNew(n Note) error {
	if strings.TrimSpace(n.Title) == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	return nil
}
