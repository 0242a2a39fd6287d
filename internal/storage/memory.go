package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"notesd/internal/notes"
)

// MemoryStore is a map-backed notes.Store. It backs the "memory" storage
// backend and the handler tests; semantics match SQLiteStore exactly.
type MemoryStore struct {
	mu    sync.RWMutex
	notes map[string]notes.Note
}

var _ notes.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notes: make(map[string]notes.Note)}
}

func (m *MemoryStore) Create(_ context.Context, n notes.Note) (notes.Note, error) {
	if err := notes.ValidateNew(n); err != nil {
		return notes.Note{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.New().String()
	} else if _, exists := m.notes[n.ID]; exists {
		return notes.Note{}, notes.ErrConflict
	}

	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.Tags == nil {
		n.Tags = []string{}
	}

	m.notes[n.ID] = n
	return n, nil
}

func (m *MemoryStore) GetByID(_ context.Context, id, ownerID string) (notes.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, exists := m.notes[id]
	if !exists || n.OwnerID != ownerID {
		return notes.Note{}, notes.ErrNotFound
	}
	return n, nil
}

func (m *MemoryStore) List(_ context.Context, ownerID string) ([]notes.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []notes.Note
	for _, n := range m.notes {
		if n.OwnerID == ownerID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (m *MemoryStore) ListPaged(ctx context.Context, p notes.ListParams) ([]notes.Note, int, error) {
	p = p.Normalize()

	all, err := m.List(ctx, p.OwnerID)
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		var less, equal bool
		switch p.OrderBy {
		case notes.OrderCreatedAt:
			less, equal = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		case notes.OrderTitle:
			less, equal = a.Title < b.Title, a.Title == b.Title
		default:
			less, equal = a.UpdatedAt.Before(b.UpdatedAt), a.UpdatedAt.Equal(b.UpdatedAt)
		}
		if equal {
			// Tie-break on id ascending regardless of direction, matching
			// the SQL ORDER BY ... , id ASC.
			return a.ID < b.ID
		}
		if p.Direction == "asc" {
			return less
		}
		return !less
	})

	total := len(all)
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.PageSize
	if end > total {
		end = total
	}

	page := make([]notes.Note, end-start)
	copy(page, all[start:end])
	return page, total, nil
}

func (m *MemoryStore) Update(_ context.Context, n notes.Note) (notes.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.notes[n.ID]
	if !exists || existing.OwnerID != n.OwnerID {
		return notes.Note{}, notes.ErrNotFound
	}

	existing.Title = n.Title
	existing.Content = n.Content
	existing.Summary = n.Summary
	existing.Tags = n.Tags
	if existing.Tags == nil {
		existing.Tags = []string{}
	}
	existing.UpdatedAt = time.Now().UTC()

	m.notes[n.ID] = existing
	return existing, nil
}

func (m *MemoryStore) Delete(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n, exists := m.notes[id]; exists && n.OwnerID == ownerID {
		delete(m.notes, id)
	}
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
