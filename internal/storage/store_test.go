package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"notesd/internal/notes"
)

const testOwner = "owner-001"

// forEachStore runs the conformance suite body against both notes.Store
// implementations; they must be behaviorally identical.
func forEachStore(t *testing.T, fn func(t *testing.T, s notes.Store)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(":memory:")
		if err != nil {
			t.Fatalf("Open(:memory:) failed: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})

	t.Run("memory", func(t *testing.T) {
		s := NewMemoryStore()
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func mustCreate(t *testing.T, s notes.Store, n notes.Note) notes.Note {
	t.Helper()
	if n.OwnerID == "" {
		n.OwnerID = testOwner
	}
	created, err := s.Create(context.Background(), n)
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", n.Title, err)
	}
	return created
}

func TestCreateAndGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, s notes.Store) {
		ctx := context.Background()

		created := mustCreate(t, s, notes.Note{
			Title:   "groceries",
			Content: "milk, eggs",
			Tags:    []string{"shopping", "home"},
		})

		if created.ID == "" {
			t.Fatal("expected id to be assigned")
		}
		if !created.CreatedAt.Equal(created.UpdatedAt) {
			t.Errorf("createdAt %v != updatedAt %v on fresh note", created.CreatedAt, created.UpdatedAt)
		}

		got, err := s.GetByID(ctx, created.ID, testOwner)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Title != "groceries" || got.Content != "milk, eggs" {
			t.Errorf("roundtrip mismatch: got title=%q content=%q", got.Title, got.Content)
		}
		if len(got.Tags) != 2 || got.Tags[0] != "shopping" || got.Tags[1] != "home" {
			t.Errorf("tags = %v, want [shopping home]", got.Tags)
		}
		if !got.CreatedAt.Equal(created.CreatedAt) {
			t.Errorf("createdAt changed across roundtrip: %v vs %v", got.CreatedAt, created.CreatedAt)
		}
	})
}

func TestCreateRequiresTitle(t *testing.T) {
	forEachStore(t, func(t *testing.T, s notes.Store) {
		_, err := s.Create(context.Background(), notes.Note{OwnerID: testOwner, Content: "body"})
		var ve *notes.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("err = %v, want ValidationError", err)
		}
		if ve.Field != "title" {
			t.Errorf("field = %q, want title", ve.Field)
		}
	})
}

func TestCreateNilTagsStoredAsEmpty(t *testing.T) {
	forEachStore(t, func(t *testing.T, s notes.Store) {
		created := mustCreate(t, s, notes.Note{Title: "no tags"})
		got, err := s.GetByID(context.Background(), created.ID, testOwner)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Tags == nil || len(got.Tags) != 0 {
			t.Errorf("tags = %#v, want empty non-nil slice", got.Tags)
		}
	})
}

func TestCreateConflict(t *testing.T) {
	forEachStore(t, func(t *testing.T, s notes.Store) {
		mustCreate(t, s, notes.Note{ID: "fixed-id", Title: "first"})

		_, err := s.Create(context.Background(), notes.Note{ID: "fixed-id", OwnerID: testOwner, Title: "second"})
		if !errors.Is(err, notes.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})
}

func TestGetMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s notes.Store) {
		_, err := s.GetByID(context.Background(), "nope", testOwner)
		if !errors.Is(err, notes.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestOwnerIsolation(t *testing.T) {
	forEachStore(t, func(t *testing.T, s notes.Store) {
		ctx := context.Background()
		created := mustCreate(t, s, notes.Note{Title: "private"})

		if _, err := s.GetByID(ctx, created.ID, "other-owner"); !errors.Is(err, notes.ErrNotFound) {
			t.Errorf("cross-owner GetByID err = %v, want ErrNotFound", err)
		}

		stolen := created
		stolen.OwnerID = "other-owner"
		stolen.Title = "hijacked"
		if _, err := s.Update(ctx, stolen); !errors.Is(err, notes.ErrNotFound) {
			t.Errorf("cross-owner Update err = %v, want ErrNotFound", err)
		}

		if err := s.Delete(ctx, created.ID, "other-owner"); err != nil {
			t.Errorf("cross-owner Delete err = %v, want nil (no-op)", err)
		}
		if _, err := s.GetByID(ctx, created.ID, testOwner); err != nil {
			t.Errorf("note disappeared after cross-owner delete attempt: %v", err)
		}

		listed, err := s.List(ctx, "other-owner")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(listed) != 0 {
			t.Errorf("cross-owner List returned %d notes, want 0", len(listed))
		}
	})
}

func TestUpdate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s notes.Store) {
		ctx := context.Background()
		created := mustCreate(t, s, notes.Note{Title: "draft", Content: "v1"})

		created.Content = "v2"
		created.Summary = "a short note"
		created.Tags = []string{"edited"}
		updated, err := s.Update(ctx, created)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		if !updated.UpdatedAt.After(created.CreatedAt) {
			t.Errorf("updatedAt %v not after createdAt %v", updated.UpdatedAt, created.CreatedAt)
		}
		if !updated.CreatedAt.Equal(created.CreatedAt) {
			t.Errorf("createdAt changed on update: %v vs %v", updated.CreatedAt, created.CreatedAt)
		}
		if updated.Content != "v2" || updated.Summary != "a short note" {
			t.Errorf("update not applied: content=%q summary=%q", updated.Content, updated.Summary)
		}
	})
}

func TestUpdateMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s notes.Store) {
		_, err := s.Update(context.Background(), notes.Note{ID: "ghost", OwnerID: testOwner, Title: "x"})
		if !errors.Is(err, notes.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestDeleteIdempotent(t *testing.T) {
	forEachStore(t, func(t *testing.T, s notes.Store) {
		ctx := context.Background()
		created := mustCreate(t, s, notes.Note{Title: "short-lived"})

		if err := s.Delete(ctx, created.ID, testOwner); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := s.Delete(ctx, created.ID, testOwner); err != nil {
			t.Errorf("second Delete err = %v, want nil", err)
		}
		if err := s.Delete(ctx, "never-existed", testOwner); err != nil {
			t.Errorf("Delete of nonexistent id err = %v, want nil", err)
		}
		if _, err := s.GetByID(ctx, created.ID, testOwner); !errors.Is(err, notes.ErrNotFound) {
			t.Errorf("GetByID after delete err = %v, want ErrNotFound", err)
		}
	})
}

func TestListPagedCoercion(t *testing.T) {
	forEachStore(t, func(t *testing.T, s notes.Store) {
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			mustCreate(t, s, notes.Note{Title: fmt.Sprintf("note %d", i)})
		}

		// page <= 0 behaves as page 1, pageSize out of (0,50] as 10.
		items, total, err := s.ListPaged(ctx, notes.ListParams{OwnerID: testOwner, Page: -1, PageSize: 500})
		if err != nil {
			t.Fatalf("ListPaged failed: %v", err)
		}
		if total != 3 || len(items) != 3 {
			t.Errorf("total = %d, len = %d, want 3 and 3", total, len(items))
		}

		firstPage, _, err := s.ListPaged(ctx, notes.ListParams{OwnerID: testOwner, Page: 1, PageSize: 10})
		if err != nil {
			t.Fatalf("ListPaged failed: %v", err)
		}
		if len(firstPage) != len(items) {
			t.Errorf("coerced page differs from explicit page 1: %d vs %d", len(items), len(firstPage))
		}
	})
}

// TestListPagedTotalOrder pages through notes sharing one title (so the sort
// key is all ties) and verifies the concatenated pages are exactly the full
// set: the id tie-break must prevent skips and repeats.
func TestListPagedTotalOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, s notes.Store) {
		ctx := context.Background()

		want := make(map[string]bool)
		for i := 0; i < 7; i++ {
			n := mustCreate(t, s, notes.Note{Title: "same title"})
			want[n.ID] = true
		}

		seen := make(map[string]bool)
		for page := 1; ; page++ {
			items, total, err := s.ListPaged(ctx, notes.ListParams{
				OwnerID:  testOwner,
				Page:     page,
				PageSize: 3,
				OrderBy:  notes.OrderTitle,
			})
			if err != nil {
				t.Fatalf("ListPaged page %d failed: %v", page, err)
			}
			if total != 7 {
				t.Fatalf("total = %d, want 7", total)
			}
			if len(items) == 0 {
				break
			}
			for _, n := range items {
				if seen[n.ID] {
					t.Fatalf("note %s returned twice across pages", n.ID)
				}
				seen[n.ID] = true
			}
		}

		if len(seen) != len(want) {
			t.Errorf("paged union has %d notes, want %d", len(seen), len(want))
		}
	})
}

func TestListPagedOrdering(t *testing.T) {
	forEachStore(t, func(t *testing.T, s notes.Store) {
		ctx := context.Background()
		for _, title := range []string{"alpha", "bravo", "charlie"} {
			mustCreate(t, s, notes.Note{Title: title})
		}

		asc, _, err := s.ListPaged(ctx, notes.ListParams{
			OwnerID: testOwner, OrderBy: notes.OrderTitle, Direction: "ASC",
		})
		if err != nil {
			t.Fatalf("ListPaged asc failed: %v", err)
		}
		if asc[0].Title != "alpha" || asc[2].Title != "charlie" {
			t.Errorf("asc order wrong: %v %v %v", asc[0].Title, asc[1].Title, asc[2].Title)
		}

		desc, _, err := s.ListPaged(ctx, notes.ListParams{
			OwnerID: testOwner, OrderBy: notes.OrderTitle, Direction: "desc",
		})
		if err != nil {
			t.Fatalf("ListPaged desc failed: %v", err)
		}
		if desc[0].Title != "charlie" {
			t.Errorf("desc order wrong: first = %q, want charlie", desc[0].Title)
		}
	})
}

func TestConcurrentCreates(t *testing.T) {
	forEachStore(t, func(t *testing.T, s notes.Store) {
		ctx := context.Background()

		var wg sync.WaitGroup
		ids := make([]string, 2)
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				n, err := s.Create(ctx, notes.Note{OwnerID: testOwner, Title: fmt.Sprintf("concurrent %d", i)})
				ids[i], errs[i] = n.ID, err
			}(i)
		}
		wg.Wait()

		for i := 0; i < 2; i++ {
			if errs[i] != nil {
				t.Fatalf("concurrent create %d failed: %v", i, errs[i])
			}
			if _, err := s.GetByID(ctx, ids[i], testOwner); err != nil {
				t.Errorf("note %d not retrievable: %v", i, err)
			}
		}
	})
}
