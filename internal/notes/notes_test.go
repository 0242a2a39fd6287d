package notes

import "testing"

func TestNormalizePaging(t *testing.T) {
	tests := []struct {
		name         string
		in           ListParams
		wantPage     int
		wantPageSize int
	}{
		{"zero page", ListParams{Page: 0, PageSize: 20}, 1, 20},
		{"negative page", ListParams{Page: -3, PageSize: 20}, 1, 20},
		{"zero size", ListParams{Page: 2, PageSize: 0}, 2, DefaultPageSize},
		{"negative size", ListParams{Page: 2, PageSize: -1}, 2, DefaultPageSize},
		{"over max size", ListParams{Page: 2, PageSize: 51}, 2, DefaultPageSize},
		{"at max size", ListParams{Page: 2, PageSize: 50}, 2, 50},
		{"in range", ListParams{Page: 3, PageSize: 25}, 3, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if got.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", got.Page, tt.wantPage)
			}
			if got.PageSize != tt.wantPageSize {
				t.Errorf("PageSize = %d, want %d", got.PageSize, tt.wantPageSize)
			}
		})
	}
}

func TestNormalizeOrdering(t *testing.T) {
	tests := []struct {
		orderBy, direction string
		wantOrder, wantDir string
	}{
		{"createdAt", "asc", "createdAt", "asc"},
		{"updatedAt", "DESC", "updatedAt", "desc"},
		{"title", "ASC", "title", "asc"},
		{"summary", "asc", "updatedAt", "asc"},
		{"", "", "updatedAt", "desc"},
		{"id; DROP TABLE notes", "sideways", "updatedAt", "desc"},
	}

	for _, tt := range tests {
		got := ListParams{Page: 1, PageSize: 10, OrderBy: tt.orderBy, Direction: tt.direction}.Normalize()
		if got.OrderBy != tt.wantOrder {
			t.Errorf("OrderBy(%q) = %q, want %q", tt.orderBy, got.OrderBy, tt.wantOrder)
		}
		if got.Direction != tt.wantDir {
			t.Errorf("Direction(%q) = %q, want %q", tt.direction, got.Direction, tt.wantDir)
		}
	}
}

func TestOffset(t *testing.T) {
	p := ListParams{Page: 3, PageSize: 10}.Normalize()
	if p.Offset() != 20 {
		t.Errorf("Offset = %d, want 20", p.Offset())
	}
}

func TestValidateNew(t *testing.T) {
	if err := ValidateNew(Note{Title: "groceries"}); err != nil {
		t.Errorf("valid note rejected: %v", err)
	}

	err := ValidateNew(Note{Title: "   "})
	if err == nil {
		t.Fatal("expected validation error for blank title")
	}
	var ve *ValidationError
	if !asValidation(err, &ve) || ve.Field != "title" {
		t.Errorf("error = %v, want ValidationError on title", err)
	}
}

func asValidation(err error, target **ValidationError) bool {
	ve, ok := err.(*ValidationError)
	if ok {
		*target = ve
	}
	return ok
}
