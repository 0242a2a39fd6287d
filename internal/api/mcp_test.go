package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"notesd/internal/ai"
	"notesd/internal/notes"
	"notesd/internal/storage"
)

func newTestMCPDeps(t *testing.T, completion string) (MCPDeps, notes.Store) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"model":"test-model","choices":[{"message":{"role":"assistant","content":%q}}],"usage":{"prompt_tokens":2,"completion_tokens":3}}`, completion)
	}))
	t.Cleanup(upstream.Close)

	store := storage.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	svc := ai.NewService(ai.NewClient(upstream.URL, "test-key", "test-model", 0.5))
	return MCPDeps{Store: store, AI: svc, OwnerID: testOwner}, store
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestMCPTool_NoteCreate(t *testing.T) {
	deps, store := newTestMCPDeps(t, "unused")
	handler := mcpNoteCreate(deps)

	req := makeCallToolRequest("note_create", map[string]interface{}{
		"title":   "Meeting notes",
		"content": "Discussed the roadmap",
		"tags":    []string{"work", "meetings"},
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	all, err := store.List(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("listing notes: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 note, got %d", len(all))
	}
	if all[0].Title != "Meeting notes" {
		t.Errorf("title = %q, want %q", all[0].Title, "Meeting notes")
	}
	if len(all[0].Tags) != 2 {
		t.Errorf("tags = %v, want 2 entries", all[0].Tags)
	}
}

func TestMCPTool_NoteCreateMissingTitle(t *testing.T) {
	deps, _ := newTestMCPDeps(t, "unused")
	handler := mcpNoteCreate(deps)

	result, err := handler(context.Background(), makeCallToolRequest("note_create", map[string]interface{}{
		"content": "no title here",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing title")
	}
}

func TestMCPTool_NoteView(t *testing.T) {
	deps, store := newTestMCPDeps(t, "unused")

	seeded, err := store.Create(context.Background(), notes.Note{OwnerID: testOwner, Title: "Seeded", Content: "body"})
	if err != nil {
		t.Fatalf("seeding note: %v", err)
	}

	handler := mcpNoteView(deps)
	result, err := handler(context.Background(), makeCallToolRequest("note_view", map[string]interface{}{"id": seeded.ID}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	if text := toolText(t, result); !strings.Contains(text, "Seeded") {
		t.Errorf("result does not mention the note title: %s", text)
	}
}

func TestMCPTool_NoteViewMissing(t *testing.T) {
	deps, _ := newTestMCPDeps(t, "unused")
	handler := mcpNoteView(deps)

	result, err := handler(context.Background(), makeCallToolRequest("note_view", map[string]interface{}{"id": "nope"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing note")
	}
}

func TestMCPTool_NoteList(t *testing.T) {
	deps, store := newTestMCPDeps(t, "unused")

	for i := 0; i < 3; i++ {
		if _, err := store.Create(context.Background(), notes.Note{
			OwnerID: testOwner,
			Title:   fmt.Sprintf("note %d", i),
			Content: "body",
		}); err != nil {
			t.Fatalf("seeding note %d: %v", i, err)
		}
	}

	handler := mcpNoteList(deps)
	result, err := handler(context.Background(), makeCallToolRequest("note_list", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	text := toolText(t, result)
	if !strings.Contains(text, "3 notes total") {
		t.Errorf("expected total count in output, got: %s", text)
	}
}

func TestMCPTool_NoteListEmpty(t *testing.T) {
	deps, _ := newTestMCPDeps(t, "unused")
	handler := mcpNoteList(deps)

	result, err := handler(context.Background(), makeCallToolRequest("note_list", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := toolText(t, result); got != "no notes found" {
		t.Errorf("result = %q, want %q", got, "no notes found")
	}
}

func TestMCPTool_NoteDelete(t *testing.T) {
	deps, store := newTestMCPDeps(t, "unused")

	seeded, err := store.Create(context.Background(), notes.Note{OwnerID: testOwner, Title: "Doomed", Content: "x"})
	if err != nil {
		t.Fatalf("seeding note: %v", err)
	}

	handler := mcpNoteDelete(deps)
	result, err := handler(context.Background(), makeCallToolRequest("note_delete", map[string]interface{}{"id": seeded.ID}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	if _, err := store.GetByID(context.Background(), seeded.ID, testOwner); err == nil {
		t.Error("note still retrievable after delete")
	}

	// Deleting again is a no-op, not an error.
	result, err = handler(context.Background(), makeCallToolRequest("note_delete", map[string]interface{}{"id": seeded.ID}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("second delete reported error: %s", toolText(t, result))
	}
}

func TestMCPTool_NoteSuggestTags(t *testing.T) {
	deps, _ := newTestMCPDeps(t, `{"tags":["ai","research"]}`)
	handler := mcpNoteSuggestTags(deps)

	result, err := handler(context.Background(), makeCallToolRequest("note_suggest_tags", map[string]interface{}{
		"text": "machine learning breakthroughs in 2024",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := toolText(t, result); got != "ai, research" {
		t.Errorf("result = %q, want %q", got, "ai, research")
	}
}

func TestMCPTool_NoteSummarizeSavesSummary(t *testing.T) {
	deps, store := newTestMCPDeps(t, "a concise summary")

	seeded, err := store.Create(context.Background(), notes.Note{
		OwnerID: testOwner,
		Title:   "Long note",
		Content: "a long enough piece of text to summarize",
	})
	if err != nil {
		t.Fatalf("seeding note: %v", err)
	}

	handler := mcpNoteSummarize(deps)
	result, err := handler(context.Background(), makeCallToolRequest("note_summarize", map[string]interface{}{"id": seeded.ID}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	if got := toolText(t, result); got != "a concise summary" {
		t.Errorf("result = %q, want %q", got, "a concise summary")
	}

	stored, err := store.GetByID(context.Background(), seeded.ID, testOwner)
	if err != nil {
		t.Fatalf("fetching note: %v", err)
	}
	if stored.Summary != "a concise summary" {
		t.Errorf("summary = %q, want %q", stored.Summary, "a concise summary")
	}
}
