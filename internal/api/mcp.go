package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"notesd/internal/ai"
	"notesd/internal/notes"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store   notes.Store
	AI      *ai.Service
	OwnerID string
}

// NewMCPServer creates an MCP server exposing the note store and the
// completion gateway as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"notesd",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("notesd — personal note store with AI summarization, rewriting and tagging."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("note_create",
			mcp.WithDescription("Create a new note."),
			mcp.WithString("title", mcp.Description("Note title"), mcp.Required()),
			mcp.WithString("content", mcp.Description("Note body text"), mcp.Required()),
			mcp.WithArray("tags", mcp.Description("Optional tags")),
		),
		mcpNoteCreate(deps),
	)

	s.AddTool(
		mcp.NewTool("note_view",
			mcp.WithDescription("Fetch a note by id."),
			mcp.WithString("id", mcp.Description("Note id"), mcp.Required()),
		),
		mcpNoteView(deps),
	)

	s.AddTool(
		mcp.NewTool("note_list",
			mcp.WithDescription("List notes, newest first, one page at a time."),
			mcp.WithNumber("page", mcp.Description("Page number (default 1)")),
			mcp.WithNumber("pageSize", mcp.Description("Page size, up to 50 (default 10)")),
			mcp.WithString("orderBy", mcp.Description("Sort key: createdAt, updatedAt or title")),
			mcp.WithString("direction", mcp.Description("asc or desc")),
		),
		mcpNoteList(deps),
	)

	s.AddTool(
		mcp.NewTool("note_update",
			mcp.WithDescription("Replace the title, content and tags of an existing note."),
			mcp.WithString("id", mcp.Description("Note id"), mcp.Required()),
			mcp.WithString("title", mcp.Description("New title"), mcp.Required()),
			mcp.WithString("content", mcp.Description("New body text"), mcp.Required()),
			mcp.WithArray("tags", mcp.Description("New tags (omit to clear)")),
		),
		mcpNoteUpdate(deps),
	)

	s.AddTool(
		mcp.NewTool("note_delete",
			mcp.WithDescription("Delete a note. Deleting a nonexistent note is a no-op."),
			mcp.WithString("id", mcp.Description("Note id"), mcp.Required()),
		),
		mcpNoteDelete(deps),
	)

	s.AddTool(
		mcp.NewTool("note_suggest_tags",
			mcp.WithDescription("Suggest tags for a piece of text."),
			mcp.WithString("text", mcp.Description("Text to tag"), mcp.Required()),
		),
		mcpNoteSuggestTags(deps),
	)

	s.AddTool(
		mcp.NewTool("note_summarize",
			mcp.WithDescription("Summarize a stored note and save the summary back onto it."),
			mcp.WithString("id", mcp.Description("Note id"), mcp.Required()),
			mcp.WithString("tone", mcp.Description("Summary tone (default neutral)")),
			mcp.WithNumber("maxLength", mcp.Description("Summary length bound (default 150)")),
		),
		mcpNoteSummarize(deps),
	)

	return s
}

func mcpNoteCreate(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}

		created, err := deps.Store.Create(ctx, notes.Note{
			OwnerID: deps.OwnerID,
			Title:   title,
			Content: content,
			Tags:    req.GetStringSlice("tags", nil),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to create note: %v", err)), nil
		}

		return mcpNoteJSON(created)
	}
}

func mcpNoteView(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		note, err := deps.Store.GetByID(ctx, id, deps.OwnerID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to fetch note: %v", err)), nil
		}

		return mcpNoteJSON(note)
	}
}

func mcpNoteList(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params := notes.ListParams{
			OwnerID:   deps.OwnerID,
			Page:      req.GetInt("page", 1),
			PageSize:  req.GetInt("pageSize", notes.DefaultPageSize),
			OrderBy:   req.GetString("orderBy", ""),
			Direction: req.GetString("direction", ""),
		}.Normalize()

		items, total, err := deps.Store.ListPaged(ctx, params)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list notes: %v", err)), nil
		}

		if len(items) == 0 {
			return mcpText("no notes found"), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "page %d of %d notes total\n\n", params.Page, total)
		for _, n := range items {
			fmt.Fprintf(&b, "- %s  %s", n.ID, n.Title)
			if len(n.Tags) > 0 {
				fmt.Fprintf(&b, "  [%s]", strings.Join(n.Tags, ", "))
			}
			b.WriteString("\n")
		}
		return mcpText(b.String()), nil
	}
}

func mcpNoteUpdate(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}

		updated, err := deps.Store.Update(ctx, notes.Note{
			ID:      id,
			OwnerID: deps.OwnerID,
			Title:   title,
			Content: content,
			Tags:    req.GetStringSlice("tags", nil),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to update note: %v", err)), nil
		}

		return mcpNoteJSON(updated)
	}
}

func mcpNoteDelete(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		if err := deps.Store.Delete(ctx, id, deps.OwnerID); err != nil {
			return mcpError(fmt.Sprintf("failed to delete note: %v", err)), nil
		}

		return mcpText("deleted"), nil
	}
}

func mcpNoteSuggestTags(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}

		tags, _, err := deps.AI.SuggestTags(ctx, text)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to suggest tags: %v", err)), nil
		}

		return mcpText(strings.Join(tags, ", ")), nil
	}
}

func mcpNoteSummarize(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		note, err := deps.Store.GetByID(ctx, id, deps.OwnerID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to fetch note: %v", err)), nil
		}

		tone := req.GetString("tone", defaultTone)
		maxLength := req.GetInt("maxLength", defaultMaxLength)

		result, err := deps.AI.Summarize(ctx, note.Content, tone, maxLength)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to summarize: %v", err)), nil
		}

		note.Summary = result.Output
		if _, err := deps.Store.Update(ctx, note); err != nil {
			return mcpError(fmt.Sprintf("summary generated but failed to save: %v", err)), nil
		}

		return mcpText(result.Output), nil
	}
}

func mcpNoteJSON(n notes.Note) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal note: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
