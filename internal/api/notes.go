package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"notesd/internal/ai"
	"notesd/internal/notes"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds everything the HTTP layer needs.
type Deps struct {
	Store   notes.Store
	AI      *ai.Service
	Token   string
	OwnerID string
}

// NewHandler returns an http.Handler implementing the notes REST API.
// /health is unauthenticated; everything else requires the bearer token.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth(deps.Store))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token, deps.OwnerID))

		r.Get("/notes", handleListNotes(deps.Store))
		r.Post("/notes", handleCreateNote(deps.Store))
		r.Get("/notes/{id}", handleGetNote(deps.Store))
		r.Put("/notes/{id}", handleUpdateNote(deps.Store))
		r.Delete("/notes/{id}", handleDeleteNote(deps.Store))

		r.Post("/ai/summarize", handleSummarize(deps.AI))
		r.Post("/ai/rewrite", handleRewrite(deps.AI))
		r.Post("/ai/suggest-tags", handleSuggestTags(deps.AI))
		r.Post("/ai/generate", handleGenerate(deps.AI))
	})

	return r
}

func handleHealth(store notes.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := store.Ping(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("storage unavailable"))
			return
		}
		w.Write([]byte("ok"))
	}
}

// pagedNotes is the list response envelope.
type pagedNotes struct {
	PageNumber int          `json:"pageNumber"`
	PageSize   int          `json:"pageSize"`
	TotalCount int          `json:"totalCount"`
	Items      []notes.Note `json:"items"`
}

func handleListNotes(store notes.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params := notes.ListParams{
			OwnerID:   Owner(r.Context()),
			Page:      intQuery(q.Get("page")),
			PageSize:  intQuery(q.Get("pageSize")),
			OrderBy:   q.Get("orderBy"),
			Direction: q.Get("direction"),
		}.Normalize()

		items, total, err := store.ListPaged(r.Context(), params)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, pagedNotes{
			PageNumber: params.Page,
			PageSize:   params.PageSize,
			TotalCount: total,
			Items:      items,
		})
	}
}

// noteRequest is the caller-settable subset of a note.
type noteRequest struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Summary string   `json:"summary"`
}

func handleCreateNote(store notes.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req noteRequest
		if !decodeBody(w, r, &req) {
			return
		}

		created, err := store.Create(r.Context(), notes.Note{
			ID:      req.ID,
			OwnerID: Owner(r.Context()),
			Title:   req.Title,
			Content: req.Content,
			Tags:    req.Tags,
			Summary: req.Summary,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

func handleGetNote(store notes.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		note, err := store.GetByID(r.Context(), chi.URLParam(r, "id"), Owner(r.Context()))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, note)
	}
}

func handleUpdateNote(store notes.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req noteRequest
		if !decodeBody(w, r, &req) {
			return
		}

		updated, err := store.Update(r.Context(), notes.Note{
			ID:      chi.URLParam(r, "id"),
			OwnerID: Owner(r.Context()),
			Title:   req.Title,
			Content: req.Content,
			Tags:    req.Tags,
			Summary: req.Summary,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, updated)
	}
}

func handleDeleteNote(store notes.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "id"), Owner(r.Context())); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func intQuery(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

// writeDomainError is the single place domain errors become status codes.
// Unexpected errors are logged in full and reported generically.
func writeDomainError(w http.ResponseWriter, err error) {
	var validation *notes.ValidationError
	var upstream *ai.UpstreamError

	switch {
	case errors.As(err, &validation):
		httpFieldErrors(w, map[string]string{validation.Field: validation.Message})
	case errors.Is(err, notes.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found_error", "note not found")
	case errors.Is(err, notes.ErrConflict):
		httpError(w, http.StatusConflict, "conflict_error", "note already exists")
	case errors.As(err, &upstream):
		slog.Error("completion upstream failed", "status", upstream.Status, "body", upstream.Body)
		httpError(w, http.StatusBadGateway, "completion_error", "completion service error: %v", err)
	default:
		slog.Error("request failed", "error", err)
		httpError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

func httpFieldErrors(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"message": "validation failed",
			"type":    "invalid_request_error",
			"fields":  fields,
		},
	})
}
