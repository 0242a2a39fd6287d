package api

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"notesd/internal/ai"
)

const (
	minTextLength    = 10
	defaultMaxLength = 150
	maxMaxLength     = 4000

	defaultTone   = "neutral"
	defaultStyle  = "clear and concise"
	defaultFormat = "paragraph"
)

type completionResponse struct {
	Result string `json:"result"`
}

func handleSummarize(svc *ai.Service) http.HandlerFunc {
	type request struct {
		Text      string `json:"text"`
		Tone      string `json:"tone"`
		MaxLength int    `json:"maxLength"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeBody(w, r, &req) {
			return
		}

		fields := map[string]string{}
		validateText(fields, req.Text)
		if req.MaxLength == 0 {
			req.MaxLength = defaultMaxLength
		}
		if req.MaxLength < 1 || req.MaxLength > maxMaxLength {
			fields["maxLength"] = "must be between 1 and 4000"
		}
		if len(fields) > 0 {
			httpFieldErrors(w, fields)
			return
		}
		if req.Tone == "" {
			req.Tone = defaultTone
		}

		result, err := svc.Summarize(r.Context(), req.Text, req.Tone, req.MaxLength)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		logCompletion("summarize", result)
		writeJSON(w, http.StatusOK, completionResponse{Result: result.Output})
	}
}

func handleRewrite(svc *ai.Service) http.HandlerFunc {
	type request struct {
		Text  string `json:"text"`
		Style string `json:"style"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeBody(w, r, &req) {
			return
		}

		fields := map[string]string{}
		validateText(fields, req.Text)
		if len(fields) > 0 {
			httpFieldErrors(w, fields)
			return
		}
		if req.Style == "" {
			req.Style = defaultStyle
		}

		result, err := svc.Rewrite(r.Context(), req.Text, req.Style)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		logCompletion("rewrite", result)
		writeJSON(w, http.StatusOK, completionResponse{Result: result.Output})
	}
}

func handleSuggestTags(svc *ai.Service) http.HandlerFunc {
	type request struct {
		Text string `json:"text"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeBody(w, r, &req) {
			return
		}

		fields := map[string]string{}
		validateText(fields, req.Text)
		if len(fields) > 0 {
			httpFieldErrors(w, fields)
			return
		}

		tags, result, err := svc.SuggestTags(r.Context(), req.Text)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		logCompletion("suggest-tags", result)
		writeJSON(w, http.StatusOK, completionResponse{Result: strings.Join(tags, ", ")})
	}
}

func handleGenerate(svc *ai.Service) http.HandlerFunc {
	type request struct {
		Topic  string `json:"topic"`
		Format string `json:"format"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeBody(w, r, &req) {
			return
		}

		if strings.TrimSpace(req.Topic) == "" {
			httpFieldErrors(w, map[string]string{"topic": "must not be empty"})
			return
		}
		if req.Format == "" {
			req.Format = defaultFormat
		}

		result, err := svc.GenerateNote(r.Context(), req.Topic, req.Format)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		logCompletion("generate", result)
		writeJSON(w, http.StatusOK, completionResponse{Result: result.Output})
	}
}

func validateText(fields map[string]string, text string) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minTextLength {
		fields["text"] = "must be at least 10 characters"
	}
}

func logCompletion(intent string, c ai.Completion) {
	slog.Info("completion finished",
		"intent", intent,
		"model", c.Model,
		"prompt_tokens", c.PromptTokens,
		"completion_tokens", c.CompletionTokens,
	)
}
