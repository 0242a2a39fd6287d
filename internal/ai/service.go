package ai

import (
	"context"
	"encoding/json"
	"strings"
)

const (
	// defaultMaxTokens bounds replies for intents without a caller-supplied
	// length (rewrite, suggest tags).
	defaultMaxTokens = 300

	// generateMaxTokens bounds generated notes.
	generateMaxTokens = 250
)

// Service translates domain intents into single templated completion
// requests and normalizes the replies.
type Service struct {
	client *Client
}

// NewService creates a Service over the given completion client.
func NewService(client *Client) *Service {
	return &Service{client: client}
}

// Summarize produces a summary of text in the given tone. maxLength is
// embedded in the prompt and also bounds the requested output size.
func (s *Service) Summarize(ctx context.Context, text, tone string, maxLength int) (Completion, error) {
	return s.client.Chat(ctx, summarizeSystem, summarizeUser(text, tone, maxLength), maxLength)
}

// Rewrite rephrases text in the requested style.
func (s *Service) Rewrite(ctx context.Context, text, style string) (Completion, error) {
	return s.client.Chat(ctx, rewriteSystem, rewriteUser(text, style), defaultMaxTokens)
}

// GenerateNote produces note content for a topic in the requested format.
func (s *Service) GenerateNote(ctx context.Context, topic, format string) (Completion, error) {
	return s.client.Chat(ctx, generateSystem, generateUser(topic, format), generateMaxTokens)
}

// SuggestTags asks the service for topic tags and parses its reply: a strict
// {"tags": [...]} JSON object when the model obeys, a best-effort textual
// cleanup otherwise. Tags are deduplicated case-insensitively, first
// occurrence wins. The Completion carries the raw output and token usage.
func (s *Service) SuggestTags(ctx context.Context, text string) ([]string, Completion, error) {
	result, err := s.client.Chat(ctx, taggingSystem, text, defaultMaxTokens)
	if err != nil {
		return nil, Completion{}, err
	}
	return ParseTags(result.Output), result, nil
}

// ParseTags extracts the tag list from a raw model reply.
func ParseTags(raw string) []string {
	var parsed struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil && parsed.Tags != nil {
		var tags []string
		for _, t := range parsed.Tags {
			if strings.TrimSpace(t) != "" {
				tags = append(tags, strings.TrimSpace(t))
			}
		}
		return dedupeTags(tags)
	}
	return dedupeTags(cleanupTags(raw))
}

// cleanupTags is the fallback path for free-text replies like
// "Tags: ai, research".
func cleanupTags(raw string) []string {
	cleaned := strings.NewReplacer("\n", " ", "\r", " ", "*", "").Replace(raw)
	cleaned = strings.TrimSpace(cleaned)
	if len(cleaned) >= 5 && strings.EqualFold(cleaned[:5], "tags:") {
		cleaned = cleaned[5:]
	}

	var tags []string
	for _, piece := range strings.Split(cleaned, ",") {
		t := strings.ToLower(strings.TrimSpace(piece))
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	result := make([]string, 0, len(tags))
	for _, t := range tags {
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, t)
	}
	return result
}
