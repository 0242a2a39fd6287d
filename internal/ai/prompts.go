package ai

import "fmt"

// Per-intent system instructions. Each gateway operation pairs one of these
// with a templated user message and submits exactly one request.

const summarizeSystem = `You are a helpful assistant that writes clear, concise summaries.
Maintain the tone requested by the user and avoid unnecessary details.`

const rewriteSystem = `You rewrite text based on the requested style.
Improve clarity, flow, and readability while preserving meaning.`

const taggingSystem = `You extract high-quality topic tags from the provided text.

Rules:
- Return ONLY valid JSON.
- Format: {"tags": ["tag1", "tag2"]}
- Tags must be lowercase.
- Tags must be 1-3 words only.
- Do NOT include explanations.`

const generateSystem = `You generate well-structured notes in the requested format (markdown/plain text).
Use bullet points when helpful.`

func summarizeUser(text, tone string, maxLength int) string {
	return fmt.Sprintf("%s\n\nTone: %s\nMaxLength: %d", text, tone, maxLength)
}

func rewriteUser(text, style string) string {
	return fmt.Sprintf("%s\nRewrite style: %s", text, style)
}

func generateUser(topic, format string) string {
	return fmt.Sprintf("Topic: %s\nFormat: %s", topic, format)
}
