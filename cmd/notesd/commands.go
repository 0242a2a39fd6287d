package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/spf13/cobra"

	"notesd/internal/config"
	"notesd/internal/notes"
)

// --- notes ---

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Manage notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		orderBy, _ := cmd.Flags().GetString("order-by")
		direction, _ := cmd.Flags().GetString("direction")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/notes?page=%d&pageSize=%d&orderBy=%s&direction=%s", page, pageSize, orderBy, direction)
		resp, err := client.get(path)
		if err != nil {
			return err
		}

		var result struct {
			PageNumber int          `json:"pageNumber"`
			PageSize   int          `json:"pageSize"`
			TotalCount int          `json:"totalCount"`
			Items      []notes.Note `json:"items"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if result.TotalCount == 0 {
			fmt.Println("No notes found.")
			return nil
		}

		fmt.Printf("Page %d of %d notes\n\n", result.PageNumber, result.TotalCount)
		for _, n := range result.Items {
			fmt.Printf("%s  %s\n", colorize(colorBold, n.ID), n.Title)
			if len(n.Tags) > 0 {
				fmt.Printf("    tags: %s\n", strings.Join(n.Tags, ", "))
			}
			fmt.Printf("    updated: %s\n", n.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var notesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get("/notes/" + args[0])
		if err != nil {
			return err
		}

		var n notes.Note
		if err := decodeJSON(resp, &n); err != nil {
			return err
		}

		fmt.Printf("%s\n\n", colorize(colorBold, n.Title))
		fmt.Println(n.Content)
		if len(n.Tags) > 0 {
			fmt.Printf("\ntags: %s\n", strings.Join(n.Tags, ", "))
		}
		if n.Summary != "" {
			fmt.Printf("\nsummary: %s\n", n.Summary)
		}
		return nil
	},
}

var notesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a note",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		content, _ := cmd.Flags().GetString("content")
		tagsStr, _ := cmd.Flags().GetString("tags")

		if title == "" {
			return fmt.Errorf("--title is required")
		}

		return createNote(title, content, splitTags(tagsStr))
	},
}

var notesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		content, _ := cmd.Flags().GetString("content")
		tagsStr, _ := cmd.Flags().GetString("tags")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]any{
			"title":   title,
			"content": content,
		}
		if tags := splitTags(tagsStr); tags != nil {
			req["tags"] = tags
		}

		resp, err := client.put("/notes/"+args[0], req)
		if err != nil {
			return err
		}

		var n notes.Note
		if err := decodeJSON(resp, &n); err != nil {
			return err
		}

		printSuccess("Updated note %s", n.ID)
		return nil
	},
}

var notesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete("/notes/" + args[0])
		if err != nil {
			return err
		}
		resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}

		printSuccess("Deleted note %s", args[0])
		return nil
	},
}

var notesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Create a note from a file (.pdf files are text-extracted)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		title, _ := cmd.Flags().GetString("title")
		tagsStr, _ := cmd.Flags().GetString("tags")

		if title == "" {
			title = filepath.Base(path)
		}

		var content string
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			printStep("Extracting text from %s", path)
			text, err := extractPDFText(path)
			if err != nil {
				return fmt.Errorf("extracting PDF text: %w", err)
			}
			content = text
		} else {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			content = string(data)
		}

		if strings.TrimSpace(content) == "" {
			return fmt.Errorf("no text content found in %s", path)
		}

		return createNote(title, content, splitTags(tagsStr))
	},
}

func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func createNote(title, content string, tags []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	req := map[string]any{
		"title":   title,
		"content": content,
	}
	if tags != nil {
		req["tags"] = tags
	}

	resp, err := client.post("/notes", req)
	if err != nil {
		return err
	}

	var n notes.Note
	if err := decodeJSON(resp, &n); err != nil {
		return err
	}

	printSuccess("Created note %s", n.ID)
	return nil
}

func splitTags(tagsStr string) []string {
	if tagsStr == "" {
		return nil
	}
	tags := strings.Split(tagsStr, ",")
	for i := range tags {
		tags[i] = strings.TrimSpace(tags[i])
	}
	return tags
}

func init() {
	notesListCmd.Flags().Int("page", 1, "page number")
	notesListCmd.Flags().Int("page-size", 10, "notes per page (max 50)")
	notesListCmd.Flags().String("order-by", "updatedAt", "sort key: createdAt, updatedAt or title")
	notesListCmd.Flags().String("direction", "desc", "sort direction: asc or desc")

	notesCreateCmd.Flags().String("title", "", "note title")
	notesCreateCmd.Flags().String("content", "", "note content")
	notesCreateCmd.Flags().String("tags", "", "comma-separated tags")

	notesUpdateCmd.Flags().String("title", "", "new title")
	notesUpdateCmd.Flags().String("content", "", "new content")
	notesUpdateCmd.Flags().String("tags", "", "comma-separated tags")

	notesImportCmd.Flags().String("title", "", "note title (default: file name)")
	notesImportCmd.Flags().String("tags", "", "comma-separated tags")

	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesGetCmd)
	notesCmd.AddCommand(notesCreateCmd)
	notesCmd.AddCommand(notesUpdateCmd)
	notesCmd.AddCommand(notesDeleteCmd)
	notesCmd.AddCommand(notesImportCmd)
}

// --- ai ---

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "AI helpers: summarize, rewrite, tag and generate",
}

func aiResult(path string, req map[string]any) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	resp, err := client.post(path, req)
	if err != nil {
		return err
	}

	var result struct {
		Result string `json:"result"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return err
	}

	fmt.Println(result.Result)
	return nil
}

var aiSummarizeCmd = &cobra.Command{
	Use:   "summarize <text>",
	Short: "Summarize a piece of text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tone, _ := cmd.Flags().GetString("tone")
		maxLength, _ := cmd.Flags().GetInt("max-length")

		req := map[string]any{"text": strings.Join(args, " ")}
		if tone != "" {
			req["tone"] = tone
		}
		if maxLength > 0 {
			req["maxLength"] = maxLength
		}
		return aiResult("/ai/summarize", req)
	},
}

var aiRewriteCmd = &cobra.Command{
	Use:   "rewrite <text>",
	Short: "Rewrite a piece of text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		style, _ := cmd.Flags().GetString("style")

		req := map[string]any{"text": strings.Join(args, " ")}
		if style != "" {
			req["style"] = style
		}
		return aiResult("/ai/rewrite", req)
	},
}

var aiTagsCmd = &cobra.Command{
	Use:   "tags <text>",
	Short: "Suggest tags for a piece of text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return aiResult("/ai/suggest-tags", map[string]any{"text": strings.Join(args, " ")})
	},
}

var aiGenerateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate note content for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		req := map[string]any{"topic": strings.Join(args, " ")}
		if format != "" {
			req["format"] = format
		}
		return aiResult("/ai/generate", req)
	},
}

func init() {
	aiSummarizeCmd.Flags().String("tone", "", "summary tone (default: neutral)")
	aiSummarizeCmd.Flags().Int("max-length", 0, "summary length bound (default: 150)")
	aiRewriteCmd.Flags().String("style", "", "rewrite style (default: clear and concise)")
	aiGenerateCmd.Flags().String("format", "", "output format, e.g. paragraph or markdown")

	aiCmd.AddCommand(aiSummarizeCmd)
	aiCmd.AddCommand(aiRewriteCmd)
	aiCmd.AddCommand(aiTagsCmd)
	aiCmd.AddCommand(aiGenerateCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
