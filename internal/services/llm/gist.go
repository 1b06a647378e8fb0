package llm

import (
	"context"
	"fmt"
	"strings"

	"quill/internal/services"
)

// Gist is the structured summary the model extracts from one document.
type Gist struct {
	Title            string   `json:"title"`
	Digest           string   `json:"digest"`
	Score            int      `json:"score"`
	Tags             []string `json:"tags"`
	KeyInsights      []string `json:"key_insights"`
	MentionedLinks   []string `json:"mentioned_links"`
	SpamOrIrrelevant bool     `json:"is_spam_or_irrelevant"`
}

// ExtractGist runs the gist-extraction prompts against the cleaned
// document text. Subject and sender give the model context about the
// source; the cleaned text is interpolated into the user prompt.
func (c *Client) ExtractGist(ctx context.Context, prompts *PromptSet, subject, sender, cleaned string) (Gist, error) {
	var gist Gist
	if strings.TrimSpace(cleaned) == "" {
		return gist, services.Wrap(services.ErrValidation, "llm", "extract", "empty document text", nil)
	}
	system, user := prompts.Render(subject, sender, cleaned)
	content, err := c.CompleteJSON(ctx, system, user)
	if err != nil {
		return gist, err
	}
	if err := DecodeJSON(content, &gist); err != nil {
		return gist, services.Wrap(services.ErrValidation, "llm", "extract", "parse payload", err)
	}
	gist.Title = strings.TrimSpace(gist.Title)
	gist.Digest = strings.TrimSpace(gist.Digest)
	if gist.Score < 0 {
		gist.Score = 0
	}
	if gist.Score > 100 {
		gist.Score = 100
	}
	if gist.Title == "" && !gist.SpamOrIrrelevant {
		return gist, services.Wrap(services.ErrValidation, "llm", "extract",
			fmt.Sprintf("missing title in payload: %s", summarizeSnippet(content)), nil)
	}
	return gist, nil
}
