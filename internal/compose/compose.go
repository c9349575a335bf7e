// Package compose drafts a personalized outreach message with the
// generation backend and rejects degenerate output.
package compose

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/outreach-agent/internal/llm"
	"github.com/jonathan/outreach-agent/internal/prompts"
	"github.com/jonathan/outreach-agent/internal/schemas"
	"github.com/jonathan/outreach-agent/internal/types"
)

const (
	profileSnippetLen  = 1000
	documentSnippetLen = 2000
	// minBodyLen is the shortest body accepted when it contains a placeholder phrase.
	minBodyLen = 100
)

// PlaceholderPhrases mark an unfilled generic template.
var PlaceholderPhrases = []string{
	"Dear Prof.",
	"I'm interested in your work",
	"[Your Name]",
	"[Scraped Project Task/Bottleneck]",
}

// templateTokens are never acceptable in a sent message, whatever its length.
var templateTokens = []string{"[Your Name]", "[Scraped Project Task/Bottleneck]"}

// Composer drafts one message per candidate.
type Composer struct {
	client     llm.Client
	senderName string
	logger     *slog.Logger
}

// NewComposer creates a Composer that signs messages as senderName.
func NewComposer(client llm.Client, senderName string, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{client: client, senderName: senderName, logger: logger}
}

// Compose returns a validated message for candidate using the matched
// document text, or a *Error. It never returns template content.
func (c *Composer) Compose(ctx context.Context, candidate types.Candidate, documentText string) (*types.Message, error) {
	if c.client == nil {
		return nil, &Error{Kind: KindBackend, Name: candidate.Name, Message: "no generation backend configured"}
	}

	prompt, err := prompts.Render("compose.json", "draft-message", map[string]string{
		"Name":          candidate.Name,
		"SourceContext": types.SourceContext(candidate.Source),
		"Profile":       llm.Truncate(candidate.ProfileText, profileSnippetLen),
		"Document":      llm.Truncate(documentText, documentSnippetLen),
		"SenderName":    c.senderName,
	})
	if err != nil {
		return nil, &Error{Kind: KindBackend, Name: candidate.Name, Message: "prompt unavailable", Cause: err}
	}

	raw, err := c.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &Error{Kind: KindBackend, Name: candidate.Name, Message: "generation failed", Cause: err}
	}

	msg, err := ParseMessage(raw)
	if err != nil {
		c.logger.Debug("unparseable composition", "name", candidate.Name, "raw", llm.Truncate(raw, 200))
		return nil, &Error{Kind: KindParse, Name: candidate.Name, Message: "invalid model output", Cause: err}
	}

	if IsPlaceholder(msg.Body) {
		return nil, &Error{Kind: KindPlaceholder, Name: candidate.Name, Message: "generic template output rejected"}
	}

	return msg, nil
}

// ParseMessage extracts {subject, body} from noisy model output. It decodes
// the cleaned payload as JSON and falls back to field-level extraction.
func ParseMessage(raw string) (*types.Message, error) {
	payload := llm.ExtractPayload(raw)

	var msg types.Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		fields, ok := llm.ExtractFields(payload, "subject", "body")
		if !ok {
			return nil, fmt.Errorf("payload is not JSON and fields could not be recovered: %w", err)
		}
		msg = types.Message{Subject: fields["subject"], Body: fields["body"]}
	}

	msg.Subject = strings.TrimSpace(msg.Subject)
	msg.Body = strings.TrimSpace(msg.Body)

	doc, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode message: %w", err)
	}
	if err := schemas.ValidateMessage(string(doc)); err != nil {
		return nil, err
	}
	return &msg, nil
}

// IsPlaceholder reports whether body looks like an unfilled generic template:
// it carries a placeholder phrase and is implausibly short, or it still
// contains a bracketed template token.
func IsPlaceholder(body string) bool {
	for _, tok := range templateTokens {
		if strings.Contains(body, tok) {
			return true
		}
	}
	if utf8.RuneCountInString(body) >= minBodyLen {
		return false
	}
	for _, phrase := range PlaceholderPhrases {
		if strings.Contains(body, phrase) {
			return true
		}
	}
	return false
}
