// Package matching selects which reference document to use for a candidate.
package matching

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonathan/outreach-agent/internal/llm"
	"github.com/jonathan/outreach-agent/internal/prompts"
	"github.com/jonathan/outreach-agent/internal/types"
)

const (
	// profileSnippetLen and documentSnippetLen bound the prompt size.
	profileSnippetLen  = 1500
	documentSnippetLen = 1500
)

// Matcher picks one document per candidate. Match never fails for a
// non-empty document set.
type Matcher struct {
	client    llm.Client
	defaultID string
	logger    *slog.Logger
}

// NewMatcher creates a Matcher. defaultID is the designated fallback
// document; client may be nil, in which case every match is the fallback.
func NewMatcher(client llm.Client, defaultID string, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{client: client, defaultID: defaultID, logger: logger}
}

// Match returns the identifier of the document that best fits profile.
func (m *Matcher) Match(ctx context.Context, profile string, docs types.DocumentSet) string {
	if len(docs) == 0 {
		return ""
	}
	if m.client == nil {
		return Fallback(docs, m.defaultID)
	}

	prompt, err := BuildPrompt(profile, docs, m.defaultID)
	if err != nil {
		m.logger.Warn("document matching prompt unavailable", "error", err)
		return Fallback(docs, m.defaultID)
	}

	resp, err := m.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		m.logger.Warn("document matching backend unavailable; using default", "error", err)
		return Fallback(docs, m.defaultID)
	}

	return Pick(resp, docs, m.defaultID)
}

// Pick maps a backend response to a known identifier: exact match, then
// substring containment in either direction, then the default, then the
// first identifier in sorted order.
func Pick(response string, docs types.DocumentSet, defaultID string) string {
	selected := strings.TrimSpace(strings.NewReplacer(`"`, "", "'", "", "`", "").Replace(response))

	if selected != "" {
		if docs.Has(selected) {
			return selected
		}
		for _, id := range docs.IDs() {
			if strings.Contains(selected, id) || strings.Contains(id, selected) {
				return id
			}
		}
	}

	return Fallback(docs, defaultID)
}

// Fallback returns defaultID when present, otherwise the first identifier
// in sorted order. It returns "" only for an empty set.
func Fallback(docs types.DocumentSet, defaultID string) string {
	if docs.Has(defaultID) {
		return defaultID
	}
	ids := docs.IDs()
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// BuildPrompt renders the document selection prompt.
func BuildPrompt(profile string, docs types.DocumentSet, defaultID string) (string, error) {
	var sb strings.Builder
	for _, id := range docs.IDs() {
		sb.WriteString(fmt.Sprintf("Filename: %s\nSnippet: %s\n---\n", id, llm.Truncate(docs[id], documentSnippetLen)))
	}

	return prompts.Render("matching.json", "select-document", map[string]string{
		"DefaultDocument": Fallback(docs, defaultID),
		"Profile":         llm.Truncate(profile, profileSnippetLen),
		"Documents":       sb.String(),
	})
}
