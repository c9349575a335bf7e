package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"html"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/outreach-agent/internal/types"
)

// SourceSpec describes one directory CSV and how its candidates are filtered.
type SourceSpec struct {
	Name            string
	Path            string
	ExcludeStudents bool
}

// profileColumns lists accepted headers for the profile text, in preference order.
var profileColumns = []string{"bio", "deep_profile_text", "profile_text"}

var textPolicy = bluemonday.StrictPolicy()

// LoadDirectory reads every source concurrently and returns them in the
// order given, which is the selection priority order. The first source is
// required; a lower-priority source whose file does not exist loads as an
// empty list and is logged.
func LoadDirectory(ctx context.Context, specs []SourceSpec, logger *slog.Logger) (*types.Directory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	lists := make([]types.SourceList, len(specs))

	g, _ := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			list, err := LoadSource(spec)
			if err != nil {
				if i == 0 || !errors.Is(err, fs.ErrNotExist) {
					return err
				}
				logger.Warn("directory source missing, continuing without it", "source", spec.Name, "path", spec.Path)
				list = &types.SourceList{Name: spec.Name, ExcludeStudents: spec.ExcludeStudents}
			}
			lists[i] = *list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &types.Directory{Sources: lists}, nil
}

// LoadSource reads a scraped directory CSV with a header row. Profile text
// is reduced to plain text, and a missing email is backfilled from a mailto
// link in the profile markup.
func LoadSource(spec SourceSpec) (*types.SourceList, error) {
	f, err := os.Open(spec.Path)
	if err != nil {
		return nil, &InputError{Path: spec.Path, Message: "directory source unavailable", Cause: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &types.SourceList{Name: spec.Name, ExcludeStudents: spec.ExcludeStudents}, nil
		}
		return nil, &InputError{Path: spec.Path, Message: "failed to read directory header", Cause: err}
	}
	cols := indexColumns(header)
	if _, ok := cols["name"]; !ok {
		return nil, &InputError{Path: spec.Path, Message: "directory source has no name column"}
	}

	list := &types.SourceList{Name: spec.Name, ExcludeStudents: spec.ExcludeStudents}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &InputError{Path: spec.Path, Message: "malformed directory row", Cause: err}
		}

		name := strings.TrimSpace(field(row, cols, "name"))
		rawProfile := ""
		for _, col := range profileColumns {
			if v := field(row, cols, col); v != "" {
				rawProfile = v
				break
			}
		}

		hint := strings.TrimSpace(field(row, cols, "email"))
		if hint == "" {
			hint = MailtoAddress(rawProfile)
		}
		source := strings.TrimSpace(field(row, cols, "source"))
		if source == "" {
			source = spec.Name
		}

		cand := types.Candidate{
			Name:        name,
			ContactHint: hint,
			ProfileText: PlainText(rawProfile),
			ProfileLink: strings.TrimSpace(field(row, cols, "profile_link")),
			Source:      source,
		}
		// Rows without a name cannot be deduplicated.
		if err := cand.Validate(); err != nil {
			continue
		}
		list.Candidates = append(list.Candidates, cand)
	}
	return list, nil
}

// PlainText strips markup from scraped profile content and normalizes whitespace.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return CleanText(s)
	}
	// Pad tags so adjacent elements do not run together once removed.
	padded := strings.ReplaceAll(s, "<", " <")
	return CleanText(html.UnescapeString(textPolicy.Sanitize(padded)))
}

// MailtoAddress returns the first mailto: target in an HTML fragment, or "".
func MailtoAddress(fragment string) string {
	if !strings.Contains(fragment, "mailto:") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	var addr string
	doc.Find(`a[href^="mailto:"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(href, '?'); i >= 0 {
			href = href[:i]
		}
		addr = strings.TrimSpace(href)
		return addr == ""
	})
	return addr
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
