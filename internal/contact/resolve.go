// Package contact derives a single delivery address for a candidate.
package contact

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/outreach-agent/internal/types"
)

// DefaultPlaceholders are sentinel addresses that must never be delivered to.
var DefaultPlaceholders = []string{"placeholder@uw.edu"}

// Resolver picks the best-effort address for a candidate. It never guesses:
// an address is returned only if it was found verbatim in the record.
type Resolver struct {
	// PrimaryDomains are preferred when several addresses appear in free text.
	PrimaryDomains []string
	// Suffixes restrict free-text matches to these domain endings (e.g. ".edu").
	// Empty means any domain.
	Suffixes []string
	// Placeholders are treated as unresolvable.
	Placeholders []string

	validate *validator.Validate
	pattern  *regexp.Regexp
}

// NewResolver creates a Resolver.
func NewResolver(primaryDomains, suffixes, placeholders []string) *Resolver {
	if placeholders == nil {
		placeholders = DefaultPlaceholders
	}
	return &Resolver{
		PrimaryDomains: lowerAll(primaryDomains),
		Suffixes:       lowerAll(suffixes),
		Placeholders:   lowerAll(placeholders),
		validate:       validator.New(),
		pattern:        buildPattern(suffixes),
	}
}

func buildPattern(suffixes []string) *regexp.Regexp {
	const local = `(?i)[a-zA-Z0-9._%+-]+@[a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)*`
	if len(suffixes) == 0 {
		return regexp.MustCompile(local + `\.[a-zA-Z]{2,}`)
	}
	alts := make([]string, len(suffixes))
	for i, s := range suffixes {
		alts[i] = regexp.QuoteMeta(strings.TrimPrefix(s, "."))
	}
	return regexp.MustCompile(local + `\.(?:` + strings.Join(alts, "|") + `)\b`)
}

// Resolve returns the structured contact hint when valid, otherwise the best
// address found in the profile text, otherwise an *UnresolvableError.
// A placeholder hint marks a record the directory could not fill, so the
// candidate is unresolvable even if the profile text mentions an address.
func (r *Resolver) Resolve(c types.Candidate) (string, error) {
	if addr := normalizeHint(c.ContactHint); addr != "" {
		if r.isPlaceholder(addr) {
			return "", &UnresolvableError{Name: c.Name, Hint: c.ContactHint}
		}
		if r.Valid(addr) {
			return addr, nil
		}
	}

	if addr := r.FromText(c.ProfileText); addr != "" && !r.isPlaceholder(addr) {
		return addr, nil
	}

	return "", &UnresolvableError{Name: c.Name, Hint: c.ContactHint}
}

// FromText extracts an address from free text, preferring the primary
// institution domains. The result is lowercased.
func (r *Resolver) FromText(text string) string {
	if text == "" {
		return ""
	}
	matches := r.pattern.FindAllString(text, -1)
	var valid []string
	for _, m := range matches {
		m = strings.ToLower(strings.TrimRight(m, "."))
		if r.Valid(m) {
			valid = append(valid, m)
		}
	}
	if len(valid) == 0 {
		return ""
	}
	for _, domain := range r.PrimaryDomains {
		for _, m := range valid {
			if hasDomain(m, domain) {
				return m
			}
		}
	}
	return valid[0]
}

// Valid reports whether addr is a syntactically valid address with a dotted domain.
func (r *Resolver) Valid(addr string) bool {
	at := strings.LastIndex(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return false
	}
	domain := addr[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return r.validate.Var(addr, "required,email") == nil
}

func (r *Resolver) isPlaceholder(addr string) bool {
	addr = strings.ToLower(addr)
	for _, p := range r.Placeholders {
		if addr == p {
			return true
		}
	}
	return false
}

// normalizeHint strips mailto: prefixes, query strings and whitespace.
func normalizeHint(hint string) string {
	hint = strings.TrimSpace(hint)
	if len(hint) >= 7 && strings.EqualFold(hint[:7], "mailto:") {
		hint = hint[7:]
	}
	if i := strings.Index(hint, "?"); i >= 0 {
		hint = hint[:i]
	}
	return strings.TrimSpace(hint)
}

// hasDomain reports whether addr is at domain or one of its subdomains.
func hasDomain(addr, domain string) bool {
	host := addr[strings.LastIndex(addr, "@")+1:]
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
