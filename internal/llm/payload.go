// Package llm - payload.go pulls a structured payload out of noisy model output.
//
// Precedence, each tier independently usable:
//  1. StripFences: the first fenced block (```json ... ``` or ``` ... ```).
//  2. OuterObject: text between the first '{' and the last '}'.
//  3. StripControl: control characters removed except \n, \r and \t.
//  4. ExtractFields: regex field extraction when the payload still fails to decode.
package llm

import (
	"fmt"
	"regexp"
	"strings"
)

// StripFences returns the contents of the first fenced code block in text,
// or the trimmed text when it has no fence.
func StripFences(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```json"); idx >= 0 {
		inner := text[idx+len("```json"):]
		if end := strings.Index(inner, "```"); end >= 0 {
			inner = inner[:end]
		}
		return strings.TrimSpace(inner)
	}

	if idx := strings.Index(text, "```"); idx >= 0 {
		inner := text[idx+3:]
		// Skip potential language identifier on first line
		if nl := strings.Index(inner, "\n"); nl >= 0 {
			firstLine := inner[:nl]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				inner = inner[nl+1:]
			}
		}
		if end := strings.Index(inner, "```"); end >= 0 {
			inner = inner[:end]
		}
		return strings.TrimSpace(inner)
	}

	return text
}

// OuterObject trims text to its outermost {...} span, discarding leading and
// trailing commentary. Text without a brace pair is returned unchanged.
func OuterObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return text
	}
	return text[start : end+1]
}

// StripControl removes control characters other than newline, carriage return and tab.
func StripControl(text string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		if r == 0x7f {
			return -1
		}
		return r
	}, text)
}

// ExtractPayload applies fence stripping, outer-brace extraction and control
// character sanitization in that order.
func ExtractPayload(text string) string {
	return StripControl(OuterObject(StripFences(text)))
}

var fieldUnescaper = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`, `\\`, `\`)

// ExtractFields is the last-resort tier: it pulls "name": "value" string
// fields out of text that is not valid JSON. It reports false unless every
// requested field was found.
func ExtractFields(text string, names ...string) (map[string]string, bool) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		re := regexp.MustCompile(fmt.Sprintf(`(?s)"%s"\s*:\s*"((?:[^"\\]|\\.)*)"`, regexp.QuoteMeta(name)))
		m := re.FindStringSubmatch(text)
		if m == nil {
			return nil, false
		}
		out[name] = fieldUnescaper.Replace(m[1])
	}
	return out, true
}

// Truncate returns at most n runes of s, for bounding prompt sections.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
