// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/outreach-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// bodyPreviewLines is how many body lines a draft box shows
	bodyPreviewLines = 4
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens a line to the box's inner width.
func clip(line string) string {
	limit := boxWidth - 4
	if utf8.RuneCountInString(line) <= limit {
		return line
	}
	r := []rune(line)
	return string(r[:limit-3]) + "..."
}

// PrintQuota outputs the quota check for a run.
func (p *Printer) PrintQuota(target, successesToday, remaining, limit int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Daily target:     %d\n", target))
	sb.WriteString(fmt.Sprintf("Sent today:       %d\n", successesToday))
	if limit > 0 {
		sb.WriteString(fmt.Sprintf("Manual limit:     %d (quota bypassed)\n", limit))
	}
	sb.WriteString(fmt.Sprintf("Remaining:        %d", max(0, remaining)))

	p.printBox("QUOTA CHECK", sb.String())
}

// PrintDraft outputs one candidate's outcome with a preview of the message.
func (p *Printer) PrintDraft(rec types.DraftRecord) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To:       %s <%s>\n", rec.Name, rec.Contact))
	sb.WriteString(fmt.Sprintf("Outcome:  %s", rec.Outcome))
	if rec.Reason != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", rec.Reason))
	}
	sb.WriteString("\n")
	if rec.DocumentUsed != "" {
		sb.WriteString(fmt.Sprintf("Document: %s\n", rec.DocumentUsed))
	}
	if rec.Subject != "" {
		sb.WriteString(fmt.Sprintf("Subject:  %s\n", rec.Subject))
	}

	if rec.Body != "" {
		sb.WriteString("\n")
		lines := strings.Split(strings.TrimSpace(rec.Body), "\n")
		count := min(len(lines), bodyPreviewLines)
		for i := 0; i < count; i++ {
			sb.WriteString(lines[i])
			sb.WriteString("\n")
		}
		if len(lines) > bodyPreviewLines {
			sb.WriteString(fmt.Sprintf("... and %d more lines\n", len(lines)-bodyPreviewLines))
		}
	}

	p.printBox("CANDIDATE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunSummary outputs the totals of a finished run.
func (p *Printer) PrintRunSummary(sent, drafted, failed, totalToday int, summaryPath string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Sent:             %d\n", sent))
	if drafted > 0 {
		sb.WriteString(fmt.Sprintf("Drafted only:     %d\n", drafted))
	}
	sb.WriteString(fmt.Sprintf("Failed:           %d\n", failed))
	sb.WriteString(fmt.Sprintf("Total sent today: %d\n", totalToday))
	sb.WriteString(fmt.Sprintf("Summary:          %s", summaryPath))

	p.printBox("RUN SUMMARY", sb.String())
}
