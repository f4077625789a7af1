// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/listing-notifier/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
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
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads line to the inner box width, in runes.
func pad(line string) string {
	width := boxWidth - 4
	n := utf8.RuneCountInString(line)
	if n > width {
		runes := []rune(line)
		return string(runes[:width-3]) + "..."
	}
	return line + strings.Repeat(" ", width-n)
}

// PrintRunReport outputs the counters of one run.
func (p *Printer) PrintRunReport(report *types.RunReport) {
	if report == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Run:        %s\n", report.RunID))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05")))
	if d := report.Duration(); d > 0 {
		sb.WriteString(fmt.Sprintf("Duration:   %s\n", d.Round(time.Millisecond)))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Fetched:    %d\n", report.Fetched))
	sb.WriteString(fmt.Sprintf("Suppressed: %d\n", report.Suppressed))
	sb.WriteString(fmt.Sprintf("Failed:     %d\n", report.Failed))
	sb.WriteString(fmt.Sprintf("Qualified:  %d\n", report.Qualified))
	sb.WriteString(fmt.Sprintf("New:        %d\n", report.New))
	sb.WriteString(fmt.Sprintf("Notified:   %d\n", report.Notified))
	sb.WriteString("\n")

	state := "not persisted"
	switch {
	case report.DryRun:
		state = "not persisted (dry run)"
	case report.Persisted:
		state = "persisted"
	}
	sb.WriteString(fmt.Sprintf("Dedup set:  %d -> %d, %s\n", report.DedupBefore, report.DedupAfter, state))

	p.printBox("RUN REPORT", sb.String())
}

// PrintRecords outputs the first few notification records.
func (p *Printer) PrintRecords(records []types.NotificationRecord) {
	if len(records) == 0 {
		return
	}

	var sb strings.Builder

	count := min(len(records), maxItemsToShow)
	for i := 0; i < count; i++ {
		rec := records[i]
		sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, rec.AdID, rec.Title))
		sb.WriteString(fmt.Sprintf("   %s · %s · %s\n", rec.Price, rec.DisplayDate, rec.UserName))
	}
	if len(records) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(records)-maxItemsToShow))
	}

	p.printBox(fmt.Sprintf("NEW LISTINGS (%d)", len(records)), sb.String())
}

// PrintIDs outputs a list of listing ids, one per line, without a box, so it
// can be piped.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintIDs(ids []string) {
	for _, id := range ids {
		fmt.Fprintln(p.out, id)
	}
}
