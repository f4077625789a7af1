package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/listing-notifier/internal/types"
)

func TestPrintRunReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	report := &types.RunReport{
		RunID:       uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		StartedAt:   start,
		CompletedAt: start.Add(1500 * time.Millisecond),
		Fetched:     40,
		Suppressed:  12,
		Failed:      1,
		Qualified:   27,
		New:         3,
		Notified:    3,
		DedupBefore: 100,
		DedupAfter:  103,
		Persisted:   true,
	}

	p.PrintRunReport(report)
	output := buf.String()

	assert.Contains(t, output, "RUN REPORT")
	assert.Contains(t, output, "550e8400-e29b-41d4-a716-446655440000")
	assert.Contains(t, output, "Fetched:    40")
	assert.Contains(t, output, "Notified:   3")
	assert.Contains(t, output, "100 -> 103, persisted")
	assert.Contains(t, output, "1.5s")
}

func TestPrintRunReport_DryRun(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRunReport(&types.RunReport{DryRun: true})
	assert.Contains(t, buf.String(), "dry run")
}

func TestPrintRunReport_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRunReport(nil)
	assert.Empty(t, buf.String())
}

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var records []types.NotificationRecord
	for i := 1; i <= 7; i++ {
		records = append(records, types.NotificationRecord{
			AdID:        fmt.Sprintf("A%d", i),
			Title:       "Maruti Swift VXI",
			Price:       "₹ 4,50,000",
			DisplayDate: "2024-05-01",
			UserName:    "John Doe",
		})
	}

	p.PrintRecords(records)
	output := buf.String()

	assert.Contains(t, output, "NEW LISTINGS (7)")
	assert.Contains(t, output, "[A1] Maruti Swift VXI")
	assert.Contains(t, output, "[A5]")
	assert.NotContains(t, output, "[A6]")
	assert.Contains(t, output, "and 2 more")
}

func TestPrintRecords_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRecords(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBox_LinesHaveEqualWidth(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", "short\n₹ 4,50,000\n"+strings.Repeat("x", 200))

	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, utf8.RuneCountInString(line), "line %q", line)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestPrintIDs(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintIDs([]string{"A1", "A2"})
	assert.Equal(t, "A1\nA2\n", buf.String())
}
