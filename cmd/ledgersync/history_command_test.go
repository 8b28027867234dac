package main

import (
	"strings"
	"testing"
	"time"

	"ledgersync/internal/history"
)

func sampleEntries() []history.Entry {
	started := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	return []history.Entry{
		{
			CycleID:       "aaaa0001",
			StartedAt:     started,
			FinishedAt:    started.Add(95 * time.Second),
			Outcome:       "success",
			Uploaded:      3,
			Cancellations: 1,
		},
		{
			CycleID:    "aaaa0002",
			StartedAt:  started.Add(30 * time.Minute),
			FinishedAt: started.Add(31 * time.Minute),
			Outcome:    "failure",
			Error:      "upload not confirmed",
		},
	}
}

func TestRenderCycleTable(t *testing.T) {
	out := renderCycleTable(sampleEntries())

	for _, want := range []string{"CYCLE", "OUTCOME", "aaaa0001", "1m35s", "success", "upload not confirmed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestWriteCycleTSV(t *testing.T) {
	var buf strings.Builder
	writeCycleTSV(&buf, sampleEntries())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("tsv lines = %d, want 2", len(lines))
	}
	first := strings.Split(lines[0], "\t")
	if len(first) != 7 {
		t.Fatalf("tsv fields = %d, want 7: %q", len(first), lines[0])
	}
	if first[0] != "aaaa0001" || first[3] != "success" || first[4] != "3" {
		t.Fatalf("tsv row = %v", first)
	}
	// A clean cycle renders a dash in the error column.
	if first[6] != "-" {
		t.Fatalf("error placeholder = %q", first[6])
	}
}
