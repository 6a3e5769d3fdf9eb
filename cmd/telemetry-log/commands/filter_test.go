package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/teamone/spooky-telemetry/pkg/journal"
)

func readJournal(t *testing.T, path string) []journal.Entry {
	t.Helper()
	r, err := journal.NewReader(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer r.Close()

	entries, err := r.All()
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return entries
}

func TestFilterByOutcome(t *testing.T) {
	path := createTestJournal(t, sampleEntries())
	outPath := filepath.Join(t.TempDir(), "failed.tlog")

	var buf bytes.Buffer
	err := RunFilter(path, FilterOptions{Output: outPath, Outcome: "failed"}, &buf)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	entries := readJournal(t, outPath)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].EventType != "Die" {
		t.Errorf("EventType = %q, want Die", entries[0].EventType)
	}
	if !strings.Contains(buf.String(), "Filtered 1 entries") {
		t.Errorf("unexpected summary: %q", buf.String())
	}
}

func TestFilterByTimeWindow(t *testing.T) {
	path := createTestJournal(t, sampleEntries())
	outPath := filepath.Join(t.TempDir(), "window.tlog")

	err := RunFilter(path, FilterOptions{
		Output:    outPath,
		TimeStart: "2026-01-28T10:15:33Z",
		TimeEnd:   "2026-01-28T10:15:34Z",
	}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	entries := readJournal(t, outPath)
	if len(entries) != 1 || entries[0].Sequence != 1 {
		t.Errorf("expected only the entry at 10:15:33.123, got %+v", entries)
	}
}

func TestFilterBySectionAndType(t *testing.T) {
	path := createTestJournal(t, sampleEntries())
	outPath := filepath.Join(t.TempDir(), "jumps.tlog")

	err := RunFilter(path, FilterOptions{Output: outPath, EventType: "Jump", Section: "Menu"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	entries := readJournal(t, outPath)
	if len(entries) != 1 || entries[0].ServiceID != "def67890-0000" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestFilterInvalidOptions(t *testing.T) {
	path := createTestJournal(t, sampleEntries())
	outPath := filepath.Join(t.TempDir(), "out.tlog")

	tests := []struct {
		name string
		opts FilterOptions
	}{
		{"bad outcome", FilterOptions{Output: outPath, Outcome: "lost"}},
		{"bad start", FilterOptions{Output: outPath, TimeStart: "yesterday"}},
		{"bad end", FilterOptions{Output: outPath, TimeEnd: "tomorrow"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := RunFilter(path, tt.opts, &bytes.Buffer{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
