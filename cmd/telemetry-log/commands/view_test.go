package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/teamone/spooky-telemetry/pkg/journal"
)

func TestViewFormatsEntries(t *testing.T) {
	path := createTestJournal(t, sampleEntries())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	wantLines := []string{
		"2026-01-28T10:15:32.123456Z [svc:abc12345] SENT   #0 Jump",
		"  Section: Level1",
		"  Session: 42",
		`  Data: {"height":2}`,
		"  Error: HTTP 502 Bad Gateway",
		"[svc:def67890] LOCAL  #0 Jump",
		"  Session: -37",
	}
	for _, want := range wantLines {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n%s", want, output)
		}
	}

	// Empty payloads are not printed.
	if strings.Contains(output, "Data: {}") {
		t.Error("empty payload should be omitted")
	}
}

func TestViewCaptureLatency(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestJournal(t, []journal.Entry{{
		Timestamp: ts,
		EventType: "Tick",
		Timecode:  ts.Add(-250 * time.Millisecond).UnixMilli(),
	}})

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if !strings.Contains(buf.String(), "(250.000ms earlier)") {
		t.Errorf("expected capture latency in output:\n%s", buf.String())
	}
}

func TestViewFilters(t *testing.T) {
	path := createTestJournal(t, sampleEntries())
	failed := journal.OutcomeFailed

	tests := []struct {
		name   string
		filter ViewFilter
		want   int
	}{
		{"none", ViewFilter{}, 3},
		{"outcome", ViewFilter{Outcome: &failed}, 1},
		{"event type", ViewFilter{EventType: "Jump"}, 2},
		{"section", ViewFilter{Section: "Menu"}, 1},
		{"service", ViewFilter{ServiceID: "abc12345-0000"}, 2},
		{"combined", ViewFilter{EventType: "Jump", Section: "Level1"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := RunView(path, tt.filter, &buf); err != nil {
				t.Fatalf("RunView failed: %v", err)
			}
			if got := strings.Count(buf.String(), "[svc:"); got != tt.want {
				t.Errorf("got %d entries, want %d", got, tt.want)
			}
		})
	}
}

func TestParseOutcomeFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    journal.Outcome
		wantErr bool
	}{
		{"sent", journal.OutcomeSent, false},
		{"FAILED", journal.OutcomeFailed, false},
		{"Local", journal.OutcomeLocal, false},
		{"lost", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutcomeFlag(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutcomeFlag(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseOutcomeFlag(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestShortenID(t *testing.T) {
	if got := shortenID("abcdefghijkl"); got != "abcdefgh" {
		t.Errorf("shortenID = %q", got)
	}
	if got := shortenID("abc"); got != "abc" {
		t.Errorf("shortenID = %q", got)
	}
}
