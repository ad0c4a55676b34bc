package importer

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/conference-agenda/internal/persistence"
	"github.com/example/conference-agenda/internal/persistence/memory"
)

const sampleExport = `{
  "metadata": {"exportedAt": "2025-05-30T12:00:00Z", "counts": {"sessions": 2, "speakers": 2, "sessionSpeakers": 3}},
  "data": {
    "sessions": [
      {"id": "s1", "title": "Agents in Production", "startTime": "2025-06-10T09:00:00-03:00", "endTime": "2025-06-10T10:00:00-03:00",
       "location": "Hall A", "track": "AI", "level": "Advanced", "tags": ["AI", " Agents "], "createdAt": "2025-05-01T00:00:00Z"},
      {"id": "s2", "title": "Payments, Rails & Risk", "startTime": "2025-06-10T13:00:00Z", "endTime": "2025-06-10T14:00:00Z",
       "track": "Payments", "createdAt": "2025-05-01T00:00:00Z"}
    ],
    "speakers": [
      {"id": "sp1", "name": "Ada Lovelace", "company": "Analytical", "expertise": ["AI"], "achievements": ["First program"], "createdAt": "2025-05-01T00:00:00Z"},
      {"id": "sp2", "name": "Lin Chen", "role": "CTO", "createdAt": "2025-05-01T00:00:00Z"}
    ],
    "sessionSpeakers": [
      {"sessionId": "s1", "speakerId": "sp2"},
      {"sessionId": "s1", "speakerId": "sp1"},
      {"sessionId": "s2", "speakerId": "sp1"}
    ]
  }
}`

func readSample(t *testing.T) *Export {
	t.Helper()
	export, err := ReadExport(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	return export
}

func TestReadExportNormalisesToUTC(t *testing.T) {
	export := readSample(t)

	if len(export.Data.Sessions) != 2 || len(export.Data.Speakers) != 2 || len(export.Data.SessionSpeakers) != 3 {
		t.Fatalf("unexpected collections %+v", export.Data)
	}
	start := export.Data.Sessions[0].StartTime
	if start.Location() != time.UTC || start.Hour() != 12 {
		t.Fatalf("expected 12:00 UTC, got %v", start)
	}
	if export.Metadata.Counts.SessionSpeakers != 3 {
		t.Fatalf("unexpected metadata %+v", export.Metadata)
	}
}

func TestReadExportAssignsMissingIDs(t *testing.T) {
	doc := `{"data": {"sessions": [{"title": "Untitled ID", "startTime": "2025-06-10T09:00:00Z", "endTime": "2025-06-10T10:00:00Z"}]}}`
	export, err := ReadExport(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if export.Data.Sessions[0].ID == "" {
		t.Fatalf("expected a generated session ID")
	}
}

func TestReadExportRejectsInvalidDocuments(t *testing.T) {
	tests := map[string]string{
		"malformed":         `{"data": `,
		"duplicate session": `{"data": {"sessions": [{"id": "s1", "title": "a"}, {"id": "s1", "title": "b"}]}}`,
		"missing title":     `{"data": {"sessions": [{"id": "s1"}]}}`,
		"reversed times":    `{"data": {"sessions": [{"id": "s1", "title": "a", "startTime": "2025-06-10T10:00:00Z", "endTime": "2025-06-10T09:00:00Z"}]}}`,
		"dangling link":     `{"data": {"sessions": [{"id": "s1", "title": "a"}], "sessionSpeakers": [{"sessionId": "s1", "speakerId": "ghost"}]}}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadExport(strings.NewReader(doc)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestShiftTimes(t *testing.T) {
	export := readSample(t)
	before := export.Data.Sessions[1].StartTime

	ShiftTimes(export, 3*time.Hour)

	if got := export.Data.Sessions[1].StartTime; !got.Equal(before.Add(3 * time.Hour)) {
		t.Fatalf("expected start shifted by 3h, got %v", got)
	}
	if !export.Data.Sessions[1].CreatedAt.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("createdAt must not be shifted")
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	export := readSample(t)

	summary, err := Load(ctx, store, export)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if summary != (Summary{Sessions: 2, Speakers: 2, Links: 3}) {
		t.Fatalf("unexpected summary %v", summary)
	}

	session, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(session.SpeakerIDs) != 2 || session.SpeakerIDs[0] != "sp2" || session.SpeakerIDs[1] != "sp1" {
		t.Fatalf("speaker order not preserved: %v", session.SpeakerIDs)
	}
	if len(session.Tags) != 2 || session.Tags[1] != "Agents" {
		t.Fatalf("expected trimmed tags, got %v", session.Tags)
	}

	// Loading twice upserts instead of duplicating.
	if _, err := Load(ctx, store, export); err != nil {
		t.Fatalf("reload: %v", err)
	}
	sessions, err := store.ListSessions(ctx, persistence.SessionQuery{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions after reload, got %d", len(sessions))
	}
}

func TestLoadHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Load(ctx, memory.New(), readSample(t)); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestWriteCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "csv")
	if err := WriteCSV(dir, readSample(t)); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	sessions := readCSV(t, filepath.Join(dir, SessionsFile))
	if len(sessions) != 3 || len(sessions[0]) != len(sessionColumns) {
		t.Fatalf("unexpected sessions table %v", sessions)
	}
	if sessions[1][8] != "AI|Agents" {
		t.Fatalf("expected '|'-joined tags, got %q", sessions[1][8])
	}
	if sessions[1][3] != "2025-06-10T12:00:00Z" {
		t.Fatalf("expected UTC start, got %q", sessions[1][3])
	}
	if sessions[2][1] != "Payments, Rails & Risk" {
		t.Fatalf("title with comma not preserved: %q", sessions[2][1])
	}

	speakers := readCSV(t, filepath.Join(dir, SpeakersFile))
	if len(speakers) != 3 || speakers[1][12] != "First program" {
		t.Fatalf("unexpected speakers table %v", speakers)
	}

	links := readCSV(t, filepath.Join(dir, SessionSpeakersFile))
	if len(links) != 4 || links[0][0] != "sessionId" {
		t.Fatalf("unexpected links table %v", links)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return records
}
