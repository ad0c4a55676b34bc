package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	sessionColumns = []string{"id", "title", "description", "startTime", "endTime",
		"location", "track", "level", "tags", "sourceUrl", "lastUpdated", "createdAt"}
	speakerColumns = []string{"id", "name", "bio", "company", "role", "imageUrl",
		"linkedinUrl", "twitterUrl", "websiteUrl", "profileSummary", "companyProfile",
		"expertise", "achievements", "lastProfileSync", "createdAt"}
	linkColumns = []string{"sessionId", "speakerId"}
)

// CSV file names written by WriteCSV.
const (
	SessionsFile        = "sessions.csv"
	SpeakersFile        = "speakers.csv"
	SessionSpeakersFile = "session_speakers.csv"
)

// WriteCSV writes the export as three CSV tables into dir, creating it when
// needed. List columns are '|'-joined.
func WriteCSV(dir string, export *Export) error {
	if export == nil {
		return fmt.Errorf("importer: export is nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("importer: create %s: %w", dir, err)
	}

	sessions := make([][]string, 0, len(export.Data.Sessions))
	for _, s := range export.Data.Sessions {
		sessions = append(sessions, []string{
			s.ID, s.Title, s.Description,
			formatTime(s.StartTime), formatTime(s.EndTime),
			s.Location, s.Track, s.Level,
			strings.Join(s.Tags, "|"),
			s.SourceURL, s.LastUpdated, formatTime(s.CreatedAt),
		})
	}
	if err := writeTable(filepath.Join(dir, SessionsFile), sessionColumns, sessions); err != nil {
		return err
	}

	speakers := make([][]string, 0, len(export.Data.Speakers))
	for _, sp := range export.Data.Speakers {
		speakers = append(speakers, []string{
			sp.ID, sp.Name, sp.Bio, sp.Company, sp.Role,
			sp.ImageURL, sp.LinkedinURL, sp.TwitterURL, sp.WebsiteURL,
			sp.ProfileSummary, sp.CompanyProfile,
			strings.Join(sp.Expertise, "|"),
			strings.Join(sp.Achievements, "|"),
			sp.LastProfileSync, formatTime(sp.CreatedAt),
		})
	}
	if err := writeTable(filepath.Join(dir, SpeakersFile), speakerColumns, speakers); err != nil {
		return err
	}

	links := make([][]string, 0, len(export.Data.SessionSpeakers))
	for _, link := range export.Data.SessionSpeakers {
		links = append(links, []string{link.SessionID, link.SpeakerID})
	}
	return writeTable(filepath.Join(dir, SessionSpeakersFile), linkColumns, links)
}

func writeTable(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("importer: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("importer: close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("importer: write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("importer: write %s: %w", path, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
