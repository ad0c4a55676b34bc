// Package importer moves conference catalog exports in and out of the store.
//
// An export is the JSON document produced by the conference back office:
//
//	{"metadata": {...}, "data": {"sessions": [...], "speakers": [...], "sessionSpeakers": [...]}}
package importer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Export is a parsed catalog export.
type Export struct {
	Metadata Metadata `json:"metadata"`
	Data     Data     `json:"data"`
}

// Metadata describes when an export was produced.
type Metadata struct {
	ExportedAt time.Time `json:"exportedAt"`
	Counts     Counts    `json:"counts"`
}

// Counts is the record count per collection reported by the exporter.
type Counts struct {
	Sessions        int `json:"sessions"`
	Speakers        int `json:"speakers"`
	SessionSpeakers int `json:"sessionSpeakers"`
}

// Data holds the exported collections.
type Data struct {
	Sessions        []Session        `json:"sessions"`
	Speakers        []Speaker        `json:"speakers"`
	SessionSpeakers []SessionSpeaker `json:"sessionSpeakers"`
}

// Session is an exported session record.
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Location    string    `json:"location"`
	Track       string    `json:"track"`
	Level       string    `json:"level"`
	Tags        []string  `json:"tags"`
	SourceURL   string    `json:"sourceUrl"`
	LastUpdated string    `json:"lastUpdated"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Speaker is an exported speaker record.
type Speaker struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Bio             string    `json:"bio"`
	Company         string    `json:"company"`
	Role            string    `json:"role"`
	ImageURL        string    `json:"imageUrl"`
	LinkedinURL     string    `json:"linkedinUrl"`
	TwitterURL      string    `json:"twitterUrl"`
	WebsiteURL      string    `json:"websiteUrl"`
	ProfileSummary  string    `json:"profileSummary"`
	CompanyProfile  string    `json:"companyProfile"`
	Expertise       []string  `json:"expertise"`
	Achievements    []string  `json:"achievements"`
	LastProfileSync string    `json:"lastProfileSync"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SessionSpeaker links a speaker to a session. Link order in the export is
// the presentation order.
type SessionSpeaker struct {
	SessionID string `json:"sessionId"`
	SpeakerID string `json:"speakerId"`
}

// ReadExport parses an export document. Timestamps are normalised to UTC and
// records without an ID are assigned a random one.
func ReadExport(r io.Reader) (*Export, error) {
	var export Export
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("importer: decode export: %w", err)
	}

	for i := range export.Data.Sessions {
		s := &export.Data.Sessions[i]
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.StartTime = s.StartTime.UTC()
		s.EndTime = s.EndTime.UTC()
		s.CreatedAt = s.CreatedAt.UTC()
	}
	for i := range export.Data.Speakers {
		sp := &export.Data.Speakers[i]
		sp.ID = strings.TrimSpace(sp.ID)
		if sp.ID == "" {
			sp.ID = uuid.NewString()
		}
		sp.CreatedAt = sp.CreatedAt.UTC()
	}
	export.Metadata.ExportedAt = export.Metadata.ExportedAt.UTC()

	if err := export.validate(); err != nil {
		return nil, err
	}
	return &export, nil
}

func (e *Export) validate() error {
	sessions := make(map[string]struct{}, len(e.Data.Sessions))
	for _, s := range e.Data.Sessions {
		if _, dup := sessions[s.ID]; dup {
			return fmt.Errorf("importer: duplicate session %q", s.ID)
		}
		sessions[s.ID] = struct{}{}
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("importer: session %q has no title", s.ID)
		}
		if !s.StartTime.IsZero() && !s.EndTime.IsZero() && !s.EndTime.After(s.StartTime) {
			return fmt.Errorf("importer: session %q ends before it starts", s.ID)
		}
	}
	speakers := make(map[string]struct{}, len(e.Data.Speakers))
	for _, sp := range e.Data.Speakers {
		if _, dup := speakers[sp.ID]; dup {
			return fmt.Errorf("importer: duplicate speaker %q", sp.ID)
		}
		speakers[sp.ID] = struct{}{}
	}
	for _, link := range e.Data.SessionSpeakers {
		if _, ok := sessions[link.SessionID]; !ok {
			return fmt.Errorf("importer: link references unknown session %q", link.SessionID)
		}
		if _, ok := speakers[link.SpeakerID]; !ok {
			return fmt.Errorf("importer: link references unknown speaker %q", link.SpeakerID)
		}
	}
	return nil
}

// ShiftTimes moves every session start and end by offset. It repairs exports
// whose wall-clock times were recorded in the wrong zone and is only applied
// when explicitly requested.
func ShiftTimes(export *Export, offset time.Duration) {
	if export == nil || offset == 0 {
		return
	}
	for i := range export.Data.Sessions {
		s := &export.Data.Sessions[i]
		if !s.StartTime.IsZero() {
			s.StartTime = s.StartTime.Add(offset)
		}
		if !s.EndTime.IsZero() {
			s.EndTime = s.EndTime.Add(offset)
		}
	}
}
