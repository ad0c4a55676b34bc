package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/conference-agenda/internal/persistence"
)

var (
	sessionCounter uint64
	speakerCounter uint64
)

var (
	referenceTime   = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	conferenceStart = time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
)

// ReferenceTime returns the canonical "now" used by fixtures. It lies before
// every conference day so no fixture session is in the past.
func ReferenceTime() time.Time {
	return referenceTime
}

// ConferenceDay returns UTC midnight of the conference day at offset.
func ConferenceDay(offset int) time.Time {
	return conferenceStart.AddDate(0, 0, offset)
}

// At returns the instant hour:minute on the conference day at offset.
func At(day, hour, minute int) time.Time {
	return ConferenceDay(day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ----------------------------- Session fixtures -----------------------------

// SessionOption configures a generated session.
type SessionOption func(*persistence.Session)

// NewSession returns a one hour session on the first conference day with
// optional overrides.
func NewSession(opts ...SessionOption) persistence.Session {
	idx := atomic.AddUint64(&sessionCounter, 1)
	session := persistence.Session{
		ID:       fmt.Sprintf("session-%03d", idx),
		Title:    fmt.Sprintf("Session %03d", idx),
		Start:    At(0, 9, 0),
		End:      At(0, 10, 0),
		Location: "Main Hall",
		Track:    "General",
	}
	for _, opt := range opts {
		opt(&session)
	}
	return session
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) SessionOption {
	return func(s *persistence.Session) {
		s.ID = id
	}
}

// WithTitle overrides the generated title.
func WithTitle(title string) SessionOption {
	return func(s *persistence.Session) {
		s.Title = title
	}
}

// WithSlot places the session on a conference day between two clock times.
func WithSlot(day, startHour, startMinute, endHour, endMinute int) SessionOption {
	return func(s *persistence.Session) {
		s.Start = At(day, startHour, startMinute)
		s.End = At(day, endHour, endMinute)
	}
}

// WithTags sets the session tags.
func WithTags(tags ...string) SessionOption {
	return func(s *persistence.Session) {
		s.Tags = tags
	}
}

// WithTrack sets the session track.
func WithTrack(track string) SessionOption {
	return func(s *persistence.Session) {
		s.Track = track
	}
}

// WithLevel sets the session level.
func WithLevel(level string) SessionOption {
	return func(s *persistence.Session) {
		s.Level = level
	}
}

// WithLocation sets the session room.
func WithLocation(location string) SessionOption {
	return func(s *persistence.Session) {
		s.Location = location
	}
}

// WithSpeakerIDs links speakers in presentation order. Harness seeding
// creates the links once the speakers exist.
func WithSpeakerIDs(ids ...string) SessionOption {
	return func(s *persistence.Session) {
		s.SpeakerIDs = ids
	}
}

// ----------------------------- Speaker fixtures -----------------------------

// SpeakerOption configures a generated speaker.
type SpeakerOption func(*persistence.Speaker)

// NewSpeaker returns a deterministic speaker with optional overrides.
func NewSpeaker(opts ...SpeakerOption) persistence.Speaker {
	idx := atomic.AddUint64(&speakerCounter, 1)
	speaker := persistence.Speaker{
		ID:      fmt.Sprintf("speaker-%03d", idx),
		Name:    fmt.Sprintf("Speaker %03d", idx),
		Role:    "Engineer",
		Company: "Example Corp",
	}
	for _, opt := range opts {
		opt(&speaker)
	}
	return speaker
}

// WithSpeakerID overrides the generated speaker ID.
func WithSpeakerID(id string) SpeakerOption {
	return func(s *persistence.Speaker) {
		s.ID = id
	}
}

// WithSpeakerName overrides the generated name.
func WithSpeakerName(name string) SpeakerOption {
	return func(s *persistence.Speaker) {
		s.Name = name
	}
}

// WithExpertise sets the speaker's expertise.
func WithExpertise(expertise ...string) SpeakerOption {
	return func(s *persistence.Speaker) {
		s.Expertise = expertise
	}
}

// ----------------------------- Attendee fixtures -----------------------------

// NewProfile returns a profile with the given interests.
func NewProfile(userID string, interests ...string) persistence.Profile {
	return persistence.Profile{
		UserID:    userID,
		Interests: interests,
		UpdatedAt: referenceTime,
	}
}

// FavoriteOf snapshots session as a favorite of userID.
func FavoriteOf(userID string, session persistence.Session) persistence.Favorite {
	return persistence.Favorite{
		UserID:    userID,
		SessionID: session.ID,
		Title:     session.Title,
		Start:     session.Start,
		End:       session.End,
		CreatedAt: referenceTime,
	}
}
