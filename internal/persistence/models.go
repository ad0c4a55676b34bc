package persistence

import "time"

// Session represents a conference session in the catalog.
type Session struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Location    string
	Track       string
	Level       string
	Tags        []string
	// SpeakerIDs keeps the presentation order of the session's speakers.
	SpeakerIDs []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Speaker represents a presenter in the speaker directory.
type Speaker struct {
	ID        string
	Name      string
	Role      string
	Company   string
	Bio       string
	Expertise []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionSpeaker links a speaker to a session at a display position.
type SessionSpeaker struct {
	SessionID string
	SpeakerID string
	Position  int
}

// Favorite is a session an attendee committed to. Title and times are a
// snapshot taken when the favorite was added, so the agenda can still block
// the slot if the session later disappears from the catalog.
type Favorite struct {
	UserID    string
	SessionID string
	Title     string
	Start     time.Time
	End       time.Time
	CreatedAt time.Time
}

// Profile stores the preferences used to personalise an agenda.
type Profile struct {
	UserID    string
	Interests []string
	Goals     []string
	Role      string
	Company   string
	UpdatedAt time.Time
}
