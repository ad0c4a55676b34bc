package application

import (
	"time"

	"github.com/example/conference-agenda/internal/scheduler"
)

// Principal identifies the authenticated attendee invoking a service.
type Principal struct {
	UserID string
}

// Speaker is the public view of a presenter.
type Speaker struct {
	ID        string
	Name      string
	Role      string
	Company   string
	Bio       string
	Expertise []string
}

// Session is the public view of a catalog session with its ordered speakers.
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
	Speakers    []Speaker
}

// SpeakerDetail is a speaker together with the sessions they present.
type SpeakerDetail struct {
	Speaker
	Sessions []Session
}

// SessionSearch narrows a catalog listing. Zero fields are ignored.
type SessionSearch struct {
	Text      string
	Tags      []string
	Track     string
	From      time.Time
	To        time.Time
	SpeakerID string
	Limit     int
	Offset    int
}

// Favorite is a committed session. Missing marks favorites whose session was
// removed from the catalog; Title and times then come from the saved snapshot.
type Favorite struct {
	SessionID string
	Title     string
	Start     time.Time
	End       time.Time
	AddedAt   time.Time
	Missing   bool
	Session   *Session
}

// AddFavoriteParams describes a favorite addition.
type AddFavoriteParams struct {
	Principal      Principal
	SessionID      string
	AllowConflicts bool
}

// ConflictReport lists committed favorites overlapping a session.
type ConflictReport struct {
	SessionID      string
	HasConflicts   bool
	Conflicts      []Session
	TotalConflicts int
}

// Profile holds the preferences used to personalise an agenda.
type Profile struct {
	UserID    string
	Interests []string
	Goals     []string
	Role      string
	Company   string
	UpdatedAt time.Time
}

// ProfileInput carries an attendee's profile update.
type ProfileInput struct {
	Interests []string
	Goals     []string
	Role      string
	Company   string
}

// AgendaOptions tweak one agenda generation. Nil pointers fall back to the
// service configuration.
type AgendaOptions struct {
	IncludePast      *bool
	ExcludeFavorited bool
	MaxPerDay        *int
	Days             []scheduler.DateRange
}

// GenerateAgendaParams describes an agenda request.
type GenerateAgendaParams struct {
	Principal Principal
	Options   AgendaOptions
	// SkipCache forces a fresh computation. The result still refreshes the cache.
	SkipCache bool
}

// Agenda is the personalised schedule returned to an attendee.
type Agenda struct {
	UserID      string
	GeneratedAt time.Time
	Days        []scheduler.DaySchedule
	Warnings    []scheduler.Warning
	Insights    scheduler.Insights
	Cached      bool
}

// AgendaConfig holds the service wide agenda defaults.
type AgendaConfig struct {
	Weights     scheduler.Weights
	Pack        scheduler.PackOptions
	IncludePast bool
	// Days are the configured conference days. When empty, days are derived
	// from the catalog in Location.
	Days     []scheduler.DateRange
	Location *time.Location
	CacheTTL time.Duration
}
