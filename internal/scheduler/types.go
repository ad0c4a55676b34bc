package scheduler

import "time"

// DateRange is a half-open [Start, End) interval.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the range has a positive duration.
func (r DateRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.Start.Before(r.End)
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Covers reports whether other lies entirely inside the range.
func (r DateRange) Covers(other DateRange) bool {
	return !other.Start.Before(r.Start) && !other.End.After(r.End)
}

// Overlaps applies the half-open overlap test. Empty ranges never overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	if !r.Start.Before(r.End) || !other.Start.Before(other.End) {
		return false
	}
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Duration returns End - Start.
func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Speaker is a presenter attached to a session.
type Speaker struct {
	ID        string
	Name      string
	Role      string
	Company   string
	Expertise []string
}

// Session is a catalog entry considered by the agenda builder.
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
	// Relevance is an externally supplied semantic match score in [0,1].
	Relevance *float64
}

// Range returns the session interval.
func (s Session) Range() DateRange {
	return DateRange{Start: s.Start, End: s.End}
}

// UserProfile captures the stated preferences of an attendee.
type UserProfile struct {
	ID          string
	Interests   []string
	Goals       []string
	Role        string
	Company     string
	FavoriteIDs []string
}

// ScoreBreakdown keeps the individual signals that produced a candidate score.
type ScoreBreakdown struct {
	Semantic     float64
	TagOverlap   float64
	RoleAffinity float64
	Networking   float64
	Popularity   float64
}

// Candidate is a ranked session that has not yet been placed into a schedule.
type Candidate struct {
	Session   Session
	Score     float64
	Reasons   []string
	Breakdown ScoreBreakdown
	Favorite  bool
}

// EntryKind distinguishes the entries of a day schedule.
type EntryKind string

const (
	// EntrySession is a session admitted by the packer.
	EntrySession EntryKind = "session"
	// EntryFavorite is a fixed commitment chosen by the attendee.
	EntryFavorite EntryKind = "favorite"
	// EntryMeal marks a free meal break.
	EntryMeal EntryKind = "meal"
)

// Entry is a single slot of a day schedule.
type Entry struct {
	Kind    EntryKind
	Start   time.Time
	End     time.Time
	Session *Session
	Score   float64
	Reasons []string
	Label   string
}

// Range returns the entry interval.
func (e Entry) Range() DateRange {
	return DateRange{Start: e.Start, End: e.End}
}

// UnresolvedConflict records a favorite that could not be placed because it
// overlaps favorites already on the schedule.
type UnresolvedConflict struct {
	Session       Session
	ConflictsWith []Session
}

// DaySchedule is the packed agenda for one conference day. Entries are sorted
// by start and never overlap.
type DaySchedule struct {
	Date       string
	Day        DateRange
	Entries    []Entry
	Unresolved []UnresolvedConflict
}

// Sessions returns the sessions placed on the day in schedule order.
func (d DaySchedule) Sessions() []Session {
	out := make([]Session, 0, len(d.Entries))
	for _, entry := range d.Entries {
		if entry.Session != nil {
			out = append(out, *entry.Session)
		}
	}
	return out
}

// WarningCode classifies non-fatal packing issues.
type WarningCode string

const (
	// WarningFavoriteMissing is raised when a favorite is absent from the catalog.
	WarningFavoriteMissing WarningCode = "favorite_missing"
	// WarningFavoriteWithoutTime is raised when a favorite has no usable time range.
	WarningFavoriteWithoutTime WarningCode = "favorite_without_time"
	// WarningFavoriteOutsideDays is raised when a favorite falls outside every day boundary.
	WarningFavoriteOutsideDays WarningCode = "favorite_outside_days"
	// WarningFavoriteConflict is raised when favorites overlap each other.
	WarningFavoriteConflict WarningCode = "favorite_conflict"
	// WarningRelevanceUnavailable is raised when semantic scores could not be fetched.
	WarningRelevanceUnavailable WarningCode = "relevance_unavailable"
)

// Warning is reported alongside a plan without failing it.
type Warning struct {
	Code      WarningCode
	SessionID string
	Message   string
}

// Plan is the result of packing: per-day schedules plus warnings.
type Plan struct {
	Days     []DaySchedule
	Warnings []Warning
}

// Insights summarises a packed agenda for presentation.
type Insights struct {
	FocusAreas              []string
	Strategy                string
	SessionsAnalyzed        int
	InterestMatches         int
	NetworkingOpportunities int
	ExpertEncounters        int
	ScheduledSessions       int
	FavoritesPlaced         int
}
