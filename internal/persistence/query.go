package persistence

import (
	"strings"
	"time"
)

// SessionFilter is one typed condition of a SessionQuery. Implementations are
// limited to the variants declared in this package.
type SessionFilter interface {
	// Matches evaluates the filter against a session in memory.
	Matches(Session) bool
	sessionFilter()
}

// TextFilter matches a case-insensitive substring of the title, description,
// track or any tag.
type TextFilter struct {
	Text string
}

// TagFilter matches sessions carrying at least one of the tags, ignoring case.
type TagFilter struct {
	Tags []string
}

// TrackFilter matches a track name, ignoring case.
type TrackFilter struct {
	Track string
}

// TimeRangeFilter matches sessions starting within [From, To). A zero bound is
// open.
type TimeRangeFilter struct {
	From time.Time
	To   time.Time
}

// IDFilter matches the listed session IDs.
type IDFilter struct {
	IDs []string
}

// SpeakerFilter matches sessions presented by the speaker.
type SpeakerFilter struct {
	SpeakerID string
}

func (TextFilter) sessionFilter()      {}
func (TagFilter) sessionFilter()       {}
func (TrackFilter) sessionFilter()     {}
func (TimeRangeFilter) sessionFilter() {}
func (IDFilter) sessionFilter()        {}
func (SpeakerFilter) sessionFilter()   {}

// Matches implements SessionFilter.
func (f TextFilter) Matches(s Session) bool {
	needle := strings.ToLower(strings.TrimSpace(f.Text))
	if needle == "" {
		return true
	}
	fields := append([]string{s.Title, s.Description, s.Track}, s.Tags...)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Matches implements SessionFilter.
func (f TagFilter) Matches(s Session) bool {
	if len(f.Tags) == 0 {
		return true
	}
	for _, want := range f.Tags {
		for _, tag := range s.Tags {
			if strings.EqualFold(strings.TrimSpace(want), tag) {
				return true
			}
		}
	}
	return false
}

// Matches implements SessionFilter.
func (f TrackFilter) Matches(s Session) bool {
	return f.Track == "" || strings.EqualFold(strings.TrimSpace(f.Track), s.Track)
}

// Matches implements SessionFilter.
func (f TimeRangeFilter) Matches(s Session) bool {
	if !f.From.IsZero() && s.Start.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !s.Start.Before(f.To) {
		return false
	}
	return true
}

// Matches implements SessionFilter.
func (f IDFilter) Matches(s Session) bool {
	for _, id := range f.IDs {
		if id == s.ID {
			return true
		}
	}
	return false
}

// Matches implements SessionFilter.
func (f SpeakerFilter) Matches(s Session) bool {
	for _, id := range s.SpeakerIDs {
		if id == f.SpeakerID {
			return true
		}
	}
	return false
}

// SessionQuery combines filters with AND semantics. Results are ordered by
// start time then ID. Limit zero returns every match.
type SessionQuery struct {
	Filters []SessionFilter
	Limit   int
	Offset  int
}

// Where returns a copy of the query with an additional filter.
func (q SessionQuery) Where(filter SessionFilter) SessionQuery {
	filters := make([]SessionFilter, 0, len(q.Filters)+1)
	filters = append(filters, q.Filters...)
	q.Filters = append(filters, filter)
	return q
}

// Matches reports whether every filter accepts the session.
func (q SessionQuery) Matches(s Session) bool {
	for _, filter := range q.Filters {
		if !filter.Matches(s) {
			return false
		}
	}
	return true
}

// SpeakerQuery narrows speaker listings. Text matches name, company, role or
// expertise case-insensitively.
type SpeakerQuery struct {
	Text string
	IDs  []string
}

// Matches reports whether the speaker satisfies the query.
func (q SpeakerQuery) Matches(s Speaker) bool {
	if len(q.IDs) > 0 {
		found := false
		for _, id := range q.IDs {
			if id == s.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	if needle == "" {
		return true
	}
	fields := append([]string{s.Name, s.Company, s.Role}, s.Expertise...)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
