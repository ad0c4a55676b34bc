package http

import (
	"time"

	"github.com/example/conference-agenda/internal/application"
	"github.com/example/conference-agenda/internal/scheduler"
)

type speakerDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Role      string   `json:"role,omitempty"`
	Company   string   `json:"company,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Expertise []string `json:"expertise"`
}

type sessionDTO struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
	Location    string       `json:"location,omitempty"`
	Track       string       `json:"track,omitempty"`
	Level       string       `json:"level,omitempty"`
	Tags        []string     `json:"tags"`
	Speakers    []speakerDTO `json:"speakers"`
}

type speakerDetailDTO struct {
	speakerDTO
	Sessions []sessionDTO `json:"sessions"`
}

type favoriteDTO struct {
	SessionID string      `json:"session_id"`
	Title     string      `json:"title"`
	Start     time.Time   `json:"start"`
	End       time.Time   `json:"end"`
	AddedAt   time.Time   `json:"added_at"`
	Missing   bool        `json:"missing"`
	Session   *sessionDTO `json:"session,omitempty"`
}

type conflictReportDTO struct {
	SessionID      string       `json:"session_id"`
	HasConflicts   bool         `json:"has_conflicts"`
	Conflicts      []sessionDTO `json:"conflicts"`
	TotalConflicts int          `json:"total_conflicts"`
}

type addFavoriteResponse struct {
	Favorite favoriteDTO       `json:"favorite"`
	Report   conflictReportDTO `json:"conflicts"`
}

type profileDTO struct {
	UserID    string    `json:"user_id"`
	Interests []string  `json:"interests"`
	Goals     []string  `json:"goals"`
	Role      string    `json:"role"`
	Company   string    `json:"company"`
	UpdatedAt time.Time `json:"updated_at"`
}

type profileRequest struct {
	Interests []string `json:"interests" validate:"max=20,dive,max=100"`
	Goals     []string `json:"goals" validate:"max=20,dive,max=100"`
	Role      string   `json:"role" validate:"max=200"`
	Company   string   `json:"company" validate:"max=200"`
}

func (r profileRequest) toInput() application.ProfileInput {
	return application.ProfileInput{
		Interests: r.Interests,
		Goals:     r.Goals,
		Role:      r.Role,
		Company:   r.Company,
	}
}

type conflictCheckRequest struct {
	SessionID string `json:"session_id" validate:"required,max=200"`
}

type dayRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required,gtfield=Start"`
}

type agendaRequest struct {
	IncludePast      *bool        `json:"include_past"`
	ExcludeFavorited bool         `json:"exclude_favorited"`
	MaxPerDay        *int         `json:"max_per_day" validate:"omitempty,min=0,max=50"`
	Days             []dayRequest `json:"days" validate:"max=31,dive"`
	Refresh          bool         `json:"refresh"`
}

func (r agendaRequest) toParams(principal application.Principal) application.GenerateAgendaParams {
	days := make([]scheduler.DateRange, 0, len(r.Days))
	for _, d := range r.Days {
		days = append(days, scheduler.DateRange{Start: d.Start, End: d.End})
	}
	return application.GenerateAgendaParams{
		Principal: principal,
		Options: application.AgendaOptions{
			IncludePast:      r.IncludePast,
			ExcludeFavorited: r.ExcludeFavorited,
			MaxPerDay:        r.MaxPerDay,
			Days:             days,
		},
		SkipCache: r.Refresh,
	}
}

type entryDTO struct {
	Kind    string      `json:"kind"`
	Start   time.Time   `json:"start"`
	End     time.Time   `json:"end"`
	Label   string      `json:"label,omitempty"`
	Score   float64     `json:"score,omitempty"`
	Reasons []string    `json:"reasons,omitempty"`
	Session *sessionDTO `json:"session,omitempty"`
}

type unresolvedDTO struct {
	Session       sessionDTO   `json:"session"`
	ConflictsWith []sessionDTO `json:"conflicts_with"`
}

type dayDTO struct {
	Date       string          `json:"date"`
	Start      time.Time       `json:"start"`
	End        time.Time       `json:"end"`
	Entries    []entryDTO      `json:"entries"`
	Unresolved []unresolvedDTO `json:"unresolved,omitempty"`
}

type warningDTO struct {
	Code      string `json:"code"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type insightsDTO struct {
	FocusAreas              []string `json:"focus_areas"`
	Strategy                string   `json:"strategy"`
	SessionsAnalyzed        int      `json:"sessions_analyzed"`
	InterestMatches         int      `json:"interest_matches"`
	NetworkingOpportunities int      `json:"networking_opportunities"`
	ExpertEncounters        int      `json:"expert_encounters"`
	ScheduledSessions       int      `json:"scheduled_sessions"`
	FavoritesPlaced         int      `json:"favorites_placed"`
}

type agendaDTO struct {
	UserID      string       `json:"user_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Cached      bool         `json:"cached"`
	Days        []dayDTO     `json:"days"`
	Warnings    []warningDTO `json:"warnings"`
	Insights    insightsDTO  `json:"insights"`
}

func toSpeakerDTO(s application.Speaker) speakerDTO {
	return speakerDTO{
		ID:        s.ID,
		Name:      s.Name,
		Role:      s.Role,
		Company:   s.Company,
		Bio:       s.Bio,
		Expertise: nonNil(s.Expertise),
	}
}

func toSessionDTO(s application.Session) sessionDTO {
	speakers := make([]speakerDTO, 0, len(s.Speakers))
	for _, sp := range s.Speakers {
		speakers = append(speakers, toSpeakerDTO(sp))
	}
	return sessionDTO{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Start:       s.Start,
		End:         s.End,
		Location:    s.Location,
		Track:       s.Track,
		Level:       s.Level,
		Tags:        nonNil(s.Tags),
		Speakers:    speakers,
	}
}

func toSessionDTOs(sessions []application.Session) []sessionDTO {
	out := make([]sessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionDTO(s))
	}
	return out
}

func toFavoriteDTO(f application.Favorite) favoriteDTO {
	dto := favoriteDTO{
		SessionID: f.SessionID,
		Title:     f.Title,
		Start:     f.Start,
		End:       f.End,
		AddedAt:   f.AddedAt,
		Missing:   f.Missing,
	}
	if f.Session != nil {
		session := toSessionDTO(*f.Session)
		dto.Session = &session
	}
	return dto
}

func toConflictReportDTO(r application.ConflictReport) conflictReportDTO {
	return conflictReportDTO{
		SessionID:      r.SessionID,
		HasConflicts:   r.HasConflicts,
		Conflicts:      toSessionDTOs(r.Conflicts),
		TotalConflicts: r.TotalConflicts,
	}
}

func toProfileDTO(p application.Profile) profileDTO {
	return profileDTO{
		UserID:    p.UserID,
		Interests: nonNil(p.Interests),
		Goals:     nonNil(p.Goals),
		Role:      p.Role,
		Company:   p.Company,
		UpdatedAt: p.UpdatedAt,
	}
}

// fromSchedulerSession renders the packer's view of a session. Relevance is
// internal to ranking and is not exposed.
func fromSchedulerSession(s scheduler.Session) sessionDTO {
	speakers := make([]speakerDTO, 0, len(s.Speakers))
	for _, sp := range s.Speakers {
		speakers = append(speakers, speakerDTO{
			ID:        sp.ID,
			Name:      sp.Name,
			Role:      sp.Role,
			Company:   sp.Company,
			Expertise: nonNil(sp.Expertise),
		})
	}
	return sessionDTO{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Start:       s.Start,
		End:         s.End,
		Location:    s.Location,
		Track:       s.Track,
		Level:       s.Level,
		Tags:        nonNil(s.Tags),
		Speakers:    speakers,
	}
}

func toAgendaDTO(a application.Agenda) agendaDTO {
	days := make([]dayDTO, 0, len(a.Days))
	for _, day := range a.Days {
		entries := make([]entryDTO, 0, len(day.Entries))
		for _, e := range day.Entries {
			entry := entryDTO{
				Kind:    string(e.Kind),
				Start:   e.Start,
				End:     e.End,
				Label:   e.Label,
				Score:   e.Score,
				Reasons: e.Reasons,
			}
			if e.Session != nil {
				session := fromSchedulerSession(*e.Session)
				entry.Session = &session
			}
			entries = append(entries, entry)
		}
		var unresolved []unresolvedDTO
		for _, u := range day.Unresolved {
			conflicts := make([]sessionDTO, 0, len(u.ConflictsWith))
			for _, c := range u.ConflictsWith {
				conflicts = append(conflicts, fromSchedulerSession(c))
			}
			unresolved = append(unresolved, unresolvedDTO{
				Session:       fromSchedulerSession(u.Session),
				ConflictsWith: conflicts,
			})
		}
		days = append(days, dayDTO{
			Date:       day.Date,
			Start:      day.Day.Start,
			End:        day.Day.End,
			Entries:    entries,
			Unresolved: unresolved,
		})
	}

	warnings := make([]warningDTO, 0, len(a.Warnings))
	for _, w := range a.Warnings {
		warnings = append(warnings, warningDTO{Code: string(w.Code), SessionID: w.SessionID, Message: w.Message})
	}

	return agendaDTO{
		UserID:      a.UserID,
		GeneratedAt: a.GeneratedAt,
		Cached:      a.Cached,
		Days:        days,
		Warnings:    warnings,
		Insights: insightsDTO{
			FocusAreas:              nonNil(a.Insights.FocusAreas),
			Strategy:                a.Insights.Strategy,
			SessionsAnalyzed:        a.Insights.SessionsAnalyzed,
			InterestMatches:         a.Insights.InterestMatches,
			NetworkingOpportunities: a.Insights.NetworkingOpportunities,
			ExpertEncounters:        a.Insights.ExpertEncounters,
			ScheduledSessions:       a.Insights.ScheduledSessions,
			FavoritesPlaced:         a.Insights.FavoritesPlaced,
		},
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// AgendaResponse renders an agenda exactly as POST /api/v1/agenda does.
func AgendaResponse(a application.Agenda) any {
	return toAgendaDTO(a)
}
