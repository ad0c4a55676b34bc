package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/conference-agenda/internal/calendar"
	"github.com/example/conference-agenda/internal/metrics"
	"github.com/example/conference-agenda/internal/persistence"
	"github.com/example/conference-agenda/internal/scheduler"
)

// RelevanceProvider supplies precomputed semantic match scores in [0,1] keyed
// by session ID. Sessions absent from the result carry no semantic signal.
type RelevanceProvider interface {
	Scores(ctx context.Context, profile scheduler.UserProfile, sessionIDs []string) (map[string]float64, error)
}

// AgendaService builds personalised agendas from the catalog, the attendee's
// profile and favorites.
type AgendaService struct {
	catalog   CatalogReader
	favorites FavoriteRepository
	profiles  ProfileRepository
	relevance RelevanceProvider
	cache     ResultCache
	config    AgendaConfig
	now       func() time.Time
	logger    *slog.Logger
}

// AgendaServiceDeps groups the collaborators of an AgendaService. Relevance
// and Cache are optional.
type AgendaServiceDeps struct {
	Catalog   CatalogReader
	Favorites FavoriteRepository
	Profiles  ProfileRepository
	Relevance RelevanceProvider
	Cache     ResultCache
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewAgendaService wires dependencies for agenda generation.
func NewAgendaService(deps AgendaServiceDeps, config AgendaConfig) *AgendaService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaultCacheTTL
	}
	return &AgendaService{
		catalog:   deps.Catalog,
		favorites: deps.Favorites,
		profiles:  deps.Profiles,
		relevance: deps.Relevance,
		cache:     deps.Cache,
		config:    config,
		now:       now,
		logger:    defaultLogger(deps.Logger),
	}
}

func (s *AgendaService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AgendaService", operation, attrs...)
}

// agendaRequest is the cache identity of a generation.
type agendaRequest struct {
	IncludePast      bool
	ExcludeFavorited bool
	MaxPerDay        int
	Days             []scheduler.DateRange
}

// Generate ranks the catalog against the principal's profile, packs the
// result around their favorites and explains the outcome. Results are cached
// per user until the profile or favorites change.
func (s *AgendaService) Generate(ctx context.Context, params GenerateAgendaParams) (agenda Agenda, err error) {
	if s == nil {
		err = fmt.Errorf("AgendaService is nil")
		return
	}
	userID := params.Principal.UserID
	if userID == "" {
		err = ErrUnauthorized
		return
	}

	request, vErr := s.resolveOptions(params.Options)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "Generate", "user_id", userID)
	defer func() {
		if err != nil {
			metrics.ObserveAgenda("error", 0, 0)
			logger.ErrorContext(ctx, "failed to generate agenda", "error", err, "error_kind", ErrorKind(err))
			return
		}
		outcome := "ok"
		if agenda.Cached {
			outcome = "cached"
		}
		metrics.ObserveAgenda(outcome, time.Since(started), agenda.Insights.ScheduledSessions)
		logger.InfoContext(ctx, "agenda generated",
			"cached", agenda.Cached,
			"days", len(agenda.Days),
			"scheduled", agenda.Insights.ScheduledSessions,
			"warnings", len(agenda.Warnings),
		)
	}()

	key := cacheKey(agendaNamespace, userID, request)
	if params.SkipCache {
		agenda, err = s.build(ctx, userID, request)
		if err == nil {
			storeCached(ctx, s.cache, logger, key, s.config.CacheTTL, agenda)
		}
		return
	}

	var hit bool
	agenda, hit, err = loadCached(ctx, s.cache, logger, agendaNamespace, key, s.config.CacheTTL, func() (Agenda, error) {
		return s.build(ctx, userID, request)
	})
	agenda.Cached = hit
	return
}

// InvalidateAll drops every cached agenda, for example after a catalog import.
func (s *AgendaService) InvalidateAll(ctx context.Context) {
	if s == nil {
		return
	}
	invalidateCached(ctx, s.cache, s.loggerWith(ctx, "InvalidateAll"), agendaNamespace+":")
}

func (s *AgendaService) resolveOptions(options AgendaOptions) (agendaRequest, *ValidationError) {
	vErr := &ValidationError{}
	request := agendaRequest{
		IncludePast:      s.config.IncludePast,
		ExcludeFavorited: options.ExcludeFavorited,
		MaxPerDay:        s.config.Pack.MaxPerDay,
		Days:             s.config.Days,
	}
	if options.IncludePast != nil {
		request.IncludePast = *options.IncludePast
	}
	if options.MaxPerDay != nil {
		if *options.MaxPerDay < 0 {
			vErr.add("max_per_day", "must not be negative")
		}
		request.MaxPerDay = *options.MaxPerDay
	}
	if len(options.Days) > 0 {
		for _, day := range options.Days {
			if !day.Valid() {
				vErr.add("days", "each day must end after it starts")
				break
			}
		}
		request.Days = options.Days
	}
	return request, vErr
}

func (s *AgendaService) build(ctx context.Context, userID string, request agendaRequest) (Agenda, error) {
	if err := ctx.Err(); err != nil {
		return Agenda{}, err
	}

	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return Agenda{}, err
	}
	favoriteRecords, err := s.favorites.ListFavorites(ctx, userID)
	if err != nil {
		return Agenda{}, fmt.Errorf("list favorites: %w", err)
	}

	records, err := s.catalog.ListSessions(ctx, persistence.SessionQuery{})
	if err != nil {
		return Agenda{}, fmt.Errorf("list sessions: %w", err)
	}
	index, err := loadSpeakers(ctx, s.catalog, records)
	if err != nil {
		return Agenda{}, fmt.Errorf("list speakers: %w", err)
	}
	catalog := make([]scheduler.Session, 0, len(records))
	byID := make(map[string]int, len(records))
	for _, record := range records {
		byID[record.ID] = len(catalog)
		catalog = append(catalog, toSchedulerSession(toSession(record, index)))
	}

	for _, favorite := range favoriteRecords {
		profile.FavoriteIDs = append(profile.FavoriteIDs, favorite.SessionID)
	}

	var warnings []scheduler.Warning
	warnings = append(warnings, s.applyRelevance(ctx, profile, catalog)...)

	favorites, favoriteWarnings := resolveFavorites(favoriteRecords, catalog, byID)
	warnings = append(warnings, favoriteWarnings...)

	if err := ctx.Err(); err != nil {
		return Agenda{}, err
	}

	candidates, err := scheduler.Rank(catalog, profile, scheduler.RankOptions{
		IncludePast:      request.IncludePast,
		ExcludeFavorited: request.ExcludeFavorited,
		Now:              s.now(),
		Weights:          s.config.Weights,
	})
	if err != nil {
		return Agenda{}, wrapSchedulerError(err)
	}

	days := request.Days
	if len(days) == 0 {
		days = calendar.DaysCovering(append(append([]scheduler.Session(nil), catalog...), favorites...), s.config.Location)
	}
	packOptions := s.config.Pack
	packOptions.MaxPerDay = request.MaxPerDay
	plan, err := scheduler.Pack(candidates, favorites, days, packOptions)
	if err != nil {
		return Agenda{}, wrapSchedulerError(err)
	}

	if err := ctx.Err(); err != nil {
		return Agenda{}, err
	}

	return Agenda{
		UserID:      userID,
		GeneratedAt: s.now().UTC(),
		Days:        plan.Days,
		Warnings:    append(warnings, plan.Warnings...),
		Insights:    scheduler.Summarize(plan.Days, profile, len(catalog)),
	}, nil
}

func (s *AgendaService) loadProfile(ctx context.Context, userID string) (scheduler.UserProfile, error) {
	profile := scheduler.UserProfile{ID: userID}
	if s.profiles == nil {
		return profile, nil
	}
	record, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if isNotFoundError(err) {
			return profile, nil
		}
		return profile, fmt.Errorf("get profile: %w", err)
	}
	profile.Interests = record.Interests
	profile.Goals = record.Goals
	profile.Role = record.Role
	profile.Company = record.Company
	return profile, nil
}

// applyRelevance attaches semantic scores to catalog sessions in place. A
// failing provider degrades to tag-only scoring with a warning.
func (s *AgendaService) applyRelevance(ctx context.Context, profile scheduler.UserProfile, catalog []scheduler.Session) []scheduler.Warning {
	if s.relevance == nil || len(catalog) == 0 {
		return nil
	}
	ids := make([]string, 0, len(catalog))
	for _, session := range catalog {
		ids = append(ids, session.ID)
	}
	scores, err := s.relevance.Scores(ctx, profile, ids)
	if err != nil {
		s.loggerWith(ctx, "Generate", "user_id", profile.ID).
			WarnContext(ctx, "relevance provider unavailable, using tag overlap only", "error", err)
		return []scheduler.Warning{{
			Code:    scheduler.WarningRelevanceUnavailable,
			Message: "Semantic relevance is unavailable; ranking uses tag overlap only",
		}}
	}
	for i := range catalog {
		if score, ok := scores[catalog[i].ID]; ok {
			catalog[i].Relevance = &score
		}
	}
	return nil
}

// resolveFavorites maps stored favorites onto catalog sessions. A favorite
// whose session left the catalog is kept as an opaque block from its saved
// snapshot, or skipped when the snapshot has no usable times.
func resolveFavorites(records []persistence.Favorite, catalog []scheduler.Session, byID map[string]int) ([]scheduler.Session, []scheduler.Warning) {
	var favorites []scheduler.Session
	var warnings []scheduler.Warning
	for _, record := range records {
		if i, ok := byID[record.SessionID]; ok {
			favorites = append(favorites, catalog[i])
			continue
		}
		snapshot := snapshotSession(record)
		if snapshot.Start.IsZero() || !snapshot.Start.Before(snapshot.End) {
			warnings = append(warnings, scheduler.Warning{
				Code:      scheduler.WarningFavoriteMissing,
				SessionID: record.SessionID,
				Message:   "Favorite is no longer in the catalog and was skipped",
			})
			continue
		}
		warnings = append(warnings, scheduler.Warning{
			Code:      scheduler.WarningFavoriteMissing,
			SessionID: record.SessionID,
			Message:   "Favorite is no longer in the catalog; its saved time slot is kept",
		})
		favorites = append(favorites, toSchedulerSession(snapshot))
	}
	return favorites, warnings
}

func wrapSchedulerError(err error) error {
	if errors.Is(err, scheduler.ErrInvalidInput) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
