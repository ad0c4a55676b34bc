package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/conference-agenda/internal/persistence"
)

const maxSearchLimit = 500

// CatalogReader exposes the catalog lookups needed by the services.
type CatalogReader interface {
	GetSession(ctx context.Context, id string) (persistence.Session, error)
	ListSessions(ctx context.Context, query persistence.SessionQuery) ([]persistence.Session, error)
	GetSpeaker(ctx context.Context, id string) (persistence.Speaker, error)
	ListSpeakers(ctx context.Context, query persistence.SpeakerQuery) ([]persistence.Speaker, error)
}

// CatalogService serves session and speaker lookups through the result cache.
type CatalogService struct {
	catalog CatalogReader
	cache   ResultCache
	ttl     time.Duration
	logger  *slog.Logger
}

// NewCatalogService wires dependencies for catalog lookups. cache may be nil.
func NewCatalogService(catalog CatalogReader, cache ResultCache, ttl time.Duration, logger *slog.Logger) *CatalogService {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CatalogService{catalog: catalog, cache: cache, ttl: ttl, logger: defaultLogger(logger)}
}

func (s *CatalogService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CatalogService", operation, attrs...)
}

// ListSessions returns the sessions matching the search ordered by start time.
func (s *CatalogService) ListSessions(ctx context.Context, search SessionSearch) ([]Session, error) {
	if s == nil {
		return nil, fmt.Errorf("CatalogService is nil")
	}
	search = normalizeSearch(search)
	if vErr := validateSearch(search); vErr.HasErrors() {
		return nil, vErr
	}

	logger := s.loggerWith(ctx, "ListSessions")
	key := cacheKey(catalogNamespace, "sessions", search)
	sessions, _, err := loadCached(ctx, s.cache, logger, catalogNamespace, key, s.ttl, func() ([]Session, error) {
		records, err := s.catalog.ListSessions(ctx, buildSessionQuery(search))
		if err != nil {
			return nil, err
		}
		return s.withSpeakers(ctx, records)
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to list sessions", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return sessions, nil
}

// GetSession returns one session with its speakers.
func (s *CatalogService) GetSession(ctx context.Context, id string) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("CatalogService is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		vErr := &ValidationError{}
		vErr.add("id", "is required")
		return Session{}, vErr
	}

	logger := s.loggerWith(ctx, "GetSession", "session_id", id)
	key := cacheKey(catalogNamespace, "session", id)
	session, _, err := loadCached(ctx, s.cache, logger, catalogNamespace, key, s.ttl, func() (Session, error) {
		record, err := s.catalog.GetSession(ctx, id)
		if err != nil {
			return Session{}, mapRepoError(err)
		}
		sessions, err := s.withSpeakers(ctx, []persistence.Session{record})
		if err != nil {
			return Session{}, err
		}
		return sessions[0], nil
	})
	if err != nil {
		if !isNotFoundError(err) {
			logger.ErrorContext(ctx, "failed to get session", "error", err, "error_kind", ErrorKind(err))
		}
		return Session{}, err
	}
	return session, nil
}

// ListSpeakers returns speakers whose name, company, role or expertise
// contains text. An empty text lists every speaker.
func (s *CatalogService) ListSpeakers(ctx context.Context, text string) ([]Speaker, error) {
	if s == nil {
		return nil, fmt.Errorf("CatalogService is nil")
	}
	text = strings.TrimSpace(text)
	logger := s.loggerWith(ctx, "ListSpeakers")
	key := cacheKey(catalogNamespace, "speakers", text)
	speakers, _, err := loadCached(ctx, s.cache, logger, catalogNamespace, key, s.ttl, func() ([]Speaker, error) {
		records, err := s.catalog.ListSpeakers(ctx, persistence.SpeakerQuery{Text: text})
		if err != nil {
			return nil, err
		}
		out := make([]Speaker, 0, len(records))
		for _, record := range records {
			out = append(out, toSpeaker(record))
		}
		return out, nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to list speakers", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return speakers, nil
}

// GetSpeaker returns a speaker together with the sessions they present.
func (s *CatalogService) GetSpeaker(ctx context.Context, id string) (SpeakerDetail, error) {
	if s == nil {
		return SpeakerDetail{}, fmt.Errorf("CatalogService is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		vErr := &ValidationError{}
		vErr.add("id", "is required")
		return SpeakerDetail{}, vErr
	}

	logger := s.loggerWith(ctx, "GetSpeaker", "speaker_id", id)
	key := cacheKey(catalogNamespace, "speaker", id)
	detail, _, err := loadCached(ctx, s.cache, logger, catalogNamespace, key, s.ttl, func() (SpeakerDetail, error) {
		record, err := s.catalog.GetSpeaker(ctx, id)
		if err != nil {
			return SpeakerDetail{}, mapRepoError(err)
		}
		records, err := s.catalog.ListSessions(ctx, persistence.SessionQuery{}.Where(persistence.SpeakerFilter{SpeakerID: id}))
		if err != nil {
			return SpeakerDetail{}, err
		}
		sessions, err := s.withSpeakers(ctx, records)
		if err != nil {
			return SpeakerDetail{}, err
		}
		return SpeakerDetail{Speaker: toSpeaker(record), Sessions: sessions}, nil
	})
	if err != nil {
		if !isNotFoundError(err) {
			logger.ErrorContext(ctx, "failed to get speaker", "error", err, "error_kind", ErrorKind(err))
		}
		return SpeakerDetail{}, err
	}
	return detail, nil
}

// InvalidateCatalog drops cached catalog lookups after the catalog changed.
func (s *CatalogService) InvalidateCatalog(ctx context.Context) {
	if s == nil {
		return
	}
	invalidateCached(ctx, s.cache, s.loggerWith(ctx, "InvalidateCatalog"), catalogNamespace+":")
}

func (s *CatalogService) withSpeakers(ctx context.Context, records []persistence.Session) ([]Session, error) {
	index, err := loadSpeakers(ctx, s.catalog, records)
	if err != nil {
		return nil, err
	}
	out := make([]Session, 0, len(records))
	for _, record := range records {
		out = append(out, toSession(record, index))
	}
	return out, nil
}

func loadSpeakers(ctx context.Context, catalog CatalogReader, records []persistence.Session) (map[string]persistence.Speaker, error) {
	ids := speakerIDsOf(records)
	if len(ids) == 0 {
		return map[string]persistence.Speaker{}, nil
	}
	speakers, err := catalog.ListSpeakers(ctx, persistence.SpeakerQuery{IDs: ids})
	if err != nil {
		return nil, err
	}
	return speakerIndex(speakers), nil
}

func normalizeSearch(search SessionSearch) SessionSearch {
	search.Text = strings.TrimSpace(search.Text)
	search.Track = strings.TrimSpace(search.Track)
	search.SpeakerID = strings.TrimSpace(search.SpeakerID)
	search.Tags = normalizeList(search.Tags)
	if !search.From.IsZero() {
		search.From = search.From.UTC()
	}
	if !search.To.IsZero() {
		search.To = search.To.UTC()
	}
	return search
}

func validateSearch(search SessionSearch) *ValidationError {
	vErr := &ValidationError{}
	if !search.From.IsZero() && !search.To.IsZero() && !search.From.Before(search.To) {
		vErr.add("to", "must be after from")
	}
	if search.Limit < 0 || search.Limit > maxSearchLimit {
		vErr.add("limit", fmt.Sprintf("must be between 0 and %d", maxSearchLimit))
	}
	if search.Offset < 0 {
		vErr.add("offset", "must not be negative")
	}
	return vErr
}

func buildSessionQuery(search SessionSearch) persistence.SessionQuery {
	query := persistence.SessionQuery{Limit: search.Limit, Offset: search.Offset}
	if search.Text != "" {
		query = query.Where(persistence.TextFilter{Text: search.Text})
	}
	if len(search.Tags) > 0 {
		query = query.Where(persistence.TagFilter{Tags: search.Tags})
	}
	if search.Track != "" {
		query = query.Where(persistence.TrackFilter{Track: search.Track})
	}
	if !search.From.IsZero() || !search.To.IsZero() {
		query = query.Where(persistence.TimeRangeFilter{From: search.From, To: search.To})
	}
	if search.SpeakerID != "" {
		query = query.Where(persistence.SpeakerFilter{SpeakerID: search.SpeakerID})
	}
	return query
}
