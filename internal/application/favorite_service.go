package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/conference-agenda/internal/persistence"
	"github.com/example/conference-agenda/internal/scheduler"
)

// FavoriteRepository captures the persistence operations needed by the favorite service.
type FavoriteRepository interface {
	AddFavorite(ctx context.Context, favorite persistence.Favorite) error
	RemoveFavorite(ctx context.Context, userID, sessionID string) error
	ListFavorites(ctx context.Context, userID string) ([]persistence.Favorite, error)
}

// FavoriteService manages the sessions an attendee committed to.
type FavoriteService struct {
	favorites FavoriteRepository
	catalog   CatalogReader
	cache     ResultCache
	now       func() time.Time
	logger    *slog.Logger
}

// NewFavoriteService wires dependencies for the favorite service.
func NewFavoriteService(favorites FavoriteRepository, catalog CatalogReader, cache ResultCache, now func() time.Time, logger *slog.Logger) *FavoriteService {
	if now == nil {
		now = time.Now
	}
	return &FavoriteService{favorites: favorites, catalog: catalog, cache: cache, now: now, logger: defaultLogger(logger)}
}

func (s *FavoriteService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FavoriteService", operation, attrs...)
}

// List returns the principal's favorites ordered by start time. Favorites
// whose session left the catalog are flagged Missing.
func (s *FavoriteService) List(ctx context.Context, principal Principal) ([]Favorite, error) {
	if s == nil {
		return nil, fmt.Errorf("FavoriteService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	favorites, _, err := s.resolve(ctx, principal.UserID)
	if err != nil {
		s.loggerWith(ctx, "List", "user_id", principal.UserID).
			ErrorContext(ctx, "failed to list favorites", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return favorites, nil
}

// Add saves a session as favorite. Overlaps with existing favorites are
// refused with a *ConflictError unless AllowConflicts is set. Adding an
// existing favorite is a no-op.
func (s *FavoriteService) Add(ctx context.Context, params AddFavoriteParams) (favorite Favorite, report ConflictReport, err error) {
	if s == nil {
		err = fmt.Errorf("FavoriteService is nil")
		return
	}
	userID := params.Principal.UserID
	if userID == "" {
		err = ErrUnauthorized
		return
	}
	sessionID := strings.TrimSpace(params.SessionID)
	if sessionID == "" {
		vErr := &ValidationError{}
		vErr.add("session_id", "is required")
		err = vErr
		return
	}

	logger := s.loggerWith(ctx, "Add",
		"user_id", userID,
		"session_id", sessionID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add favorite", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "favorite added", "conflicts", len(report.Conflicts))
	}()

	record, err := s.catalog.GetSession(ctx, sessionID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	index, err := loadSpeakers(ctx, s.catalog, []persistence.Session{record})
	if err != nil {
		return
	}
	session := toSession(record, index)

	existing, committed, err := s.resolve(ctx, userID)
	if err != nil {
		return
	}
	for _, fav := range existing {
		if fav.SessionID == sessionID {
			favorite = fav
			report = ConflictReport{SessionID: sessionID}
			return
		}
	}

	report = conflictReport(session, committed)
	if report.HasConflicts && !params.AllowConflicts {
		err = &ConflictError{SessionID: sessionID, Conflicts: report.Conflicts}
		return
	}

	addedAt := s.now().UTC()
	err = s.favorites.AddFavorite(ctx, persistence.Favorite{
		UserID:    userID,
		SessionID: sessionID,
		Title:     session.Title,
		Start:     session.Start,
		End:       session.End,
		CreatedAt: addedAt,
	})
	if err != nil && !errors.Is(err, persistence.ErrDuplicate) {
		err = mapRepoError(err)
		return
	}
	err = nil

	invalidateCached(ctx, s.cache, logger, scopePrefix(agendaNamespace, userID))
	favorite = Favorite{
		SessionID: sessionID,
		Title:     session.Title,
		Start:     session.Start,
		End:       session.End,
		AddedAt:   addedAt,
		Session:   &session,
	}
	return
}

// Remove deletes a favorite.
func (s *FavoriteService) Remove(ctx context.Context, principal Principal, sessionID string) (err error) {
	if s == nil {
		return fmt.Errorf("FavoriteService is nil")
	}
	if principal.UserID == "" {
		return ErrUnauthorized
	}
	sessionID = strings.TrimSpace(sessionID)

	logger := s.loggerWith(ctx, "Remove",
		"user_id", principal.UserID,
		"session_id", sessionID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to remove favorite", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "favorite removed")
	}()

	if err = s.favorites.RemoveFavorite(ctx, principal.UserID, sessionID); err != nil {
		err = mapRepoError(err)
		return
	}
	invalidateCached(ctx, s.cache, logger, scopePrefix(agendaNamespace, principal.UserID))
	return nil
}

// CheckConflicts reports the favorites overlapping the session without
// changing anything.
func (s *FavoriteService) CheckConflicts(ctx context.Context, principal Principal, sessionID string) (ConflictReport, error) {
	if s == nil {
		return ConflictReport{}, fmt.Errorf("FavoriteService is nil")
	}
	if principal.UserID == "" {
		return ConflictReport{}, ErrUnauthorized
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		vErr := &ValidationError{}
		vErr.add("session_id", "is required")
		return ConflictReport{}, vErr
	}

	record, err := s.catalog.GetSession(ctx, sessionID)
	if err != nil {
		return ConflictReport{}, mapRepoError(err)
	}
	_, committed, err := s.resolve(ctx, principal.UserID)
	if err != nil {
		return ConflictReport{}, err
	}
	return conflictReport(toSession(record, nil), committed), nil
}

// resolve joins stored favorites with the live catalog. committed holds the
// time blocks used for conflict checks.
func (s *FavoriteService) resolve(ctx context.Context, userID string) ([]Favorite, []Session, error) {
	records, err := s.favorites.ListFavorites(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	live, err := liveSessions(ctx, s.catalog, records)
	if err != nil {
		return nil, nil, err
	}

	favorites := make([]Favorite, 0, len(records))
	committed := make([]Session, 0, len(records))
	for _, record := range records {
		favorite := Favorite{
			SessionID: record.SessionID,
			Title:     record.Title,
			Start:     record.Start,
			End:       record.End,
			AddedAt:   record.CreatedAt,
		}
		if session, ok := live[record.SessionID]; ok {
			favorite.Title = session.Title
			favorite.Start = session.Start
			favorite.End = session.End
			favorite.Session = &session
			committed = append(committed, session)
		} else {
			favorite.Missing = true
			committed = append(committed, snapshotSession(record))
		}
		favorites = append(favorites, favorite)
	}
	return favorites, committed, nil
}

func liveSessions(ctx context.Context, catalog CatalogReader, favorites []persistence.Favorite) (map[string]Session, error) {
	ids := make([]string, 0, len(favorites))
	for _, favorite := range favorites {
		ids = append(ids, favorite.SessionID)
	}
	records, err := catalog.ListSessions(ctx, persistence.SessionQuery{}.Where(persistence.IDFilter{IDs: ids}))
	if err != nil {
		return nil, err
	}
	index, err := loadSpeakers(ctx, catalog, records)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Session, len(records))
	for _, record := range records {
		out[record.ID] = toSession(record, index)
	}
	return out, nil
}

func conflictReport(session Session, committed []Session) ConflictReport {
	blocks := make([]scheduler.Session, 0, len(committed))
	for _, c := range committed {
		blocks = append(blocks, toSchedulerSession(c))
	}
	result := scheduler.CheckConflicts(toSchedulerSession(session), blocks)
	report := ConflictReport{SessionID: session.ID, HasConflicts: result.HasConflicts, TotalConflicts: result.TotalConflicts}
	for _, conflict := range result.Conflicts {
		report.Conflicts = append(report.Conflicts, fromSchedulerSession(conflict))
	}
	return report
}
