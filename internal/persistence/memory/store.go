// Package memory provides a concurrency-safe in-memory implementation of the
// persistence repositories, used by tests and offline runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/conference-agenda/internal/persistence"
)

// Store keeps catalog, favorite and profile data in maps guarded by a RWMutex.
type Store struct {
	mu        sync.RWMutex
	now       func() time.Time
	sessions  map[string]persistence.Session
	speakers  map[string]persistence.Speaker
	links     map[string][]string
	favorites map[string]map[string]persistence.Favorite
	profiles  map[string]persistence.Profile
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		now:       time.Now,
		sessions:  make(map[string]persistence.Session),
		speakers:  make(map[string]persistence.Speaker),
		links:     make(map[string][]string),
		favorites: make(map[string]map[string]persistence.Favorite),
		profiles:  make(map[string]persistence.Profile),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases resources held by the store. No-op for the in-memory implementation.
func (s *Store) Close() error {
	return nil
}

// --- CatalogRepository implementation ---

// UpsertSession inserts or replaces a session. Speaker links are managed by
// LinkSpeakers.
func (s *Store) UpsertSession(ctx context.Context, session persistence.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if existing, ok := s.sessions[session.ID]; ok && !existing.CreatedAt.IsZero() {
		session.CreatedAt = existing.CreatedAt
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	session.SpeakerIDs = nil

	s.sessions[session.ID] = cloneSession(session)
	return nil
}

// UpsertSpeaker inserts or replaces a speaker.
func (s *Store) UpsertSpeaker(ctx context.Context, speaker persistence.Speaker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if existing, ok := s.speakers[speaker.ID]; ok && !existing.CreatedAt.IsZero() {
		speaker.CreatedAt = existing.CreatedAt
	}
	if speaker.CreatedAt.IsZero() {
		speaker.CreatedAt = now
	}
	speaker.UpdatedAt = now

	s.speakers[speaker.ID] = cloneSpeaker(speaker)
	return nil
}

// LinkSpeakers replaces the ordered speakers of a session.
func (s *Store) LinkSpeakers(ctx context.Context, sessionID string, speakerIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return persistence.ErrNotFound
	}
	ids := uniqueStrings(speakerIDs)
	for _, id := range ids {
		if _, ok := s.speakers[id]; !ok {
			return persistence.ErrNotFound
		}
	}
	if len(ids) == 0 {
		delete(s.links, sessionID)
		return nil
	}
	s.links[sessionID] = ids
	return nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return s.withSpeakersLocked(session), nil
}

// ListSessions returns the sessions matching the query ordered by start then ID.
func (s *Store) ListSessions(ctx context.Context, query persistence.SessionQuery) ([]persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]persistence.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		candidate := s.withSpeakersLocked(session)
		if query.Matches(candidate) {
			sessions = append(sessions, candidate)
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Start.Equal(sessions[j].Start) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].Start.Before(sessions[j].Start)
	})

	return paginate(sessions, query.Offset, query.Limit), nil
}

// GetSpeaker retrieves a speaker by ID.
func (s *Store) GetSpeaker(ctx context.Context, id string) (persistence.Speaker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	speaker, ok := s.speakers[id]
	if !ok {
		return persistence.Speaker{}, persistence.ErrNotFound
	}
	return cloneSpeaker(speaker), nil
}

// ListSpeakers returns the speakers matching the query ordered by name then ID.
func (s *Store) ListSpeakers(ctx context.Context, query persistence.SpeakerQuery) ([]persistence.Speaker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	speakers := make([]persistence.Speaker, 0, len(s.speakers))
	for _, speaker := range s.speakers {
		if query.Matches(speaker) {
			speakers = append(speakers, cloneSpeaker(speaker))
		}
	}

	sort.Slice(speakers, func(i, j int) bool {
		left, right := strings.ToLower(speakers[i].Name), strings.ToLower(speakers[j].Name)
		if left == right {
			return speakers[i].ID < speakers[j].ID
		}
		return left < right
	})
	return speakers, nil
}

// ListSessionSpeakers returns every link ordered by session then position.
func (s *Store) ListSessionSpeakers(ctx context.Context) ([]persistence.SessionSpeaker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	links := make([]persistence.SessionSpeaker, 0)
	for sessionID, speakerIDs := range s.links {
		for position, speakerID := range speakerIDs {
			links = append(links, persistence.SessionSpeaker{SessionID: sessionID, SpeakerID: speakerID, Position: position})
		}
	}

	sort.Slice(links, func(i, j int) bool {
		if links[i].SessionID == links[j].SessionID {
			return links[i].Position < links[j].Position
		}
		return links[i].SessionID < links[j].SessionID
	})
	return links, nil
}

func (s *Store) withSpeakersLocked(session persistence.Session) persistence.Session {
	clone := cloneSession(session)
	if ids := s.links[session.ID]; len(ids) > 0 {
		clone.SpeakerIDs = append([]string(nil), ids...)
	}
	return clone
}

// --- FavoriteRepository implementation ---

// AddFavorite stores a favorite for a user.
func (s *Store) AddFavorite(ctx context.Context, favorite persistence.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userFavorites, ok := s.favorites[favorite.UserID]
	if !ok {
		userFavorites = make(map[string]persistence.Favorite)
		s.favorites[favorite.UserID] = userFavorites
	}
	if _, exists := userFavorites[favorite.SessionID]; exists {
		return persistence.ErrDuplicate
	}
	if favorite.CreatedAt.IsZero() {
		favorite.CreatedAt = s.now().UTC()
	}
	userFavorites[favorite.SessionID] = favorite
	return nil
}

// RemoveFavorite deletes a user's favorite.
func (s *Store) RemoveFavorite(ctx context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userFavorites, ok := s.favorites[userID]
	if !ok {
		return persistence.ErrNotFound
	}
	if _, exists := userFavorites[sessionID]; !exists {
		return persistence.ErrNotFound
	}
	delete(userFavorites, sessionID)
	if len(userFavorites) == 0 {
		delete(s.favorites, userID)
	}
	return nil
}

// ListFavorites returns a user's favorites ordered by start then session ID.
func (s *Store) ListFavorites(ctx context.Context, userID string) ([]persistence.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	favorites := make([]persistence.Favorite, 0, len(s.favorites[userID]))
	for _, favorite := range s.favorites[userID] {
		favorites = append(favorites, favorite)
	}

	sort.Slice(favorites, func(i, j int) bool {
		if favorites[i].Start.Equal(favorites[j].Start) {
			return favorites[i].SessionID < favorites[j].SessionID
		}
		return favorites[i].Start.Before(favorites[j].Start)
	})
	return favorites, nil
}

// --- ProfileRepository implementation ---

// GetProfile retrieves a user's profile.
func (s *Store) GetProfile(ctx context.Context, userID string) (persistence.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return persistence.Profile{}, persistence.ErrNotFound
	}
	return cloneProfile(profile), nil
}

// SaveProfile inserts or replaces a user's profile.
func (s *Store) SaveProfile(ctx context.Context, profile persistence.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = s.now().UTC()
	}
	s.profiles[profile.UserID] = cloneProfile(profile)
	return nil
}

func cloneSession(session persistence.Session) persistence.Session {
	clone := session
	clone.Tags = append([]string(nil), session.Tags...)
	clone.SpeakerIDs = append([]string(nil), session.SpeakerIDs...)
	return clone
}

func cloneSpeaker(speaker persistence.Speaker) persistence.Speaker {
	clone := speaker
	clone.Expertise = append([]string(nil), speaker.Expertise...)
	return clone
}

func cloneProfile(profile persistence.Profile) persistence.Profile {
	clone := profile
	clone.Interests = append([]string(nil), profile.Interests...)
	clone.Goals = append([]string(nil), profile.Goals...)
	return clone
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var (
	_ persistence.CatalogRepository  = (*Store)(nil)
	_ persistence.FavoriteRepository = (*Store)(nil)
	_ persistence.ProfileRepository  = (*Store)(nil)
)
