package persistence

import "context"

// CatalogRepository stores sessions, speakers and their links.
type CatalogRepository interface {
	UpsertSession(ctx context.Context, session Session) error
	UpsertSpeaker(ctx context.Context, speaker Speaker) error
	// LinkSpeakers replaces the ordered speaker list of a session.
	LinkSpeakers(ctx context.Context, sessionID string, speakerIDs []string) error
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context, query SessionQuery) ([]Session, error)
	GetSpeaker(ctx context.Context, id string) (Speaker, error)
	ListSpeakers(ctx context.Context, query SpeakerQuery) ([]Speaker, error)
	ListSessionSpeakers(ctx context.Context) ([]SessionSpeaker, error)
}

// FavoriteRepository stores attendee favorites.
type FavoriteRepository interface {
	AddFavorite(ctx context.Context, favorite Favorite) error
	RemoveFavorite(ctx context.Context, userID, sessionID string) error
	// ListFavorites returns favorites ordered by start time then session ID.
	ListFavorites(ctx context.Context, userID string) ([]Favorite, error)
}

// ProfileRepository stores attendee profiles.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (Profile, error)
	SaveProfile(ctx context.Context, profile Profile) error
}
