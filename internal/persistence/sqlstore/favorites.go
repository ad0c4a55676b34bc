package sqlstore

import (
	"context"
	"fmt"

	"github.com/example/conference-agenda/internal/persistence"
)

// AddFavorite stores a favorite. A second insert for the same user and
// session fails with persistence.ErrDuplicate.
func (s *Store) AddFavorite(ctx context.Context, favorite persistence.Favorite) error {
	if favorite.UserID == "" || favorite.SessionID == "" {
		return fmt.Errorf("sqlstore: favorite requires user and session ids")
	}
	created := favorite.CreatedAt
	if created.IsZero() {
		created = s.now().UTC()
	}

	return s.withRetry(ctx, func() error {
		_, err := s.exec(ctx,
			`INSERT INTO favorites (user_id, session_id, title, start_time, end_time, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			favorite.UserID,
			favorite.SessionID,
			favorite.Title,
			formatTime(favorite.Start),
			formatTime(favorite.End),
			formatTime(created),
		)
		return mapError(err)
	})
}

// RemoveFavorite deletes a favorite.
func (s *Store) RemoveFavorite(ctx context.Context, userID, sessionID string) error {
	return s.withRetry(ctx, func() error {
		result, err := s.exec(ctx, `DELETE FROM favorites WHERE user_id = ? AND session_id = ?`, userID, sessionID)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlstore: rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// ListFavorites returns a user's favorites ordered by start then session ID.
func (s *Store) ListFavorites(ctx context.Context, userID string) ([]persistence.Favorite, error) {
	rows, err := s.query(ctx,
		`SELECT user_id, session_id, title, start_time, end_time, created_at FROM favorites WHERE user_id = ? ORDER BY start_time, session_id`,
		userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var favorites []persistence.Favorite
	for rows.Next() {
		var favorite persistence.Favorite
		var start, end, created string
		if err := rows.Scan(&favorite.UserID, &favorite.SessionID, &favorite.Title, &start, &end, &created); err != nil {
			return nil, mapError(err)
		}
		if favorite.Start, err = parseTime("start_time", start); err != nil {
			return nil, err
		}
		if favorite.End, err = parseTime("end_time", end); err != nil {
			return nil, err
		}
		if favorite.CreatedAt, err = parseTime("created_at", created); err != nil {
			return nil, err
		}
		favorites = append(favorites, favorite)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return favorites, nil
}
