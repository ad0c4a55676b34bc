package sqlstore

import (
	"context"
	"fmt"

	"github.com/example/conference-agenda/internal/persistence"
)

// GetProfile retrieves a user's profile.
func (s *Store) GetProfile(ctx context.Context, userID string) (persistence.Profile, error) {
	var profile persistence.Profile
	var interests, goals, updated string
	err := s.queryRow(ctx,
		`SELECT user_id, interests, goals, role, company, updated_at FROM profiles WHERE user_id = ?`, userID,
	).Scan(&profile.UserID, &interests, &goals, &profile.Role, &profile.Company, &updated)
	if err != nil {
		return persistence.Profile{}, mapError(err)
	}

	profile.Interests = splitList(interests)
	profile.Goals = splitList(goals)
	if profile.UpdatedAt, err = parseTime("updated_at", updated); err != nil {
		return persistence.Profile{}, err
	}
	return profile, nil
}

// SaveProfile inserts or replaces a user's profile.
func (s *Store) SaveProfile(ctx context.Context, profile persistence.Profile) error {
	if profile.UserID == "" {
		return fmt.Errorf("sqlstore: profile user id is required")
	}
	updated := profile.UpdatedAt
	if updated.IsZero() {
		updated = s.now().UTC()
	}

	query := `INSERT INTO profiles (user_id, interests, goals, role, company, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
  interests = excluded.interests,
  goals = excluded.goals,
  role = excluded.role,
  company = excluded.company,
  updated_at = excluded.updated_at`

	return s.withRetry(ctx, func() error {
		_, err := s.exec(ctx, query,
			profile.UserID,
			joinList(profile.Interests),
			joinList(profile.Goals),
			profile.Role,
			profile.Company,
			formatTime(updated),
		)
		return mapError(err)
	})
}
