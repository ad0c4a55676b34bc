package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/conference-agenda/internal/persistence"
)

const (
	maxProfileEntries  = 20
	maxProfileEntryLen = 100
	maxProfileFieldLen = 200
)

// ProfileRepository captures the persistence operations needed by the profile service.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (persistence.Profile, error)
	SaveProfile(ctx context.Context, profile persistence.Profile) error
}

// ProfileService reads and updates attendee preferences.
type ProfileService struct {
	profiles ProfileRepository
	cache    ResultCache
	now      func() time.Time
	logger   *slog.Logger
}

// NewProfileService wires dependencies for the profile service.
func NewProfileService(profiles ProfileRepository, cache ResultCache, now func() time.Time, logger *slog.Logger) *ProfileService {
	if now == nil {
		now = time.Now
	}
	return &ProfileService{profiles: profiles, cache: cache, now: now, logger: defaultLogger(logger)}
}

func (s *ProfileService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ProfileService", operation, attrs...)
}

// Get returns the principal's profile. A user without a stored profile gets an
// empty one.
func (s *ProfileService) Get(ctx context.Context, principal Principal) (Profile, error) {
	if s == nil {
		return Profile{}, fmt.Errorf("ProfileService is nil")
	}
	if principal.UserID == "" {
		return Profile{}, ErrUnauthorized
	}
	record, err := s.profiles.GetProfile(ctx, principal.UserID)
	if err != nil {
		if isNotFoundError(err) {
			return Profile{UserID: principal.UserID}, nil
		}
		return Profile{}, err
	}
	return toProfile(record), nil
}

// Update validates and stores the principal's profile, then drops the cached
// agenda so the next generation reflects it.
func (s *ProfileService) Update(ctx context.Context, principal Principal, input ProfileInput) (profile Profile, err error) {
	if s == nil {
		err = fmt.Errorf("ProfileService is nil")
		return
	}
	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	logger := s.loggerWith(ctx, "Update", "user_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update profile", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "profile updated", "interests", len(profile.Interests), "goals", len(profile.Goals))
	}()

	normalized := normalizeProfileInput(input)
	if vErr := validateProfileInput(normalized); vErr.HasErrors() {
		err = vErr
		return
	}

	record := persistence.Profile{
		UserID:    principal.UserID,
		Interests: normalized.Interests,
		Goals:     normalized.Goals,
		Role:      normalized.Role,
		Company:   normalized.Company,
		UpdatedAt: s.now().UTC(),
	}
	if err = s.profiles.SaveProfile(ctx, record); err != nil {
		err = mapRepoError(err)
		return
	}

	invalidateCached(ctx, s.cache, logger, scopePrefix(agendaNamespace, principal.UserID))
	profile = toProfile(record)
	return
}

func normalizeProfileInput(input ProfileInput) ProfileInput {
	return ProfileInput{
		Interests: normalizeList(input.Interests),
		Goals:     normalizeList(input.Goals),
		Role:      strings.TrimSpace(input.Role),
		Company:   strings.TrimSpace(input.Company),
	}
}

func validateProfileInput(input ProfileInput) *ValidationError {
	vErr := &ValidationError{}
	validateEntries(vErr, "interests", input.Interests)
	validateEntries(vErr, "goals", input.Goals)
	if len(input.Role) > maxProfileFieldLen {
		vErr.add("role", fmt.Sprintf("must be at most %d characters", maxProfileFieldLen))
	}
	if len(input.Company) > maxProfileFieldLen {
		vErr.add("company", fmt.Sprintf("must be at most %d characters", maxProfileFieldLen))
	}
	return vErr
}

func validateEntries(vErr *ValidationError, field string, entries []string) {
	if len(entries) > maxProfileEntries {
		vErr.add(field, fmt.Sprintf("must contain at most %d entries", maxProfileEntries))
		return
	}
	for _, entry := range entries {
		if len(entry) > maxProfileEntryLen {
			vErr.add(field, fmt.Sprintf("entries must be at most %d characters", maxProfileEntryLen))
			return
		}
	}
}

// normalizeList trims entries, drops blanks and removes case-insensitive
// duplicates while keeping the first spelling and order.
func normalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.Join(strings.Fields(value), " ")
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
