package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/conference-agenda/internal/persistence"
	"github.com/example/conference-agenda/internal/persistence/memory"
	"github.com/example/conference-agenda/internal/persistence/sqlstore"
)

// Repositories is the union of the persistence repositories.
type Repositories interface {
	persistence.CatalogRepository
	persistence.FavoriteRepository
	persistence.ProfileRepository
}

// Harness seeds a repository set with fixtures for service and handler tests.
type Harness struct {
	Store Repositories
	Clock *Clock
}

// NewMemoryHarness returns a harness backed by the in-memory store.
func NewMemoryHarness(tb testing.TB) *Harness {
	tb.Helper()
	clock := NewClock(ReferenceTime())
	return &Harness{Store: memory.New(memory.WithClock(clock.NowFunc())), Clock: clock}
}

// NewSQLiteHarness returns a harness backed by a migrated SQLite database in a
// temporary directory. The database is closed when the test finishes.
func NewSQLiteHarness(tb testing.TB) *Harness {
	tb.Helper()

	clock := NewClock(ReferenceTime())
	path := filepath.Join(tb.TempDir(), "agenda.db")
	store, err := sqlstore.Open(context.Background(), sqlstore.DialectSQLite, path, sqlstore.WithClock(clock.NowFunc()))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	return &Harness{Store: store, Clock: clock}
}

// SeedSpeakers stores speakers.
func (h *Harness) SeedSpeakers(tb testing.TB, speakers ...persistence.Speaker) {
	tb.Helper()
	for _, speaker := range speakers {
		if err := h.Store.UpsertSpeaker(context.Background(), speaker); err != nil {
			tb.Fatalf("seed speaker %s: %v", speaker.ID, err)
		}
	}
}

// SeedSessions stores sessions and links their SpeakerIDs, which must already
// be seeded.
func (h *Harness) SeedSessions(tb testing.TB, sessions ...persistence.Session) {
	tb.Helper()
	ctx := context.Background()
	for _, session := range sessions {
		if err := h.Store.UpsertSession(ctx, session); err != nil {
			tb.Fatalf("seed session %s: %v", session.ID, err)
		}
		if len(session.SpeakerIDs) == 0 {
			continue
		}
		if err := h.Store.LinkSpeakers(ctx, session.ID, session.SpeakerIDs); err != nil {
			tb.Fatalf("link speakers of %s: %v", session.ID, err)
		}
	}
}

// SeedFavorites stores sessions as favorites of userID.
func (h *Harness) SeedFavorites(tb testing.TB, userID string, sessions ...persistence.Session) {
	tb.Helper()
	for _, session := range sessions {
		if err := h.Store.AddFavorite(context.Background(), FavoriteOf(userID, session)); err != nil {
			tb.Fatalf("seed favorite %s: %v", session.ID, err)
		}
	}
}

// SeedProfile stores a profile.
func (h *Harness) SeedProfile(tb testing.TB, profile persistence.Profile) {
	tb.Helper()
	if err := h.Store.SaveProfile(context.Background(), profile); err != nil {
		tb.Fatalf("seed profile %s: %v", profile.UserID, err)
	}
}
