package application

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/conference-agenda/internal/persistence"
	"github.com/example/conference-agenda/internal/scheduler"
	"github.com/example/conference-agenda/internal/testfixtures"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type relevanceStub struct {
	scores map[string]float64
	err    error
	calls  int
}

func (r *relevanceStub) Scores(ctx context.Context, profile scheduler.UserProfile, sessionIDs []string) (map[string]float64, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.scores, nil
}

type countingCache struct {
	ResultCache
	sets        int
	invalidated []string
}

func (c *countingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.sets++
	return c.ResultCache.Set(ctx, key, value, ttl)
}

func (c *countingCache) Invalidate(ctx context.Context, prefix string) error {
	c.invalidated = append(c.invalidated, prefix)
	return c.ResultCache.Invalidate(ctx, prefix)
}

type testEnv struct {
	harness   *testfixtures.Harness
	cache     *countingCache
	relevance *relevanceStub
	agenda    *AgendaService
	catalog   *CatalogService
	favorites *FavoriteService
	profiles  *ProfileService
}

func newTestEnv(t *testing.T, config AgendaConfig) *testEnv {
	t.Helper()
	h := testfixtures.NewMemoryHarness(t)
	cache := &countingCache{ResultCache: NewLRUCache(64, time.Minute)}
	env := &testEnv{harness: h, cache: cache, relevance: &relevanceStub{}}
	now := h.Clock.NowFunc()
	env.agenda = NewAgendaService(AgendaServiceDeps{
		Catalog:   h.Store,
		Favorites: h.Store,
		Profiles:  h.Store,
		Relevance: env.relevance,
		Cache:     cache,
		Now:       now,
		Logger:    discardLogger,
	}, config)
	env.catalog = NewCatalogService(h.Store, cache, time.Minute, discardLogger)
	env.favorites = NewFavoriteService(h.Store, h.Store, cache, now, discardLogger)
	env.profiles = NewProfileService(h.Store, cache, now, discardLogger)
	return env
}

// seedScenario stores sessions A (09:00-10:00, AI), B (09:30-10:30, AI) and
// C (11:00-12:00, Cloud) on the first conference day.
func seedScenario(t *testing.T, h *testfixtures.Harness) []persistence.Session {
	t.Helper()
	sessions := []persistence.Session{
		testfixtures.NewSession(testfixtures.WithSessionID("A"), testfixtures.WithSlot(0, 9, 0, 10, 0), testfixtures.WithTags("AI")),
		testfixtures.NewSession(testfixtures.WithSessionID("B"), testfixtures.WithSlot(0, 9, 30, 10, 30), testfixtures.WithTags("AI")),
		testfixtures.NewSession(testfixtures.WithSessionID("C"), testfixtures.WithSlot(0, 11, 0, 12, 0), testfixtures.WithTags("Cloud")),
	}
	h.SeedSessions(t, sessions...)
	return sessions
}

func agendaEntryIDs(agenda Agenda) [][]string {
	out := make([][]string, 0, len(agenda.Days))
	for _, day := range agenda.Days {
		ids := make([]string, 0, len(day.Entries))
		for _, entry := range day.Entries {
			if entry.Session != nil {
				ids = append(ids, entry.Session.ID)
			}
		}
		out = append(out, ids)
	}
	return out
}
