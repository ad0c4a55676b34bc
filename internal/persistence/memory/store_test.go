package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/example/conference-agenda/internal/persistence"
)

var base = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

func seedCatalog(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()

	speakers := []persistence.Speaker{
		{ID: "sp-1", Name: "Ada Lovelace", Company: "Analytical", Expertise: []string{"AI"}},
		{ID: "sp-2", Name: "Grace Hopper", Company: "Navy", Expertise: []string{"Compilers"}},
	}
	for _, speaker := range speakers {
		if err := store.UpsertSpeaker(ctx, speaker); err != nil {
			t.Fatalf("UpsertSpeaker: %v", err)
		}
	}

	sessions := []persistence.Session{
		{ID: "s-2", Title: "Cloud at scale", Start: base.Add(2 * time.Hour), End: base.Add(3 * time.Hour), Track: "Infra", Tags: []string{"Cloud"}},
		{ID: "s-1", Title: "Applied AI", Start: base, End: base.Add(time.Hour), Track: "Data", Tags: []string{"AI", "ML"}},
		{ID: "s-3", Title: "Day two keynote", Start: base.Add(24 * time.Hour), End: base.Add(25 * time.Hour), Track: "General"},
	}
	for _, session := range sessions {
		if err := store.UpsertSession(ctx, session); err != nil {
			t.Fatalf("UpsertSession: %v", err)
		}
	}
	if err := store.LinkSpeakers(ctx, "s-1", []string{"sp-2", "sp-1", "sp-2"}); err != nil {
		t.Fatalf("LinkSpeakers: %v", err)
	}
}

func sessionIDs(sessions []persistence.Session) []string {
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestStoreCatalog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := base
	store := New(WithClock(func() time.Time { return clock }))
	seedCatalog(t, store)

	t.Run("get session keeps speaker order", func(t *testing.T) {
		session, err := store.GetSession(ctx, "s-1")
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if !reflect.DeepEqual(session.SpeakerIDs, []string{"sp-2", "sp-1"}) {
			t.Fatalf("unexpected speaker order %v", session.SpeakerIDs)
		}
		if !session.CreatedAt.Equal(base) {
			t.Fatalf("expected CreatedAt from clock, got %v", session.CreatedAt)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		if _, err := store.GetSession(ctx, "nope"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list applies typed filters", func(t *testing.T) {
		tests := []struct {
			name  string
			query persistence.SessionQuery
			want  []string
		}{
			{name: "all ordered by start", query: persistence.SessionQuery{}, want: []string{"s-1", "s-2", "s-3"}},
			{name: "tag", query: persistence.SessionQuery{}.Where(persistence.TagFilter{Tags: []string{"cloud"}}), want: []string{"s-2"}},
			{name: "text", query: persistence.SessionQuery{}.Where(persistence.TextFilter{Text: "keynote"}), want: []string{"s-3"}},
			{name: "track", query: persistence.SessionQuery{}.Where(persistence.TrackFilter{Track: "data"}), want: []string{"s-1"}},
			{name: "speaker", query: persistence.SessionQuery{}.Where(persistence.SpeakerFilter{SpeakerID: "sp-1"}), want: []string{"s-1"}},
			{
				name:  "time range",
				query: persistence.SessionQuery{}.Where(persistence.TimeRangeFilter{From: base, To: base.Add(12 * time.Hour)}),
				want:  []string{"s-1", "s-2"},
			},
			{name: "ids", query: persistence.SessionQuery{}.Where(persistence.IDFilter{IDs: []string{"s-3", "s-1"}}), want: []string{"s-1", "s-3"}},
			{name: "paged", query: persistence.SessionQuery{Limit: 1, Offset: 1}, want: []string{"s-2"}},
		}
		for _, tc := range tests {
			got, err := store.ListSessions(ctx, tc.query)
			if err != nil {
				t.Fatalf("%s: ListSessions: %v", tc.name, err)
			}
			if ids := sessionIDs(got); !reflect.DeepEqual(ids, tc.want) {
				t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, ids)
			}
		}
	})

	t.Run("returned records are copies", func(t *testing.T) {
		session, err := store.GetSession(ctx, "s-1")
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		session.Tags[0] = "mutated"
		again, _ := store.GetSession(ctx, "s-1")
		if again.Tags[0] != "AI" {
			t.Fatalf("stored session was mutated: %v", again.Tags)
		}
	})

	t.Run("upsert preserves creation time", func(t *testing.T) {
		clock = base.Add(time.Hour)
		session, _ := store.GetSession(ctx, "s-2")
		session.Title = "Cloud at hyperscale"
		if err := store.UpsertSession(ctx, session); err != nil {
			t.Fatalf("UpsertSession: %v", err)
		}
		updated, _ := store.GetSession(ctx, "s-2")
		if !updated.CreatedAt.Equal(base) || !updated.UpdatedAt.Equal(clock) {
			t.Fatalf("unexpected timestamps %v / %v", updated.CreatedAt, updated.UpdatedAt)
		}
	})

	t.Run("speakers and links", func(t *testing.T) {
		speakers, err := store.ListSpeakers(ctx, persistence.SpeakerQuery{Text: "navy"})
		if err != nil {
			t.Fatalf("ListSpeakers: %v", err)
		}
		if len(speakers) != 1 || speakers[0].ID != "sp-2" {
			t.Fatalf("unexpected speakers %+v", speakers)
		}
		links, err := store.ListSessionSpeakers(ctx)
		if err != nil {
			t.Fatalf("ListSessionSpeakers: %v", err)
		}
		want := []persistence.SessionSpeaker{
			{SessionID: "s-1", SpeakerID: "sp-2", Position: 0},
			{SessionID: "s-1", SpeakerID: "sp-1", Position: 1},
		}
		if !reflect.DeepEqual(links, want) {
			t.Fatalf("unexpected links %+v", links)
		}
		if err := store.LinkSpeakers(ctx, "s-2", []string{"ghost"}); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for unknown speaker, got %v", err)
		}
	})
}

func TestStoreFavorites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()

	late := persistence.Favorite{UserID: "u1", SessionID: "b", Start: base.Add(time.Hour), End: base.Add(2 * time.Hour)}
	early := persistence.Favorite{UserID: "u1", SessionID: "a", Start: base, End: base.Add(time.Hour)}
	for _, fav := range []persistence.Favorite{late, early} {
		if err := store.AddFavorite(ctx, fav); err != nil {
			t.Fatalf("AddFavorite: %v", err)
		}
	}
	if err := store.AddFavorite(ctx, early); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	favorites, err := store.ListFavorites(ctx, "u1")
	if err != nil {
		t.Fatalf("ListFavorites: %v", err)
	}
	if len(favorites) != 2 || favorites[0].SessionID != "a" || favorites[1].SessionID != "b" {
		t.Fatalf("unexpected favorites %+v", favorites)
	}
	if favorites[0].CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be set")
	}

	if err := store.RemoveFavorite(ctx, "u1", "a"); err != nil {
		t.Fatalf("RemoveFavorite: %v", err)
	}
	if err := store.RemoveFavorite(ctx, "u1", "a"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if others, _ := store.ListFavorites(ctx, "u2"); len(others) != 0 {
		t.Fatalf("favorites leaked across users: %+v", others)
	}
}

func TestStoreProfiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()

	if _, err := store.GetProfile(ctx, "u1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	profile := persistence.Profile{UserID: "u1", Interests: []string{"AI"}, Role: "Engineer"}
	if err := store.SaveProfile(ctx, profile); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	got, err := store.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if !reflect.DeepEqual(got.Interests, []string{"AI"}) || got.Role != "Engineer" || got.UpdatedAt.IsZero() {
		t.Fatalf("unexpected profile %+v", got)
	}
}
