package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/conference-agenda/internal/testfixtures"
)

func seedCatalog(t *testing.T, env *testEnv) {
	t.Helper()
	env.harness.SeedSpeakers(t,
		testfixtures.NewSpeaker(testfixtures.WithSpeakerID("ada"), testfixtures.WithSpeakerName("Ada"), testfixtures.WithExpertise("AI")),
		testfixtures.NewSpeaker(testfixtures.WithSpeakerID("lin"), testfixtures.WithSpeakerName("Lin"), testfixtures.WithExpertise("Kubernetes")),
	)
	env.harness.SeedSessions(t,
		testfixtures.NewSession(testfixtures.WithSessionID("ml"), testfixtures.WithTitle("Applied ML"), testfixtures.WithTags("AI", "ML"),
			testfixtures.WithTrack("Data"), testfixtures.WithSpeakerIDs("lin", "ada")),
		testfixtures.NewSession(testfixtures.WithSessionID("k8s"), testfixtures.WithTitle("Cluster ops"), testfixtures.WithTags("Cloud"),
			testfixtures.WithTrack("Infra"), testfixtures.WithSlot(0, 11, 0, 12, 0), testfixtures.WithSpeakerIDs("lin")),
		testfixtures.NewSession(testfixtures.WithSessionID("day2"), testfixtures.WithTitle("Day two keynote"), testfixtures.WithSlot(1, 9, 0, 10, 0)),
	)
}

func TestCatalogServiceListSessions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, AgendaConfig{})
	seedCatalog(t, env)
	ctx := context.Background()

	tests := []struct {
		name   string
		search SessionSearch
		want   []string
	}{
		{name: "everything", search: SessionSearch{}, want: []string{"ml", "k8s", "day2"}},
		{name: "text", search: SessionSearch{Text: "cluster"}, want: []string{"k8s"}},
		{name: "tag", search: SessionSearch{Tags: []string{"ml"}}, want: []string{"ml"}},
		{name: "track", search: SessionSearch{Track: "infra"}, want: []string{"k8s"}},
		{name: "time range", search: SessionSearch{From: testfixtures.ConferenceDay(1), To: testfixtures.ConferenceDay(2)}, want: []string{"day2"}},
		{name: "speaker", search: SessionSearch{SpeakerID: "ada"}, want: []string{"ml"}},
		{name: "paged", search: SessionSearch{Limit: 1, Offset: 1}, want: []string{"k8s"}},
	}

	for _, tc := range tests {
		sessions, err := env.catalog.ListSessions(ctx, tc.search)
		if err != nil {
			t.Fatalf("%s: list: %v", tc.name, err)
		}
		got := make([]string, 0, len(sessions))
		for _, session := range sessions {
			got = append(got, session.ID)
		}
		if !equalStrings(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCatalogServiceSpeakersKeepOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, AgendaConfig{})
	seedCatalog(t, env)

	session, err := env.catalog.GetSession(context.Background(), "ml")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(session.Speakers) != 2 || session.Speakers[0].Name != "Lin" || session.Speakers[1].Name != "Ada" {
		t.Fatalf("expected speakers in presentation order, got %+v", session.Speakers)
	}

	if _, err := env.catalog.GetSession(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCatalogServiceSpeakers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, AgendaConfig{})
	seedCatalog(t, env)
	ctx := context.Background()

	speakers, err := env.catalog.ListSpeakers(ctx, "kube")
	if err != nil {
		t.Fatalf("list speakers: %v", err)
	}
	if len(speakers) != 1 || speakers[0].ID != "lin" {
		t.Fatalf("expected lin, got %+v", speakers)
	}

	detail, err := env.catalog.GetSpeaker(ctx, "lin")
	if err != nil {
		t.Fatalf("get speaker: %v", err)
	}
	if detail.Name != "Lin" || len(detail.Sessions) != 2 {
		t.Fatalf("expected two sessions for lin, got %+v", detail)
	}

	if _, err := env.catalog.GetSpeaker(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCatalogServiceCachesResults(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, AgendaConfig{})
	seedCatalog(t, env)
	ctx := context.Background()

	if _, err := env.catalog.ListSessions(ctx, SessionSearch{Text: "ml"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := env.catalog.ListSessions(ctx, SessionSearch{Text: " ml "}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if env.cache.sets != 1 {
		t.Fatalf("expected normalised searches to share one cache entry, got %d sets", env.cache.sets)
	}

	env.harness.SeedSessions(t, testfixtures.NewSession(testfixtures.WithSessionID("ml2"), testfixtures.WithTags("ML")))
	env.catalog.InvalidateCatalog(ctx)
	sessions, err := env.catalog.ListSessions(ctx, SessionSearch{Text: "ml"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected refreshed results after invalidation, got %d", len(sessions))
	}
}

func TestCatalogServiceValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, AgendaConfig{})
	from := testfixtures.ConferenceDay(1)

	tests := []struct {
		name   string
		search SessionSearch
		field  string
	}{
		{name: "inverted range", search: SessionSearch{From: from, To: from.Add(-time.Hour)}, field: "to"},
		{name: "negative limit", search: SessionSearch{Limit: -1}, field: "limit"},
		{name: "huge limit", search: SessionSearch{Limit: maxSearchLimit + 1}, field: "limit"},
		{name: "negative offset", search: SessionSearch{Offset: -1}, field: "offset"},
	}

	for _, tc := range tests {
		_, err := env.catalog.ListSessions(context.Background(), tc.search)
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors[tc.field] == "" {
			t.Fatalf("%s: expected validation error on %s, got %v", tc.name, tc.field, err)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
