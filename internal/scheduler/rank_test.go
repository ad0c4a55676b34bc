package scheduler

import (
	"errors"
	"math"
	"testing"
)

func candidateIDs(candidates []Candidate) []string {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Session.ID)
	}
	return ids
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func score(v float64) *float64 {
	return &v
}

func TestRankInterestScenario(t *testing.T) {
	sessions := []Session{
		mkSession("C", 11, 0, 12, 0, "Cloud"),
		mkSession("B", 9, 30, 10, 30, "AI"),
		mkSession("A", 9, 0, 10, 0, "AI"),
	}
	profile := UserProfile{ID: "u1", Interests: []string{"AI"}}

	candidates, err := Rank(sessions, profile, RankOptions{})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if got := candidateIDs(candidates); !equalIDs(got, []string{"A", "B", "C"}) {
		t.Fatalf("expected [A B C], got %v", got)
	}
	if candidates[0].Score != candidates[1].Score {
		t.Fatalf("A and B should tie, got %v and %v", candidates[0].Score, candidates[1].Score)
	}
	if candidates[0].Score <= candidates[2].Score {
		t.Fatalf("AI sessions should outrank C: %v vs %v", candidates[0].Score, candidates[2].Score)
	}
	for _, c := range candidates {
		if c.Score < 0 || c.Score > 1 {
			t.Fatalf("score out of range for %s: %v", c.Session.ID, c.Score)
		}
		if c.Score > 0 && len(c.Reasons) == 0 {
			t.Fatalf("candidate %s has a score but no reasons", c.Session.ID)
		}
	}
}

func TestRankRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		sessions []Session
		opts     RankOptions
	}{
		{name: "empty catalog"},
		{
			name:     "start after end",
			sessions: []Session{mkSession("X", 10, 0, 9, 0)},
		},
		{
			name:     "zero length",
			sessions: []Session{mkSession("X", 10, 0, 10, 0)},
		},
		{
			name:     "negative weight",
			sessions: []Session{mkSession("X", 9, 0, 10, 0)},
			opts:     RankOptions{Weights: Weights{Semantic: 1, TagOverlap: -0.1}},
		},
		{
			name:     "infinite weight",
			sessions: []Session{mkSession("X", 9, 0, 10, 0)},
			opts:     RankOptions{Weights: Weights{TagOverlap: math.Inf(1)}},
		},
		{
			name:     "NaN weight",
			sessions: []Session{mkSession("X", 9, 0, 10, 0)},
			opts:     RankOptions{Weights: Weights{Networking: math.NaN()}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Rank(tc.sessions, UserProfile{Interests: []string{"AI"}}, tc.opts)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var inputErr *InputError
			if !errors.As(err, &inputErr) || inputErr.Field == "" {
				t.Fatalf("expected InputError with a field, got %#v", err)
			}
		})
	}
}

func TestRankDeduplicatesSessions(t *testing.T) {
	first := mkSession("A", 9, 0, 10, 0, "AI")
	second := mkSession("A", 14, 0, 15, 0, "AI")

	candidates, err := Rank([]Session{first, second}, UserProfile{Interests: []string{"AI"}}, RankOptions{})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(candidates))
	}
	if !candidates[0].Session.Start.Equal(first.Start) {
		t.Fatalf("first occurrence should win")
	}
}

func TestRankPastSessions(t *testing.T) {
	sessions := []Session{
		mkSession("early", 8, 0, 9, 0, "AI"),
		mkSession("now", 10, 0, 11, 0, "AI"),
		mkSession("late", 12, 0, 13, 0, "AI"),
	}
	profile := UserProfile{Interests: []string{"AI"}}

	candidates, err := Rank(sessions, profile, RankOptions{Now: at(10, 0)})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if got := candidateIDs(candidates); !equalIDs(got, []string{"late"}) {
		t.Fatalf("expected only future sessions, got %v", got)
	}

	candidates, err = Rank(sessions, profile, RankOptions{Now: at(10, 0), IncludePast: true})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("expected all sessions with IncludePast, got %v", candidateIDs(candidates))
	}
}

func TestRankFavorites(t *testing.T) {
	sessions := []Session{
		mkSession("A", 9, 0, 10, 0, "AI"),
		mkSession("B", 11, 0, 12, 0, "AI"),
	}
	profile := UserProfile{Interests: []string{"AI"}, FavoriteIDs: []string{"B"}}

	t.Run("flagged by default", func(t *testing.T) {
		candidates, err := Rank(sessions, profile, RankOptions{})
		if err != nil {
			t.Fatalf("rank: %v", err)
		}
		if len(candidates) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(candidates))
		}
		for _, c := range candidates {
			if c.Favorite != (c.Session.ID == "B") {
				t.Fatalf("unexpected favorite flag on %s: %v", c.Session.ID, c.Favorite)
			}
		}
	})

	t.Run("excluded on request", func(t *testing.T) {
		candidates, err := Rank(sessions, profile, RankOptions{ExcludeFavorited: true})
		if err != nil {
			t.Fatalf("rank: %v", err)
		}
		if got := candidateIDs(candidates); !equalIDs(got, []string{"A"}) {
			t.Fatalf("expected [A], got %v", got)
		}
	})
}

func TestRankScoreMonotonicity(t *testing.T) {
	strong := mkSession("strong", 9, 0, 10, 0, "AI")
	strong.Relevance = score(0.9)
	weak := mkSession("weak", 9, 0, 10, 0, "AI", "Retail")
	weak.Relevance = score(0.4)

	candidates, err := Rank([]Session{weak, strong}, UserProfile{Interests: []string{"AI"}}, RankOptions{})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if candidates[0].Session.ID != "strong" || candidates[0].Score < candidates[1].Score {
		t.Fatalf("expected strong >= weak, got %v", candidates)
	}
	if candidates[0].Breakdown.TagOverlap < candidates[1].Breakdown.TagOverlap {
		t.Fatalf("tag overlap should favour the sparser match")
	}
}

func TestRankMixedSemanticCatalog(t *testing.T) {
	scored := mkSession("scored", 9, 0, 10, 0, "AI")
	scored.Relevance = score(0.3)
	unscored := mkSession("unscored", 9, 0, 10, 0, "AI")

	candidates, err := Rank([]Session{unscored, scored}, UserProfile{Interests: []string{"AI"}}, RankOptions{})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if got := candidateIDs(candidates); !equalIDs(got, []string{"scored", "unscored"}) {
		t.Fatalf("a semantic match must not rank below a session without one, got %v", got)
	}
	if candidates[0].Score < candidates[1].Score {
		t.Fatalf("expected scored >= unscored, got %v and %v", candidates[0].Score, candidates[1].Score)
	}

	tagOnly, err := Rank([]Session{mkSession("unscored", 9, 0, 10, 0, "AI")}, UserProfile{Interests: []string{"AI"}}, RankOptions{})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if tagOnly[0].Score <= candidates[1].Score {
		t.Fatalf("without any semantic scores the tag signal should carry the full weight: %v vs %v", tagOnly[0].Score, candidates[1].Score)
	}
}

func TestRankTieBreaksOnLevel(t *testing.T) {
	intro := mkSession("intro", 9, 0, 10, 0, "AI")
	intro.Level = "Beginner"
	deep := mkSession("deep", 11, 0, 12, 0, "AI")
	deep.Level = "Expert"

	candidates, err := Rank([]Session{intro, deep}, UserProfile{Interests: []string{"AI"}}, RankOptions{})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if got := candidateIDs(candidates); !equalIDs(got, []string{"deep", "intro"}) {
		t.Fatalf("expected expert session first, got %v", got)
	}
}

func TestRankSignals(t *testing.T) {
	s := mkSession("S", 9, 0, 10, 0, "Machine Learning")
	s.Track = "Engineering"
	s.Speakers = []Speaker{
		{ID: "sp1", Name: "Ada", Expertise: []string{"machine learning"}},
		{ID: "sp2", Name: "Bob", Expertise: []string{"finance"}},
	}
	profile := UserProfile{
		Interests: []string{"Machine Learning"},
		Role:      "Software Engineer",
	}

	candidates, err := Rank([]Session{s}, profile, RankOptions{})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	got := candidates[0].Breakdown
	if got.RoleAffinity != 1 {
		t.Fatalf("expected role affinity, got %+v", got)
	}
	if got.Networking != 0.5 {
		t.Fatalf("expected half the speakers to match, got %v", got.Networking)
	}
	if got.TagOverlap != 0.5 {
		t.Fatalf("expected smoothed overlap 1/2, got %v", got.TagOverlap)
	}
	if len(candidates[0].Reasons) != 3 {
		t.Fatalf("expected a reason per signal, got %v", candidates[0].Reasons)
	}
}

func TestRankFallsBackToPopularity(t *testing.T) {
	sessions := []Session{
		mkSession("cloud-1", 9, 0, 10, 0),
		mkSession("cloud-2", 10, 0, 11, 0),
		mkSession("cloud-3", 11, 0, 12, 0),
		mkSession("data-1", 9, 0, 10, 0),
	}
	for i := range sessions[:3] {
		sessions[i].Track = "Cloud"
	}
	sessions[3].Track = "Data"

	candidates, err := Rank(sessions, UserProfile{ID: "u1"}, RankOptions{})
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if got := candidateIDs(candidates); !equalIDs(got, []string{"cloud-1", "data-1", "cloud-2", "cloud-3"}) {
		t.Fatalf("unexpected fallback order %v", got)
	}
	for _, c := range candidates {
		if c.Score <= 0 || len(c.Reasons) == 0 {
			t.Fatalf("fallback candidate %s lacks score or reasons", c.Session.ID)
		}
		if c.Breakdown.Popularity == 0 {
			t.Fatalf("fallback candidate %s has no popularity signal", c.Session.ID)
		}
	}
}

func TestLevelSpecificity(t *testing.T) {
	tests := map[string]int{
		"":             0,
		"Expert":       4,
		"advanced":     3,
		"Intermediate": 2,
		"Beginner":     1,
		"Intro":        1,
		"300":          3,
		"keynote":      0,
	}
	for level, want := range tests {
		if got := LevelSpecificity(level); got != want {
			t.Fatalf("LevelSpecificity(%q) = %d, want %d", level, got, want)
		}
	}
}
