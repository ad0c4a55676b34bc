package relevance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/example/conference-agenda/internal/scheduler"
)

func TestStatic(t *testing.T) {
	provider := Static{"a": 0.4, "b": 1.7, "c": -2, "d": math.NaN()}

	scores, err := provider.Scores(context.Background(), scheduler.UserProfile{}, []string{"a", "b", "c", "d", "missing"})
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	want := map[string]float64{"a": 0.4, "b": 1, "c": 0, "d": 0}
	if len(scores) != len(want) {
		t.Fatalf("expected %v, got %v", want, scores)
	}
	for id, score := range want {
		if scores[id] != score {
			t.Fatalf("score %s: expected %v, got %v", id, score, scores[id])
		}
	}
}

type flakyProvider struct {
	err   error
	calls int
}

func (f *flakyProvider) Scores(context.Context, scheduler.UserProfile, []string) (map[string]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return map[string]float64{"a": 0.5}, nil
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	next := &flakyProvider{err: errors.New("unavailable")}
	breaker := NewBreaker(next, BreakerSettings{
		Name:                "test-open",
		Timeout:             time.Hour,
		ConsecutiveFailures: 2,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := breaker.Scores(ctx, scheduler.UserProfile{}, []string{"a"}); err == nil {
			t.Fatalf("expected provider error")
		}
	}
	if breaker.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %v", breaker.State())
	}

	_, err := breaker.Scores(ctx, scheduler.UserProfile{}, []string{"a"})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected ErrOpenState, got %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("open breaker must not call the provider, got %d calls", next.calls)
	}
}

func TestBreakerPassesThrough(t *testing.T) {
	next := &flakyProvider{}
	breaker := NewBreaker(next, BreakerSettings{Name: "test-pass"}, nil)

	scores, err := breaker.Scores(context.Background(), scheduler.UserProfile{}, []string{"a"})
	if err != nil {
		t.Fatalf("scores: %v", err)
	}
	if scores["a"] != 0.5 || breaker.State() != gobreaker.StateClosed {
		t.Fatalf("unexpected result %v state %v", scores, breaker.State())
	}
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	next := &flakyProvider{err: context.Canceled}
	breaker := NewBreaker(next, BreakerSettings{Name: "test-cancel", ConsecutiveFailures: 1}, nil)

	_, _ = breaker.Scores(context.Background(), scheduler.UserProfile{}, []string{"a"})
	if breaker.State() != gobreaker.StateClosed {
		t.Fatalf("cancellation should not trip the breaker")
	}
}

func TestPointIDIsStable(t *testing.T) {
	if PointID("s1") != PointID("s1") {
		t.Fatalf("point IDs must be deterministic")
	}
	if PointID("s1") == PointID("s2") {
		t.Fatalf("distinct sessions must map to distinct points")
	}
}

func TestRecommendQuery(t *testing.T) {
	query := recommendQuery("sessions", []string{"fav"}, []string{"a", "b", "c"})

	if query.GetCollectionName() != "sessions" || query.GetLimit() != 3 {
		t.Fatalf("unexpected query %v", query)
	}
	positives := query.GetQuery().GetRecommend().GetPositive()
	if len(positives) != 1 || positives[0].GetId().GetUuid() != PointID("fav") {
		t.Fatalf("expected favorite as positive example, got %v", positives)
	}
	keywords := query.GetFilter().GetMust()[0].GetField().GetMatch().GetKeywords().GetStrings()
	if len(keywords) != 3 {
		t.Fatalf("expected the candidate IDs in the filter, got %v", keywords)
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw    string
		host   string
		port   int
		useTLS bool
	}{
		{raw: "localhost", host: "localhost", port: 6334},
		{raw: "http://qdrant:7000", host: "qdrant", port: 7000},
		{raw: "https://cloud.example.io", host: "cloud.example.io", port: 6334, useTLS: true},
	}
	for _, tc := range tests {
		host, port, useTLS, err := parseEndpoint(tc.raw)
		if err != nil {
			t.Fatalf("%s: %v", tc.raw, err)
		}
		if host != tc.host || port != tc.port || useTLS != tc.useTLS {
			t.Fatalf("%s: got %s %d %v", tc.raw, host, port, useTLS)
		}
	}
}

func TestQdrantProviderWithoutFavorites(t *testing.T) {
	p := &QdrantProvider{}
	scores, err := p.Scores(context.Background(), scheduler.UserProfile{}, []string{"a"})
	if err != nil || len(scores) != 0 {
		t.Fatalf("expected empty scores without favorites, got %v (%v)", scores, err)
	}
}
