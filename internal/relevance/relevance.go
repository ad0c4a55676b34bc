// Package relevance supplies precomputed semantic match scores for the agenda
// ranker. Providers never compute embeddings themselves.
package relevance

import (
	"context"

	"github.com/example/conference-agenda/internal/application"
	"github.com/example/conference-agenda/internal/scheduler"
)

// Provider returns scores in [0,1] keyed by session ID. Sessions missing from
// the result carry no semantic signal.
type Provider interface {
	Scores(ctx context.Context, profile scheduler.UserProfile, sessionIDs []string) (map[string]float64, error)
}

// Static serves a fixed score table. It is used by tests and offline runs.
type Static map[string]float64

// Scores implements Provider.
func (s Static) Scores(_ context.Context, _ scheduler.UserProfile, sessionIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(sessionIDs))
	for _, id := range sessionIDs {
		if score, ok := s[id]; ok {
			out[id] = clamp(score)
		}
	}
	return out, nil
}

func clamp(v float64) float64 {
	switch {
	case v != v, v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

var (
	_ Provider                      = Static(nil)
	_ application.RelevanceProvider = Provider(nil)
)
