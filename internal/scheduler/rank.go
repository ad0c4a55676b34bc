package scheduler

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Weights sets the relative contribution of each ranking signal. Weights are
// normalised per session, so they do not need to sum to one.
type Weights struct {
	Semantic     float64
	TagOverlap   float64
	RoleAffinity float64
	Networking   float64
}

// DefaultWeights returns the weights used when none are configured.
func DefaultWeights() Weights {
	return Weights{
		Semantic:     0.5,
		TagOverlap:   0.35,
		RoleAffinity: 0.1,
		Networking:   0.05,
	}
}

// IsZero reports whether no weight has been set.
func (w Weights) IsZero() bool {
	return w == Weights{}
}

// Validate rejects negative, NaN and infinite weights.
func (w Weights) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"weights.semantic", w.Semantic},
		{"weights.tag_overlap", w.TagOverlap},
		{"weights.role_affinity", w.RoleAffinity},
		{"weights.networking", w.Networking},
	}
	for _, check := range checks {
		if math.IsNaN(check.value) || math.IsInf(check.value, 0) {
			return invalid(check.name, "must be a finite number")
		}
		if check.value < 0 {
			return invalid(check.name, "must not be negative")
		}
	}
	return nil
}

// RankOptions tunes candidate selection.
type RankOptions struct {
	// IncludePast keeps sessions starting at or before Now. When Now is zero
	// no session is considered past.
	IncludePast bool
	// ExcludeFavorited drops sessions already in the profile's favorites;
	// otherwise they are kept and flagged.
	ExcludeFavorited bool
	Now              time.Time
	Weights          Weights
}

// Rank scores every session against the profile and returns candidates
// ordered by descending score. Ties are broken by level specificity, start
// time, title and finally ID, so the order is fully deterministic.
func Rank(sessions []Session, profile UserProfile, opts RankOptions) ([]Candidate, error) {
	if len(sessions) == 0 {
		return nil, invalid("sessions", "catalog is empty")
	}

	weights := opts.Weights
	if weights.IsZero() {
		weights = DefaultWeights()
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	for _, session := range sessions {
		if !session.Range().Valid() {
			return nil, invalid("session "+session.ID, "start must be before end")
		}
	}

	favorites := make(map[string]struct{}, len(profile.FavoriteIDs))
	for _, id := range profile.FavoriteIDs {
		favorites[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(sessions))
	eligible := make([]Session, 0, len(sessions))
	for _, session := range sessions {
		if _, dup := seen[session.ID]; dup {
			continue
		}
		seen[session.ID] = struct{}{}
		if !opts.IncludePast && !opts.Now.IsZero() && !session.Start.After(opts.Now) {
			continue
		}
		if _, fav := favorites[session.ID]; fav && opts.ExcludeFavorited {
			continue
		}
		eligible = append(eligible, session)
	}

	interests := newTerms(profile.Interests, profile.Goals)

	var candidates []Candidate
	if len(interests) == 0 {
		candidates = rankByPopularity(eligible, weights)
	} else {
		background := newTerms([]string{profile.Role, profile.Company})
		// Once any session carries a semantic score, an unscored session
		// counts as semantic 0 instead of being scored on tags alone.
		semanticRun := false
		for _, session := range eligible {
			if _, ok := relevanceOf(session); ok {
				semanticRun = true
				break
			}
		}
		candidates = make([]Candidate, 0, len(eligible))
		for _, session := range eligible {
			candidates = append(candidates, scoreSession(session, interests, background, weights, semanticRun))
		}
	}

	for i := range candidates {
		if _, fav := favorites[candidates[i].Session.ID]; fav {
			candidates[i].Favorite = true
			candidates[i].Reasons = append(candidates[i].Reasons, "Already saved in your favorites")
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidateLess(candidates[i], candidates[j])
	})
	return candidates, nil
}

func scoreSession(session Session, interests, background []term, w Weights, semanticRun bool) Candidate {
	var breakdown ScoreBreakdown
	var reasons []string

	matched := matchingTerms(interests, session.Tags)
	if len(session.Tags) > 0 {
		hits := countMatching(interests, session.Tags)
		breakdown.TagOverlap = float64(hits) / float64(len(session.Tags)+1)
	}
	if len(matched) > 0 {
		reasons = append(reasons, "Matches your interests: "+strings.Join(displayTerms(matched), ", "))
	}

	semantic, hasSemantic := relevanceOf(session)
	if hasSemantic {
		breakdown.Semantic = semantic
		if semantic > 0 {
			reasons = append(reasons, fmt.Sprintf("Semantic match %.0f%%", semantic*100))
		}
	}

	if session.Track != "" && len(matchingTerms(background, []string{session.Track})) > 0 {
		breakdown.RoleAffinity = 1
		reasons = append(reasons, fmt.Sprintf("The %s track fits your background", session.Track))
	}

	if len(session.Speakers) > 0 {
		experts := make([]string, 0)
		for _, speaker := range session.Speakers {
			if len(matchingTerms(interests, speaker.Expertise)) > 0 {
				experts = append(experts, speaker.Name)
			}
		}
		if len(experts) > 0 {
			breakdown.Networking = float64(len(experts)) / float64(len(session.Speakers))
			reasons = append(reasons, "Meet "+strings.Join(experts, ", ")+", who share your interests")
		}
	}

	num := w.TagOverlap*breakdown.TagOverlap + w.RoleAffinity*breakdown.RoleAffinity + w.Networking*breakdown.Networking
	den := w.TagOverlap + w.RoleAffinity + w.Networking
	if hasSemantic || semanticRun {
		num += w.Semantic * breakdown.Semantic
		den += w.Semantic
	}

	score := 0.0
	if den > 0 {
		score = clamp01(num / den)
	}

	return Candidate{
		Session:   session,
		Score:     score,
		Reasons:   reasons,
		Breakdown: breakdown,
	}
}

// rankByPopularity scores sessions for profiles without interests or goals.
// Larger tracks score higher and successive sessions of one track decay, which
// spreads the top of the list across tracks.
func rankByPopularity(sessions []Session, w Weights) []Candidate {
	groups := make(map[string][]Session)
	names := make(map[string]string)
	for _, session := range sessions {
		key := strings.ToLower(strings.TrimSpace(session.Track))
		groups[key] = append(groups[key], session)
		if _, ok := names[key]; !ok {
			names[key] = trackName(session.Track)
		}
	}

	largest := 0
	for _, group := range groups {
		if len(group) > largest {
			largest = len(group)
		}
	}

	heuristic := w.TagOverlap + w.RoleAffinity + w.Networking
	candidates := make([]Candidate, 0, len(sessions))
	for key, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			if !group[i].Start.Equal(group[j].Start) {
				return group[i].Start.Before(group[j].Start)
			}
			if group[i].Title != group[j].Title {
				return group[i].Title < group[j].Title
			}
			return group[i].ID < group[j].ID
		})
		share := float64(len(group)) / float64(largest)
		for k, session := range group {
			popularity := 0.6/float64(k+1) + 0.4*share
			breakdown := ScoreBreakdown{Popularity: popularity}
			reasons := []string{fmt.Sprintf("One of %d sessions in the %s track", len(group), names[key])}
			if k == 0 {
				reasons = append(reasons, fmt.Sprintf("Opens the %s track for broad coverage", names[key]))
			}

			score := popularity
			if semantic, ok := relevanceOf(session); ok && heuristic+w.Semantic > 0 {
				breakdown.Semantic = semantic
				score = (heuristic*popularity + w.Semantic*semantic) / (heuristic + w.Semantic)
				if semantic > 0 {
					reasons = append(reasons, fmt.Sprintf("Semantic match %.0f%%", semantic*100))
				}
			}

			candidates = append(candidates, Candidate{
				Session:   session,
				Score:     clamp01(score),
				Reasons:   reasons,
				Breakdown: breakdown,
			})
		}
	}
	return candidates
}

func candidateLess(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	la, lb := LevelSpecificity(a.Session.Level), LevelSpecificity(b.Session.Level)
	if la != lb {
		return la > lb
	}
	if !a.Session.Start.Equal(b.Session.Start) {
		return a.Session.Start.Before(b.Session.Start)
	}
	if a.Session.Title != b.Session.Title {
		return a.Session.Title < b.Session.Title
	}
	return a.Session.ID < b.Session.ID
}

// LevelSpecificity orders session levels from unspecified (0) to expert (4).
func LevelSpecificity(level string) int {
	value := strings.ToLower(strings.TrimSpace(level))
	switch {
	case value == "":
		return 0
	case strings.Contains(value, "expert"), value == "400":
		return 4
	case strings.Contains(value, "advanced"), value == "300":
		return 3
	case strings.Contains(value, "intermediate"), value == "200":
		return 2
	case strings.Contains(value, "beginner"), strings.Contains(value, "intro"), value == "100":
		return 1
	default:
		return 0
	}
}

func relevanceOf(session Session) (float64, bool) {
	if session.Relevance == nil || math.IsNaN(*session.Relevance) {
		return 0, false
	}
	return clamp01(*session.Relevance), true
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func trackName(track string) string {
	if strings.TrimSpace(track) == "" {
		return "General"
	}
	return strings.TrimSpace(track)
}
