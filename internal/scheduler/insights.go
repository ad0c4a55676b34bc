package scheduler

import (
	"fmt"
	"sort"
	"strings"
)

const maxFocusAreas = 3

// Summarize derives presentation metrics from packed days. analyzed is the
// number of sessions that were ranked.
func Summarize(days []DaySchedule, profile UserProfile, analyzed int) Insights {
	interests := newTerms(profile.Interests, profile.Goals)
	insights := Insights{SessionsAnalyzed: analyzed}

	termHits := make(map[string]int)
	trackHits := make(map[string]int)
	speakers := make(map[string]struct{})
	experts := make(map[string]struct{})

	for _, day := range days {
		for _, entry := range day.Entries {
			if entry.Session == nil {
				continue
			}
			session := entry.Session
			insights.ScheduledSessions++
			if entry.Kind == EntryFavorite {
				insights.FavoritesPlaced++
			}

			if matched := matchingTerms(interests, session.Tags); len(matched) > 0 {
				insights.InterestMatches++
				for _, t := range matched {
					termHits[t.display]++
				}
			}
			trackHits[trackName(session.Track)]++

			for _, speaker := range session.Speakers {
				key := speakerKey(speaker)
				speakers[key] = struct{}{}
				if isExpert(speaker, interests) {
					experts[key] = struct{}{}
				}
			}
		}
	}

	insights.NetworkingOpportunities = len(speakers)
	insights.ExpertEncounters = len(experts)

	if len(termHits) > 0 {
		insights.FocusAreas = topKeys(termHits, maxFocusAreas)
	} else {
		insights.FocusAreas = topKeys(trackHits, maxFocusAreas)
	}

	switch {
	case insights.ScheduledSessions == 0:
		insights.Strategy = "No sessions matched the available time; adjust your interests or favorites."
	case len(interests) == 0:
		insights.Strategy = "Broad coverage of the most active tracks, since no interests or goals were provided."
	default:
		insights.Strategy = fmt.Sprintf("Prioritised sessions on %s, then filled free slots without overlaps.",
			strings.Join(insights.FocusAreas, ", "))
	}
	return insights
}

func speakerKey(speaker Speaker) string {
	if speaker.ID != "" {
		return speaker.ID
	}
	return strings.ToLower(speaker.Name)
}

func isExpert(speaker Speaker, interests []term) bool {
	if len(interests) == 0 {
		return len(speaker.Expertise) > 0
	}
	return len(matchingTerms(interests, speaker.Expertise)) > 0
}

// topKeys returns up to n keys ordered by count, then name.
func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
