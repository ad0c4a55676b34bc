package scheduler

import (
	"fmt"
	"sort"
	"time"
)

const defaultMinMealBreak = 30 * time.Minute

var defaultMealTags = []string{"meal", "lunch", "break", "food"}

// MealWindow is a daily clock window expressed as offsets from local midnight.
type MealWindow struct {
	Start time.Duration
	End   time.Duration
}

// IsZero reports whether no meal window is configured.
func (m MealWindow) IsZero() bool {
	return m.Start == 0 && m.End == 0
}

// On anchors the window to the calendar date of day.Start in its location.
func (m MealWindow) On(day DateRange) DateRange {
	start := day.Start
	midnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	return DateRange{Start: midnight.Add(m.Start), End: midnight.Add(m.End)}
}

// PackOptions tunes day packing.
type PackOptions struct {
	// MaxPerDay caps the sessions per day, favorites included. Zero means no
	// limit. Favorites are never dropped to honour it.
	MaxPerDay int
	// MealWindow is left free for a meal unless a meal-tagged session fills it.
	MealWindow MealWindow
	// MinMealBreak is the shortest gap that is reported as a meal break.
	MinMealBreak time.Duration
	// MealTags identify meal sessions. Defaults to meal, lunch, break and food.
	MealTags []string
	// TravelBuffer is the gap required between an admitted session and any
	// placed session held in a different location.
	TravelBuffer time.Duration
	// MinScore is the lowest candidate score that is still admitted.
	MinScore float64
}

func (o PackOptions) validate() error {
	if o.MaxPerDay < 0 {
		return invalid("max_per_day", "must not be negative")
	}
	if o.MinMealBreak < 0 {
		return invalid("min_meal_break", "must not be negative")
	}
	if o.TravelBuffer < 0 {
		return invalid("travel_buffer", "must not be negative")
	}
	if !o.MealWindow.IsZero() {
		if o.MealWindow.Start < 0 || o.MealWindow.End > 24*time.Hour || o.MealWindow.Start >= o.MealWindow.End {
			return invalid("meal_window", "must be an increasing window within one day")
		}
	}
	return nil
}

type dayBuilder struct {
	day        DateRange
	meal       DateRange
	entries    []Entry
	favorites  []Session
	unresolved []UnresolvedConflict
	sessions   int
}

// Pack places favorites first and then admits ranked candidates first-fit into
// each day. The result is deterministic for identical input.
func Pack(candidates []Candidate, favorites []Session, days []DateRange, opts PackOptions) (Plan, error) {
	if err := opts.validate(); err != nil {
		return Plan{}, err
	}
	bounds, err := normaliseDays(days)
	if err != nil {
		return Plan{}, err
	}

	mealTags := newTerms(opts.MealTags)
	if len(mealTags) == 0 {
		mealTags = newTerms(defaultMealTags)
	}
	minBreak := opts.MinMealBreak
	if minBreak == 0 {
		minBreak = defaultMinMealBreak
	}

	builders := make([]*dayBuilder, len(bounds))
	for i, day := range bounds {
		builders[i] = &dayBuilder{day: day}
		if !opts.MealWindow.IsZero() {
			builders[i].meal = opts.MealWindow.On(day)
		}
	}

	var warnings []Warning
	placedIDs := make(map[string]struct{})

	for _, favorite := range orderFavorites(favorites) {
		if favorite.ID != "" {
			placedIDs[favorite.ID] = struct{}{}
		}
		if !favorite.Range().Valid() {
			warnings = append(warnings, Warning{
				Code:      WarningFavoriteWithoutTime,
				SessionID: favorite.ID,
				Message:   fmt.Sprintf("favorite %q has no usable time range and was skipped", favorite.ID),
			})
			continue
		}
		idx := dayStarting(bounds, favorite.Start)
		if idx < 0 {
			warnings = append(warnings, Warning{
				Code:      WarningFavoriteOutsideDays,
				SessionID: favorite.ID,
				Message:   fmt.Sprintf("favorite %q is outside the conference days", favorite.ID),
			})
			continue
		}
		b := builders[idx]
		if result := CheckConflicts(favorite, b.favorites); result.HasConflicts {
			b.unresolved = append(b.unresolved, UnresolvedConflict{Session: favorite, ConflictsWith: result.Conflicts})
			warnings = append(warnings, Warning{
				Code:      WarningFavoriteConflict,
				SessionID: favorite.ID,
				Message:   fmt.Sprintf("favorite %q overlaps %d other favorite(s)", favorite.ID, result.TotalConflicts),
			})
			continue
		}
		session := favorite
		b.favorites = append(b.favorites, session)
		b.entries = append(b.entries, Entry{
			Kind:    EntryFavorite,
			Start:   session.Start,
			End:     session.End,
			Session: &session,
			Label:   session.Title,
		})
		b.sessions++
	}

	for _, pending := range orderCandidates(candidates, bounds, builders, mealTags) {
		candidate := pending.candidate
		session := candidate.Session
		if _, done := placedIDs[session.ID]; done {
			continue
		}
		placedIDs[session.ID] = struct{}{}
		if candidate.Score < opts.MinScore {
			continue
		}
		b := builders[pending.day]
		if opts.MaxPerDay > 0 && b.sessions >= opts.MaxPerDay {
			continue
		}
		if !b.fits(session, opts.TravelBuffer) {
			continue
		}
		b.entries = append(b.entries, Entry{
			Kind:    EntrySession,
			Start:   session.Start,
			End:     session.End,
			Session: &session,
			Score:   candidate.Score,
			Reasons: append([]string(nil), candidate.Reasons...),
			Label:   session.Title,
		})
		b.sessions++
	}

	plan := Plan{Days: make([]DaySchedule, 0, len(builders)), Warnings: warnings}
	for _, b := range builders {
		if marker, ok := b.mealMarker(mealTags, minBreak); ok {
			b.entries = append(b.entries, marker)
		}
		sortEntries(b.entries)
		plan.Days = append(plan.Days, DaySchedule{
			Date:       b.day.Start.Format("2006-01-02"),
			Day:        b.day,
			Entries:    b.entries,
			Unresolved: b.unresolved,
		})
	}
	return plan, nil
}

func normaliseDays(days []DateRange) ([]DateRange, error) {
	if len(days) == 0 {
		return nil, invalid("days", "at least one day boundary is required")
	}
	bounds := append([]DateRange(nil), days...)
	for _, day := range bounds {
		if !day.Valid() {
			return nil, invalid("days", "day boundary %s must start before it ends", day.Start.Format(time.RFC3339))
		}
	}
	sort.SliceStable(bounds, func(i, j int) bool {
		return bounds[i].Start.Before(bounds[j].Start)
	})
	for i := 1; i < len(bounds); i++ {
		if bounds[i-1].Overlaps(bounds[i]) {
			return nil, invalid("days", "day boundaries %s and %s overlap",
				bounds[i-1].Start.Format(time.RFC3339), bounds[i].Start.Format(time.RFC3339))
		}
	}
	return bounds, nil
}

// orderFavorites removes duplicate IDs and sorts by start then ID. Favorites
// without a time range keep their relative order at the front.
func orderFavorites(favorites []Session) []Session {
	seen := make(map[string]struct{}, len(favorites))
	out := make([]Session, 0, len(favorites))
	for _, favorite := range favorites {
		if favorite.ID != "" {
			if _, dup := seen[favorite.ID]; dup {
				continue
			}
			seen[favorite.ID] = struct{}{}
		}
		out = append(out, favorite)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type pendingCandidate struct {
	candidate Candidate
	day       int
	meal      bool
}

// orderCandidates keeps the ranked order except that a meal-tagged candidate
// inside its day's meal window moves ahead of equally scored candidates.
// Candidates that fit no single day are dropped.
func orderCandidates(candidates []Candidate, bounds []DateRange, builders []*dayBuilder, mealTags []term) []pendingCandidate {
	out := make([]pendingCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		span := candidate.Session.Range()
		if !span.Valid() {
			continue
		}
		idx := dayCovering(bounds, span)
		if idx < 0 {
			continue
		}
		meal := builders[idx].meal.Valid() &&
			builders[idx].meal.Overlaps(span) &&
			isMealSession(candidate.Session, mealTags)
		out = append(out, pendingCandidate{candidate: candidate, day: idx, meal: meal})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].candidate.Score != out[j].candidate.Score {
			return out[i].candidate.Score > out[j].candidate.Score
		}
		return out[i].meal && !out[j].meal
	})
	return out
}

func dayStarting(bounds []DateRange, t time.Time) int {
	for i, day := range bounds {
		if day.Contains(t) {
			return i
		}
	}
	return -1
}

func dayCovering(bounds []DateRange, span DateRange) int {
	for i, day := range bounds {
		if day.Covers(span) {
			return i
		}
	}
	return -1
}

func isMealSession(session Session, mealTags []term) bool {
	return countMatching(mealTags, session.Tags) > 0
}

func (b *dayBuilder) fits(session Session, buffer time.Duration) bool {
	span := session.Range()
	for _, entry := range b.entries {
		if entry.Session == nil {
			continue
		}
		if span.Overlaps(entry.Range()) {
			return false
		}
		if buffer > 0 && needsTravel(session.Location, entry.Session.Location) {
			padded := DateRange{Start: entry.Start.Add(-buffer), End: entry.End.Add(buffer)}
			if span.Overlaps(padded) {
				return false
			}
		}
	}
	return true
}

func needsTravel(a, b string) bool {
	return a != "" && b != "" && a != b
}

// mealMarker returns a meal entry for the longest free gap of the meal window,
// unless a meal-tagged session already sits inside the window.
func (b *dayBuilder) mealMarker(mealTags []term, minBreak time.Duration) (Entry, bool) {
	window := b.meal
	if !window.Valid() {
		return Entry{}, false
	}
	if window.Start.Before(b.day.Start) {
		window.Start = b.day.Start
	}
	if window.End.After(b.day.End) {
		window.End = b.day.End
	}
	if !window.Valid() {
		return Entry{}, false
	}

	busy := make([]DateRange, 0, len(b.entries))
	for _, entry := range b.entries {
		if entry.Session == nil || !entry.Range().Overlaps(window) {
			continue
		}
		if isMealSession(*entry.Session, mealTags) {
			return Entry{}, false
		}
		busy = append(busy, entry.Range())
	}
	sort.Slice(busy, func(i, j int) bool {
		return busy[i].Start.Before(busy[j].Start)
	})

	var best DateRange
	cursor := window.Start
	consider := func(end time.Time) {
		gap := DateRange{Start: cursor, End: end}
		if gap.Valid() && gap.Duration() > best.Duration() {
			best = gap
		}
	}
	for _, span := range busy {
		if span.Start.After(cursor) {
			consider(minTime(span.Start, window.End))
		}
		if span.End.After(cursor) {
			cursor = span.End
		}
	}
	if cursor.Before(window.End) {
		consider(window.End)
	}

	if !best.Valid() || best.Duration() < minBreak {
		return Entry{}, false
	}
	return Entry{Kind: EntryMeal, Start: best.Start, End: best.End, Label: "Meal break"}, true
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if !a.End.Equal(b.End) {
			return a.End.Before(b.End)
		}
		return entryID(a) < entryID(b)
	})
}

func entryID(e Entry) string {
	if e.Session == nil {
		return ""
	}
	return e.Session.ID
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
