package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/example/conference-agenda/internal/scheduler"
)

func TestDays(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	start := time.Date(2025, time.June, 10, 15, 30, 0, 0, time.UTC)

	t.Run("consecutive days in location", func(t *testing.T) {
		t.Parallel()
		days, err := Days(DayPlan{
			StartDate: start,
			Days:      3,
			Opens:     9 * time.Hour,
			Closes:    18 * time.Hour,
			Location:  tokyo,
		})
		if err != nil {
			t.Fatalf("Days returned error: %v", err)
		}
		if len(days) != 3 {
			t.Fatalf("expected 3 days, got %d", len(days))
		}
		first := time.Date(2025, time.June, 11, 9, 0, 0, 0, tokyo)
		if !days[0].Start.Equal(first) {
			t.Fatalf("expected first day to open at %v, got %v", first, days[0].Start)
		}
		for i, day := range days {
			if day.Duration() != 9*time.Hour {
				t.Fatalf("day %d has duration %v", i, day.Duration())
			}
			if i > 0 && !day.Start.Equal(days[i-1].Start.AddDate(0, 0, 1)) {
				t.Fatalf("day %d does not follow day %d", i, i-1)
			}
		}
	})

	t.Run("weekday filter skips dates", func(t *testing.T) {
		t.Parallel()
		friday := time.Date(2025, time.June, 13, 0, 0, 0, 0, time.UTC)
		days, err := Days(DayPlan{
			StartDate: friday,
			Days:      2,
			Opens:     9 * time.Hour,
			Closes:    17 * time.Hour,
			Weekdays:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		})
		if err != nil {
			t.Fatalf("Days returned error: %v", err)
		}
		if days[0].Start.Weekday() != time.Friday || days[1].Start.Weekday() != time.Monday {
			t.Fatalf("expected Friday then Monday, got %v and %v", days[0].Start.Weekday(), days[1].Start.Weekday())
		}
	})

	t.Run("invalid plans", func(t *testing.T) {
		t.Parallel()
		plans := map[string]DayPlan{
			"missing start":   {Days: 1, Opens: time.Hour, Closes: 2 * time.Hour},
			"zero days":       {StartDate: start, Opens: time.Hour, Closes: 2 * time.Hour},
			"inverted clock":  {StartDate: start, Days: 1, Opens: 18 * time.Hour, Closes: 9 * time.Hour},
			"past end of day": {StartDate: start, Days: 1, Opens: 9 * time.Hour, Closes: 25 * time.Hour},
		}
		for name, plan := range plans {
			if _, err := Days(plan); !errors.Is(err, ErrInvalidPlan) {
				t.Fatalf("%s: expected ErrInvalidPlan, got %v", name, err)
			}
		}
	})
}

func TestDaysCovering(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	sessions := []scheduler.Session{
		{ID: "late", Start: day.Add(24*time.Hour + 10*time.Hour), End: day.Add(24*time.Hour + 11*time.Hour)},
		{ID: "a", Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)},
		{ID: "b", Start: day.Add(14 * time.Hour), End: day.Add(15 * time.Hour)},
		{ID: "untimed"},
	}

	days := DaysCovering(sessions, nil)
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if !days[0].Start.Equal(day) || !days[1].Start.Equal(day.AddDate(0, 0, 1)) {
		t.Fatalf("unexpected boundaries %+v", days)
	}
	for _, session := range sessions[:3] {
		covered := false
		for _, d := range days {
			if d.Covers(session.Range()) {
				covered = true
			}
		}
		if !covered {
			t.Fatalf("session %s not covered", session.ID)
		}
	}
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	valid := map[string]time.Duration{
		"09:00": 9 * time.Hour,
		"12:30": 12*time.Hour + 30*time.Minute,
		"24:00": 24 * time.Hour,
		"0:05":  5 * time.Minute,
	}
	for input, want := range valid {
		got, err := ParseClock(input)
		if err != nil || got != want {
			t.Fatalf("ParseClock(%q) = %v, %v; want %v", input, got, err, want)
		}
	}

	for _, input := range []string{"", "9", "25:00", "12:60", "ab:cd", "12:5", "24:30"} {
		if _, err := ParseClock(input); !errors.Is(err, ErrInvalidClock) {
			t.Fatalf("ParseClock(%q) expected ErrInvalidClock, got %v", input, err)
		}
	}
}
