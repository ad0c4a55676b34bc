// Package calendar expands conference settings into the day boundaries used
// by the agenda packer.
package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/conference-agenda/internal/scheduler"
)

// ErrInvalidPlan indicates the day plan cannot produce any boundary.
var ErrInvalidPlan = errors.New("calendar: invalid day plan")

// ErrInvalidClock indicates a clock value is not in HH:MM form.
var ErrInvalidClock = errors.New("calendar: clock must be HH:MM")

// DayPlan describes consecutive conference days.
type DayPlan struct {
	// StartDate supplies the first calendar date; its clock is ignored.
	StartDate time.Time
	// Days is the number of conference days to produce.
	Days int
	// Opens and Closes are offsets from local midnight.
	Opens  time.Duration
	Closes time.Duration
	// Weekdays optionally restricts which dates count as conference days.
	Weekdays []time.Weekday
	// Location defaults to UTC.
	Location *time.Location
}

// Days expands the plan into day boundaries in chronological order. Dates
// skipped by the weekday filter do not count towards Days.
func Days(plan DayPlan) ([]scheduler.DateRange, error) {
	if plan.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrInvalidPlan)
	}
	if plan.Days <= 0 {
		return nil, fmt.Errorf("%w: day count must be positive", ErrInvalidPlan)
	}
	if plan.Opens < 0 || plan.Closes > 24*time.Hour || plan.Opens >= plan.Closes {
		return nil, fmt.Errorf("%w: opening time must precede closing time", ErrInvalidPlan)
	}

	loc := plan.Location
	if loc == nil {
		loc = time.UTC
	}

	weekdaySet := make(map[time.Weekday]struct{}, len(plan.Weekdays))
	for _, day := range plan.Weekdays {
		weekdaySet[day] = struct{}{}
	}

	y, m, d := plan.StartDate.In(loc).Date()
	current := time.Date(y, m, d, 0, 0, 0, 0, loc)

	days := make([]scheduler.DateRange, 0, plan.Days)
	// Bound the walk so a filter that never matches cannot loop forever.
	for step := 0; len(days) < plan.Days && step < plan.Days*7+7; step++ {
		if includeDay(weekdaySet, current.Weekday()) {
			days = append(days, scheduler.DateRange{
				Start: current.Add(plan.Opens),
				End:   current.Add(plan.Closes),
			})
		}
		current = current.AddDate(0, 0, 1)
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: weekday filter excludes every date", ErrInvalidPlan)
	}
	return days, nil
}

func includeDay(weekdaySet map[time.Weekday]struct{}, day time.Weekday) bool {
	if len(weekdaySet) == 0 {
		return true
	}
	_, ok := weekdaySet[day]
	return ok
}

// DaysCovering returns one midnight-to-midnight boundary in loc for each
// calendar date on which a session starts.
func DaysCovering(sessions []scheduler.Session, loc *time.Location) []scheduler.DateRange {
	if loc == nil {
		loc = time.UTC
	}
	seen := make(map[time.Time]struct{})
	days := make([]scheduler.DateRange, 0)
	for _, session := range sessions {
		if session.Start.IsZero() {
			continue
		}
		y, m, d := session.Start.In(loc).Date()
		midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
		if _, ok := seen[midnight]; ok {
			continue
		}
		seen[midnight] = struct{}{}
		days = append(days, scheduler.DateRange{Start: midnight, End: midnight.AddDate(0, 0, 1)})
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Start.Before(days[j].Start)
	})
	return days
}

// ParseClock converts "HH:MM" into an offset from midnight. "24:00" is
// accepted as the end of the day.
func ParseClock(value string) (time.Duration, error) {
	hours, minutes, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	mm, err := strconv.Atoi(minutes)
	if err != nil || len(minutes) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	if h < 0 || mm < 0 || mm > 59 || h > 24 || (h == 24 && mm != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return time.Duration(h)*time.Hour + time.Duration(mm)*time.Minute, nil
}
