package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/example/conference-agenda/internal/application"
	"github.com/example/conference-agenda/internal/calendar"
	"github.com/example/conference-agenda/internal/scheduler"
)

// Weights returns the ranking weights.
func (c *Config) Weights() (scheduler.Weights, error) {
	w := scheduler.Weights{
		Semantic:     c.Agenda.WeightSemantic,
		TagOverlap:   c.Agenda.WeightTagOverlap,
		RoleAffinity: c.Agenda.WeightRoleAffinity,
		Networking:   c.Agenda.WeightNetworking,
	}
	if err := w.Validate(); err != nil {
		return scheduler.Weights{}, fmt.Errorf("weights: %w", err)
	}
	if w.Semantic+w.TagOverlap+w.RoleAffinity+w.Networking == 0 {
		return scheduler.Weights{}, fmt.Errorf("at least one weight must be positive")
	}
	return w, nil
}

func (c *Config) mealWindow() (scheduler.MealWindow, error) {
	if c.Agenda.MealStart == "" && c.Agenda.MealEnd == "" {
		return scheduler.MealWindow{}, nil
	}
	start, err := calendar.ParseClock(c.Agenda.MealStart)
	if err != nil {
		return scheduler.MealWindow{}, err
	}
	end, err := calendar.ParseClock(c.Agenda.MealEnd)
	if err != nil {
		return scheduler.MealWindow{}, err
	}
	if end <= start {
		return scheduler.MealWindow{}, fmt.Errorf("meal window ends before it starts")
	}
	return scheduler.MealWindow{Start: start, End: end}, nil
}

// Location resolves the conference time zone.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Conference.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// ConferenceDays expands the conference section into day boundaries. It
// returns nil when no start date is configured.
func (c *Config) ConferenceDays() ([]scheduler.DateRange, error) {
	if strings.TrimSpace(c.Conference.StartDate) == "" {
		return nil, nil
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	start, err := time.ParseInLocation("2006-01-02", c.Conference.StartDate, loc)
	if err != nil {
		return nil, err
	}
	opens, err := calendar.ParseClock(c.Conference.Opens)
	if err != nil {
		return nil, err
	}
	closes, err := calendar.ParseClock(c.Conference.Closes)
	if err != nil {
		return nil, err
	}
	weekdays, err := parseWeekdays(c.Conference.Weekdays)
	if err != nil {
		return nil, err
	}
	return calendar.Days(calendar.DayPlan{
		StartDate: start,
		Days:      c.Conference.Days,
		Opens:     opens,
		Closes:    closes,
		Weekdays:  weekdays,
		Location:  loc,
	})
}

func parseWeekdays(values []string) ([]time.Weekday, error) {
	weekdays := make([]time.Weekday, 0, len(values))
	for _, value := range values {
		day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(value))]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", value)
		}
		weekdays = append(weekdays, day)
	}
	return weekdays, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ApplicationAgenda builds the agenda service configuration.
func (c *Config) ApplicationAgenda() (application.AgendaConfig, error) {
	weights, err := c.Weights()
	if err != nil {
		return application.AgendaConfig{}, err
	}
	meal, err := c.mealWindow()
	if err != nil {
		return application.AgendaConfig{}, err
	}
	loc, err := c.Location()
	if err != nil {
		return application.AgendaConfig{}, err
	}
	days, err := c.ConferenceDays()
	if err != nil {
		return application.AgendaConfig{}, err
	}
	return application.AgendaConfig{
		Weights: weights,
		Pack: scheduler.PackOptions{
			MaxPerDay:    c.Agenda.MaxPerDay,
			MealWindow:   meal,
			MinMealBreak: c.Agenda.MinMealBreak,
			TravelBuffer: c.Agenda.TravelBuffer,
			MinScore:     c.Agenda.MinScore,
		},
		IncludePast: c.Agenda.IncludePast,
		Days:        days,
		Location:    loc,
		CacheTTL:    c.Cache.TTL,
	}, nil
}
