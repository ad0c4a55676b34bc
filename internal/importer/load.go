package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/conference-agenda/internal/logging"
	"github.com/example/conference-agenda/internal/persistence"
)

// Summary counts the records written by Load.
type Summary struct {
	Sessions int
	Speakers int
	Links    int
}

func (s Summary) String() string {
	return fmt.Sprintf("sessions=%d speakers=%d links=%d", s.Sessions, s.Speakers, s.Links)
}

// Load upserts the export into the catalog. Speakers are written first so
// links can be resolved; speaker order per session follows the export.
func Load(ctx context.Context, catalog persistence.CatalogRepository, export *Export) (summary Summary, err error) {
	if catalog == nil {
		return Summary{}, fmt.Errorf("importer: catalog repository is nil")
	}
	if export == nil {
		return Summary{}, fmt.Errorf("importer: export is nil")
	}

	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "importer", "operation", "Load")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load export", "error", err)
			return
		}
		logger.InfoContext(ctx, "export loaded",
			"sessions", summary.Sessions,
			"speakers", summary.Speakers,
			"links", summary.Links,
		)
	}()

	for _, sp := range export.Data.Speakers {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := catalog.UpsertSpeaker(ctx, toSpeaker(sp)); err != nil {
			return summary, fmt.Errorf("importer: upsert speaker %q: %w", sp.ID, err)
		}
		summary.Speakers++
	}

	for _, s := range export.Data.Sessions {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := catalog.UpsertSession(ctx, toSession(s)); err != nil {
			return summary, fmt.Errorf("importer: upsert session %q: %w", s.ID, err)
		}
		summary.Sessions++
	}

	for _, sessionID := range linkOrder(export.Data.SessionSpeakers) {
		speakerIDs := speakersOf(export.Data.SessionSpeakers, sessionID)
		if err := catalog.LinkSpeakers(ctx, sessionID, speakerIDs); err != nil {
			return summary, fmt.Errorf("importer: link speakers of %q: %w", sessionID, err)
		}
		summary.Links += len(speakerIDs)
	}

	return summary, nil
}

func linkOrder(links []SessionSpeaker) []string {
	seen := make(map[string]struct{})
	order := make([]string, 0)
	for _, link := range links {
		if _, ok := seen[link.SessionID]; ok {
			continue
		}
		seen[link.SessionID] = struct{}{}
		order = append(order, link.SessionID)
	}
	return order
}

func speakersOf(links []SessionSpeaker, sessionID string) []string {
	ids := make([]string, 0)
	for _, link := range links {
		if link.SessionID == sessionID {
			ids = append(ids, link.SpeakerID)
		}
	}
	return ids
}

func toSession(s Session) persistence.Session {
	return persistence.Session{
		ID:          s.ID,
		Title:       strings.TrimSpace(s.Title),
		Description: s.Description,
		Start:       s.StartTime,
		End:         s.EndTime,
		Location:    s.Location,
		Track:       s.Track,
		Level:       s.Level,
		Tags:        cleanList(s.Tags),
		CreatedAt:   s.CreatedAt,
	}
}

func toSpeaker(sp Speaker) persistence.Speaker {
	return persistence.Speaker{
		ID:        sp.ID,
		Name:      strings.TrimSpace(sp.Name),
		Role:      sp.Role,
		Company:   sp.Company,
		Bio:       sp.Bio,
		Expertise: cleanList(sp.Expertise),
		CreatedAt: sp.CreatedAt,
	}
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
