package application

import (
	"errors"

	"github.com/example/conference-agenda/internal/persistence"
	"github.com/example/conference-agenda/internal/scheduler"
)

func toSpeaker(speaker persistence.Speaker) Speaker {
	return Speaker{
		ID:        speaker.ID,
		Name:      speaker.Name,
		Role:      speaker.Role,
		Company:   speaker.Company,
		Bio:       speaker.Bio,
		Expertise: append([]string(nil), speaker.Expertise...),
	}
}

func toSession(session persistence.Session, speakers map[string]persistence.Speaker) Session {
	out := Session{
		ID:          session.ID,
		Title:       session.Title,
		Description: session.Description,
		Start:       session.Start,
		End:         session.End,
		Location:    session.Location,
		Track:       session.Track,
		Level:       session.Level,
		Tags:        append([]string(nil), session.Tags...),
	}
	for _, id := range session.SpeakerIDs {
		if speaker, ok := speakers[id]; ok {
			out.Speakers = append(out.Speakers, toSpeaker(speaker))
		}
	}
	return out
}

func toSchedulerSession(session Session) scheduler.Session {
	out := scheduler.Session{
		ID:          session.ID,
		Title:       session.Title,
		Description: session.Description,
		Start:       session.Start,
		End:         session.End,
		Location:    session.Location,
		Track:       session.Track,
		Level:       session.Level,
		Tags:        session.Tags,
	}
	for _, speaker := range session.Speakers {
		out.Speakers = append(out.Speakers, scheduler.Speaker{
			ID:        speaker.ID,
			Name:      speaker.Name,
			Role:      speaker.Role,
			Company:   speaker.Company,
			Expertise: speaker.Expertise,
		})
	}
	return out
}

func fromSchedulerSession(session scheduler.Session) Session {
	out := Session{
		ID:          session.ID,
		Title:       session.Title,
		Description: session.Description,
		Start:       session.Start,
		End:         session.End,
		Location:    session.Location,
		Track:       session.Track,
		Level:       session.Level,
		Tags:        session.Tags,
	}
	for _, speaker := range session.Speakers {
		out.Speakers = append(out.Speakers, Speaker{
			ID:        speaker.ID,
			Name:      speaker.Name,
			Role:      speaker.Role,
			Company:   speaker.Company,
			Expertise: speaker.Expertise,
		})
	}
	return out
}

func toProfile(profile persistence.Profile) Profile {
	return Profile{
		UserID:    profile.UserID,
		Interests: append([]string(nil), profile.Interests...),
		Goals:     append([]string(nil), profile.Goals...),
		Role:      profile.Role,
		Company:   profile.Company,
		UpdatedAt: profile.UpdatedAt,
	}
}

// snapshotSession is the opaque block used for a favorite whose session left
// the catalog.
func snapshotSession(favorite persistence.Favorite) Session {
	return Session{
		ID:    favorite.SessionID,
		Title: favorite.Title,
		Start: favorite.Start,
		End:   favorite.End,
	}
}

func speakerIndex(speakers []persistence.Speaker) map[string]persistence.Speaker {
	index := make(map[string]persistence.Speaker, len(speakers))
	for _, speaker := range speakers {
		index[speaker.ID] = speaker
	}
	return index
}

func speakerIDsOf(sessions []persistence.Session) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, session := range sessions {
		for _, id := range session.SpeakerIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
