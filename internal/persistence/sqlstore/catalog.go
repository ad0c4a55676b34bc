package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/conference-agenda/internal/persistence"
)

const sessionColumns = `id, title, description, start_time, end_time, location, track, level, tags, created_at, updated_at`

const speakerColumns = `id, name, role, company, bio, expertise, created_at, updated_at`

// UpsertSession inserts a session or updates it in place. The original
// creation time is kept on update.
func (s *Store) UpsertSession(ctx context.Context, session persistence.Session) error {
	if session.ID == "" {
		return fmt.Errorf("sqlstore: session id is required")
	}
	now := s.now().UTC()
	created := session.CreatedAt
	if created.IsZero() {
		created = now
	}

	query := `INSERT INTO sessions (` + sessionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  title = excluded.title,
  description = excluded.description,
  start_time = excluded.start_time,
  end_time = excluded.end_time,
  location = excluded.location,
  track = excluded.track,
  level = excluded.level,
  tags = excluded.tags,
  updated_at = excluded.updated_at`

	return s.withRetry(ctx, func() error {
		_, err := s.exec(ctx, query,
			session.ID,
			session.Title,
			session.Description,
			formatTime(session.Start),
			formatTime(session.End),
			session.Location,
			session.Track,
			session.Level,
			joinList(session.Tags),
			formatTime(created),
			formatTime(now),
		)
		return mapError(err)
	})
}

// UpsertSpeaker inserts a speaker or updates it in place.
func (s *Store) UpsertSpeaker(ctx context.Context, speaker persistence.Speaker) error {
	if speaker.ID == "" {
		return fmt.Errorf("sqlstore: speaker id is required")
	}
	now := s.now().UTC()
	created := speaker.CreatedAt
	if created.IsZero() {
		created = now
	}

	query := `INSERT INTO speakers (` + speakerColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  name = excluded.name,
  role = excluded.role,
  company = excluded.company,
  bio = excluded.bio,
  expertise = excluded.expertise,
  updated_at = excluded.updated_at`

	return s.withRetry(ctx, func() error {
		_, err := s.exec(ctx, query,
			speaker.ID,
			speaker.Name,
			speaker.Role,
			speaker.Company,
			speaker.Bio,
			joinList(speaker.Expertise),
			formatTime(created),
			formatTime(now),
		)
		return mapError(err)
	})
}

// LinkSpeakers replaces the ordered speakers of a session.
func (s *Store) LinkSpeakers(ctx context.Context, sessionID string, speakerIDs []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, s.dialect.rebind(`SELECT 1 FROM sessions WHERE id = ?`), sessionID).Scan(&exists)
		if err != nil {
			return mapError(err)
		}

		if _, err := s.execTx(ctx, tx, `DELETE FROM session_speakers WHERE session_id = ?`, sessionID); err != nil {
			return mapError(err)
		}

		seen := make(map[string]struct{}, len(speakerIDs))
		position := 0
		for _, speakerID := range speakerIDs {
			if _, dup := seen[speakerID]; dup {
				continue
			}
			seen[speakerID] = struct{}{}
			_, err := s.execTx(ctx, tx,
				`INSERT INTO session_speakers (session_id, speaker_id, position) VALUES (?, ?, ?)`,
				sessionID, speakerID, position)
			if err != nil {
				return mapError(err)
			}
			position++
		}
		return nil
	})
}

// GetSession retrieves a session with its ordered speaker IDs.
func (s *Store) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	if id == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	row := s.queryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if err != nil {
		return persistence.Session{}, err
	}

	links, err := s.speakerLinks(ctx, []string{id})
	if err != nil {
		return persistence.Session{}, err
	}
	session.SpeakerIDs = links[id]
	return session, nil
}

// ListSessions translates the typed query into SQL.
func (s *Store) ListSessions(ctx context.Context, q persistence.SessionQuery) ([]persistence.Session, error) {
	query, args, err := s.buildSessionQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var sessions []persistence.Session
	var ids []string
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
		ids = append(ids, session.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	links, err := s.speakerLinks(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].SpeakerIDs = links[sessions[i].ID]
	}
	return sessions, nil
}

func (s *Store) buildSessionQuery(q persistence.SessionQuery) (string, []any, error) {
	var where []string
	var args []any

	for _, filter := range q.Filters {
		switch f := filter.(type) {
		case persistence.TextFilter:
			needle := strings.ToLower(strings.TrimSpace(f.Text))
			if needle == "" {
				continue
			}
			pattern := "%" + needle + "%"
			where = append(where, `(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(track) LIKE ? OR LOWER(tags) LIKE ?)`)
			args = append(args, pattern, pattern, pattern, pattern)
		case persistence.TagFilter:
			var ors []string
			for _, tag := range f.Tags {
				tag = strings.ToLower(strings.TrimSpace(tag))
				if tag == "" {
					continue
				}
				ors = append(ors, `LOWER('|' || tags || '|') LIKE ?`)
				args = append(args, "%|"+tag+"|%")
			}
			if len(ors) > 0 {
				where = append(where, "("+strings.Join(ors, " OR ")+")")
			}
		case persistence.TrackFilter:
			if strings.TrimSpace(f.Track) == "" {
				continue
			}
			where = append(where, `LOWER(track) = ?`)
			args = append(args, strings.ToLower(strings.TrimSpace(f.Track)))
		case persistence.TimeRangeFilter:
			if !f.From.IsZero() {
				where = append(where, `start_time >= ?`)
				args = append(args, formatTime(f.From))
			}
			if !f.To.IsZero() {
				where = append(where, `start_time < ?`)
				args = append(args, formatTime(f.To))
			}
		case persistence.IDFilter:
			if len(f.IDs) == 0 {
				where = append(where, `1 = 0`)
				continue
			}
			where = append(where, `id IN (`+placeholders(len(f.IDs))+`)`)
			for _, id := range f.IDs {
				args = append(args, id)
			}
		case persistence.SpeakerFilter:
			where = append(where, `id IN (SELECT session_id FROM session_speakers WHERE speaker_id = ?)`)
			args = append(args, f.SpeakerID)
		default:
			return "", nil, fmt.Errorf("sqlstore: unsupported session filter %T", filter)
		}
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + sessionColumns + ` FROM sessions`)
	if len(where) > 0 {
		b.WriteString(` WHERE ` + strings.Join(where, ` AND `))
	}
	b.WriteString(` ORDER BY start_time, id`)
	switch {
	case q.Limit > 0:
		b.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
		if q.Offset > 0 {
			b.WriteString(` OFFSET ?`)
			args = append(args, q.Offset)
		}
	case q.Offset > 0 && s.dialect == DialectSQLite:
		b.WriteString(` LIMIT -1 OFFSET ?`)
		args = append(args, q.Offset)
	case q.Offset > 0:
		b.WriteString(` OFFSET ?`)
		args = append(args, q.Offset)
	}
	return b.String(), args, nil
}

func (s *Store) speakerLinks(ctx context.Context, sessionIDs []string) (map[string][]string, error) {
	links := make(map[string][]string, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return links, nil
	}

	args := make([]any, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		args = append(args, id)
	}
	rows, err := s.query(ctx,
		`SELECT session_id, speaker_id FROM session_speakers WHERE session_id IN (`+placeholders(len(sessionIDs))+`) ORDER BY session_id, position`,
		args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var sessionID, speakerID string
		if err := rows.Scan(&sessionID, &speakerID); err != nil {
			return nil, mapError(err)
		}
		links[sessionID] = append(links[sessionID], speakerID)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return links, nil
}

// GetSpeaker retrieves a speaker by ID.
func (s *Store) GetSpeaker(ctx context.Context, id string) (persistence.Speaker, error) {
	if id == "" {
		return persistence.Speaker{}, persistence.ErrNotFound
	}
	return scanSpeaker(s.queryRow(ctx, `SELECT `+speakerColumns+` FROM speakers WHERE id = ?`, id))
}

// ListSpeakers returns speakers matching the query ordered by name then ID.
func (s *Store) ListSpeakers(ctx context.Context, q persistence.SpeakerQuery) ([]persistence.Speaker, error) {
	var where []string
	var args []any
	if len(q.IDs) > 0 {
		where = append(where, `id IN (`+placeholders(len(q.IDs))+`)`)
		for _, id := range q.IDs {
			args = append(args, id)
		}
	}
	if needle := strings.ToLower(strings.TrimSpace(q.Text)); needle != "" {
		pattern := "%" + needle + "%"
		where = append(where, `(LOWER(name) LIKE ? OR LOWER(company) LIKE ? OR LOWER(role) LIKE ? OR LOWER(expertise) LIKE ?)`)
		args = append(args, pattern, pattern, pattern, pattern)
	}

	query := `SELECT ` + speakerColumns + ` FROM speakers`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY LOWER(name), id`

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var speakers []persistence.Speaker
	for rows.Next() {
		speaker, err := scanSpeaker(rows)
		if err != nil {
			return nil, err
		}
		speakers = append(speakers, speaker)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return speakers, nil
}

// ListSessionSpeakers returns every link ordered by session then position.
func (s *Store) ListSessionSpeakers(ctx context.Context) ([]persistence.SessionSpeaker, error) {
	rows, err := s.query(ctx, `SELECT session_id, speaker_id, position FROM session_speakers ORDER BY session_id, position`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var links []persistence.SessionSpeaker
	for rows.Next() {
		var link persistence.SessionSpeaker
		if err := rows.Scan(&link.SessionID, &link.SpeakerID, &link.Position); err != nil {
			return nil, mapError(err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return links, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (persistence.Session, error) {
	var session persistence.Session
	var start, end, tags, created, updated string
	err := row.Scan(
		&session.ID,
		&session.Title,
		&session.Description,
		&start,
		&end,
		&session.Location,
		&session.Track,
		&session.Level,
		&tags,
		&created,
		&updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, mapError(err)
	}

	session.Tags = splitList(tags)
	if session.Start, err = parseTime("start_time", start); err != nil {
		return persistence.Session{}, err
	}
	if session.End, err = parseTime("end_time", end); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime("created_at", created); err != nil {
		return persistence.Session{}, err
	}
	if session.UpdatedAt, err = parseTime("updated_at", updated); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

func scanSpeaker(row scanner) (persistence.Speaker, error) {
	var speaker persistence.Speaker
	var expertise, created, updated string
	err := row.Scan(
		&speaker.ID,
		&speaker.Name,
		&speaker.Role,
		&speaker.Company,
		&speaker.Bio,
		&expertise,
		&created,
		&updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Speaker{}, persistence.ErrNotFound
		}
		return persistence.Speaker{}, mapError(err)
	}

	speaker.Expertise = splitList(expertise)
	if speaker.CreatedAt, err = parseTime("created_at", created); err != nil {
		return persistence.Speaker{}, err
	}
	if speaker.UpdatedAt, err = parseTime("updated_at", updated); err != nil {
		return persistence.Speaker{}, err
	}
	return speaker, nil
}
