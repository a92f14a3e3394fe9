package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/tazhate/trackbot/internal/domain"
)

const trackingColumns = `id, user_id, question, notes, icon, state, pattern, one_time_at, schedules, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTracking(row rowScanner) (*domain.Tracking, error) {
	t := &domain.Tracking{}
	var pattern sql.NullString
	var schedules string
	if err := row.Scan(&t.ID, &t.UserID, &t.Question, &t.Notes, &t.Icon, &t.State, &pattern, &t.OneTimeAt, &schedules, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if pattern.Valid && pattern.String != "" {
		var p domain.Pattern
		if err := json.Unmarshal([]byte(pattern.String), &p); err != nil {
			return nil, fmt.Errorf("tracking %d pattern: %w", t.ID, err)
		}
		t.Pattern = &p
	}
	if err := json.Unmarshal([]byte(schedules), &t.Schedules); err != nil {
		return nil, fmt.Errorf("tracking %d schedules: %w", t.ID, err)
	}
	return t, nil
}

func patternValue(p *domain.Pattern) (any, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode pattern: %w", err)
	}
	return string(data), nil
}

func schedulesValue(schedules []domain.Schedule) (string, error) {
	if schedules == nil {
		schedules = []domain.Schedule{}
	}
	data, err := json.Marshal(schedules)
	if err != nil {
		return "", fmt.Errorf("encode schedules: %w", err)
	}
	return string(data), nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// === Trackings ===

func (s *Storage) CreateTracking(t *domain.Tracking) error {
	pattern, err := patternValue(t.Pattern)
	if err != nil {
		return err
	}
	schedules, err := schedulesValue(t.Schedules)
	if err != nil {
		return err
	}
	now := dbTime(time.Now())
	if !t.CreatedAt.IsZero() {
		now = dbTime(t.CreatedAt)
	}
	res, err := s.db.Exec(
		`INSERT INTO trackings (user_id, question, notes, icon, state, pattern, one_time_at, schedules, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Question, t.Notes, t.Icon, t.State, pattern, utcPtr(t.OneTimeAt), schedules, now, now,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

func (s *Storage) GetTracking(id int64) (*domain.Tracking, error) {
	t, err := scanTracking(s.db.QueryRow(`SELECT `+trackingColumns+` FROM trackings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (s *Storage) ListTrackingsByUser(userID int64, includeArchived bool) ([]*domain.Tracking, error) {
	q := sq.Select(trackingColumns).From("trackings").Where(sq.Eq{"user_id": userID}).OrderBy("id")
	if !includeArchived {
		q = q.Where(sq.NotEq{"state": domain.StateArchived})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trackings []*domain.Tracking
	for rows.Next() {
		t, err := scanTracking(rows)
		if err != nil {
			return nil, err
		}
		trackings = append(trackings, t)
	}
	return trackings, rows.Err()
}

// UpdateTracking writes only the fields set in p.
func (s *Storage) UpdateTracking(id int64, p domain.TrackingPayload) error {
	b := sq.Update("trackings").Set("updated_at", time.Now().UTC()).Where(sq.Eq{"id": id})
	if p.Question != nil {
		b = b.Set("question", *p.Question)
	}
	if p.Notes != nil {
		b = b.Set("notes", *p.Notes)
	}
	if p.Icon != nil {
		b = b.Set("icon", *p.Icon)
	}
	if p.Pattern != nil {
		pattern, err := patternValue(p.Pattern)
		if err != nil {
			return err
		}
		b = b.Set("pattern", pattern).Set("one_time_at", nil)
	}
	if p.OneTimeAt != nil {
		b = b.Set("one_time_at", p.OneTimeAt.UTC()).Set("pattern", nil)
	}
	if p.Schedules != nil {
		schedules, err := schedulesValue(p.Schedules)
		if err != nil {
			return err
		}
		b = b.Set("schedules", schedules)
	}
	_, err := s.exec(b)
	return err
}

func (s *Storage) UpdateTrackingState(id int64, state domain.TrackingState) error {
	_, err := s.db.Exec(`UPDATE trackings SET state = ?, updated_at = ? WHERE id = ?`, state, time.Now().UTC(), id)
	return err
}

func (s *Storage) DeleteTracking(id int64) error {
	_, err := s.db.Exec(`DELETE FROM trackings WHERE id = ?`, id)
	return err
}
