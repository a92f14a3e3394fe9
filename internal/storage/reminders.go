package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/tazhate/trackbot/internal/domain"
)

const reminderColumns = `id, tracking_id, user_id, scheduled_time, status, value, notes, skipped, answered_at, created_at`

// dbTime normalizes times so that stored values compare correctly as text.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func scanReminder(row rowScanner) (*domain.Reminder, error) {
	r := &domain.Reminder{}
	var value sql.NullString
	if err := row.Scan(&r.ID, &r.TrackingID, &r.UserID, &r.ScheduledTime, &r.Status, &value, &r.Notes, &r.Skipped, &r.AnsweredAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	if value.Valid {
		r.Value = &value.String
	}
	return r, nil
}

func (s *Storage) queryReminders(b sq.SelectBuilder) ([]*domain.Reminder, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*domain.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// === Reminders ===

func (s *Storage) CreateReminder(r *domain.Reminder) error {
	now := dbTime(time.Now())
	if r.Status == "" {
		r.Status = domain.StatusUpcoming
	}
	r.ScheduledTime = dbTime(r.ScheduledTime)
	res, err := s.db.Exec(
		`INSERT INTO reminders (tracking_id, user_id, scheduled_time, status, value, notes, skipped, answered_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TrackingID, r.UserID, r.ScheduledTime, r.Status, r.Value, r.Notes, r.Skipped, utcPtr(r.AnsweredAt), now,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	r.ID = id
	r.CreatedAt = now
	return nil
}

func (s *Storage) GetReminder(id int64) (*domain.Reminder, error) {
	r, err := scanReminder(s.db.QueryRow(`SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *Storage) ListRemindersByUser(userID int64) ([]*domain.Reminder, error) {
	return s.queryReminders(sq.Select(reminderColumns).From("reminders").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("scheduled_time", "id"))
}

func (s *Storage) ListRemindersByTracking(trackingID int64) ([]*domain.Reminder, error) {
	return s.queryReminders(sq.Select(reminderColumns).From("reminders").
		Where(sq.Eq{"tracking_id": trackingID}).
		OrderBy("scheduled_time", "id"))
}

// HasReminderAt reports whether a reminder for the tracking already exists at t.
func (s *Storage) HasReminderAt(trackingID int64, t time.Time) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reminders WHERE tracking_id = ? AND scheduled_time = ?`,
		trackingID, dbTime(t)).Scan(&n)
	return n > 0, err
}

// UpdateReminder writes only the fields set in p.
func (s *Storage) UpdateReminder(id int64, p domain.ReminderPatch) error {
	b := sq.Update("reminders").Where(sq.Eq{"id": id})
	changed := false
	if p.Notes != nil {
		b = b.Set("notes", *p.Notes)
		changed = true
	}
	if p.Status != nil {
		b = b.Set("status", *p.Status)
		changed = true
	}
	if p.ScheduledTime != nil {
		b = b.Set("scheduled_time", dbTime(*p.ScheduledTime))
		changed = true
	}
	if !changed {
		return nil
	}
	_, err := s.exec(b)
	return err
}

// AnswerReminder marks the reminder answered at the given time.
func (s *Storage) AnswerReminder(id int64, value *string, skipped bool, at time.Time) error {
	_, err := s.db.Exec(`UPDATE reminders SET status = ?, value = ?, skipped = ?, answered_at = ? WHERE id = ?`,
		domain.StatusAnswered, value, skipped, dbTime(at), id)
	return err
}

// RescheduleReminder moves the reminder to t and makes it upcoming again.
func (s *Storage) RescheduleReminder(id int64, t time.Time) error {
	_, err := s.db.Exec(`UPDATE reminders SET status = ?, scheduled_time = ? WHERE id = ?`,
		domain.StatusUpcoming, dbTime(t), id)
	return err
}

func (s *Storage) DeleteReminder(id int64) error {
	_, err := s.db.Exec(`DELETE FROM reminders WHERE id = ?`, id)
	return err
}

// DeleteRemindersByTracking removes the tracking's reminders in any of the
// given statuses, or all of them when none are given.
func (s *Storage) DeleteRemindersByTracking(trackingID int64, statuses ...domain.ReminderStatus) (int64, error) {
	b := sq.Delete("reminders").Where(sq.Eq{"tracking_id": trackingID})
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, st := range statuses {
			values[i] = string(st)
		}
		b = b.Where(sq.Eq{"status": values})
	}
	return s.exec(b)
}

// PromoteDueReminders turns upcoming reminders scheduled at or before now
// into pending ones.
func (s *Storage) PromoteDueReminders(now time.Time) (int64, error) {
	return s.exec(sq.Update("reminders").
		Set("status", domain.StatusPending).
		Where(sq.Eq{"status": domain.StatusUpcoming}).
		Where(sq.LtOrEq{"scheduled_time": dbTime(now)}))
}
