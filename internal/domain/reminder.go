package domain

import "time"

type ReminderStatus string

const (
	StatusUpcoming ReminderStatus = "upcoming"
	StatusPending  ReminderStatus = "pending"
	StatusAnswered ReminderStatus = "answered"
)

func (s ReminderStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusPending, StatusAnswered:
		return true
	}
	return false
}

// Reminder is a single generated occurrence of a Tracking.
type Reminder struct {
	ID            int64          `json:"id"`
	TrackingID    int64          `json:"tracking_id"`
	UserID        int64          `json:"user_id"`
	ScheduledTime time.Time      `json:"scheduled_time"`
	Status        ReminderStatus `json:"status"`
	Value         *string        `json:"value,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	Skipped       bool           `json:"skipped,omitempty"` // answered by dismissal
	AnsweredAt    *time.Time     `json:"answered_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (r *Reminder) IsOutstanding() bool {
	return r.Status == StatusUpcoming || r.Status == StatusPending
}

// ReminderPatch is the partial update accepted by ReminderService.update.
type ReminderPatch struct {
	Notes         *string         `json:"notes,omitempty"`
	Status        *ReminderStatus `json:"status,omitempty"`
	ScheduledTime *time.Time      `json:"scheduled_time,omitempty"`
}

func (p ReminderPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return invalid("status", "unknown status %q", *p.Status)
	}
	if p.ScheduledTime != nil && p.ScheduledTime.IsZero() {
		return invalid("scheduled_time", "scheduled time cannot be empty")
	}
	return nil
}
