package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type TrackingState string

const (
	StateRunning  TrackingState = "running"
	StatePaused   TrackingState = "paused"
	StateArchived TrackingState = "archived"
)

func (s TrackingState) Valid() bool {
	switch s {
	case StateRunning, StatePaused, StateArchived:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s in one step.
// Archived is terminal.
func (s TrackingState) CanTransitionTo(next TrackingState) bool {
	switch s {
	case StateRunning:
		return next == StatePaused || next == StateArchived
	case StatePaused:
		return next == StateRunning || next == StateArchived
	}
	return false
}

// PrunedStatuses returns the reminder statuses that stop being shown once a
// tracking enters s.
func (s TrackingState) PrunedStatuses() []ReminderStatus {
	switch s {
	case StatePaused:
		return []ReminderStatus{StatusUpcoming}
	case StateArchived:
		return []ReminderStatus{StatusPending, StatusUpcoming}
	}
	return nil
}

const MaxSchedules = 5

// Schedule is a time of day at which a tracking prompts.
type Schedule struct {
	Hour    int `json:"hour"`
	Minutes int `json:"minutes"`
}

func (s Schedule) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minutes)
}

// ParseSchedule parses "HH:MM".
func ParseSchedule(v string) (Schedule, error) {
	var s Schedule
	if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d:%d", &s.Hour, &s.Minutes); err != nil {
		return Schedule{}, fmt.Errorf("invalid time format: %s", v)
	}
	if err := ValidateSchedules([]Schedule{s}); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

// ValidateSchedules requires 1..5 unique in-range times of day.
func ValidateSchedules(schedules []Schedule) error {
	if len(schedules) == 0 {
		return invalid("schedules", "add at least one time")
	}
	if len(schedules) > MaxSchedules {
		return invalid("schedules", "at most %d times allowed", MaxSchedules)
	}
	seen := make(map[Schedule]bool, len(schedules))
	for _, s := range schedules {
		if s.Hour < 0 || s.Hour > 23 || s.Minutes < 0 || s.Minutes > 59 {
			return invalid("schedules", "%02d:%02d is not a time of day", s.Hour, s.Minutes)
		}
		if seen[s] {
			return invalid("schedules", "%s listed twice", s)
		}
		seen[s] = true
	}
	return nil
}

// SortSchedules orders schedules by time of day in place.
func SortSchedules(schedules []Schedule) {
	slices.SortFunc(schedules, func(a, b Schedule) int {
		return (a.Hour*60 + a.Minutes) - (b.Hour*60 + b.Minutes)
	})
}

// Tracking is a user-defined recurring (or one-time) question.
type Tracking struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user_id"`
	Question  string        `json:"question"`
	Notes     string        `json:"notes,omitempty"`
	Icon      string        `json:"icon,omitempty"`
	State     TrackingState `json:"state"`
	Pattern   *Pattern      `json:"pattern,omitempty"`
	// OneTimeAt is set instead of Pattern for strictly one-time trackings.
	OneTimeAt *time.Time `json:"one_time_at,omitempty"`
	Schedules []Schedule `json:"schedules"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (t *Tracking) IsOneTime() bool {
	return t.Pattern == nil && t.OneTimeAt != nil
}

// Validate checks the invariants of a persisted tracking.
func (t *Tracking) Validate() error {
	if strings.TrimSpace(t.Question) == "" {
		return invalid("question", "question cannot be empty")
	}
	if !t.State.Valid() {
		return invalid("state", "unknown state %q", t.State)
	}
	if t.Pattern == nil {
		if t.OneTimeAt == nil {
			return invalid("pattern", "recurrence is required")
		}
		return nil
	}
	if err := t.Pattern.Validate(); err != nil {
		return err
	}
	return ValidateSchedules(t.Schedules)
}

// TrackingPayload carries the editable fields of a tracking. On update nil
// fields are left unchanged.
type TrackingPayload struct {
	UserID    int64      `json:"user_id,omitempty"`
	Question  *string    `json:"question,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	Icon      *string    `json:"icon,omitempty"`
	Pattern   *Pattern   `json:"pattern,omitempty"`
	OneTimeAt *time.Time `json:"one_time_at,omitempty"`
	Schedules []Schedule `json:"schedules,omitempty"`
}

// Apply copies the set fields of p onto t. State is never touched.
func (p TrackingPayload) Apply(t *Tracking) {
	if p.Question != nil {
		t.Question = strings.TrimSpace(*p.Question)
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Icon != nil {
		t.Icon = *p.Icon
	}
	if p.Pattern != nil {
		pattern := *p.Pattern
		t.Pattern = &pattern
		t.OneTimeAt = nil
	}
	if p.OneTimeAt != nil {
		at := *p.OneTimeAt
		t.OneTimeAt = &at
		t.Pattern = nil
	}
	if p.Schedules != nil {
		t.Schedules = slices.Clone(p.Schedules)
		SortSchedules(t.Schedules)
	}
}

// Empty reports whether the payload changes nothing.
func (p TrackingPayload) Empty() bool {
	return p.Question == nil && p.Notes == nil && p.Icon == nil &&
		p.Pattern == nil && p.OneTimeAt == nil && p.Schedules == nil
}

// StringPtr is a helper for building payloads.
func StringPtr(s string) *string {
	return &s
}
