package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tazhate/trackbot/internal/domain"
	"github.com/tazhate/trackbot/internal/storage"
)

// LocalReminderService implements ReminderService on the sqlite store.
// Occurrences are recorded through Schedule by an external scheduler.
type LocalReminderService struct {
	storage *storage.Storage
	userID  int64
	now     func() time.Time
}

func NewLocalReminderService(s *storage.Storage, userID int64) *LocalReminderService {
	return &LocalReminderService{
		storage: s,
		userID:  userID,
		now:     time.Now,
	}
}

func (s *LocalReminderService) List(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reminders, err := s.storage.ListRemindersByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	out := make([]domain.Reminder, len(reminders))
	for i, r := range reminders {
		out[i] = *r
	}
	return out, nil
}

func (s *LocalReminderService) owned(id int64) (*domain.Reminder, error) {
	r, err := s.storage.GetReminder(id)
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("reminder %d: %w", id, domain.ErrNotFound)
	}
	if r.UserID != s.userID {
		return nil, domain.ErrAccessDenied
	}
	return r, nil
}

func (s *LocalReminderService) outstanding(id int64) (*domain.Reminder, error) {
	r, err := s.owned(id)
	if err != nil {
		return nil, err
	}
	if !r.IsOutstanding() {
		return nil, fmt.Errorf("reminder %d already %s: %w", id, r.Status, domain.ErrInvalidTransition)
	}
	return r, nil
}

func (s *LocalReminderService) Complete(ctx context.Context, id int64, value string) (*domain.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := s.outstanding(id); err != nil {
		return nil, err
	}
	var v *string
	if value = strings.TrimSpace(value); value != "" {
		v = &value
	}
	if err := s.storage.AnswerReminder(id, v, false, s.now()); err != nil {
		return nil, fmt.Errorf("complete reminder: %w", err)
	}
	return s.owned(id)
}

// Dismiss answers the reminder as skipped, with no value.
func (s *LocalReminderService) Dismiss(ctx context.Context, id int64) (*domain.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := s.outstanding(id); err != nil {
		return nil, err
	}
	if err := s.storage.AnswerReminder(id, nil, true, s.now()); err != nil {
		return nil, fmt.Errorf("dismiss reminder: %w", err)
	}
	return s.owned(id)
}

// Snooze moves the reminder minutes from now and makes it upcoming again.
func (s *LocalReminderService) Snooze(ctx context.Context, id int64, minutes int) (*domain.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if minutes <= 0 {
		return nil, &domain.ValidationError{Field: "minutes", Message: "snooze must be at least one minute"}
	}
	if _, err := s.outstanding(id); err != nil {
		return nil, err
	}
	at := s.now().Add(time.Duration(minutes) * time.Minute)
	if err := s.storage.RescheduleReminder(id, at); err != nil {
		return nil, fmt.Errorf("snooze reminder: %w", err)
	}
	return s.owned(id)
}

func (s *LocalReminderService) Update(ctx context.Context, id int64, patch domain.ReminderPatch) (*domain.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.owned(id); err != nil {
		return nil, err
	}
	if err := s.storage.UpdateReminder(id, patch); err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	return s.owned(id)
}

func (s *LocalReminderService) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.owned(id); err != nil {
		return err
	}
	return s.storage.DeleteReminder(id)
}

// Schedule records an upcoming occurrence of the tracking at the given time.
func (s *LocalReminderService) Schedule(ctx context.Context, trackingID int64, at time.Time) (*domain.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := s.storage.GetTracking(trackingID)
	if err != nil {
		return nil, fmt.Errorf("get tracking: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("tracking %d: %w", trackingID, domain.ErrNotFound)
	}
	if t.UserID != s.userID {
		return nil, domain.ErrAccessDenied
	}
	if t.State != domain.StateRunning {
		return nil, fmt.Errorf("tracking %d is %s: %w", trackingID, t.State, domain.ErrInvalidTransition)
	}

	exists, err := s.storage.HasReminderAt(trackingID, at)
	if err != nil {
		return nil, fmt.Errorf("check reminder: %w", err)
	}
	if exists {
		return nil, &domain.ValidationError{Field: "scheduled_time", Message: "already scheduled at " + at.Format(time.RFC3339)}
	}

	r := &domain.Reminder{
		TrackingID:    trackingID,
		UserID:        t.UserID,
		ScheduledTime: at,
		Status:        domain.StatusUpcoming,
	}
	if err := s.storage.CreateReminder(r); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return r, nil
}

// PromoteDue turns upcoming reminders whose time has come into pending ones.
func (s *LocalReminderService) PromoteDue(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := s.storage.PromoteDueReminders(s.now())
	if err != nil {
		return 0, fmt.Errorf("promote reminders: %w", err)
	}
	return n, nil
}
