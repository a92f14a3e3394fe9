package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tazhate/trackbot/internal/domain"
	"github.com/tazhate/trackbot/internal/storage"
)

// LocalTrackingService implements TrackingService on the sqlite store for a
// single owner.
type LocalTrackingService struct {
	storage  *storage.Storage
	userID   int64
	timezone *time.Location
	now      func() time.Time
}

// NewLocalTrackingService returns a service for userID. One-time dates are
// compared against today in tz.
func NewLocalTrackingService(s *storage.Storage, userID int64, tz *time.Location) *LocalTrackingService {
	if tz == nil {
		tz = time.UTC
	}
	return &LocalTrackingService{storage: s, userID: userID, timezone: tz, now: time.Now}
}

func (s *LocalTrackingService) List(ctx context.Context, userID int64) ([]domain.Tracking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trackings, err := s.storage.ListTrackingsByUser(userID, false)
	if err != nil {
		return nil, fmt.Errorf("list trackings: %w", err)
	}
	out := make([]domain.Tracking, len(trackings))
	for i, t := range trackings {
		out[i] = *t
	}
	return out, nil
}

func (s *LocalTrackingService) Create(ctx context.Context, payload domain.TrackingPayload) (*domain.Tracking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if payload.UserID == 0 {
		payload.UserID = s.userID
	}
	if payload.UserID != s.userID {
		return nil, domain.ErrAccessDenied
	}
	if err := s.checkOneTime(payload); err != nil {
		return nil, err
	}

	t := &domain.Tracking{UserID: payload.UserID, State: domain.StateRunning, CreatedAt: s.now()}
	payload.Apply(t)
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.storage.CreateTracking(t); err != nil {
		return nil, fmt.Errorf("create tracking: %w", err)
	}
	return t, nil
}

// checkOneTime rejects one-time dates before today, whether given as a
// one_time pattern or as a one_time_at timestamp.
func (s *LocalTrackingService) checkOneTime(payload domain.TrackingPayload) error {
	today := domain.DateOf(s.now().In(s.timezone))
	if payload.OneTimeAt != nil && domain.DateOf(payload.OneTimeAt.In(s.timezone)).Before(today) {
		return &domain.ValidationError{Field: "one_time_at", Message: "date must be today or later"}
	}
	if payload.Pattern == nil {
		return nil
	}
	if r, ok := payload.Pattern.Rule().(domain.OneTime); ok {
		return r.ValidateOn(today)
	}
	return nil
}

// owned loads the tracking and checks it belongs to the service owner.
func (s *LocalTrackingService) owned(id int64) (*domain.Tracking, error) {
	t, err := s.storage.GetTracking(id)
	if err != nil {
		return nil, fmt.Errorf("get tracking: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("tracking %d: %w", id, domain.ErrNotFound)
	}
	if t.UserID != s.userID {
		return nil, domain.ErrAccessDenied
	}
	return t, nil
}

func (s *LocalTrackingService) Update(ctx context.Context, id int64, payload domain.TrackingPayload) (*domain.Tracking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := s.owned(id)
	if err != nil {
		return nil, err
	}
	if payload.Empty() {
		return t, nil
	}
	if err := s.checkOneTime(payload); err != nil {
		return nil, err
	}

	payload.Apply(t)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if payload.Question != nil {
		payload.Question = &t.Question
	}
	if err := s.storage.UpdateTracking(id, payload); err != nil {
		return nil, fmt.Errorf("update tracking: %w", err)
	}
	// Future occurrences follow the new recurrence.
	if payload.Pattern != nil || payload.OneTimeAt != nil || payload.Schedules != nil {
		if _, err := s.storage.DeleteRemindersByTracking(id, domain.StatusUpcoming); err != nil {
			return nil, fmt.Errorf("clear upcoming reminders: %w", err)
		}
	}
	return s.owned(id)
}

// SetState enforces the state machine and removes reminders the new state
// no longer shows.
func (s *LocalTrackingService) SetState(ctx context.Context, id int64, state domain.TrackingState) (*domain.Tracking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := s.owned(id)
	if err != nil {
		return nil, err
	}
	if !t.State.CanTransitionTo(state) {
		return nil, fmt.Errorf("tracking %d %s -> %s: %w", id, t.State, state, domain.ErrInvalidTransition)
	}

	if err := s.storage.UpdateTrackingState(id, state); err != nil {
		return nil, fmt.Errorf("update tracking state: %w", err)
	}
	if statuses := state.PrunedStatuses(); len(statuses) > 0 {
		if _, err := s.storage.DeleteRemindersByTracking(id, statuses...); err != nil {
			return nil, fmt.Errorf("prune reminders: %w", err)
		}
	}
	return s.owned(id)
}

func (s *LocalTrackingService) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.owned(id); err != nil {
		return err
	}
	if _, err := s.storage.DeleteRemindersByTracking(id); err != nil {
		return fmt.Errorf("delete reminders: %w", err)
	}
	if err := s.storage.DeleteTracking(id); err != nil {
		return fmt.Errorf("delete tracking: %w", err)
	}
	return nil
}
