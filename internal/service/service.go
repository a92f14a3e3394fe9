package service

import (
	"context"

	"github.com/tazhate/trackbot/internal/domain"
)

// TrackingService is the remote (or local) authority for trackings.
type TrackingService interface {
	List(ctx context.Context, userID int64) ([]domain.Tracking, error)
	Create(ctx context.Context, payload domain.TrackingPayload) (*domain.Tracking, error)
	Update(ctx context.Context, id int64, payload domain.TrackingPayload) (*domain.Tracking, error)
	SetState(ctx context.Context, id int64, state domain.TrackingState) (*domain.Tracking, error)
	Delete(ctx context.Context, id int64) error
}

// ReminderService is the authority for reminders. Reminders are generated by
// the service, never by the coordinator.
type ReminderService interface {
	List(ctx context.Context, userID int64) ([]domain.Reminder, error)
	// Complete answers the reminder. An empty value records no answer text.
	Complete(ctx context.Context, id int64, value string) (*domain.Reminder, error)
	Dismiss(ctx context.Context, id int64) (*domain.Reminder, error)
	Snooze(ctx context.Context, id int64, minutes int) (*domain.Reminder, error)
	Update(ctx context.Context, id int64, patch domain.ReminderPatch) (*domain.Reminder, error)
	Delete(ctx context.Context, id int64) error
}
