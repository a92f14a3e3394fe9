package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/tazhate/trackbot/internal/domain"
)

// Coordinator keeps a local view of one user's trackings and reminders in
// step with the services. Every mutation follows the same protocol: apply the
// expected local effect, call the service, then refresh reminders from the
// service whether the call succeeded or not. The refresh result replaces the
// local reminder collection.
type Coordinator struct {
	trackings TrackingService
	reminders ReminderService
	userID    int64
	logger    *slog.Logger

	mu           sync.Mutex
	trackingList []domain.Tracking
	reminderList []domain.Reminder
	refreshSeq   uint64 // last refresh issued
	appliedSeq   uint64 // refreshes at or below this are stale
	reconcileErr error
}

func NewCoordinator(trackings TrackingService, reminders ReminderService, userID int64, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		trackings: trackings,
		reminders: reminders,
		userID:    userID,
		logger:    logger.With("component", "coordinator", "user_id", userID),
	}
}

// Trackings returns a snapshot of the local tracking collection.
func (c *Coordinator) Trackings() []domain.Tracking {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.trackingList)
}

// Reminders returns a snapshot of the local reminder collection.
func (c *Coordinator) Reminders() []domain.Reminder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.reminderList)
}

// Tracking returns the locally known tracking with the given id.
func (c *Coordinator) Tracking(id int64) (domain.Tracking, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.trackingList, func(t domain.Tracking) bool { return t.ID == id })
	if i < 0 {
		return domain.Tracking{}, false
	}
	return c.trackingList[i], true
}

// ReconcileErr returns the error of the last refresh that followed a
// mutation, or nil if it succeeded.
func (c *Coordinator) ReconcileErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconcileErr
}

// Load fetches trackings and reminders.
func (c *Coordinator) Load(ctx context.Context) error {
	if err := c.LoadTrackings(ctx); err != nil {
		return err
	}
	return c.RefreshReminders(ctx)
}

// LoadTrackings replaces the local tracking collection.
func (c *Coordinator) LoadTrackings(ctx context.Context) error {
	trackings, err := c.trackings.List(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("list trackings: %w", err)
	}
	c.mu.Lock()
	c.trackingList = slices.Clone(trackings)
	c.mu.Unlock()
	return nil
}

// RefreshReminders replaces the local reminder collection with the service's.
// A result is discarded if a newer refresh already landed or a local edit
// happened after this refresh was issued.
func (c *Coordinator) RefreshReminders(ctx context.Context) error {
	c.mu.Lock()
	c.refreshSeq++
	seq := c.refreshSeq
	c.mu.Unlock()

	reminders, err := c.reminders.List(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq <= c.appliedSeq {
		c.logger.Debug("discarding stale reminder refresh", "seq", seq, "applied", c.appliedSeq)
		return nil
	}
	c.appliedSeq = seq
	c.reminderList = slices.Clone(reminders)
	return nil
}

// reconcile refreshes after a mutation. Cancellation of the caller does not
// skip the refresh, and its failure never replaces the mutation's result.
func (c *Coordinator) reconcile(ctx context.Context, op string) {
	err := c.RefreshReminders(context.WithoutCancel(ctx))

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.reconcileErr = &domain.ReconciliationError{Op: op, Err: err}
		c.logger.Warn("reminder refresh failed", "op", op, "error", err)
		return
	}
	c.reconcileErr = nil
}

// prune removes the expected reminders locally and invalidates refreshes
// that are still in flight, since they were issued before the edit.
func (c *Coordinator) prune(trackingID int64, statuses []domain.ReminderStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := len(c.reminderList)
	c.reminderList = PruneReminders(c.reminderList, trackingID, statuses)
	c.appliedSeq = c.refreshSeq
	if n := before - len(c.reminderList); n > 0 {
		c.logger.Debug("pruned reminders", "tracking_id", trackingID, "count", n, "statuses", statuses)
	}
}

func (c *Coordinator) storeTracking(t *domain.Tracking) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trackingList = upsertTracking(c.trackingList, *t)
}

// CreateTracking creates a tracking; the service generates its reminders.
func (c *Coordinator) CreateTracking(ctx context.Context, payload domain.TrackingPayload) (*domain.Tracking, error) {
	if payload.UserID == 0 {
		payload.UserID = c.userID
	}
	t, err := c.trackings.Create(ctx, payload)
	if err == nil {
		c.storeTracking(t)
	}
	c.reconcile(ctx, "tracking.create")
	if err != nil {
		return nil, fmt.Errorf("create tracking: %w", err)
	}
	return t, nil
}

// UpdateTracking edits the tracking. Edits may regenerate reminders
// server-side, so no local pruning is done.
func (c *Coordinator) UpdateTracking(ctx context.Context, id int64, payload domain.TrackingPayload) (*domain.Tracking, error) {
	t, err := c.trackings.Update(ctx, id, payload)
	if err == nil {
		c.storeTracking(t)
	}
	c.reconcile(ctx, "tracking.update")
	if err != nil {
		return nil, fmt.Errorf("update tracking %d: %w", id, err)
	}
	return t, nil
}

// UpdateTrackingState moves the tracking to state. Reminders that will not be
// shown in the new state are removed locally before the service is called.
// An illegal transition on a known tracking returns ErrInvalidTransition
// without calling the service, so nothing is pruned or refreshed.
func (c *Coordinator) UpdateTrackingState(ctx context.Context, id int64, state domain.TrackingState) (*domain.Tracking, error) {
	if !state.Valid() {
		return nil, &domain.ValidationError{Field: "state", Message: fmt.Sprintf("unknown state %q", state)}
	}
	if cur, ok := c.Tracking(id); ok && !cur.State.CanTransitionTo(state) {
		return nil, fmt.Errorf("tracking %d %s -> %s: %w", id, cur.State, state, domain.ErrInvalidTransition)
	}

	c.prune(id, state.PrunedStatuses())

	t, err := c.trackings.SetState(ctx, id, state)
	if err == nil {
		c.storeTracking(t)
	}
	c.reconcile(ctx, "tracking.set_state")
	if err != nil {
		return nil, fmt.Errorf("set tracking %d state: %w", id, err)
	}
	return t, nil
}

// DeleteTracking deletes the tracking and drops it from the local view.
func (c *Coordinator) DeleteTracking(ctx context.Context, id int64) error {
	err := c.trackings.Delete(ctx, id)
	if err == nil {
		c.mu.Lock()
		c.trackingList = removeTracking(c.trackingList, id)
		c.mu.Unlock()
	}
	c.reconcile(ctx, "tracking.delete")
	if err != nil {
		return fmt.Errorf("delete tracking %d: %w", id, err)
	}
	return nil
}

func (c *Coordinator) mutateReminder(ctx context.Context, op string, id int64, call func() (*domain.Reminder, error)) (*domain.Reminder, error) {
	r, err := call()
	c.reconcile(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("%s %d: %w", op, id, err)
	}
	return r, nil
}

// CompleteReminder answers the reminder with value.
func (c *Coordinator) CompleteReminder(ctx context.Context, id int64, value string) (*domain.Reminder, error) {
	return c.mutateReminder(ctx, "reminder.complete", id, func() (*domain.Reminder, error) {
		return c.reminders.Complete(ctx, id, value)
	})
}

// DismissReminder answers the reminder as skipped.
func (c *Coordinator) DismissReminder(ctx context.Context, id int64) (*domain.Reminder, error) {
	return c.mutateReminder(ctx, "reminder.dismiss", id, func() (*domain.Reminder, error) {
		return c.reminders.Dismiss(ctx, id)
	})
}

func (c *Coordinator) SnoozeReminder(ctx context.Context, id int64, minutes int) (*domain.Reminder, error) {
	return c.mutateReminder(ctx, "reminder.snooze", id, func() (*domain.Reminder, error) {
		return c.reminders.Snooze(ctx, id, minutes)
	})
}

func (c *Coordinator) UpdateReminder(ctx context.Context, id int64, patch domain.ReminderPatch) (*domain.Reminder, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return c.mutateReminder(ctx, "reminder.update", id, func() (*domain.Reminder, error) {
		return c.reminders.Update(ctx, id, patch)
	})
}

// DeleteReminder deletes the reminder and drops it locally on success.
func (c *Coordinator) DeleteReminder(ctx context.Context, id int64) error {
	if err := c.reminders.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.dropReminder(id)
		}
		return fmt.Errorf("delete reminder %d: %w", id, err)
	}
	c.dropReminder(id)
	return nil
}

func (c *Coordinator) dropReminder(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reminderList = removeReminder(c.reminderList, id)
}
