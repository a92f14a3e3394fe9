package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tazhate/trackbot/internal/domain"
	"github.com/tazhate/trackbot/internal/storage"
)

type localFixture struct {
	store     *storage.Storage
	trackings *LocalTrackingService
	reminders *LocalReminderService
	now       time.Time
}

func newLocalFixture(t *testing.T) *localFixture {
	t.Helper()
	s, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	ts := NewLocalTrackingService(s, testUser, time.UTC)
	ts.now = clock
	rs := NewLocalReminderService(s, testUser)
	rs.now = clock
	return &localFixture{store: s, trackings: ts, reminders: rs, now: now}
}

func (f *localFixture) create(t *testing.T, r domain.Rule) *domain.Tracking {
	t.Helper()
	p := domain.MustPattern(r)
	tr, err := f.trackings.Create(context.Background(), domain.TrackingPayload{
		Question:  domain.StringPtr("Water?"),
		Pattern:   &p,
		Schedules: []domain.Schedule{{Hour: 9}},
	})
	require.NoError(t, err)
	return tr
}

func (f *localFixture) seed(t *testing.T, trackingID int64, statuses ...domain.ReminderStatus) []*domain.Reminder {
	t.Helper()
	var out []*domain.Reminder
	for i, st := range statuses {
		r := &domain.Reminder{
			TrackingID:    trackingID,
			UserID:        testUser,
			ScheduledTime: f.now.Add(time.Duration(i+1) * time.Hour),
			Status:        st,
		}
		require.NoError(t, f.store.CreateReminder(r))
		out = append(out, r)
	}
	return out
}

func TestLocalCreateValidates(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()

	_, err := f.trackings.Create(ctx, domain.TrackingPayload{Question: domain.StringPtr("  ")})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "question", ve.Field)

	past := domain.MustPattern(domain.OneTime{Date: domain.Date{Year: 2026, Month: time.October, Day: 13}})
	_, err = f.trackings.Create(ctx, domain.TrackingPayload{
		Question: domain.StringPtr("Call mum?"), Pattern: &past, Schedules: []domain.Schedule{{Hour: 9}},
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "one_time_date", ve.Field)

	pastAt := f.now.Add(-72 * time.Hour)
	_, err = f.trackings.Create(ctx, domain.TrackingPayload{Question: domain.StringPtr("Renew passport?"), OneTimeAt: &pastAt})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "one_time_at", ve.Field)

	laterToday := f.now.Add(time.Hour)
	created, err := f.trackings.Create(ctx, domain.TrackingPayload{Question: domain.StringPtr("Renew passport?"), OneTimeAt: &laterToday})
	require.NoError(t, err)
	assert.True(t, created.IsOneTime())

	_, err = f.trackings.Update(ctx, created.ID, domain.TrackingPayload{OneTimeAt: &pastAt})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "one_time_at", ve.Field)

	_, err = f.trackings.Create(ctx, domain.TrackingPayload{UserID: 7, Question: domain.StringPtr("x")})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestLocalPauseAndArchivePrune(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()
	tr := f.create(t, domain.Interval{Value: 1, Unit: domain.UnitDay})
	f.seed(t, tr.ID, domain.StatusUpcoming, domain.StatusUpcoming, domain.StatusUpcoming, domain.StatusPending, domain.StatusAnswered)

	paused, err := f.trackings.SetState(ctx, tr.ID, domain.StatePaused)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePaused, paused.State)
	left, err := f.reminders.List(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, left, 2)

	_, err = f.trackings.SetState(ctx, tr.ID, domain.StateArchived)
	require.NoError(t, err)
	left, err = f.reminders.List(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, domain.StatusAnswered, left[0].Status)

	_, err = f.trackings.SetState(ctx, tr.ID, domain.StateRunning)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	listed, err := f.trackings.List(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestLocalDeleteRemovesReminders(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()
	tr := f.create(t, domain.Interval{Value: 1, Unit: domain.UnitDay})
	f.seed(t, tr.ID, domain.StatusUpcoming, domain.StatusAnswered)

	require.NoError(t, f.trackings.Delete(ctx, tr.ID))
	left, err := f.reminders.List(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, left)

	assert.ErrorIs(t, f.trackings.Delete(ctx, tr.ID), domain.ErrNotFound)
}

func TestLocalUpdateClearsUpcoming(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()
	tr := f.create(t, domain.Interval{Value: 1, Unit: domain.UnitDay})
	f.seed(t, tr.ID, domain.StatusUpcoming, domain.StatusPending)

	updated, err := f.trackings.Update(ctx, tr.ID, domain.TrackingPayload{Notes: domain.StringPtr("glass"), Question: domain.StringPtr("  Drink water?  ")})
	require.NoError(t, err)
	assert.Equal(t, "glass", updated.Notes)
	assert.Equal(t, "Drink water?", updated.Question)
	stored, err := f.store.GetTracking(tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drink water?", stored.Question)
	left, _ := f.reminders.List(ctx, testUser)
	assert.Len(t, left, 2)

	weekly := domain.MustPattern(domain.DaysOfWeek{Days: []domain.Weekday{domain.Friday}})
	updated, err = f.trackings.Update(ctx, tr.ID, domain.TrackingPayload{Pattern: &weekly})
	require.NoError(t, err)
	assert.Equal(t, domain.PatternDayOfWeek, updated.Pattern.Type())
	left, _ = f.reminders.List(ctx, testUser)
	require.Len(t, left, 1)
	assert.Equal(t, domain.StatusPending, left[0].Status)
}

func TestLocalReminderActions(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()
	tr := f.create(t, domain.Interval{Value: 1, Unit: domain.UnitDay})
	rs := f.seed(t, tr.ID, domain.StatusPending, domain.StatusPending, domain.StatusPending)

	done, err := f.reminders.Complete(ctx, rs[0].ID, " 8 ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAnswered, done.Status)
	require.NotNil(t, done.Value)
	assert.Equal(t, "8", *done.Value)

	_, err = f.reminders.Complete(ctx, rs[0].ID, "9")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	skipped, err := f.reminders.Dismiss(ctx, rs[1].ID)
	require.NoError(t, err)
	assert.True(t, skipped.Skipped)
	assert.Nil(t, skipped.Value)

	snoozed, err := f.reminders.Snooze(ctx, rs[2].ID, 30)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUpcoming, snoozed.Status)
	assert.True(t, f.now.Add(30*time.Minute).Equal(snoozed.ScheduledTime))

	_, err = f.reminders.Snooze(ctx, rs[2].ID, 0)
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = f.reminders.Complete(ctx, 999, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalPromoteDue(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()
	tr := f.create(t, domain.Interval{Value: 1, Unit: domain.UnitDay})
	r, err := f.reminders.Schedule(ctx, tr.ID, f.now.Add(-time.Minute))
	require.NoError(t, err)
	f.seed(t, tr.ID, domain.StatusUpcoming)

	n, err := f.reminders.PromoteDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := f.store.GetReminder(r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestScheduleRejectsDuplicatesAndPaused(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()
	tr := f.create(t, domain.Interval{Value: 1, Unit: domain.UnitDay})
	at := f.now.Add(24 * time.Hour)

	r, err := f.reminders.Schedule(ctx, tr.ID, at)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUpcoming, r.Status)

	_, err = f.reminders.Schedule(ctx, tr.ID, at)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "scheduled_time", ve.Field)

	_, err = f.trackings.SetState(ctx, tr.ID, domain.StatePaused)
	require.NoError(t, err)
	_, err = f.reminders.Schedule(ctx, tr.ID, at.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.reminders.Schedule(ctx, 999, at)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
