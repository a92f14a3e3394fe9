package service

import (
	"slices"

	"github.com/tazhate/trackbot/internal/domain"
)

// PruneReminders returns reminders without those belonging to trackingID whose
// status is in statuses. The input slice is not modified.
func PruneReminders(reminders []domain.Reminder, trackingID int64, statuses []domain.ReminderStatus) []domain.Reminder {
	out := make([]domain.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if r.TrackingID == trackingID && slices.Contains(statuses, r.Status) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func upsertTracking(trackings []domain.Tracking, t domain.Tracking) []domain.Tracking {
	for i := range trackings {
		if trackings[i].ID == t.ID {
			trackings[i] = t
			return trackings
		}
	}
	return append(trackings, t)
}

func removeTracking(trackings []domain.Tracking, id int64) []domain.Tracking {
	return slices.DeleteFunc(trackings, func(t domain.Tracking) bool { return t.ID == id })
}

func removeReminder(reminders []domain.Reminder, id int64) []domain.Reminder {
	return slices.DeleteFunc(reminders, func(r domain.Reminder) bool { return r.ID == id })
}
