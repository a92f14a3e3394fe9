package caldav

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tazhate/trackbot/internal/domain"
)

const (
	productID     = "-//TrackBot//CalDAV//EN"
	eventDuration = 15 * time.Minute
)

// EventUID identifies the event of one tracking schedule.
func EventUID(trackingID int64, s domain.Schedule) string {
	return fmt.Sprintf("tracking-%d-%02d%02d@trackbot", trackingID, s.Hour, s.Minutes)
}

// eventUIDs lists the UIDs TrackingEvents produces for t in any state.
func eventUIDs(t *domain.Tracking, loc *time.Location) []string {
	if t.IsOneTime() {
		at := t.OneTimeAt.In(loc)
		return []string{EventUID(t.ID, domain.Schedule{Hour: at.Hour(), Minutes: at.Minute()})}
	}
	uids := make([]string, len(t.Schedules))
	for i, s := range t.Schedules {
		uids[i] = EventUID(t.ID, s)
	}
	return uids
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	return cal
}

// TrackingEvents returns one VEVENT per schedule of a running tracking.
// Paused and archived trackings have no events.
func TrackingEvents(t *domain.Tracking, loc *time.Location) ([]*ical.Event, error) {
	if t.State != domain.StateRunning {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	anchor := t.CreatedAt.In(loc)
	if t.CreatedAt.IsZero() {
		anchor = time.Now().In(loc)
	}

	summary := t.Question
	if t.Icon != "" {
		summary = t.Icon + " " + t.Question
	}

	if t.IsOneTime() {
		uid := eventUIDs(t, loc)[0]
		return []*ical.Event{newEvent(uid, summary, t.Notes, t.OneTimeAt.In(loc))}, nil
	}
	if t.Pattern == nil {
		return nil, fmt.Errorf("tracking %d has no recurrence", t.ID)
	}

	var events []*ical.Event
	for _, s := range t.Schedules {
		dtstart := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), s.Hour, s.Minutes, 0, 0, loc)
		opt, err := t.Pattern.RRule(dtstart)
		if err != nil {
			return nil, fmt.Errorf("tracking %d: %w", t.ID, err)
		}

		description := t.Pattern.String()
		if t.Notes != "" {
			description = t.Notes + "\n" + description
		}
		ev := newEvent(EventUID(t.ID, s), summary, description, opt.Dtstart)
		if t.Pattern.Type() != domain.PatternOneTime {
			ev.Props.SetRecurrenceRule(opt)
		}
		events = append(events, ev)
	}
	return events, nil
}

func newEvent(uid, summary, description string, start time.Time) *ical.Event {
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, uid)
	ev.Props.SetText(ical.PropSummary, summary)
	if description = strings.TrimSpace(description); description != "" {
		ev.Props.SetText(ical.PropDescription, description)
	}
	ev.Props.SetDateTime(ical.PropDateTimeStart, start)
	ev.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(eventDuration))
	ev.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	return ev
}

// TrackingCalendar builds a calendar holding the events of all trackings.
func TrackingCalendar(trackings []domain.Tracking, loc *time.Location) (*ical.Calendar, error) {
	cal := newCalendar()
	for i := range trackings {
		events, err := TrackingEvents(&trackings[i], loc)
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			cal.Children = append(cal.Children, ev.Component)
		}
	}
	return cal, nil
}

// WriteICS encodes the calendar. A calendar without events is written as a
// bare VCALENDAR.
func WriteICS(w io.Writer, cal *ical.Calendar) error {
	if len(cal.Children) == 0 {
		_, err := io.WriteString(w, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:"+productID+"\r\nEND:VCALENDAR\r\n")
		return err
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}
