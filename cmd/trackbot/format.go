package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/tazhate/trackbot/internal/domain"
)

var (
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71"))
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F39C12"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")).Bold(true)
)

func stateLabel(s domain.TrackingState) string {
	switch s {
	case domain.StateRunning:
		return runningStyle.Render(string(s))
	case domain.StatePaused:
		return pausedStyle.Render(string(s))
	}
	return mutedStyle.Render(string(s))
}

func statusLabel(s domain.ReminderStatus) string {
	if s == domain.StatusPending {
		return pendingStyle.Render(string(s))
	}
	if s == domain.StatusAnswered {
		return mutedStyle.Render(string(s))
	}
	return string(s)
}

func recurrenceLabel(t *domain.Tracking, loc *time.Location) string {
	if t.IsOneTime() {
		return "once at " + t.OneTimeAt.In(loc).Format("2006-01-02 15:04")
	}
	if t.Pattern == nil {
		return "-"
	}
	return t.Pattern.String()
}

func scheduleLabel(schedules []domain.Schedule) string {
	parts := make([]string, len(schedules))
	for i, s := range schedules {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

func printTracking(w io.Writer, t *domain.Tracking, loc *time.Location) {
	summary := t.Question
	if t.Icon != "" {
		summary = t.Icon + " " + summary
	}
	fmt.Fprintf(w, "#%d %s [%s] %s", t.ID, summary, stateLabel(t.State), recurrenceLabel(t, loc))
	if len(t.Schedules) > 0 {
		fmt.Fprintf(w, " at %s", scheduleLabel(t.Schedules))
	}
	fmt.Fprintln(w)
	if t.Notes != "" {
		fmt.Fprintln(w, "   "+mutedStyle.Render(t.Notes))
	}
}

func printReminder(w io.Writer, r *domain.Reminder, question string, loc *time.Location, now time.Time) {
	when := r.ScheduledTime.In(loc).Format("Mon 02 Jan 15:04")
	fmt.Fprintf(w, "#%d %s %s (%s) [%s]", r.ID, question, when,
		humanize.RelTime(r.ScheduledTime, now, "ago", "from now"), statusLabel(r.Status))
	switch {
	case r.Skipped:
		fmt.Fprint(w, " skipped")
	case r.Value != nil:
		fmt.Fprintf(w, " = %s", *r.Value)
	}
	fmt.Fprintln(w)
}
