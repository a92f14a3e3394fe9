package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tazhate/trackbot/internal/builder"
	"github.com/tazhate/trackbot/internal/domain"
)

// patternFlags feed the pattern builder from the command line.
type patternFlags struct {
	preset      string
	every       int
	unit        string
	days        []string
	monthlyKind string
	monthDays   []int
	weekday     string
	ordinal     int
	yearlyKind  string
	month       int
	yearDay     int
	date        string
}

func (f *patternFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.preset, "preset", "", "daily|weekdays|interval|weekly|monthly|yearly|one_time")
	fs.IntVar(&f.every, "every", 1, "interval value")
	fs.StringVar(&f.unit, "unit", string(domain.UnitWeek), "interval unit: day|week|month|year")
	fs.StringSliceVar(&f.days, "day", nil, "weekday for weekly (repeatable: --day mon --day thu)")
	fs.StringVar(&f.monthlyKind, "monthly-kind", string(domain.KindDayNumber), "day_number|last_day|weekday_ordinal")
	fs.IntSliceVar(&f.monthDays, "month-day", nil, "day of month 1-31 (repeatable)")
	fs.StringVar(&f.weekday, "weekday", "mon", "weekday for weekday_ordinal rules")
	fs.IntVar(&f.ordinal, "ordinal", 1, "occurrence 1-5 for weekday_ordinal rules (5 = fifth, skipped if absent)")
	fs.StringVar(&f.yearlyKind, "yearly-kind", string(domain.KindDate), "date|weekday_ordinal")
	fs.IntVar(&f.month, "month", 1, "month 1-12 for yearly rules")
	fs.IntVar(&f.yearDay, "year-day", 1, "day of month for yearly date rules")
	fs.StringVar(&f.date, "date", "", "YYYY-MM-DD for one_time")
}

// changed reports whether any recurrence flag was given.
func (f *patternFlags) changed(cmd *cobra.Command) bool {
	for _, name := range []string{"preset", "every", "unit", "day", "monthly-kind", "month-day",
		"weekday", "ordinal", "yearly-kind", "month", "year-day", "date"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// builder returns a pattern builder holding the flag values.
func (f *patternFlags) builder(now func() time.Time) (*builder.Builder, error) {
	b := builder.New(builder.WithClock(now))

	if f.preset != "" {
		p := builder.Preset(strings.ToLower(f.preset))
		if !p.Valid() {
			return nil, fmt.Errorf("unknown preset %q", f.preset)
		}
		b.SetPreset(p)
	}

	b.SetIntervalValue(f.every)
	b.SetIntervalUnit(domain.IntervalUnit(strings.ToLower(f.unit)))

	for _, s := range f.days {
		for _, part := range strings.Split(s, ",") {
			d, err := domain.ParseWeekday(part)
			if err != nil {
				return nil, err
			}
			b.ToggleDay(d)
		}
	}

	b.SetMonthlyKind(domain.DayRuleKind(f.monthlyKind))
	if len(f.monthDays) > 0 {
		b.SetDayNumbers(f.monthDays)
	}

	wd, err := domain.ParseWeekday(f.weekday)
	if err != nil {
		return nil, err
	}
	b.SetWeekday(wd)
	b.SetOrdinal(f.ordinal)

	b.SetYearlyKind(domain.DayRuleKind(f.yearlyKind))
	b.SetYearlyMonth(time.Month(f.month))
	b.SetYearlyDay(f.yearDay)
	b.SetOneTimeDate(f.date)
	return b, nil
}

// build returns the pattern, using the builder's message for invalid input.
func (f *patternFlags) build(now func() time.Time) (domain.Pattern, error) {
	b, err := f.builder(now)
	if err != nil {
		return domain.Pattern{}, err
	}
	if msg := b.Validate(); msg != "" {
		return domain.Pattern{}, fmt.Errorf("invalid recurrence: %s", msg)
	}
	return b.Build()
}

func parseSchedules(values []string) ([]domain.Schedule, error) {
	schedules := make([]domain.Schedule, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			s, err := domain.ParseSchedule(part)
			if err != nil {
				return nil, err
			}
			schedules = append(schedules, s)
		}
	}
	if err := domain.ValidateSchedules(schedules); err != nil {
		return nil, err
	}
	domain.SortSchedules(schedules)
	return schedules, nil
}
