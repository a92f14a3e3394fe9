// Package builder turns recurrence form state into canonical patterns and back.
package builder

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/tazhate/trackbot/internal/domain"
)

// Builder holds one recurrence being edited. Setters never validate; Build
// and Validate do. A Builder is not safe for concurrent use.
type Builder struct {
	now func() time.Time

	preset Preset

	intervalValue int
	intervalUnit  domain.IntervalUnit

	days map[domain.Weekday]bool

	monthlyKind domain.DayRuleKind
	dayNumbers  []int

	// shared by the monthly and yearly weekday_ordinal rules
	weekday domain.Weekday
	ordinal int

	yearlyKind domain.DayRuleKind
	yearMonth  time.Month
	yearDay    int

	oneTimeDate string
}

type Option func(*Builder)

// WithClock sets the source of "today" for one-time date checks.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

func New(opts ...Option) *Builder {
	b := &Builder{
		now:           time.Now,
		preset:        PresetDaily,
		intervalValue: 1,
		intervalUnit:  domain.UnitWeek,
		days:          make(map[domain.Weekday]bool),
		monthlyKind:   domain.KindDayNumber,
		dayNumbers:    []int{1},
		weekday:       domain.Monday,
		ordinal:       1,
		yearlyKind:    domain.KindDate,
		yearMonth:     time.January,
		yearDay:       1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FromPattern starts an edit session from a persisted pattern.
func FromPattern(p domain.Pattern, opts ...Option) *Builder {
	b := New(opts...)
	b.Load(p)
	return b
}

// Load replaces the field state with p and selects the detected preset.
func (b *Builder) Load(p domain.Pattern) {
	b.preset = DetectPreset(p)
	if p.Validate() != nil {
		return
	}
	switch r := p.Rule().(type) {
	case domain.Interval:
		b.intervalValue, b.intervalUnit = r.Value, r.Unit
	case domain.DaysOfWeek:
		b.SetSelectedDays(r.Days)
	case domain.DayOfMonth:
		b.monthlyKind = r.Kind
		switch r.Kind {
		case domain.KindDayNumber:
			b.dayNumbers = slices.Clone(r.DayNumbers)
		case domain.KindWeekdayOrdinal:
			b.weekday, b.ordinal = r.Weekday, r.Ordinal
		}
	case domain.DayOfYear:
		b.yearlyKind, b.yearMonth = r.Kind, r.Month
		if r.Kind == domain.KindDate {
			b.yearDay = r.Day
		} else {
			b.weekday, b.ordinal = r.Weekday, r.Ordinal
		}
	case domain.OneTime:
		b.oneTimeDate = r.Date.String()
	}
}

func (b *Builder) Preset() Preset                        { return b.preset }
func (b *Builder) SetPreset(p Preset)                    { b.preset = p }
func (b *Builder) IntervalValue() int                    { return b.intervalValue }
func (b *Builder) SetIntervalValue(v int)                { b.intervalValue = v }
func (b *Builder) IntervalUnit() domain.IntervalUnit     { return b.intervalUnit }
func (b *Builder) SetIntervalUnit(u domain.IntervalUnit) { b.intervalUnit = u }

// SelectedDays returns the weekday selection in ascending order.
func (b *Builder) SelectedDays() []domain.Weekday {
	return slices.Sorted(maps.Keys(b.days))
}

func (b *Builder) SetSelectedDays(days []domain.Weekday) {
	b.days = make(map[domain.Weekday]bool, len(days))
	for _, d := range days {
		b.days[d] = true
	}
}

// ToggleDay adds d to the selection if absent, removes it otherwise.
func (b *Builder) ToggleDay(d domain.Weekday) {
	if b.days[d] {
		delete(b.days, d)
		return
	}
	b.days[d] = true
}

func (b *Builder) MonthlyKind() domain.DayRuleKind     { return b.monthlyKind }
func (b *Builder) SetMonthlyKind(k domain.DayRuleKind) { b.monthlyKind = k }

func (b *Builder) DayNumbers() []int { return slices.Clone(b.dayNumbers) }

func (b *Builder) SetDayNumbers(nums []int) {
	b.dayNumbers = slices.Clone(nums)
	slices.Sort(b.dayNumbers)
}

// ToggleDayNumber is ToggleDay for monthly day numbers.
func (b *Builder) ToggleDayNumber(n int) {
	if i := slices.Index(b.dayNumbers, n); i >= 0 {
		b.dayNumbers = slices.Delete(b.dayNumbers, i, i+1)
		return
	}
	b.dayNumbers = append(b.dayNumbers, n)
	slices.Sort(b.dayNumbers)
}

func (b *Builder) Weekday() domain.Weekday     { return b.weekday }
func (b *Builder) SetWeekday(d domain.Weekday) { b.weekday = d }
func (b *Builder) Ordinal() int                { return b.ordinal }
func (b *Builder) SetOrdinal(n int)            { b.ordinal = n }

func (b *Builder) YearlyKind() domain.DayRuleKind     { return b.yearlyKind }
func (b *Builder) SetYearlyKind(k domain.DayRuleKind) { b.yearlyKind = k }
func (b *Builder) YearlyMonth() time.Month            { return b.yearMonth }
func (b *Builder) YearlyDay() int                     { return b.yearDay }
func (b *Builder) SetYearlyDay(d int)                 { b.yearDay = d }

// SetYearlyMonth changes the month and clamps the held day down to the
// month's maximum (31 becomes 28 for February) instead of rejecting it.
func (b *Builder) SetYearlyMonth(m time.Month) {
	b.yearMonth = m
	if last := domain.DaysInMonth(m); last > 0 && b.yearDay > last {
		b.yearDay = last
	}
}

func (b *Builder) OneTimeDate() string     { return b.oneTimeDate }
func (b *Builder) SetOneTimeDate(s string) { b.oneTimeDate = strings.TrimSpace(s) }

// Build converts the current field state into a canonical pattern. It reads
// state only and can be called on every keystroke.
func (b *Builder) Build() (domain.Pattern, error) {
	rule, err := b.rule()
	if err != nil {
		return domain.Pattern{}, err
	}
	return domain.NewPattern(rule)
}

func (b *Builder) rule() (domain.Rule, error) {
	switch b.preset {
	case PresetDaily:
		return domain.Interval{Value: 1, Unit: domain.UnitDay}, nil
	case PresetWeekdays:
		return domain.DaysOfWeek{Days: slices.Clone(domain.Workweek)}, nil
	case PresetInterval:
		return domain.Interval{Value: b.intervalValue, Unit: b.intervalUnit}, nil
	case PresetWeekly:
		return domain.DaysOfWeek{Days: b.SelectedDays()}, nil
	case PresetMonthly:
		r := domain.DayOfMonth{Kind: b.monthlyKind}
		switch b.monthlyKind {
		case domain.KindDayNumber:
			r.DayNumbers = slices.Clone(b.dayNumbers)
		case domain.KindWeekdayOrdinal:
			r.Weekday, r.Ordinal = b.weekday, b.ordinal
		}
		return r, nil
	case PresetYearly:
		r := domain.DayOfYear{Kind: b.yearlyKind, Month: b.yearMonth}
		if b.yearlyKind == domain.KindWeekdayOrdinal {
			r.Weekday, r.Ordinal = b.weekday, b.ordinal
		} else {
			r.Day = b.yearDay
		}
		return r, nil
	case PresetOneTime:
		// an unparsable date counts as no date
		date, err := domain.ParseDate(b.oneTimeDate)
		if err != nil {
			return nil, &domain.ValidationError{Field: "one_time_date", Message: "choose a date"}
		}
		r := domain.OneTime{Date: date}
		if err := r.ValidateOn(domain.DateOf(b.now())); err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, &domain.ValidationError{Field: "preset", Message: "unknown repeat option " + string(b.preset)}
}

// Validate runs Build and returns its failure as a displayable message, or
// "" when the current state builds.
func (b *Builder) Validate() string {
	if _, err := b.Build(); err != nil {
		return err.Error()
	}
	return ""
}
