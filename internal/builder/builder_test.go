package builder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tazhate/trackbot/internal/domain"
)

var today = time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)

func newTestBuilder() *Builder {
	return New(WithClock(func() time.Time { return today }))
}

func TestBuildDetectRoundTrip(t *testing.T) {
	tests := []struct {
		preset Preset
		setup  func(b *Builder)
	}{
		{PresetDaily, func(b *Builder) {}},
		{PresetWeekdays, func(b *Builder) {}},
		{PresetInterval, func(b *Builder) { b.SetIntervalValue(3); b.SetIntervalUnit(domain.UnitMonth) }},
		{PresetWeekly, func(b *Builder) { b.ToggleDay(domain.Saturday); b.ToggleDay(domain.Sunday) }},
		{PresetMonthly, func(b *Builder) { b.SetDayNumbers([]int{1, 15}) }},
		{PresetYearly, func(b *Builder) { b.SetYearlyMonth(time.March); b.SetYearlyDay(8) }},
		{PresetOneTime, func(b *Builder) { b.SetOneTimeDate("2026-12-24") }},
	}
	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			b := newTestBuilder()
			b.SetPreset(tt.preset)
			tt.setup(b)

			p, err := b.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.preset, DetectPreset(p))
		})
	}
}

func TestWorkweekCollapsesToWeekdays(t *testing.T) {
	b := newTestBuilder()
	b.SetPreset(PresetWeekly)
	b.SetSelectedDays([]domain.Weekday{domain.Friday, domain.Monday, domain.Tuesday, domain.Wednesday, domain.Thursday})

	p, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, PresetWeekdays, DetectPreset(p))

	b.ToggleDay(domain.Saturday)
	p, err = b.Build()
	require.NoError(t, err)
	assert.Equal(t, PresetWeekly, DetectPreset(p))
}

func TestIntervalOfOneDayCollapsesToDaily(t *testing.T) {
	b := newTestBuilder()
	b.SetPreset(PresetInterval)
	b.SetIntervalValue(1)
	b.SetIntervalUnit(domain.UnitDay)

	p, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, PresetDaily, DetectPreset(p))
}

func TestPresetSugar(t *testing.T) {
	b := newTestBuilder()

	p, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, domain.Interval{Value: 1, Unit: domain.UnitDay}, p.Rule())

	b.SetPreset(PresetWeekdays)
	p, err = b.Build()
	require.NoError(t, err)
	assert.Equal(t, domain.DaysOfWeek{Days: []domain.Weekday{1, 2, 3, 4, 5}}, p.Rule())
}

func TestBuildFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *Builder)
		field string
	}{
		{"weekly_without_days", func(b *Builder) { b.SetPreset(PresetWeekly) }, "days"},
		{"interval_zero", func(b *Builder) { b.SetPreset(PresetInterval); b.SetIntervalValue(0) }, "interval_value"},
		{"interval_negative", func(b *Builder) { b.SetPreset(PresetInterval); b.SetIntervalValue(-2) }, "interval_value"},
		{"one_time_missing", func(b *Builder) { b.SetPreset(PresetOneTime) }, "one_time_date"},
		{"one_time_malformed", func(b *Builder) { b.SetPreset(PresetOneTime); b.SetOneTimeDate("14/10/2026") }, "one_time_date"},
		{"one_time_impossible", func(b *Builder) { b.SetPreset(PresetOneTime); b.SetOneTimeDate("2026-02-30") }, "one_time_date"},
		{"one_time_yesterday", func(b *Builder) { b.SetPreset(PresetOneTime); b.SetOneTimeDate("2026-10-13") }, "one_time_date"},
		{"yearly_day_past_month_end", func(b *Builder) {
			b.SetPreset(PresetYearly)
			b.SetYearlyMonth(time.April)
			b.SetYearlyDay(31)
		}, "day"},
		{"monthly_no_days", func(b *Builder) { b.SetPreset(PresetMonthly); b.SetDayNumbers(nil) }, "day_numbers"},
		{"monthly_ordinal_six", func(b *Builder) {
			b.SetPreset(PresetMonthly)
			b.SetMonthlyKind(domain.KindWeekdayOrdinal)
			b.SetOrdinal(6)
		}, "ordinal"},
		{"unknown_preset", func(b *Builder) { b.SetPreset("hourly") }, "preset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder()
			tt.setup(b)

			_, err := b.Build()
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, err.Error(), b.Validate())
		})
	}
}

func TestOneTimeTodayIsAccepted(t *testing.T) {
	b := newTestBuilder()
	b.SetPreset(PresetOneTime)
	b.SetOneTimeDate(" 2026-10-14 ")

	p, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, domain.OneTime{Date: domain.Date{Year: 2026, Month: time.October, Day: 14}}, p.Rule())
	assert.Empty(t, b.Validate())
}

func TestBuildIsPure(t *testing.T) {
	b := newTestBuilder()
	b.SetPreset(PresetWeekly)
	b.SetSelectedDays([]domain.Weekday{domain.Tuesday, domain.Thursday})

	first, err := b.Build()
	require.NoError(t, err)
	second, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Empty(t, b.Validate())
	assert.Equal(t, []domain.Weekday{domain.Tuesday, domain.Thursday}, b.SelectedDays())
	assert.Equal(t, PresetWeekly, b.Preset())
}

func TestValidateDoesNotMutate(t *testing.T) {
	b := newTestBuilder()
	b.SetPreset(PresetOneTime)
	b.SetOneTimeDate("garbage")

	assert.NotEmpty(t, b.Validate())
	assert.Equal(t, "garbage", b.OneTimeDate())
	assert.Equal(t, PresetOneTime, b.Preset())
}

func TestYearlyMonthClampsDay(t *testing.T) {
	b := newTestBuilder()
	b.SetYearlyMonth(time.January)
	b.SetYearlyDay(31)

	b.SetYearlyMonth(time.February)
	assert.Equal(t, 28, b.YearlyDay())

	b.SetYearlyDay(31)
	b.SetYearlyMonth(time.September)
	assert.Equal(t, 30, b.YearlyDay())

	b.SetYearlyMonth(time.December)
	assert.Equal(t, 30, b.YearlyDay(), "clamping never raises the day")

	b.SetPreset(PresetYearly)
	p, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, domain.DayOfYear{Kind: domain.KindDate, Month: time.December, Day: 30}, p.Rule())
}

func TestToggleDayTwiceRestores(t *testing.T) {
	b := newTestBuilder()
	b.SetSelectedDays([]domain.Weekday{domain.Monday, domain.Wednesday})

	for d := domain.Sunday; d <= domain.Saturday; d++ {
		before := b.SelectedDays()
		b.ToggleDay(d)
		b.ToggleDay(d)
		assert.Equal(t, before, b.SelectedDays(), "day %s", d)
	}

	b.ToggleDay(domain.Monday)
	assert.Equal(t, []domain.Weekday{domain.Wednesday}, b.SelectedDays())
}

func TestToggleDayNumber(t *testing.T) {
	b := newTestBuilder()
	b.ToggleDayNumber(15)
	assert.Equal(t, []int{1, 15}, b.DayNumbers())
	b.ToggleDayNumber(1)
	assert.Equal(t, []int{15}, b.DayNumbers())
}

func TestFifthWeekdayOrdinalBuilds(t *testing.T) {
	b := newTestBuilder()
	b.SetPreset(PresetMonthly)
	b.SetMonthlyKind(domain.KindWeekdayOrdinal)
	b.SetWeekday(domain.Sunday)
	b.SetOrdinal(5)

	p, err := b.Build()
	require.NoError(t, err)

	// October 2026 has four Sundays: the rule has no occurrence that month.
	_, ok := domain.NthWeekday(2026, time.October, domain.Sunday, 5)
	assert.False(t, ok)
	assert.Equal(t, domain.DayOfMonth{Kind: domain.KindWeekdayOrdinal, Weekday: domain.Sunday, Ordinal: 5}, p.Rule())
}

func TestDetectPresetDefaults(t *testing.T) {
	assert.Equal(t, PresetDaily, DetectPreset(domain.Pattern{}))
	assert.Equal(t, PresetMonthly, DetectPreset(domain.MustPattern(domain.DayOfMonth{Kind: domain.KindLastDay})))
	assert.Equal(t, PresetYearly, DetectPreset(domain.MustPattern(domain.DayOfYear{Kind: domain.KindWeekdayOrdinal, Month: time.May, Weekday: domain.Sunday, Ordinal: 2})))
}

func TestFromPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern domain.Pattern
		preset  Preset
	}{
		{"interval", domain.MustPattern(domain.Interval{Value: 2, Unit: domain.UnitWeek}), PresetInterval},
		{"weekly", domain.MustPattern(domain.DaysOfWeek{Days: []domain.Weekday{domain.Sunday, domain.Saturday}}), PresetWeekly},
		{"month_ordinal", domain.MustPattern(domain.DayOfMonth{Kind: domain.KindWeekdayOrdinal, Weekday: domain.Friday, Ordinal: 2}), PresetMonthly},
		{"month_days", domain.MustPattern(domain.DayOfMonth{Kind: domain.KindDayNumber, DayNumbers: []int{5, 20}}), PresetMonthly},
		{"year_date", domain.MustPattern(domain.DayOfYear{Kind: domain.KindDate, Month: time.July, Day: 4}), PresetYearly},
		{"year_ordinal", domain.MustPattern(domain.DayOfYear{Kind: domain.KindWeekdayOrdinal, Month: time.November, Weekday: domain.Thursday, Ordinal: 4}), PresetYearly},
		{"one_time", domain.MustPattern(domain.OneTime{Date: domain.Date{Year: 2027, Month: time.January, Day: 2}}), PresetOneTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := FromPattern(tt.pattern, WithClock(func() time.Time { return today }))
			assert.Equal(t, tt.preset, b.Preset())

			rebuilt, err := b.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.pattern, rebuilt)
		})
	}
}
