package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

func TestPatternJSONShapes(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		want    string
	}{
		{"interval", MustPattern(Interval{Value: 2, Unit: UnitWeek}), `{"type":"interval","value":2,"unit":"week"}`},
		{"day_of_week", MustPattern(DaysOfWeek{Days: []Weekday{Wednesday, Monday}}), `{"type":"day_of_week","days":[1,3]}`},
		{"day_numbers", MustPattern(DayOfMonth{Kind: KindDayNumber, DayNumbers: []int{15, 1}}), `{"type":"day_of_month","kind":"day_number","day_numbers":[1,15]}`},
		{"last_day", MustPattern(DayOfMonth{Kind: KindLastDay}), `{"type":"day_of_month","kind":"last_day"}`},
		{"month_ordinal_sunday", MustPattern(DayOfMonth{Kind: KindWeekdayOrdinal, Weekday: Sunday, Ordinal: 5}), `{"type":"day_of_month","kind":"weekday_ordinal","weekday":0,"ordinal":5}`},
		{"year_date", MustPattern(DayOfYear{Kind: KindDate, Month: time.February, Day: 28}), `{"type":"day_of_year","kind":"date","month":2,"day":28}`},
		{"year_ordinal", MustPattern(DayOfYear{Kind: KindWeekdayOrdinal, Month: time.November, Weekday: Thursday, Ordinal: 4}), `{"type":"day_of_year","kind":"weekday_ordinal","month":11,"weekday":4,"ordinal":4}`},
		{"one_time", MustPattern(OneTime{Date: Date{2026, time.October, 20}}), `{"type":"one_time","date":"2026-10-20"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.pattern)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var decoded Pattern
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.pattern, decoded)
		})
	}
}

func TestPatternDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"unknown_type", `{"type":"hourly"}`, "type"},
		{"zero_interval", `{"type":"interval","value":0,"unit":"day"}`, "interval_value"},
		{"bad_unit", `{"type":"interval","value":1,"unit":"fortnight"}`, "interval_unit"},
		{"empty_days", `{"type":"day_of_week","days":[]}`, "days"},
		{"duplicate_days", `{"type":"day_of_week","days":[1,1]}`, "days"},
		{"day_out_of_range", `{"type":"day_of_week","days":[7]}`, "days"},
		{"day_number_32", `{"type":"day_of_month","kind":"day_number","day_numbers":[32]}`, "day_numbers"},
		{"ordinal_6", `{"type":"day_of_month","kind":"weekday_ordinal","weekday":1,"ordinal":6}`, "ordinal"},
		{"feb_30", `{"type":"day_of_year","kind":"date","month":2,"day":30}`, "day"},
		{"feb_29", `{"type":"day_of_year","kind":"date","month":2,"day":29}`, "day"},
		{"april_31", `{"type":"day_of_year","kind":"date","month":4,"day":31}`, "day"},
		{"month_13", `{"type":"day_of_year","kind":"date","month":13,"day":1}`, "month"},
		{"one_time_missing", `{"type":"one_time"}`, "one_time_date"},
		{"one_time_garbage", `{"type":"one_time","date":"next tuesday"}`, "one_time_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Pattern
			err := json.Unmarshal([]byte(tt.input), &p)
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "want ValidationError, got %T: %v", err, err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestPatternDecodeKeepsPastOneTime(t *testing.T) {
	var p Pattern
	require.NoError(t, json.Unmarshal([]byte(`{"type":"one_time","date":"2020-01-01"}`), &p))
	assert.Equal(t, OneTime{Date: Date{2020, time.January, 1}}, p.Rule())
}

func TestOneTimeValidateOn(t *testing.T) {
	today := Date{2026, time.October, 14}

	assert.NoError(t, OneTime{Date: today}.ValidateOn(today))
	assert.NoError(t, OneTime{Date: Date{2026, time.October, 15}}.ValidateOn(today))

	err := OneTime{Date: Date{2026, time.October, 13}}.ValidateOn(today)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "one_time_date", verr.Field)
}

func TestNullPattern(t *testing.T) {
	var p Pattern
	require.NoError(t, json.Unmarshal([]byte(`null`), &p))
	assert.True(t, p.IsZero())
	assert.Error(t, p.Validate())

	data, err := json.Marshal(Pattern{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestNthWeekday(t *testing.T) {
	// October 2026 starts on a Thursday and has four Sundays.
	day, ok := NthWeekday(2026, time.October, Sunday, 4)
	assert.True(t, ok)
	assert.Equal(t, 25, day)

	_, ok = NthWeekday(2026, time.October, Sunday, 5)
	assert.False(t, ok, "fifth Sunday does not exist in October 2026")

	day, ok = NthWeekday(2026, time.November, Sunday, 5)
	assert.True(t, ok)
	assert.Equal(t, 29, day)

	day, ok = NthWeekday(2026, time.October, Thursday, 1)
	assert.True(t, ok)
	assert.Equal(t, 1, day)

	_, ok = NthWeekday(2026, time.October, Thursday, 0)
	assert.False(t, ok)
}

func TestFifthWeekdaySkipsShortMonths(t *testing.T) {
	p := MustPattern(DayOfMonth{Kind: KindWeekdayOrdinal, Weekday: Sunday, Ordinal: 5})
	start := time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC)

	opt, err := p.RRule(start)
	require.NoError(t, err)
	r, err := rrule.NewRRule(*opt)
	require.NoError(t, err)

	got := r.Between(start, time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC), true)
	assert.Equal(t, []time.Time{time.Date(2026, time.November, 29, 9, 0, 0, 0, time.UTC)}, got)
}

func TestPatternRRule(t *testing.T) {
	start := time.Date(2026, time.October, 14, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		pattern  Pattern
		contains []string
	}{
		{"interval", MustPattern(Interval{Value: 3, Unit: UnitDay}), []string{"FREQ=DAILY", "INTERVAL=3"}},
		{"days", MustPattern(DaysOfWeek{Days: []Weekday{Monday, Wednesday}}), []string{"FREQ=WEEKLY", "BYDAY=MO,WE"}},
		{"last_day", MustPattern(DayOfMonth{Kind: KindLastDay}), []string{"FREQ=MONTHLY", "BYMONTHDAY=-1"}},
		{"year_date", MustPattern(DayOfYear{Kind: KindDate, Month: time.March, Day: 8}), []string{"FREQ=YEARLY", "BYMONTH=3", "BYMONTHDAY=8"}},
		{"year_ordinal", MustPattern(DayOfYear{Kind: KindWeekdayOrdinal, Month: time.November, Weekday: Thursday, Ordinal: 4}), []string{"FREQ=YEARLY", "BYMONTH=11", "4TH"}},
		{"one_time", MustPattern(OneTime{Date: Date{2026, time.December, 1}}), []string{"COUNT=1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := tt.pattern.RRule(start)
			require.NoError(t, err)
			s := opt.RRuleString()
			for _, want := range tt.contains {
				assert.Contains(t, s, want)
			}
		})
	}
}

func TestOneTimeRRuleStartsOnDate(t *testing.T) {
	p := MustPattern(OneTime{Date: Date{2026, time.December, 1}})
	opt, err := p.RRule(time.Date(2026, time.October, 14, 8, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.December, 1, 8, 30, 0, 0, time.UTC), opt.Dtstart)
}

func TestZeroPatternRRuleFails(t *testing.T) {
	_, err := Pattern{}.RRule(time.Now())
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "every day", MustPattern(Interval{Value: 1, Unit: UnitDay}).String())
	assert.Equal(t, "every 2 weeks", MustPattern(Interval{Value: 2, Unit: UnitWeek}).String())
	assert.Equal(t, "Mon, Fri", MustPattern(DaysOfWeek{Days: []Weekday{Friday, Monday}}).String())
	assert.Equal(t, "last day of month", MustPattern(DayOfMonth{Kind: KindLastDay}).String())
	assert.Equal(t, "2nd Friday of month", MustPattern(DayOfMonth{Kind: KindWeekdayOrdinal, Weekday: Friday, Ordinal: 2}).String())
	assert.Equal(t, "every March 8", MustPattern(DayOfYear{Kind: KindDate, Month: time.March, Day: 8}).String())
	assert.Equal(t, "none", Pattern{}.String())
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, DaysInMonth(time.January))
	assert.Equal(t, 28, DaysInMonth(time.February))
	assert.Equal(t, 30, DaysInMonth(time.April))
	assert.Equal(t, 0, DaysInMonth(13))
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]Weekday{"mon": Monday, "Sunday": Sunday, "6": Saturday, " fri ": Friday} {
		got, err := ParseWeekday(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseWeekday("7")
	assert.Error(t, err)
	_, err = ParseWeekday("someday")
	assert.Error(t, err)
}
