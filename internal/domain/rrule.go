package domain

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

var rruleFreq = map[IntervalUnit]rrule.Frequency{
	UnitDay:   rrule.DAILY,
	UnitWeek:  rrule.WEEKLY,
	UnitMonth: rrule.MONTHLY,
	UnitYear:  rrule.YEARLY,
}

// RRule renders the pattern as an RFC 5545 recurrence starting at dtstart.
// Ordinal weekdays map to BYDAY=+NXX, so a fifth weekday that does not exist
// in a period produces no occurrence for that period.
func (p Pattern) RRule(dtstart time.Time) (*rrule.ROption, error) {
	opt := &rrule.ROption{Dtstart: dtstart, Interval: 1}

	switch v := p.rule.(type) {
	case Interval:
		opt.Freq = rruleFreq[v.Unit]
		opt.Interval = v.Value
	case DaysOfWeek:
		opt.Freq = rrule.WEEKLY
		for _, d := range v.Days {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
		}
	case DayOfMonth:
		opt.Freq = rrule.MONTHLY
		switch v.Kind {
		case KindDayNumber:
			opt.Bymonthday = append([]int(nil), v.DayNumbers...)
		case KindLastDay:
			opt.Bymonthday = []int{-1}
		case KindWeekdayOrdinal:
			opt.Byweekday = []rrule.Weekday{rruleWeekdays[v.Weekday].Nth(v.Ordinal)}
		}
	case DayOfYear:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(v.Month)}
		if v.Kind == KindWeekdayOrdinal {
			opt.Byweekday = []rrule.Weekday{rruleWeekdays[v.Weekday].Nth(v.Ordinal)}
		} else {
			opt.Bymonthday = []int{v.Day}
		}
	case OneTime:
		opt.Freq = rrule.DAILY
		opt.Count = 1
		h, m, s := dtstart.Clock()
		opt.Dtstart = time.Date(v.Date.Year, v.Date.Month, v.Date.Day, h, m, s, 0, dtstart.Location())
	default:
		return nil, fmt.Errorf("rrule: %w", p.Validate())
	}

	if _, err := rrule.NewRRule(*opt); err != nil {
		return nil, fmt.Errorf("rrule: %w", err)
	}
	return opt, nil
}
