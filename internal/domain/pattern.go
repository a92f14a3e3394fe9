package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// PatternType tags the variant held by a Pattern.
type PatternType string

const (
	PatternInterval   PatternType = "interval"
	PatternDayOfWeek  PatternType = "day_of_week"
	PatternDayOfMonth PatternType = "day_of_month"
	PatternDayOfYear  PatternType = "day_of_year"
	PatternOneTime    PatternType = "one_time"
)

type IntervalUnit string

const (
	UnitDay   IntervalUnit = "day"
	UnitWeek  IntervalUnit = "week"
	UnitMonth IntervalUnit = "month"
	UnitYear  IntervalUnit = "year"
)

func (u IntervalUnit) Valid() bool {
	switch u {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	}
	return false
}

// DayRuleKind selects the sub-rule of a day_of_month or day_of_year pattern.
type DayRuleKind string

const (
	KindDayNumber      DayRuleKind = "day_number"      // day_of_month only
	KindLastDay        DayRuleKind = "last_day"        // day_of_month only
	KindWeekdayOrdinal DayRuleKind = "weekday_ordinal" // "2nd Friday"
	KindDate           DayRuleKind = "date"            // day_of_year only
)

// Rule is one variant of the recurrence union. The set of implementations is
// closed: Interval, DaysOfWeek, DayOfMonth, DayOfYear and OneTime.
type Rule interface {
	Type() PatternType
	Validate() error
	Describe() string
	rule()
}

// Interval repeats every Value Units.
type Interval struct {
	Value int
	Unit  IntervalUnit
}

// DaysOfWeek repeats on every listed weekday.
type DaysOfWeek struct {
	Days []Weekday
}

// DayOfMonth repeats monthly on day numbers, the last day, or an ordinal weekday.
type DayOfMonth struct {
	Kind       DayRuleKind
	DayNumbers []int   // KindDayNumber
	Weekday    Weekday // KindWeekdayOrdinal
	Ordinal    int     // KindWeekdayOrdinal, 1..5
}

// DayOfYear repeats yearly on a fixed date or an ordinal weekday of a month.
type DayOfYear struct {
	Kind    DayRuleKind
	Month   time.Month
	Day     int     // KindDate
	Weekday Weekday // KindWeekdayOrdinal
	Ordinal int     // KindWeekdayOrdinal, 1..5
}

// OneTime fires once on Date.
type OneTime struct {
	Date Date
}

func (Interval) Type() PatternType   { return PatternInterval }
func (DaysOfWeek) Type() PatternType { return PatternDayOfWeek }
func (DayOfMonth) Type() PatternType { return PatternDayOfMonth }
func (DayOfYear) Type() PatternType  { return PatternDayOfYear }
func (OneTime) Type() PatternType    { return PatternOneTime }

func (Interval) rule()   {}
func (DaysOfWeek) rule() {}
func (DayOfMonth) rule() {}
func (DayOfYear) rule()  {}
func (OneTime) rule()    {}

func (r Interval) Validate() error {
	if r.Value < 1 {
		return invalid("interval_value", "interval must be at least 1")
	}
	if !r.Unit.Valid() {
		return invalid("interval_unit", "unknown unit %q", r.Unit)
	}
	return nil
}

func (r DaysOfWeek) Validate() error {
	if len(r.Days) == 0 {
		return invalid("days", "select at least one day")
	}
	seen := make(map[Weekday]bool, len(r.Days))
	for _, d := range r.Days {
		if !d.Valid() {
			return invalid("days", "day %d out of range 0..6", int(d))
		}
		if seen[d] {
			return invalid("days", "%s selected twice", d)
		}
		seen[d] = true
	}
	return nil
}

func (r DayOfMonth) Validate() error {
	switch r.Kind {
	case KindDayNumber:
		if len(r.DayNumbers) == 0 {
			return invalid("day_numbers", "select at least one day of the month")
		}
		seen := make(map[int]bool, len(r.DayNumbers))
		for _, n := range r.DayNumbers {
			if n < 1 || n > 31 {
				return invalid("day_numbers", "day %d out of range 1..31", n)
			}
			if seen[n] {
				return invalid("day_numbers", "day %d selected twice", n)
			}
			seen[n] = true
		}
	case KindLastDay:
	case KindWeekdayOrdinal:
		return validateOrdinal(r.Weekday, r.Ordinal)
	default:
		return invalid("monthly_kind", "unknown monthly rule %q", r.Kind)
	}
	return nil
}

func (r DayOfYear) Validate() error {
	if r.Month < time.January || r.Month > time.December {
		return invalid("month", "month %d out of range 1..12", int(r.Month))
	}
	switch r.Kind {
	case KindDate:
		if last := DaysInMonth(r.Month); r.Day < 1 || r.Day > last {
			return invalid("day", "%s has days 1..%d", r.Month, last)
		}
	case KindWeekdayOrdinal:
		return validateOrdinal(r.Weekday, r.Ordinal)
	default:
		return invalid("yearly_kind", "unknown yearly rule %q", r.Kind)
	}
	return nil
}

func (r OneTime) Validate() error {
	if r.Date.IsZero() {
		return invalid("one_time_date", "choose a date")
	}
	if DateOf(r.Date.In(time.UTC)) != r.Date {
		return invalid("one_time_date", "%s is not a calendar date", r.Date)
	}
	return nil
}

// ValidateOn additionally requires the date to be today or later.
func (r OneTime) ValidateOn(today Date) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Date.Before(today) {
		return invalid("one_time_date", "date must be today or later")
	}
	return nil
}

func validateOrdinal(weekday Weekday, ordinal int) error {
	if !weekday.Valid() {
		return invalid("weekday", "weekday %d out of range 0..6", int(weekday))
	}
	if ordinal < 1 || ordinal > 5 {
		return invalid("ordinal", "ordinal %d out of range 1..5", ordinal)
	}
	return nil
}

var ordinalNames = []string{"", "1st", "2nd", "3rd", "4th", "5th"}

func ordinalName(n int) string {
	if n >= 1 && n < len(ordinalNames) {
		return ordinalNames[n]
	}
	return strconv.Itoa(n) + "th"
}

func (r Interval) Describe() string {
	if r.Value == 1 {
		return "every " + string(r.Unit)
	}
	return fmt.Sprintf("every %d %ss", r.Value, r.Unit)
}

func (r DaysOfWeek) Describe() string {
	names := make([]string, len(r.Days))
	for i, d := range r.Days {
		names[i] = d.Short()
	}
	return strings.Join(names, ", ")
}

func (r DayOfMonth) Describe() string {
	switch r.Kind {
	case KindLastDay:
		return "last day of month"
	case KindWeekdayOrdinal:
		return fmt.Sprintf("%s %s of month", ordinalName(r.Ordinal), r.Weekday)
	}
	nums := make([]string, len(r.DayNumbers))
	for i, n := range r.DayNumbers {
		nums[i] = strconv.Itoa(n)
	}
	return "monthly on day " + strings.Join(nums, ", ")
}

func (r DayOfYear) Describe() string {
	if r.Kind == KindWeekdayOrdinal {
		return fmt.Sprintf("%s %s of %s", ordinalName(r.Ordinal), r.Weekday, r.Month)
	}
	return fmt.Sprintf("every %s %d", r.Month, r.Day)
}

func (r OneTime) Describe() string {
	return "once on " + r.Date.String()
}

// Pattern is a validated recurrence rule. The zero Pattern holds no rule and
// is not valid.
type Pattern struct {
	rule Rule
}

// NewPattern validates r and returns it in canonical form (day sets sorted).
func NewPattern(r Rule) (Pattern, error) {
	if r == nil {
		return Pattern{}, invalid("type", "recurrence is required")
	}
	r = canonical(r)
	if err := r.Validate(); err != nil {
		return Pattern{}, err
	}
	return Pattern{rule: r}, nil
}

// MustPattern is NewPattern for literals known to be valid.
func MustPattern(r Rule) Pattern {
	p, err := NewPattern(r)
	if err != nil {
		panic(err)
	}
	return p
}

func canonical(r Rule) Rule {
	switch v := r.(type) {
	case DaysOfWeek:
		v.Days = slices.Clone(v.Days)
		slices.Sort(v.Days)
		return v
	case DayOfMonth:
		v.DayNumbers = slices.Clone(v.DayNumbers)
		slices.Sort(v.DayNumbers)
		if v.Kind != KindDayNumber {
			v.DayNumbers = nil
		}
		if v.Kind != KindWeekdayOrdinal {
			v.Weekday, v.Ordinal = 0, 0
		}
		return v
	case DayOfYear:
		if v.Kind == KindDate {
			v.Weekday, v.Ordinal = 0, 0
		} else {
			v.Day = 0
		}
		return v
	}
	return r
}

// Rule returns the held variant, nil for the zero Pattern.
func (p Pattern) Rule() Rule {
	return p.rule
}

func (p Pattern) IsZero() bool {
	return p.rule == nil
}

func (p Pattern) Type() PatternType {
	if p.rule == nil {
		return ""
	}
	return p.rule.Type()
}

func (p Pattern) Validate() error {
	if p.rule == nil {
		return invalid("type", "recurrence is required")
	}
	return p.rule.Validate()
}

func (p Pattern) String() string {
	if p.rule == nil {
		return "none"
	}
	return p.rule.Describe()
}

// patternJSON is the persisted shape of every variant.
type patternJSON struct {
	Type       PatternType  `json:"type"`
	Value      int          `json:"value,omitempty"`
	Unit       IntervalUnit `json:"unit,omitempty"`
	Days       []Weekday    `json:"days,omitempty"`
	Kind       DayRuleKind  `json:"kind,omitempty"`
	DayNumbers []int        `json:"day_numbers,omitempty"`
	Month      int          `json:"month,omitempty"`
	Day        int          `json:"day,omitempty"`
	Weekday    *Weekday     `json:"weekday,omitempty"`
	Ordinal    int          `json:"ordinal,omitempty"`
	Date       string       `json:"date,omitempty"`
}

func (p Pattern) MarshalJSON() ([]byte, error) {
	if p.rule == nil {
		return []byte("null"), nil
	}
	w := patternJSON{Type: p.rule.Type()}
	switch v := p.rule.(type) {
	case Interval:
		w.Value, w.Unit = v.Value, v.Unit
	case DaysOfWeek:
		w.Days = v.Days
	case DayOfMonth:
		w.Kind, w.DayNumbers = v.Kind, v.DayNumbers
		if v.Kind == KindWeekdayOrdinal {
			wd := v.Weekday
			w.Weekday, w.Ordinal = &wd, v.Ordinal
		}
	case DayOfYear:
		w.Kind, w.Month = v.Kind, int(v.Month)
		if v.Kind == KindWeekdayOrdinal {
			wd := v.Weekday
			w.Weekday, w.Ordinal = &wd, v.Ordinal
		} else {
			w.Day = v.Day
		}
	case OneTime:
		w.Date = v.Date.String()
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes and validates the structure. The "today or later"
// rule for one-time dates is not applied: it only holds at creation time.
func (p *Pattern) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Pattern{}
		return nil
	}
	var w patternJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode pattern: %w", err)
	}
	var weekday Weekday
	if w.Weekday != nil {
		weekday = *w.Weekday
	}

	var r Rule
	switch w.Type {
	case PatternInterval:
		r = Interval{Value: w.Value, Unit: w.Unit}
	case PatternDayOfWeek:
		r = DaysOfWeek{Days: w.Days}
	case PatternDayOfMonth:
		r = DayOfMonth{Kind: w.Kind, DayNumbers: w.DayNumbers, Weekday: weekday, Ordinal: w.Ordinal}
	case PatternDayOfYear:
		r = DayOfYear{Kind: w.Kind, Month: time.Month(w.Month), Day: w.Day, Weekday: weekday, Ordinal: w.Ordinal}
	case PatternOneTime:
		if w.Date == "" {
			return invalid("one_time_date", "choose a date")
		}
		d, err := ParseDate(w.Date)
		if err != nil {
			return invalid("one_time_date", "%s is not a calendar date", w.Date)
		}
		r = OneTime{Date: d}
	default:
		return invalid("type", "unknown recurrence type %q", w.Type)
	}

	parsed, err := NewPattern(r)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
