package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday represents a day of the week (0 = Sunday, 1 = Monday, ...)
type Weekday int

const (
	Sunday    Weekday = 0
	Monday    Weekday = 1
	Tuesday   Weekday = 2
	Wednesday Weekday = 3
	Thursday  Weekday = 4
	Friday    Weekday = 5
	Saturday  Weekday = 6
)

// Workweek is the Monday..Friday day set.
var Workweek = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

var weekdayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Valid reports whether d is in [0,6].
func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

// String returns the English name for the weekday
func (d Weekday) String() string {
	if d.Valid() {
		return weekdayNames[d]
	}
	return "Weekday(" + strconv.Itoa(int(d)) + ")"
}

// Short returns the three-letter name for the weekday
func (d Weekday) Short() string {
	if d.Valid() {
		return weekdayNames[d][:3]
	}
	return d.String()
}

// Time converts to the standard library weekday.
func (d Weekday) Time() time.Weekday {
	return time.Weekday(d)
}

// ParseWeekday accepts "mon", "Monday", or a numeric code "1".
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		d := Weekday(n)
		if !d.Valid() {
			return 0, fmt.Errorf("weekday %d out of range", n)
		}
		return d, nil
	}
	for i, name := range weekdayNames {
		lower := strings.ToLower(name)
		if s == lower || s == lower[:3] {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday: %s", s)
}
