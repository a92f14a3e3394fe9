package builder

import (
	"slices"

	"github.com/tazhate/trackbot/internal/domain"
)

// Preset is the human-facing recurrence vocabulary offered by edit forms.
type Preset string

const (
	PresetDaily    Preset = "daily"
	PresetWeekdays Preset = "weekdays"
	PresetInterval Preset = "interval"
	PresetWeekly   Preset = "weekly"
	PresetMonthly  Preset = "monthly"
	PresetYearly   Preset = "yearly"
	PresetOneTime  Preset = "one_time"
)

// Presets lists every preset in display order.
var Presets = []Preset{PresetDaily, PresetWeekdays, PresetInterval, PresetWeekly, PresetMonthly, PresetYearly, PresetOneTime}

func (p Preset) Valid() bool {
	return slices.Contains(Presets, p)
}

// DetectPreset classifies a canonical pattern into the closest preset. It
// never fails: empty or malformed patterns classify as daily so an edit form
// can always be rendered.
//
// Two canonical shapes collapse: every 1 day is daily, and exactly Mon..Fri
// is weekdays.
func DetectPreset(p domain.Pattern) Preset {
	if p.Validate() != nil {
		return PresetDaily
	}
	switch r := p.Rule().(type) {
	case domain.Interval:
		if r.Value == 1 && r.Unit == domain.UnitDay {
			return PresetDaily
		}
		return PresetInterval
	case domain.DaysOfWeek:
		if slices.Equal(r.Days, domain.Workweek) {
			return PresetWeekdays
		}
		return PresetWeekly
	case domain.DayOfMonth:
		return PresetMonthly
	case domain.DayOfYear:
		return PresetYearly
	case domain.OneTime:
		return PresetOneTime
	}
	return PresetDaily
}
