package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to TrackingState
		want     bool
	}{
		{StateRunning, StatePaused, true},
		{StateRunning, StateArchived, true},
		{StatePaused, StateRunning, true},
		{StatePaused, StateArchived, true},
		{StateRunning, StateRunning, false},
		{StatePaused, StatePaused, false},
		{StateArchived, StateRunning, false},
		{StateArchived, StatePaused, false},
		{StateArchived, StateArchived, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPrunedStatuses(t *testing.T) {
	assert.Equal(t, []ReminderStatus{StatusUpcoming}, StatePaused.PrunedStatuses())
	assert.ElementsMatch(t, []ReminderStatus{StatusPending, StatusUpcoming}, StateArchived.PrunedStatuses())
	assert.Empty(t, StateRunning.PrunedStatuses())
}

func TestValidateSchedules(t *testing.T) {
	assert.NoError(t, ValidateSchedules([]Schedule{{8, 0}, {20, 30}}))
	assert.Error(t, ValidateSchedules(nil))
	assert.Error(t, ValidateSchedules([]Schedule{{24, 0}}))
	assert.Error(t, ValidateSchedules([]Schedule{{8, 60}}))
	assert.Error(t, ValidateSchedules([]Schedule{{8, 0}, {8, 0}}))
	assert.Error(t, ValidateSchedules([]Schedule{{1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}, {6, 0}}))
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule("07:45")
	require.NoError(t, err)
	assert.Equal(t, Schedule{Hour: 7, Minutes: 45}, s)
	assert.Equal(t, "07:45", s.String())

	_, err = ParseSchedule("25:00")
	assert.Error(t, err)
	_, err = ParseSchedule("noon")
	assert.Error(t, err)
}

func TestTrackingValidate(t *testing.T) {
	pattern := MustPattern(Interval{Value: 1, Unit: UnitDay})
	tr := &Tracking{Question: "Did you stretch?", State: StateRunning, Pattern: &pattern, Schedules: []Schedule{{9, 0}}}
	assert.NoError(t, tr.Validate())

	tr.Question = "  "
	assert.Error(t, tr.Validate())

	at := time.Date(2026, time.November, 1, 10, 0, 0, 0, time.UTC)
	oneTime := &Tracking{Question: "Renew passport?", State: StateRunning, OneTimeAt: &at}
	assert.NoError(t, oneTime.Validate())
	assert.True(t, oneTime.IsOneTime())

	missing := &Tracking{Question: "Water plants?", State: StateRunning}
	assert.Error(t, missing.Validate())
}

func TestPayloadApply(t *testing.T) {
	pattern := MustPattern(Interval{Value: 1, Unit: UnitDay})
	tr := &Tracking{Question: "Old", Notes: "keep", State: StatePaused, Pattern: &pattern, Schedules: []Schedule{{9, 0}}}

	weekly := MustPattern(DaysOfWeek{Days: []Weekday{Monday}})
	TrackingPayload{
		Question:  StringPtr(" New "),
		Pattern:   &weekly,
		Schedules: []Schedule{{21, 0}, {7, 30}},
	}.Apply(tr)

	assert.Equal(t, "New", tr.Question)
	assert.Equal(t, "keep", tr.Notes)
	assert.Equal(t, StatePaused, tr.State, "payload never changes state")
	assert.Equal(t, weekly, *tr.Pattern)
	assert.Equal(t, []Schedule{{7, 30}, {21, 0}}, tr.Schedules)

	assert.True(t, TrackingPayload{}.Empty())
	assert.False(t, TrackingPayload{Notes: StringPtr("")}.Empty())
}

func TestTrackingJSON(t *testing.T) {
	pattern := MustPattern(DayOfMonth{Kind: KindLastDay})
	tr := Tracking{ID: 3, UserID: 1, Question: "Pay rent?", State: StateRunning, Pattern: &pattern, Schedules: []Schedule{{10, 0}}}

	data, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pattern":{"type":"day_of_month","kind":"last_day"}`)

	var decoded Tracking
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Pattern)
	assert.Equal(t, pattern, *decoded.Pattern)
}

func TestReminderPatchValidate(t *testing.T) {
	bad := ReminderStatus("snoozed")
	assert.Error(t, ReminderPatch{Status: &bad}.Validate())
	zero := time.Time{}
	assert.Error(t, ReminderPatch{ScheduledTime: &zero}.Validate())
	ok := StatusPending
	assert.NoError(t, ReminderPatch{Status: &ok}.Validate())
}
