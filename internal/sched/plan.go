package sched

import "time"

// Reminder offsets ahead of the main fire time.
const (
	offsetDayBefore  = 24 * time.Hour
	offsetHourBefore = time.Hour

	labelDayBefore  = " - за день"
	labelHourBefore = " - за час"
)

// Trigger is one planned firing: when, which offset category, and the
// display label carried into the delivered message.
type Trigger struct {
	Time          time.Time
	OffsetMinutes int
	Label         string
}

// Plan computes the triggers for a notification firing at fireTime: always
// the main event, plus a day-before and an hour-before reminder when that
// lead time still lies strictly in the future relative to now. Callers are
// responsible for rejecting past-dated fire times before planning.
func Plan(now, fireTime time.Time, name string) []Trigger {
	triggers := []Trigger{{
		Time:          fireTime,
		OffsetMinutes: 0,
		Label:         name,
	}}

	if fireTime.After(now.Add(offsetDayBefore)) {
		triggers = append(triggers, Trigger{
			Time:          fireTime.Add(-offsetDayBefore),
			OffsetMinutes: int(offsetDayBefore.Minutes()),
			Label:         name + labelDayBefore,
		})
	}

	if fireTime.After(now.Add(offsetHourBefore)) {
		triggers = append(triggers, Trigger{
			Time:          fireTime.Add(-offsetHourBefore),
			OffsetMinutes: int(offsetHourBefore.Minutes()),
			Label:         name + labelHourBefore,
		})
	}

	return triggers
}
