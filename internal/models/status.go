package models

import "time"

// DerivedStatus is the read-time classification of a task.
type DerivedStatus string

const (
	StatusDone     DerivedStatus = "Done"
	StatusMissed   DerivedStatus = "Missed/Late"
	StatusDueToday DerivedStatus = "Due Today"
	StatusUpcoming DerivedStatus = "Upcoming"
)

// DerivedStatuses lists every status in display order.
var DerivedStatuses = []DerivedStatus{StatusDone, StatusMissed, StatusDueToday, StatusUpcoming}

// ParseDerivedStatus converts raw input into a DerivedStatus.
func ParseDerivedStatus(s string) (DerivedStatus, bool) {
	for _, st := range DerivedStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// DeriveStatus classifies a task relative to now. Calendar days are taken in
// now's location, so callers control the evaluation timezone through now.
func DeriveStatus(isCompleted bool, dueDate, now time.Time) DerivedStatus {
	if isCompleted {
		return StatusDone
	}

	loc := now.Location()
	today := startOfDay(now, loc)
	dueDay := startOfDay(dueDate.In(loc), loc)

	switch {
	case dueDay.Before(today):
		return StatusMissed
	case dueDay.Equal(today):
		return StatusDueToday
	default:
		return StatusUpcoming
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
