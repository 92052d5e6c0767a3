// Package airing decides whether a tracked title is due for a search in a
// given scan window, based on its declared weekly air day and time.
package airing

import (
	"time"

	"github.com/bangumarr/bangumarr/pkg/models"
	"github.com/bangumarr/bangumarr/pkg/scanwindow"
)

// DefaultLookbackDays covers the longest deployed window span (48h) even when
// it crosses midnight.
const DefaultLookbackDays = 3

// Matcher combines a schedule entry's weekly air time with candidate calendar
// dates around the window end to decide if the title aired inside the window.
type Matcher struct {
	lookbackDays int
	loc          *time.Location
}

func NewMatcher(loc *time.Location, lookbackDays int) *Matcher {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &Matcher{lookbackDays: lookbackDays, loc: loc}
}

// IsDue reports whether the entry's declared air time falls inside the
// window. For each of the last lookbackDays calendar days relative to the
// window end, the declared air time is combined with that date in the
// schedule timezone; any candidate whose weekday matches the declared weekday
// and whose instant lies in the window makes the entry due.
func (m *Matcher) IsDue(entry *models.ScheduleEntry, window *scanwindow.Window) bool {
	if entry == nil || window == nil || !entry.HasAirInfo() {
		return false
	}

	hour, minute, err := entry.AirClock()
	if err != nil {
		return false
	}

	end := window.End.In(m.loc)
	for offset := m.lookbackDays - 1; offset >= 0; offset-- {
		day := end.AddDate(0, 0, -offset)
		candidate := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, m.loc)
		if candidate.Weekday() == entry.Weekday && window.Contains(candidate) {
			return true
		}
	}
	return false
}
