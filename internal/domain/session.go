package domain

import "time"

// Session categories as stored in the session documents.
const (
	CategoryGeneral   = "general"
	CategoryWorkshop  = "workshop"
	CategorySiteVisit = "site visit"
)

// TimeSlot is a per-group override of a session's canonical time window,
// used when the same logical session runs at different times for different
// attendee groups.
type TimeSlot struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// Session is one scheduled agenda item. Canonical sessions have an empty
// OwnerEmail; agenda materialization writes per-user copies with OwnerEmail
// set, and only those are eligible for push reminders.
type Session struct {
	ID          string
	OwnerEmail  string
	Title       string
	StartTime   time.Time // zero value means invalid/unknown
	EndTime     time.Time
	Location    string
	Description string
	Day         string // label, normalized via NormalizeDay
	Category    string
	Color       string
	IsGeneral   bool

	// RotationalSchedule maps a group key ("group1", "groupA", ...) to that
	// group's time slot. Resolved by agenda personalization, never by the
	// timeline evaluator.
	RotationalSchedule map[string]TimeSlot

	ReminderSent   bool
	NotificationID string // vendor message id recorded when the reminder fired
}

// Valid reports whether the session carries a usable time window.
// Sessions with missing or inverted instants never match live or upcoming
// checks and sort last.
func (s *Session) Valid() bool {
	return !s.StartTime.IsZero() && !s.EndTime.IsZero() && s.StartTime.Before(s.EndTime)
}

// DayNumber returns the session's normalized conference day.
func (s *Session) DayNumber() int {
	return NormalizeDay(s.Day)
}
