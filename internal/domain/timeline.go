package domain

import (
	"sort"
	"time"
)

// MessageType labels the empty states the timeline can land in when there is
// no live or upcoming session to show.
type MessageType string

const (
	MessageNone   MessageType = ""       // a session is live or upcoming
	MessageToday  MessageType = "today"  // nothing left today, event continues
	MessageOver   MessageType = "over"   // event finished
	MessageBefore MessageType = "before" // event has not started yet
)

// EvaluationResult is the tuple the view layers bind to. It is recomputed on
// every tick and never persisted. Message is non-empty only when Primary is
// nil.
type EvaluationResult struct {
	Primary   *Session    // live session, or the next upcoming one
	Secondary *Session    // session after a live Primary, if any
	Message   MessageType // empty-state label when Primary is nil
}

// preEventLead is how far before the event's first session the timeline
// already surfaces it as "up next". Earlier than that the event counts as
// not started.
const preEventLead = 30 * time.Minute

// Boundary policy, pinned by tests: a session is live while
// start <= now < end; "up next" means start strictly after now; a day's span
// is inclusive at both ends.

// Evaluate maps the session list and a reference instant to the timeline
// state. It is pure: fixed inputs give identical output on every call, the
// input slice is never mutated, and "now" is always injected — the system
// clock is never read here. loc is the event's timezone, used only to decide
// when an overnight gap rolls over to the next day; nil means UTC.
func Evaluate(sessions []Session, now time.Time, loc *time.Location) EvaluationResult {
	valid := validSessions(sessions)
	if len(valid) == 0 {
		return EvaluationResult{Message: MessageOver}
	}

	// Before the whole event. Checked ahead of any per-day logic.
	earliest := valid[0].StartTime
	for _, s := range valid[1:] {
		if s.StartTime.Before(earliest) {
			earliest = s.StartTime
		}
	}
	if now.Before(earliest) && earliest.Sub(now) > preEventLead {
		return EvaluationResult{Message: MessageBefore}
	}

	day := CurrentDay(sessions, now, loc)

	today := make([]Session, 0, len(valid))
	for _, s := range valid {
		if s.DayNumber() == day {
			today = append(today, s)
		}
	}
	sortByStart(today)

	// Live: first session whose window contains now. Secondary is the next
	// one starting strictly after now.
	for i := range today {
		s := &today[i]
		if !s.StartTime.After(now) && now.Before(s.EndTime) {
			res := EvaluationResult{Primary: s}
			for j := i + 1; j < len(today); j++ {
				if today[j].StartTime.After(now) {
					res.Secondary = &today[j]
					break
				}
			}
			return res
		}
	}

	// No live session: the earliest one still ahead of now today.
	for i := range today {
		if today[i].StartTime.After(now) {
			return EvaluationResult{Primary: &today[i]}
		}
	}

	return emptyState(valid, day)
}

// emptyState distinguishes "nothing more today" from "event over".
func emptyState(valid []Session, day int) EvaluationResult {
	for _, s := range valid {
		if s.DayNumber() > day {
			return EvaluationResult{Message: MessageToday}
		}
	}
	return EvaluationResult{Message: MessageOver}
}

// CurrentDay derives the conference day purely from the session data: each
// day spans [earliest start, latest end] of its sessions, and "now" snaps to
// the nearest sensible day rather than to calendar-date equality, because
// conference days neither begin at midnight nor necessarily end before it.
func CurrentDay(sessions []Session, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}

	spans := map[int]*daySpan{}
	for _, s := range sessions {
		if !s.Valid() {
			continue
		}
		d := s.DayNumber()
		sp, ok := spans[d]
		if !ok {
			spans[d] = &daySpan{start: s.StartTime, end: s.EndTime}
			continue
		}
		if s.StartTime.Before(sp.start) {
			sp.start = s.StartTime
		}
		if s.EndTime.After(sp.end) {
			sp.end = s.EndTime
		}
	}
	if len(spans) == 0 {
		return 1
	}

	days := make([]int, 0, len(spans))
	for d := range spans {
		days = append(days, d)
	}
	sort.Ints(days)

	if now.Before(spans[days[0]].start) {
		return days[0]
	}

	for i, d := range days {
		sp := spans[d]
		if !now.Before(sp.start) && !now.After(sp.end) {
			return d
		}
		if i+1 < len(days) {
			next := spans[days[i+1]]
			if now.After(sp.end) && now.Before(next.start) {
				// Overnight gap: stay on day d until local midnight, then
				// roll over to the next day even though its sessions have
				// not started yet.
				if localDate(now, loc).After(localDate(sp.end, loc)) {
					return days[i+1]
				}
				return d
			}
		}
	}

	return days[len(days)-1]
}

type daySpan struct {
	start, end time.Time
}

// localDate truncates t to its calendar date in loc.
func localDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// validSessions filters out sessions with missing or inverted instants.
// Order is preserved so later sorts stay stable with respect to input order.
func validSessions(sessions []Session) []Session {
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Valid() {
			out = append(out, s)
		}
	}
	return out
}

// sortByStart orders sessions by start time ascending, ties keeping input
// order.
func sortByStart(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
}

// SortSessions orders a mixed list for display: valid sessions by start time
// ascending, invalid ones last, ties stable.
func SortSessions(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		vi, vj := sessions[i].Valid(), sessions[j].Valid()
		if vi != vj {
			return vi
		}
		if !vi {
			return false
		}
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
}
