// Package agenda decides which sessions an attendee sees and at what time.
// It resolves rotational schedules down to the single group-specific slot
// that applies to the viewing user, so everything downstream (the timeline
// evaluator, the reminder scheduler) works with plain start/end instants.
package agenda

import (
	"strings"

	"github.com/fedaabdelghany-code/dubai2025/internal/domain"
)

// Personalize maps the canonical session list to the user's agenda:
//   - general sessions are always included as-is;
//   - workshops are included only when one of the user's group keys for that
//     day has an entry in the rotational schedule, with that slot's times
//     substituted;
//   - site visits are included only for site-visit attendees.
//
// Returned sessions are copies owned by the user, with the reminder flag
// reset so the scheduler can pick them up.
func Personalize(sessions []domain.Session, u *domain.User) []domain.Session {
	out := make([]domain.Session, 0, len(sessions))
	for _, s := range sessions {
		resolved, ok := resolve(s, u)
		if !ok {
			continue
		}
		resolved.OwnerEmail = strings.ToLower(u.Email)
		resolved.ReminderSent = false
		resolved.NotificationID = ""
		out = append(out, resolved)
	}
	domain.SortSessions(out)
	return out
}

func resolve(s domain.Session, u *domain.User) (domain.Session, bool) {
	if s.IsGeneral || s.Category == "" || s.Category == domain.CategoryGeneral {
		return s, true
	}

	switch s.Category {
	case domain.CategoryWorkshop:
		for _, key := range u.GroupKeys(s.DayNumber()) {
			slot, ok := s.RotationalSchedule[key]
			if !ok {
				continue
			}
			s.StartTime = slot.StartTime
			s.EndTime = slot.EndTime
			return s, true
		}
		return domain.Session{}, false

	case domain.CategorySiteVisit:
		if u.OnSiteVisit() {
			return s, true
		}
		return domain.Session{}, false
	}

	// Restricted category we do not recognize: hide rather than leak.
	return domain.Session{}, false
}
