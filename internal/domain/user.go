package domain

import (
	"strings"
	"time"
)

// Day-3 assignment types.
const (
	Day3Workshop  = "WS"
	Day3SiteVisit = "SV"
)

// User holds an attendee's profile and per-day group assignments.
// Day 2 runs one rotational group per user; day 3 splits into AM/PM slots
// or a full-day site visit.
type User struct {
	Email       string
	Name        string
	PlayerID    string // push-subscription id at the notification vendor; empty = unreachable
	Day2Group   string
	Day3Type    string // "WS" or "SV"
	Day3GroupAM string
	Day3GroupPM string
	CreatedAt   time.Time
}

// GroupKeys returns the rotational-schedule keys applicable to the user on
// the given conference day, in preference order. An empty slice means the
// user has no group on that day.
func (u *User) GroupKeys(day int) []string {
	var keys []string
	switch day {
	case 2:
		if g := strings.TrimSpace(u.Day2Group); g != "" {
			keys = append(keys, "group"+g)
		}
	case 3:
		if u.Day3Type != Day3Workshop {
			return nil
		}
		if g := strings.TrimSpace(u.Day3GroupAM); g != "" && g != Day3SiteVisit {
			keys = append(keys, "group"+g)
		}
		if g := strings.TrimSpace(u.Day3GroupPM); g != "" && g != Day3SiteVisit {
			keys = append(keys, "group"+g)
		}
	}
	return keys
}

// OnSiteVisit reports whether the user is assigned to site visits on day 3.
func (u *User) OnSiteVisit() bool {
	return u.Day3Type == Day3SiteVisit || u.Day3GroupAM == Day3SiteVisit
}
