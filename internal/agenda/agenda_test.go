package agenda

import (
	"testing"
	"time"

	"github.com/fedaabdelghany-code/dubai2025/internal/domain"
)

var base = time.Date(2025, time.November, 11, 9, 0, 0, 0, time.UTC)

func workshop(id, day string, schedule map[string]domain.TimeSlot) domain.Session {
	return domain.Session{
		ID:                 id,
		Title:              id,
		Day:                day,
		Category:           domain.CategoryWorkshop,
		StartTime:          base,
		EndTime:            base.Add(time.Hour),
		RotationalSchedule: schedule,
	}
}

func TestPersonalize_GeneralAlwaysIncluded(t *testing.T) {
	sessions := []domain.Session{
		{ID: "keynote", Day: "1", IsGeneral: true, StartTime: base, EndTime: base.Add(time.Hour)},
		{ID: "untagged", Day: "1", StartTime: base.Add(2 * time.Hour), EndTime: base.Add(3 * time.Hour)},
	}
	u := &domain.User{Email: "A@Example.com"}

	got := Personalize(sessions, u)
	if len(got) != 2 {
		t.Fatalf("want both sessions, got %d", len(got))
	}
	for _, s := range got {
		if s.OwnerEmail != "a@example.com" {
			t.Errorf("owner email not normalized: %q", s.OwnerEmail)
		}
		if s.ReminderSent {
			t.Errorf("personalized copy of %s must reset reminder flag", s.ID)
		}
	}
}

func TestPersonalize_WorkshopGroupSubstitution(t *testing.T) {
	slot := domain.TimeSlot{StartTime: base.Add(4 * time.Hour), EndTime: base.Add(5 * time.Hour)}
	sessions := []domain.Session{
		workshop("ws", "Day 2", map[string]domain.TimeSlot{"group1": slot}),
	}

	got := Personalize(sessions, &domain.User{Email: "u@x.com", Day2Group: "1"})
	if len(got) != 1 {
		t.Fatalf("want workshop included for group1, got %d sessions", len(got))
	}
	if !got[0].StartTime.Equal(slot.StartTime) || !got[0].EndTime.Equal(slot.EndTime) {
		t.Fatalf("group slot not substituted: %+v", got[0])
	}

	// No matching group entry: hidden.
	got = Personalize(sessions, &domain.User{Email: "u@x.com", Day2Group: "2"})
	if len(got) != 0 {
		t.Fatalf("workshop should be hidden without a group slot, got %d", len(got))
	}
}

func TestPersonalize_Day3WorkshopPrefersAMThenPM(t *testing.T) {
	slotA := domain.TimeSlot{StartTime: base, EndTime: base.Add(time.Hour)}
	slotB := domain.TimeSlot{StartTime: base.Add(5 * time.Hour), EndTime: base.Add(6 * time.Hour)}
	sessions := []domain.Session{
		workshop("ws", "3", map[string]domain.TimeSlot{"groupA": slotA, "groupB": slotB}),
	}

	u := &domain.User{Email: "u@x.com", Day3Type: domain.Day3Workshop, Day3GroupAM: "A", Day3GroupPM: "B"}
	got := Personalize(sessions, u)
	if len(got) != 1 || !got[0].StartTime.Equal(slotA.StartTime) {
		t.Fatalf("want AM slot preferred, got %+v", got)
	}

	u = &domain.User{Email: "u@x.com", Day3Type: domain.Day3Workshop, Day3GroupAM: domain.Day3SiteVisit, Day3GroupPM: "B"}
	got = Personalize(sessions, u)
	if len(got) != 1 || !got[0].StartTime.Equal(slotB.StartTime) {
		t.Fatalf("SV marker in AM must fall through to PM slot, got %+v", got)
	}
}

func TestPersonalize_SiteVisits(t *testing.T) {
	sessions := []domain.Session{
		{ID: "sv", Day: "3", Category: domain.CategorySiteVisit, StartTime: base, EndTime: base.Add(6 * time.Hour)},
	}

	svUser := &domain.User{Email: "sv@x.com", Day3Type: domain.Day3SiteVisit}
	if got := Personalize(sessions, svUser); len(got) != 1 {
		t.Fatalf("site visit should be visible to SV user, got %d", len(got))
	}

	wsUser := &domain.User{Email: "ws@x.com", Day3Type: domain.Day3Workshop, Day3GroupAM: "A"}
	if got := Personalize(sessions, wsUser); len(got) != 0 {
		t.Fatalf("site visit must be hidden from workshop user, got %d", len(got))
	}
}

func TestPersonalize_SortedByStart(t *testing.T) {
	sessions := []domain.Session{
		{ID: "late", Day: "1", IsGeneral: true, StartTime: base.Add(3 * time.Hour), EndTime: base.Add(4 * time.Hour)},
		{ID: "early", Day: "1", IsGeneral: true, StartTime: base, EndTime: base.Add(time.Hour)},
	}
	got := Personalize(sessions, &domain.User{Email: "u@x.com"})
	if len(got) != 2 || got[0].ID != "early" {
		t.Fatalf("agenda must be sorted by start time, got %+v", got)
	}
}
