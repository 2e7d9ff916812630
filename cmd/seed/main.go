// Command seed bulk-imports a conference data export (sessions, users,
// announcements) into the companion database. Timestamps in the export may
// be RFC3339 strings or epoch values; both are normalized on the way in.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/fedaabdelghany-code/dubai2025/internal/domain"
	"github.com/fedaabdelghany-code/dubai2025/internal/logger"
	"github.com/fedaabdelghany-code/dubai2025/internal/store"
)

type slotIn struct {
	StartTime any `json:"startTime"`
	EndTime   any `json:"endTime"`
}

type sessionIn struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	StartTime          any               `json:"startTime"`
	EndTime            any               `json:"endTime"`
	Location           string            `json:"location"`
	Description        string            `json:"description"`
	Day                string            `json:"day"`
	Category           string            `json:"category"`
	Color              string            `json:"color"`
	IsGeneral          bool              `json:"isGeneral"`
	RotationalSchedule map[string]slotIn `json:"rotationalSchedule"`
}

type dayAssignmentIn struct {
	Group   string `json:"group"`
	Type    string `json:"type"`
	GroupAM string `json:"groupAM"`
	GroupPM string `json:"groupPM"`
}

type userIn struct {
	Email             string           `json:"email"`
	Name              string           `json:"name"`
	OneSignalPlayerID string           `json:"oneSignalPlayerId"`
	Day2              *dayAssignmentIn `json:"day2"`
	Day3              *dayAssignmentIn `json:"day3"`
}

type announcementIn struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Active      *bool  `json:"active"`
	Timestamp   any    `json:"timestamp"`
}

type export struct {
	Sessions      []sessionIn      `json:"sessions"`
	Users         []userIn         `json:"users"`
	Announcements []announcementIn `json:"announcements"`
}

func main() {
	var (
		dbPath = flag.String("db", "./data/companion.db", "path to the sqlite database")
		file   = flag.String("file", "", "path to the JSON export (required)")
	)
	flag.Parse()

	log, err := logger.New("info")
	if err != nil {
		os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	if *file == "" {
		log.Fatal("missing -file argument")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal("read export", zap.Error(err))
	}
	var data export
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Fatal("parse export", zap.Error(err))
	}

	ctx := context.Background()
	repo, err := store.OpenSQLite(ctx, *dbPath)
	if err != nil {
		log.Fatal("open sqlite", zap.Error(err))
	}
	defer func() { _ = repo.Close() }()

	for _, in := range data.Sessions {
		s := toSession(in)
		if err := repo.UpsertSession(ctx, &s); err != nil {
			log.Error("import session failed", zap.String("id", in.ID), zap.Error(err))
			continue
		}
	}
	for _, in := range data.Users {
		u := toUser(in)
		if err := repo.UpsertUser(ctx, &u); err != nil {
			log.Error("import user failed", zap.String("email", in.Email), zap.Error(err))
			continue
		}
	}
	for _, in := range data.Announcements {
		a := toAnnouncement(in)
		if err := repo.UpsertAnnouncement(ctx, &a); err != nil {
			log.Error("import announcement failed", zap.String("id", in.ID), zap.Error(err))
			continue
		}
	}

	log.Info("import complete",
		zap.Int("sessions", len(data.Sessions)),
		zap.Int("users", len(data.Users)),
		zap.Int("announcements", len(data.Announcements)))
}

func toSession(in sessionIn) domain.Session {
	s := domain.Session{
		ID:          in.ID,
		Title:       in.Title,
		StartTime:   domain.ParseInstant(in.StartTime),
		EndTime:     domain.ParseInstant(in.EndTime),
		Location:    in.Location,
		Description: in.Description,
		Day:         in.Day,
		Category:    in.Category,
		Color:       in.Color,
		IsGeneral:   in.IsGeneral,
	}
	if len(in.RotationalSchedule) > 0 {
		s.RotationalSchedule = make(map[string]domain.TimeSlot, len(in.RotationalSchedule))
		for k, slot := range in.RotationalSchedule {
			s.RotationalSchedule[k] = domain.TimeSlot{
				StartTime: domain.ParseInstant(slot.StartTime),
				EndTime:   domain.ParseInstant(slot.EndTime),
			}
		}
	}
	return s
}

func toUser(in userIn) domain.User {
	u := domain.User{
		Email:    in.Email,
		Name:     in.Name,
		PlayerID: in.OneSignalPlayerID,
	}
	if in.Day2 != nil {
		u.Day2Group = in.Day2.Group
	}
	if in.Day3 != nil {
		u.Day3Type = in.Day3.Type
		u.Day3GroupAM = in.Day3.GroupAM
		u.Day3GroupPM = in.Day3.GroupPM
	}
	return u
}

func toAnnouncement(in announcementIn) domain.Announcement {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	priority := in.Priority
	if priority == "" {
		priority = "normal"
	}
	return domain.Announcement{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		Active:      active,
		CreatedAt:   domain.ParseInstant(in.Timestamp),
	}
}
