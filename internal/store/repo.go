package store

import (
	"context"
	"errors"
	"time"

	"github.com/fedaabdelghany-code/dubai2025/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Repo defines storage operations for sessions, users and the social feed.
type Repo interface {
	// Sessions. Canonical rows have an empty owner; ListSessions returns
	// only those, ordered by start time.
	UpsertSession(ctx context.Context, s *domain.Session) error
	ListSessions(ctx context.Context) ([]domain.Session, error)

	// Reminders. ListDueReminders returns unsent sessions starting in
	// [from, to). ClaimReminder flips reminder_sent false→true exactly once;
	// the boolean reports whether this caller won the claim.
	ListDueReminders(ctx context.Context, from, to time.Time, limit int) ([]domain.Session, error)
	ClaimReminder(ctx context.Context, sessionID, ownerEmail, notificationID string) (bool, error)
	BackfillReminderFlags(ctx context.Context) (int64, error)

	// Users and personalized agendas.
	UpsertUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, email string) (*domain.User, error)
	ReplaceAgenda(ctx context.Context, email string, sessions []domain.Session) error
	ListAgenda(ctx context.Context, email string) ([]domain.Session, error)

	// Announcements, newest first.
	UpsertAnnouncement(ctx context.Context, a *domain.Announcement) error
	ListAnnouncements(ctx context.Context) ([]domain.Announcement, error)

	// Networking feed.
	CreatePost(ctx context.Context, p *domain.Post) error
	ListPosts(ctx context.Context) ([]domain.Post, error)
	ToggleLike(ctx context.Context, postID, email string) (bool, error)
	AddComment(ctx context.Context, postID string, c domain.Comment) error

	Close() error
}
