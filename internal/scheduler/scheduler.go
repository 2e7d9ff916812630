package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fedaabdelghany-code/dubai2025/internal/domain"
	"github.com/fedaabdelghany-code/dubai2025/internal/store"
)

// Pusher is the minimal interface the scheduler needs to dispatch one push
// notification. push.Client implements it.
type Pusher interface {
	Send(ctx context.Context, playerID, title, body string, data map[string]string) (string, error)
}

// Scheduler periodically scans for sessions entering the reminder window and
// dispatches push notifications, at most once per session per user.
type Scheduler struct {
	repo     store.Repo
	log      *zap.Logger
	push     Pusher
	interval time.Duration // tick cadence
	lead     time.Duration // how far ahead of a session's start the window opens
	window   time.Duration // window width
	now      func() time.Time
}

// New creates a reminder scheduler. With the defaults it ticks once per
// minute and reminds for sessions starting in [now+5m, now+6m).
func New(repo store.Repo, log *zap.Logger, push Pusher, interval, lead, window time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if lead <= 0 {
		lead = 5 * time.Minute
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Scheduler{
		repo:     repo,
		log:      log,
		push:     push,
		interval: interval,
		lead:     lead,
		window:   window,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run starts the loop until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("reminder scheduler stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Window returns the reminder lookahead interval [from, to) for a tick at
// the given instant.
func (s *Scheduler) Window(now time.Time) (time.Time, time.Time) {
	from := now.Add(s.lead)
	return from, from.Add(s.window)
}

// Due returns the unsent sessions whose start falls inside the reminder
// window for a tick at now.
func (s *Scheduler) Due(ctx context.Context, now time.Time) ([]domain.Session, error) {
	from, to := s.Window(now)
	return s.repo.ListDueReminders(ctx, from, to, 500)
}

// tick performs one cycle. A failing session never aborts the rest of the
// batch.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()

	due, err := s.Due(ctx, now)
	if err != nil {
		s.log.Error("list due reminders failed", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}
	s.log.Info("sessions entering reminder window", zap.Int("count", len(due)))

	for _, sess := range due {
		if err := s.Dispatch(ctx, sess); err != nil {
			s.log.Error("reminder dispatch failed",
				zap.String("sessionID", sess.ID),
				zap.String("user", sess.OwnerEmail),
				zap.Error(err))
		}
	}
}

// Dispatch resolves the session owner's push subscription, sends the
// reminder, and claims the reminder flag. The flag flips only after a
// successful send, so a vendor failure is retried on the next tick while
// the session stays inside the window; a duplicate within the window is the
// accepted tradeoff over silent loss. Sessions without a reachable owner are
// skipped for good — logged, never retried as an error.
func (s *Scheduler) Dispatch(ctx context.Context, sess domain.Session) error {
	if sess.OwnerEmail == "" {
		s.log.Warn("session has no owner, skipping reminder", zap.String("sessionID", sess.ID))
		return nil
	}

	u, err := s.repo.GetUser(ctx, sess.OwnerEmail)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warn("owner not found, skipping reminder",
			zap.String("sessionID", sess.ID), zap.String("user", sess.OwnerEmail))
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve owner: %w", err)
	}
	if u.PlayerID == "" {
		s.log.Warn("owner has no push subscription, skipping reminder",
			zap.String("sessionID", sess.ID), zap.String("user", sess.OwnerEmail))
		return nil
	}

	title := "Session Starting Soon!"
	body := fmt.Sprintf("Your %q starts in 5 minutes", sessionTitle(sess))
	data := map[string]string{
		"sessionId": sess.ID,
		"type":      "session_reminder",
		"startTime": sess.StartTime.UTC().Format(time.RFC3339),
	}

	msgID, err := s.push.Send(ctx, u.PlayerID, title, body, data)
	if err != nil {
		return fmt.Errorf("push dispatch: %w", err)
	}

	claimed, err := s.repo.ClaimReminder(ctx, sess.ID, sess.OwnerEmail, msgID)
	if err != nil {
		return fmt.Errorf("claim reminder: %w", err)
	}
	if !claimed {
		// Lost the race against an overlapping tick; its dispatch counts.
		s.log.Debug("reminder already claimed",
			zap.String("sessionID", sess.ID), zap.String("user", sess.OwnerEmail))
		return nil
	}

	s.log.Info("reminder sent",
		zap.String("sessionID", sess.ID),
		zap.String("user", sess.OwnerEmail),
		zap.String("notificationID", msgID))
	return nil
}

func sessionTitle(s domain.Session) string {
	if s.Title == "" {
		return "session"
	}
	return s.Title
}
