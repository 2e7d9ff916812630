package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/fedaabdelghany-code/dubai2025/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

const sessionColumns = `id, owner_email, title, start_time, end_time, location,
       description, day, category, color, is_general, rotational_schedule,
       reminder_sent, notification_id`

// UpsertSession inserts or updates a session row keyed by (id, owner).
func (r *SQLiteRepo) UpsertSession(ctx context.Context, s *domain.Session) error {
	if s == nil || s.ID == "" {
		return errors.New("invalid session")
	}
	sched, err := marshalSchedule(s.RotationalSchedule)
	if err != nil {
		return fmt.Errorf("marshal rotational schedule: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (
			id, owner_email, title, start_time, end_time, location,
			description, day, category, color, is_general,
			rotational_schedule, reminder_sent, notification_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, owner_email) DO UPDATE SET
			title               = excluded.title,
			start_time          = excluded.start_time,
			end_time            = excluded.end_time,
			location            = excluded.location,
			description         = excluded.description,
			day                 = excluded.day,
			category            = excluded.category,
			color               = excluded.color,
			is_general          = excluded.is_general,
			rotational_schedule = excluded.rotational_schedule`,
		s.ID, strings.ToLower(s.OwnerEmail), s.Title,
		toNullInt64(s.StartTime), toNullInt64(s.EndTime),
		s.Location, s.Description, s.Day, s.Category, s.Color,
		boolToInt(s.IsGeneral), sched,
		boolToInt(s.ReminderSent), s.NotificationID,
	)
	return err
}

// ListSessions returns canonical sessions ordered by start time, rows with
// missing instants last.
func (r *SQLiteRepo) ListSessions(ctx context.Context) ([]domain.Session, error) {
	return r.querySessions(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE owner_email = ''
		ORDER BY start_time IS NULL, start_time ASC, id ASC`)
}

// ListDueReminders returns sessions starting in [from, to) that have not
// been notified yet. Canonical rows are included so the scheduler can log
// the skip; only owned rows can actually be dispatched.
func (r *SQLiteRepo) ListDueReminders(ctx context.Context, from, to time.Time, limit int) ([]domain.Session, error) {
	return r.querySessions(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE reminder_sent = 0
		  AND start_time IS NOT NULL
		  AND start_time >= ?
		  AND start_time < ?
		ORDER BY start_time ASC, id ASC
		LIMIT ?`,
		from.UTC().Unix(), to.UTC().Unix(), limit)
}

// ClaimReminder marks the session notified, but only if nobody else already
// did: the conditional UPDATE is the single atomic step that guarantees
// at-most-once delivery across overlapping scheduler ticks.
func (r *SQLiteRepo) ClaimReminder(ctx context.Context, sessionID, ownerEmail, notificationID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET reminder_sent = 1, notification_id = ?
		WHERE id = ? AND owner_email = ? AND reminder_sent = 0`,
		notificationID, sessionID, strings.ToLower(ownerEmail),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// BackfillReminderFlags resets NULL-ish reminder state on legacy rows.
// Kept for imports that predate the reminder_sent column.
func (r *SQLiteRepo) BackfillReminderFlags(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET reminder_sent = 0
		WHERE reminder_sent IS NULL`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpsertUser inserts or updates an attendee profile keyed by email.
func (r *SQLiteRepo) UpsertUser(ctx context.Context, u *domain.User) error {
	if u == nil || u.Email == "" {
		return errors.New("invalid user")
	}
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			email, name, player_id, day2_group, day3_type,
			day3_group_am, day3_group_pm, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			name          = excluded.name,
			player_id     = excluded.player_id,
			day2_group    = excluded.day2_group,
			day3_type     = excluded.day3_type,
			day3_group_am = excluded.day3_group_am,
			day3_group_pm = excluded.day3_group_pm`,
		strings.ToLower(u.Email), u.Name, u.PlayerID,
		u.Day2Group, u.Day3Type, u.Day3GroupAM, u.Day3GroupPM,
		created.Unix(),
	)
	return err
}

// GetUser returns the attendee with the given email, or ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT email, name, player_id, day2_group, day3_type,
		       day3_group_am, day3_group_pm, created_at
		FROM users
		WHERE email = ?`,
		strings.ToLower(email),
	)

	var (
		u         domain.User
		createdAt int64
	)
	err := row.Scan(&u.Email, &u.Name, &u.PlayerID, &u.Day2Group,
		&u.Day3Type, &u.Day3GroupAM, &u.Day3GroupPM, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// ReplaceAgenda rewrites the user's materialized agenda in one transaction.
func (r *SQLiteRepo) ReplaceAgenda(ctx context.Context, email string, sessions []domain.Session) error {
	email = strings.ToLower(email)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sessions WHERE owner_email = ?`, email); err != nil {
		return err
	}
	for i := range sessions {
		s := sessions[i]
		sched, err := marshalSchedule(s.RotationalSchedule)
		if err != nil {
			return fmt.Errorf("marshal rotational schedule: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (
				id, owner_email, title, start_time, end_time, location,
				description, day, category, color, is_general,
				rotational_schedule, reminder_sent, notification_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, '')`,
			s.ID, email, s.Title,
			toNullInt64(s.StartTime), toNullInt64(s.EndTime),
			s.Location, s.Description, s.Day, s.Category, s.Color,
			boolToInt(s.IsGeneral), sched,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListAgenda returns the user's materialized agenda ordered by start time.
func (r *SQLiteRepo) ListAgenda(ctx context.Context, email string) ([]domain.Session, error) {
	return r.querySessions(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE owner_email = ?
		ORDER BY start_time IS NULL, start_time ASC, id ASC`,
		strings.ToLower(email))
}

func (r *SQLiteRepo) querySessions(ctx context.Context, query string, args ...any) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Session
	for rows.Next() {
		var (
			s          domain.Session
			startNS    sql.NullInt64
			endNS      sql.NullInt64
			generalInt int
			sentNS     sql.NullInt64
			schedNS    sql.NullString
		)
		if err := rows.Scan(
			&s.ID, &s.OwnerEmail, &s.Title, &startNS, &endNS, &s.Location,
			&s.Description, &s.Day, &s.Category, &s.Color, &generalInt,
			&schedNS, &sentNS, &s.NotificationID,
		); err != nil {
			return nil, err
		}
		s.StartTime = fromNullInt64(startNS)
		s.EndTime = fromNullInt64(endNS)
		s.IsGeneral = generalInt != 0
		s.ReminderSent = sentNS.Valid && sentNS.Int64 != 0
		if s.RotationalSchedule, err = unmarshalSchedule(schedNS); err != nil {
			return nil, fmt.Errorf("session %s: %w", s.ID, err)
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// UpsertAnnouncement inserts or updates an announcement.
func (r *SQLiteRepo) UpsertAnnouncement(ctx context.Context, a *domain.Announcement) error {
	if a == nil || a.ID == "" {
		return errors.New("invalid announcement")
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO announcements (id, title, description, priority, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title       = excluded.title,
			description = excluded.description,
			priority    = excluded.priority,
			active      = excluded.active`,
		a.ID, a.Title, a.Description, a.Priority, boolToInt(a.Active), created.Unix(),
	)
	return err
}

// ListAnnouncements returns active announcements, newest first.
func (r *SQLiteRepo) ListAnnouncements(ctx context.Context) ([]domain.Announcement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, priority, active, created_at
		FROM announcements
		WHERE active = 1
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Announcement
	for rows.Next() {
		var (
			a         domain.Announcement
			activeInt int
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Priority, &activeInt, &createdAt); err != nil {
			return nil, err
		}
		a.Active = activeInt != 0
		a.CreatedAt = time.Unix(createdAt, 0).UTC()
		res = append(res, a)
	}
	return res, rows.Err()
}

// CreatePost stores a new feed post.
func (r *SQLiteRepo) CreatePost(ctx context.Context, p *domain.Post) error {
	if p == nil || p.ID == "" || p.UserEmail == "" {
		return errors.New("invalid post")
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	likes, err := marshalJSON(append([]string{}, p.Likes...))
	if err != nil {
		return err
	}
	comments, err := marshalJSON(append([]domain.Comment{}, p.Comments...))
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO posts (id, user_email, user_name, user_photo, caption,
		                   photo_url, likes, comments, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, strings.ToLower(p.UserEmail), p.UserName, p.UserPhoto,
		p.Caption, p.PhotoURL, likes, comments, created.Unix(),
	)
	return err
}

// ListPosts returns the feed, newest first.
func (r *SQLiteRepo) ListPosts(ctx context.Context) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_email, user_name, user_photo, caption,
		       photo_url, likes, comments, created_at
		FROM posts
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Post
	for rows.Next() {
		var (
			p                     domain.Post
			likesRaw, commentsRaw string
			createdAt             int64
		)
		if err := rows.Scan(&p.ID, &p.UserEmail, &p.UserName, &p.UserPhoto,
			&p.Caption, &p.PhotoURL, &likesRaw, &commentsRaw, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(likesRaw), &p.Likes); err != nil {
			return nil, fmt.Errorf("post %s likes: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(commentsRaw), &p.Comments); err != nil {
			return nil, fmt.Errorf("post %s comments: %w", p.ID, err)
		}
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		res = append(res, p)
	}
	return res, rows.Err()
}

// ToggleLike adds or removes the user's like inside a transaction and
// reports the resulting state.
func (r *SQLiteRepo) ToggleLike(ctx context.Context, postID, email string) (bool, error) {
	email = strings.ToLower(email)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var likesRaw string
	err = tx.QueryRowContext(ctx,
		`SELECT likes FROM posts WHERE id = ?`, postID).Scan(&likesRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}

	var likes []string
	if err := json.Unmarshal([]byte(likesRaw), &likes); err != nil {
		return false, fmt.Errorf("post %s likes: %w", postID, err)
	}

	liked := false
	next := likes[:0]
	for _, e := range likes {
		if e == email {
			liked = true
			continue
		}
		next = append(next, e)
	}
	if !liked {
		next = append(next, email)
	}

	raw, err := marshalJSON(next)
	if err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE posts SET likes = ? WHERE id = ?`, raw, postID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return !liked, nil
}

// AddComment appends a comment to the post's comment list.
func (r *SQLiteRepo) AddComment(ctx context.Context, postID string, c domain.Comment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var commentsRaw string
	err = tx.QueryRowContext(ctx,
		`SELECT comments FROM posts WHERE id = ?`, postID).Scan(&commentsRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var comments []domain.Comment
	if err := json.Unmarshal([]byte(commentsRaw), &comments); err != nil {
		return fmt.Errorf("post %s comments: %w", postID, err)
	}
	comments = append(comments, c)

	raw, err := marshalJSON(comments)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE posts SET comments = ? WHERE id = ?`, raw, postID); err != nil {
		return err
	}
	return tx.Commit()
}
