// Package server exposes the admin and companion HTTP API: health, the
// manual reminder trigger, announcements, the networking feed, and agenda
// materialization. Timeline evaluation results are deliberately not served —
// they are derived client-side state.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fedaabdelghany-code/dubai2025/internal/agenda"
	"github.com/fedaabdelghany-code/dubai2025/internal/domain"
	"github.com/fedaabdelghany-code/dubai2025/internal/scheduler"
	"github.com/fedaabdelghany-code/dubai2025/internal/store"
)

// Server handles the HTTP API.
type Server struct {
	log   *zap.Logger
	repo  store.Repo
	sched *scheduler.Scheduler
	now   func() time.Time
}

// New creates the HTTP API server.
func New(log *zap.Logger, repo store.Repo, sched *scheduler.Scheduler) *Server {
	return &Server{
		log:   log,
		repo:  repo,
		sched: sched,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /v1/reminders/check", s.handleReminderCheck)
	mux.HandleFunc("POST /v1/sessions/backfill-reminder-flag", s.handleBackfill)
	mux.HandleFunc("GET /v1/announcements", s.handleListAnnouncements)
	mux.HandleFunc("GET /v1/posts", s.handleListPosts)
	mux.HandleFunc("POST /v1/posts", s.handleCreatePost)
	mux.HandleFunc("POST /v1/posts/{id}/like", s.handleToggleLike)
	mux.HandleFunc("POST /v1/posts/{id}/comments", s.handleAddComment)
	mux.HandleFunc("POST /v1/users/{email}/agenda", s.handleMaterializeAgenda)
	mux.HandleFunc("GET /v1/users/{email}/agenda", s.handleListAgenda)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("write response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

type reminderCheckItem struct {
	SessionID string `json:"sessionId"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	User      string `json:"user,omitempty"`
}

type reminderCheckResponse struct {
	Message       string              `json:"message"`
	SessionsFound int                 `json:"sessionsFound"`
	PerUser       map[string]int      `json:"perUser"`
	Sessions      []reminderCheckItem `json:"sessions"`
	Dispatched    bool                `json:"dispatched"`
}

// handleReminderCheck runs the same windowed query as the scheduled job and
// returns a summary. It sends nothing unless send=1 is passed — the default
// is a dry-run diagnostic.
func (s *Server) handleReminderCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.now()

	due, err := s.sched.Due(ctx, now)
	if err != nil {
		s.log.Error("reminder check query failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "error processing reminders")
		return
	}

	resp := reminderCheckResponse{
		Message:       "Check complete",
		SessionsFound: len(due),
		PerUser:       map[string]int{},
		Sessions:      make([]reminderCheckItem, 0, len(due)),
	}
	for _, sess := range due {
		resp.PerUser[sess.OwnerEmail]++
		resp.Sessions = append(resp.Sessions, reminderCheckItem{
			SessionID: sess.ID,
			Title:     sess.Title,
			StartTime: sess.StartTime.UTC().Format(time.RFC3339),
			User:      sess.OwnerEmail,
		})
	}

	if r.URL.Query().Get("send") == "1" {
		resp.Dispatched = true
		for _, sess := range due {
			if err := s.sched.Dispatch(ctx, sess); err != nil {
				s.log.Error("manual reminder dispatch failed",
					zap.String("sessionID", sess.ID), zap.Error(err))
			}
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	n, err := s.repo.BackfillReminderFlags(r.Context())
	if err != nil {
		s.log.Error("backfill failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "error updating sessions")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

type announcementView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Timestamp   string `json:"timestamp"`
}

func (s *Server) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.ListAnnouncements(r.Context())
	if err != nil {
		s.log.Error("list announcements failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "error loading announcements")
		return
	}
	out := make([]announcementView, 0, len(list))
	for _, a := range list {
		out = append(out, announcementView{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Priority:    a.Priority,
			Timestamp:   a.CreatedAt.Format(time.RFC3339),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type postView struct {
	ID        string           `json:"id"`
	UserEmail string           `json:"userEmail"`
	UserName  string           `json:"userName"`
	UserPhoto string           `json:"userPhoto,omitempty"`
	Caption   string           `json:"caption"`
	PhotoURL  string           `json:"photoURL,omitempty"`
	Likes     []string         `json:"likes"`
	Comments  []domain.Comment `json:"comments"`
	Timestamp string           `json:"timestamp"`
}

func toPostView(p domain.Post) postView {
	likes := p.Likes
	if likes == nil {
		likes = []string{}
	}
	comments := p.Comments
	if comments == nil {
		comments = []domain.Comment{}
	}
	return postView{
		ID:        p.ID,
		UserEmail: p.UserEmail,
		UserName:  p.UserName,
		UserPhoto: p.UserPhoto,
		Caption:   p.Caption,
		PhotoURL:  p.PhotoURL,
		Likes:     likes,
		Comments:  comments,
		Timestamp: p.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.repo.ListPosts(r.Context())
	if err != nil {
		s.log.Error("list posts failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "error loading posts")
		return
	}
	out := make([]postView, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostView(p))
	}
	s.writeJSON(w, http.StatusOK, out)
}

type createPostRequest struct {
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
	UserPhoto string `json:"userPhoto"`
	Caption   string `json:"caption"`
	PhotoURL  string `json:"photoURL"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(req.UserEmail) == "" || strings.TrimSpace(req.Caption) == "" {
		s.writeError(w, http.StatusBadRequest, "userEmail and caption are required")
		return
	}

	p := domain.Post{
		ID:        uuid.NewString(),
		UserEmail: strings.ToLower(req.UserEmail),
		UserName:  req.UserName,
		UserPhoto: req.UserPhoto,
		Caption:   req.Caption,
		PhotoURL:  req.PhotoURL,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreatePost(r.Context(), &p); err != nil {
		s.log.Error("create post failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "error creating post")
		return
	}
	s.writeJSON(w, http.StatusCreated, toPostView(p))
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserEmail string `json:"userEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.UserEmail) == "" {
		s.writeError(w, http.StatusBadRequest, "userEmail is required")
		return
	}

	liked, err := s.repo.ToggleLike(r.Context(), r.PathValue("id"), req.UserEmail)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "post not found")
		return
	}
	if err != nil {
		s.log.Error("toggle like failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "error updating post")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

type addCommentRequest struct {
	UserName  string `json:"userName"`
	UserPhoto string `json:"userPhoto"`
	Text      string `json:"text"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	c := domain.Comment{
		ID:        uuid.NewString(),
		UserName:  req.UserName,
		UserPhoto: req.UserPhoto,
		Text:      req.Text,
		CreatedAt: s.now(),
	}
	err := s.repo.AddComment(r.Context(), r.PathValue("id"), c)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "post not found")
		return
	}
	if err != nil {
		s.log.Error("add comment failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "error updating post")
		return
	}
	s.writeJSON(w, http.StatusCreated, c)
}

// handleMaterializeAgenda rebuilds the user's personalized agenda from the
// canonical session list.
func (s *Server) handleMaterializeAgenda(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := strings.ToLower(r.PathValue("email"))

	u, err := s.repo.GetUser(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.log.Error("load user failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "error loading user")
		return
	}

	sessions, err := s.repo.ListSessions(ctx)
	if err != nil {
		s.log.Error("list sessions failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "error loading sessions")
		return
	}

	personalized := agenda.Personalize(sessions, u)
	if err := s.repo.ReplaceAgenda(ctx, email, personalized); err != nil {
		s.log.Error("replace agenda failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "error saving agenda")
		return
	}

	s.log.Info("agenda materialized",
		zap.String("user", email), zap.Int("sessions", len(personalized)))
	s.writeJSON(w, http.StatusOK, map[string]int{"sessions": len(personalized)})
}

type agendaItemView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
	Location  string `json:"location"`
	Day       string `json:"day"`
	Category  string `json:"category"`
}

func (s *Server) handleListAgenda(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.ListAgenda(r.Context(), r.PathValue("email"))
	if err != nil {
		s.log.Error("list agenda failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "error loading agenda")
		return
	}
	out := make([]agendaItemView, 0, len(list))
	for _, sess := range list {
		item := agendaItemView{
			ID:       sess.ID,
			Title:    sess.Title,
			Location: sess.Location,
			Day:      sess.Day,
			Category: sess.Category,
		}
		if !sess.StartTime.IsZero() {
			item.StartTime = sess.StartTime.Format(time.RFC3339)
		}
		if !sess.EndTime.IsZero() {
			item.EndTime = sess.EndTime.Format(time.RFC3339)
		}
		out = append(out, item)
	}
	s.writeJSON(w, http.StatusOK, out)
}
