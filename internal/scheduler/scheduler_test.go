package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fedaabdelghany-code/dubai2025/internal/domain"
	"github.com/fedaabdelghany-code/dubai2025/internal/store"
)

type fakeRepo struct {
	store.Repo // panics on anything not overridden

	users  map[string]*domain.User
	due    []domain.Session
	claims map[string]string // sessionID -> notification id
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:  map[string]*domain.User{},
		claims: map[string]string{},
	}
}

func (f *fakeRepo) ListDueReminders(_ context.Context, _, _ time.Time, _ int) ([]domain.Session, error) {
	return f.due, nil
}

func (f *fakeRepo) GetUser(_ context.Context, email string) (*domain.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) ClaimReminder(_ context.Context, sessionID, _, notificationID string) (bool, error) {
	if _, taken := f.claims[sessionID]; taken {
		return false, nil
	}
	f.claims[sessionID] = notificationID
	return true, nil
}

type fakePusher struct {
	sent   []string // player ids in dispatch order
	failOn map[string]error
}

func (f *fakePusher) Send(_ context.Context, playerID, _, _ string, _ map[string]string) (string, error) {
	if err := f.failOn[playerID]; err != nil {
		return "", err
	}
	f.sent = append(f.sent, playerID)
	return "msg-" + playerID, nil
}

func testScheduler(repo store.Repo, p Pusher) *Scheduler {
	return New(repo, zap.NewNop(), p, time.Minute, 5*time.Minute, time.Minute)
}

func dueSession(id, owner string, start time.Time) domain.Session {
	return domain.Session{
		ID: id, OwnerEmail: owner, Title: "Opening Keynote", Day: "1",
		StartTime: start, EndTime: start.Add(time.Hour),
	}
}

func TestDispatch_SendsAndClaims(t *testing.T) {
	now := time.Now().UTC()
	repo := newFakeRepo()
	repo.users["a@x.com"] = &domain.User{Email: "a@x.com", PlayerID: "p1"}
	p := &fakePusher{}
	s := testScheduler(repo, p)

	if err := s.Dispatch(context.Background(), dueSession("s1", "a@x.com", now.Add(5*time.Minute))); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(p.sent) != 1 || p.sent[0] != "p1" {
		t.Fatalf("want one push to p1, got %v", p.sent)
	}
	if repo.claims["s1"] != "msg-p1" {
		t.Fatalf("claim must record the vendor message id, got %q", repo.claims["s1"])
	}
}

func TestDispatch_SkipsUnreachableOwners(t *testing.T) {
	now := time.Now().UTC()
	repo := newFakeRepo()
	repo.users["nosub@x.com"] = &domain.User{Email: "nosub@x.com"} // no player id
	p := &fakePusher{}
	s := testScheduler(repo, p)

	for _, sess := range []domain.Session{
		dueSession("s1", "", now),             // canonical row, no owner
		dueSession("s2", "ghost@x.com", now),  // owner row missing
		dueSession("s3", "nosub@x.com", now),  // owner without subscription
	} {
		if err := s.Dispatch(context.Background(), sess); err != nil {
			t.Errorf("session %s: skip must not be an error, got %v", sess.ID, err)
		}
	}
	if len(p.sent) != 0 {
		t.Fatalf("no pushes expected, got %v", p.sent)
	}
	if len(repo.claims) != 0 {
		t.Fatalf("no claims expected, got %v", repo.claims)
	}
}

func TestDispatch_VendorFailureLeavesFlagUnset(t *testing.T) {
	now := time.Now().UTC()
	repo := newFakeRepo()
	repo.users["a@x.com"] = &domain.User{Email: "a@x.com", PlayerID: "p1"}
	p := &fakePusher{failOn: map[string]error{"p1": errors.New("vendor down")}}
	s := testScheduler(repo, p)

	err := s.Dispatch(context.Background(), dueSession("s1", "a@x.com", now))
	if err == nil {
		t.Fatal("want dispatch error")
	}
	if len(repo.claims) != 0 {
		t.Fatal("flag must stay unset after a failed dispatch so the next tick retries")
	}
}

func TestDispatch_LostClaimIsNotAnError(t *testing.T) {
	now := time.Now().UTC()
	repo := newFakeRepo()
	repo.users["a@x.com"] = &domain.User{Email: "a@x.com", PlayerID: "p1"}
	repo.claims["s1"] = "msg-other-tick" // an overlapping tick already won
	s := testScheduler(repo, &fakePusher{})

	if err := s.Dispatch(context.Background(), dueSession("s1", "a@x.com", now)); err != nil {
		t.Fatalf("losing the claim race must not error: %v", err)
	}
	if repo.claims["s1"] != "msg-other-tick" {
		t.Fatal("winning claim must not be overwritten")
	}
}

func TestTick_IsolatesPerSessionFailures(t *testing.T) {
	now := time.Now().UTC()
	repo := newFakeRepo()
	repo.users["bad@x.com"] = &domain.User{Email: "bad@x.com", PlayerID: "pbad"}
	repo.users["good@x.com"] = &domain.User{Email: "good@x.com", PlayerID: "pgood"}
	repo.due = []domain.Session{
		dueSession("s1", "bad@x.com", now.Add(5*time.Minute)),
		dueSession("s2", "good@x.com", now.Add(5*time.Minute)),
	}
	p := &fakePusher{failOn: map[string]error{"pbad": errors.New("boom")}}
	s := testScheduler(repo, p)
	s.now = func() time.Time { return now }

	s.tick(context.Background())

	if len(p.sent) != 1 || p.sent[0] != "pgood" {
		t.Fatalf("second session must still be processed, got %v", p.sent)
	}
	if _, ok := repo.claims["s2"]; !ok {
		t.Fatal("surviving session must be claimed")
	}
	if _, ok := repo.claims["s1"]; ok {
		t.Fatal("failed session must not be claimed")
	}
}

func TestWindow(t *testing.T) {
	s := testScheduler(newFakeRepo(), &fakePusher{})
	now := time.Date(2025, time.November, 10, 8, 0, 0, 0, time.UTC)
	from, to := s.Window(now)
	if !from.Equal(now.Add(5 * time.Minute)) {
		t.Fatalf("window start = %v", from)
	}
	if !to.Equal(now.Add(6 * time.Minute)) {
		t.Fatalf("window end = %v", to)
	}
}
