package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSend(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/notifications" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Basic test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "msg-123"})
	}))
	defer srv.Close()

	c := NewClient("app-1", "test-key", srv.URL)
	id, err := c.Send(context.Background(), "player-9", "Session Starting Soon!",
		`Your "Opening Keynote" starts in 5 minutes`,
		map[string]string{"sessionId": "s1", "type": "session_reminder"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id != "msg-123" {
		t.Fatalf("want vendor message id msg-123, got %q", id)
	}

	if got["app_id"] != "app-1" {
		t.Errorf("app_id = %v", got["app_id"])
	}
	players, _ := got["include_player_ids"].([]any)
	if len(players) != 1 || players[0] != "player-9" {
		t.Errorf("include_player_ids = %v", got["include_player_ids"])
	}
	data, _ := got["data"].(map[string]any)
	if data["sessionId"] != "s1" {
		t.Errorf("data payload must carry the session id, got %v", got["data"])
	}
}

func TestSend_VendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"errors": []string{"invalid player id"}})
	}))
	defer srv.Close()

	c := NewClient("app-1", "test-key", srv.URL)
	if _, err := c.Send(context.Background(), "nope", "t", "b", nil); err == nil {
		t.Fatal("want error on vendor 400")
	}
}

func TestSend_MissingMessageID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	c := NewClient("app-1", "test-key", srv.URL)
	if _, err := c.Send(context.Background(), "p", "t", "b", nil); err == nil {
		t.Fatal("want error when vendor omits the message id")
	}
}
