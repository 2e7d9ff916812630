// Package push talks to the notification vendor's REST API. The vendor is a
// black box: we hand it a subscription (player) id, a title, a body and an
// opaque data payload, and it hands back a message id.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://onesignal.com"

// Client is a OneSignal REST API client.
type Client struct {
	http    *http.Client
	baseURL string
	appID   string
	apiKey  string
}

// NewClient creates a vendor client. baseURL is overridable for tests;
// empty means the production endpoint.
func NewClient(appID, apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		appID:   appID,
		apiKey:  apiKey,
	}
}

type button struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type notificationRequest struct {
	AppID            string            `json:"app_id"`
	IncludePlayerIDs []string          `json:"include_player_ids"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	Data             map[string]string `json:"data,omitempty"`
	Buttons          []button          `json:"buttons,omitempty"`
}

type notificationResponse struct {
	ID     string   `json:"id"`
	Errors []string `json:"errors,omitempty"`
}

// Send dispatches one push notification to a single player and returns the
// vendor-assigned message id.
func (c *Client) Send(ctx context.Context, playerID, title, body string, data map[string]string) (string, error) {
	reqBody := notificationRequest{
		AppID:            c.appID,
		IncludePlayerIDs: []string{playerID},
		Headings:         map[string]string{"en": title},
		Contents:         map[string]string{"en": body},
		Data:             data,
		Buttons: []button{
			{ID: "view", Text: "View Session"},
			{ID: "dismiss", Text: "Dismiss"},
		},
	}

	raw, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/notifications", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("push dispatch: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read vendor response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("vendor returned %d: %s", resp.StatusCode, payload)
	}

	var out notificationResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("decode vendor response: %w", err)
	}
	if len(out.Errors) > 0 {
		return "", fmt.Errorf("vendor rejected notification: %v", out.Errors)
	}
	if out.ID == "" {
		return "", fmt.Errorf("vendor response missing message id")
	}
	return out.ID, nil
}
