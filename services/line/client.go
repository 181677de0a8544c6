package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"yoyaku/config"
)

const apiBase = "https://api.line.me/v2/bot"

// Gateway is the outbound LINE surface the handlers and the reminder
// scheduler depend on.
type Gateway interface {
	Reply(ctx context.Context, replyToken string, messages ...Message) error
	Push(ctx context.Context, to string, messages ...Message) error
	PushText(ctx context.Context, to, text string) error
	GetProfile(ctx context.Context, userID string) (*Profile, error)
}

// Profile is the subset of a LINE user profile we use.
type Profile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl,omitempty"`
}

// Client is the Messaging API implementation of Gateway.
type Client struct {
	httpClient  *http.Client
	accessToken string
	baseURL     string
}

func NewClient() *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		accessToken: config.AppConfig.LineChannelAccessToken,
		baseURL:     apiBase,
	}
}

func (c *Client) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	payload := map[string]interface{}{
		"replyToken": replyToken,
		"messages":   messages,
	}
	return c.post(ctx, "/message/reply", payload)
}

func (c *Client) Push(ctx context.Context, to string, messages ...Message) error {
	payload := map[string]interface{}{
		"to":       to,
		"messages": messages,
	}
	return c.post(ctx, "/message/push", payload)
}

func (c *Client) PushText(ctx context.Context, to, text string) error {
	return c.Push(ctx, to, NewTextMessage(text))
}

func (c *Client) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/profile/"+userID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch LINE profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("LINE profile request returned %d: %s", resp.StatusCode, body)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode LINE profile: %w", err)
	}
	return &profile, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal LINE request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("LINE API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("LINE API %s returned %d: %s", path, resp.StatusCode, respBody)
	}
	return nil
}
