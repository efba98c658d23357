// Package telegram is a minimal Telegram Bot API client covering update
// delivery (long-poll and webhook registration) and plain-text replies.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Client calls Bot API methods for one bot token.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// NewClient creates a client. A nil httpClient gets a 60s timeout client and
// an empty baseURL means DefaultBaseURL.
func NewClient(httpClient *http.Client, baseURL, token string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// APIError is returned when the Bot API answers with ok=false or a non-2xx status.
type APIError struct {
	Method      string
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("telegram %s: http %d", e.Method, e.StatusCode)
	}
	return fmt.Sprintf("telegram %s: http %d: %s", e.Method, e.StatusCode, e.Description)
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// do sends req and decodes the envelope's result into out (which may be nil).
func (c *Client) do(req *http.Request, method string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("telegram %s: read body: %w", method, err)
	}

	var env response
	if jsonErr := json.Unmarshal(raw, &env); jsonErr != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{Method: method, StatusCode: resp.StatusCode, Description: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("telegram %s: decode response: %w", method, jsonErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.OK {
		return &APIError{Method: method, StatusCode: resp.StatusCode, Description: env.Description}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("telegram %s: decode result: %w", method, err)
	}
	return nil
}

// post sends a JSON body to a Bot API method.
func (c *Client) post(ctx context.Context, method string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("telegram %s: marshal request: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, method, out)
}

// GetMe returns the bot's own user record.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL("getMe"), nil)
	if err != nil {
		return nil, err
	}
	var u User
	if err := c.do(req, "getMe", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUpdates long-polls for updates with sequence number >= offset. An offset
// of zero asks for the oldest unconfirmed updates. The server holds the
// request for up to timeout (rounded up to whole seconds, minimum 1s).
// When ctx carries no deadline one is added at timeout+5s.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]RawUpdate, error) {
	secs := int(math.Ceil(timeout.Seconds()))
	if secs < 1 {
		secs = 1
	}
	url := fmt.Sprintf("%s?timeout=%d", c.methodURL("getUpdates"), secs)
	if offset != 0 {
		url += fmt.Sprintf("&offset=%d", offset)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(secs)*time.Second+5*time.Second)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	var payloads []json.RawMessage
	if err := c.do(req, "getUpdates", &payloads); err != nil {
		return nil, err
	}

	updates := make([]RawUpdate, 0, len(payloads))
	for _, p := range payloads {
		var head struct {
			UpdateID int64 `json:"update_id"`
		}
		if err := json.Unmarshal(p, &head); err != nil {
			return nil, fmt.Errorf("telegram getUpdates: decode update_id: %w", err)
		}
		updates = append(updates, RawUpdate{UpdateID: head.UpdateID, Payload: p})
	}
	return updates, nil
}

// SendMessage posts a plain-text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("telegram sendMessage: empty text")
	}
	return c.post(ctx, "sendMessage", sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		DisableWebPagePreview: true,
	}, nil)
}

// SetWebhook registers url as the push endpoint. A non-empty secret is echoed
// back by Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	if url == "" {
		return errors.New("telegram setWebhook: empty url")
	}
	return c.post(ctx, "setWebhook", setWebhookRequest{
		URL:            url,
		SecretToken:    secret,
		AllowedUpdates: []string{"message", "channel_post"},
	}, nil)
}

// DeleteWebhook removes any registered push endpoint so getUpdates can be used.
func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	return c.post(ctx, "deleteWebhook", deleteWebhookRequest{DropPendingUpdates: dropPending}, nil)
}

// IsTimeout reports whether err is an expected long-poll timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "client.timeout exceeded")
}
