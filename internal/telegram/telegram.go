package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/deusflow/dedupnews/internal/logger"
	"github.com/deusflow/dedupnews/internal/retry"
)

const defaultAPIURL = "https://api.telegram.org"

// Client sends HTML messages to one chat.
type Client struct {
	Token  string
	ChatID string
	// APIURL overrides the Bot API host, for tests.
	APIURL string
	HTTP   *http.Client
	Retry  retry.RetryConfig
}

func NewClient(token, chatID string) *Client {
	return &Client{
		Token:  token,
		ChatID: chatID,
		APIURL: defaultAPIURL,
		HTTP:   &http.Client{Timeout: 30 * time.Second},
		Retry:  retry.RetryConfig{MaxAttempts: 3, Delay: 2 * time.Second, Exponential: true},
	}
}

// SendMessage sends text to the chat, retrying transient failures. Link
// previews are disabled to keep digests compact.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	attempt := 0
	err := retry.WithRetry(ctx, c.Retry, func() error {
		attempt++
		err := c.sendOnce(ctx, text)
		if err != nil {
			logger.Warn("Telegram send failed", "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("can't send message: %w", err)
	}
	logger.Info("Message sent to Telegram", "attempt", attempt, "chars", len(text))
	return nil
}

func (c *Client) sendOnce(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.APIURL, c.Token)

	payload := map[string]interface{}{
		"chat_id":                  c.ChatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &retry.Permanent{Err: fmt.Errorf("error make JSON: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &retry.Permanent{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("Failed to close response body", "error", err)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
	default:
		return &retry.Permanent{Err: fmt.Errorf("telegram API error: status %d", resp.StatusCode)}
	}
}
