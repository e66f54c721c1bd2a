// Package notify sends push notifications about tool activity.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arpanb/emissary/internal/httpkit"
)

// DefaultPushoverURL is the Pushover message endpoint.
const DefaultPushoverURL = "https://api.pushover.net/1/messages.json"

// Notifier delivers a short text message to the operator. Delivery is
// fire-and-forget: callers do not rely on confirmation.
type Notifier interface {
	Push(ctx context.Context, text string) error
}

// PushoverClient sends notifications via the Pushover API.
type PushoverClient struct {
	apiURL     string
	token      string
	user       string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewPushoverClient creates a Pushover notifier with the given
// application token and user key.
func NewPushoverClient(token, user string, logger *slog.Logger) *PushoverClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &PushoverClient{
		apiURL:     DefaultPushoverURL,
		token:      token,
		user:       user,
		logger:     logger.With("notifier", "pushover"),
		httpClient: httpkit.NewClient(httpkit.WithTimeout(15 * time.Second)),
	}
}

// SetAPIURL overrides the Pushover endpoint. Used by tests.
func (c *PushoverClient) SetAPIURL(u string) {
	c.apiURL = u
}

// Push sends text as a Pushover message.
func (c *PushoverClient) Push(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("token", c.token)
	form.Set("user", c.user)
	form.Set("message", text)

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pushover API error %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", "length", len(text))
	return nil
}

// Nop is a Notifier that discards all messages. Used when no pushover
// credentials are configured.
type Nop struct{}

// Push implements Notifier.
func (Nop) Push(ctx context.Context, text string) error { return nil }
