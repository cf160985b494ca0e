package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Notifier is the interface for sending match recording notifications.
type Notifier interface {
	SendSaved(ctx context.Context, rec *Recording) error
	SendFailed(ctx context.Context, rec *Recording, err error) error
	SendDiscarded(ctx context.Context, rec *Recording, minLength time.Duration) error
}

// Client implements the ntfy notification client.
type Client struct {
	httpClient *http.Client
	config     *Config
	logger     *zap.Logger
}

// NewClient creates a new ntfy client.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
	}
}

// SendSaved sends a notification for a saved match demo.
func (c *Client) SendSaved(ctx context.Context, rec *Recording) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("Demo Saved: %s", rec.Match)
	message := FormatSavedMessage(rec)
	tags := c.config.Tags + ",white_check_mark"

	return c.send(ctx, title, message, tags, c.config.Priority)
}

// SendFailed sends a failure notification.
func (c *Client) SendFailed(ctx context.Context, rec *Recording, err error) error {
	if !c.config.Enabled {
		return nil
	}

	title := fmt.Sprintf("Demo Failed: %s", rec.Match)
	message := FormatFailedMessage(rec, err)
	tags := c.config.Tags + ",x"
	priority := "high" // Override to high priority for failures

	return c.send(ctx, title, message, tags, priority)
}

// SendDiscarded reports a match demo dropped for being too short.
func (c *Client) SendDiscarded(ctx context.Context, rec *Recording, minLength time.Duration) error {
	if !c.config.Enabled || !c.config.OnDiscard {
		return nil
	}

	title := fmt.Sprintf("Demo Discarded: %s", rec.Match)
	message := FormatDiscardedMessage(rec, minLength)
	tags := c.config.Tags + ",wastebasket"

	return c.send(ctx, title, message, tags, "low")
}

func (c *Client) send(ctx context.Context, title, message, tags, priority string) error {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(c.config.Server, "/"), c.config.Topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", priority)
	req.Header.Set("Tags", tags)

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("failed to send notification", zap.Error(err))
		return fmt.Errorf("sending notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain response body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("notification failed",
			zap.Int("status", resp.StatusCode),
			zap.String("url", url),
		)
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	c.logger.Debug("notification sent", zap.String("title", title))
	return nil
}

// NoopNotifier is a no-op implementation for when notifications are disabled.
type NoopNotifier struct{}

// SendSaved is a no-op.
func (n *NoopNotifier) SendSaved(_ context.Context, _ *Recording) error {
	return nil
}

// SendFailed is a no-op.
func (n *NoopNotifier) SendFailed(_ context.Context, _ *Recording, _ error) error {
	return nil
}

// SendDiscarded is a no-op.
func (n *NoopNotifier) SendDiscarded(_ context.Context, _ *Recording, _ time.Duration) error {
	return nil
}

// New creates the appropriate notifier based on config.
func New(cfg *Config, logger *zap.Logger) Notifier {
	if !cfg.Enabled {
		return &NoopNotifier{}
	}
	return NewClient(cfg, logger)
}
