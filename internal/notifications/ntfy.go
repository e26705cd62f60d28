package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"benchmgr/internal/config"
)

const userAgent = "benchmgr/0.1.0"

// Notifier delivers messages. Implementations must be safe for concurrent
// use because definition failures are reported from dispatch workers.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an ntfy notifier for the configured topic, or one that drops
// every message when no topic is set.
func New(cfg *config.Config) Notifier {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Discard{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfy{
		topic:  topic,
		client: &http.Client{Timeout: timeout},
		muted: map[Event]bool{
			EventRunCompleted:     !cfg.Notifications.RunSummary,
			EventDefinitionFailed: !cfg.Notifications.Failures,
		},
	}
}

// Enabled reports whether cfg names an ntfy topic.
func Enabled(cfg *config.Config) bool {
	return strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""
}

// Discard drops every message.
type Discard struct{}

// Send implements Notifier.
func (Discard) Send(context.Context, Message) error { return nil }

type ntfy struct {
	topic  string
	client *http.Client
	muted  map[Event]bool
}

// Send posts msg to the topic with the body as plain text and the title,
// tags and priority carried in ntfy's headers.
func (n *ntfy) Send(ctx context.Context, msg Message) error {
	if n.muted[msg.Event] {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.topic, strings.NewReader(msg.Body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	header := req.Header
	header.Set("User-Agent", userAgent)
	header.Set("Content-Type", "text/plain; charset=utf-8")
	for key, value := range map[string]string{
		"Title":    msg.Title,
		"Tags":     strings.Join(msg.Tags, ","),
		"Priority": msg.Priority,
	} {
		if value != "" {
			header.Set(key, value)
		}
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
