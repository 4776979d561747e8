package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var htmlToMarkdown = strings.NewReplacer(
	"<b>", "**", "</b>", "**",
	"<code>", "`", "</code>", "`",
	"&lt;", "<", "&gt;", ">", "&amp;", "&",
)

// Discord posts messages to a webhook, rewriting the HTML tags our messages use into markdown.
type Discord struct {
	webhookURL string
	client     *http.Client
}

func NewDiscord(webhookURL string, client *http.Client) *Discord {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Discord{webhookURL: webhookURL, client: client}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Deliver(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]any{"content": htmlToMarkdown.Replace(text)})
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord API returned status %d", resp.StatusCode)
	}
	return nil
}
