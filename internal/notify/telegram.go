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

// Telegram posts HTML-formatted messages through the Bot API. Endpoint is the bot base URL,
// e.g. https://api.telegram.org/bot<token>.
type Telegram struct {
	endpoint string
	chatID   string
	client   *http.Client
}

// NewTelegram returns a Telegram provider; a nil client gets a 10s timeout default.
func NewTelegram(endpoint, chatID string, client *http.Client) *Telegram {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Telegram{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		chatID:   chatID,
		client:   client,
	}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Deliver(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/sendMessage", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, body.Description)
	}
	if !body.OK {
		return fmt.Errorf("telegram API rejected message: %s", body.Description)
	}
	return nil
}
