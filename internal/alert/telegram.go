package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTelegramTimeout bounds each sendMessage call.
const DefaultTelegramTimeout = 10 * time.Second

// TelegramNotifier delivers alerts through the Telegram Bot API.
type TelegramNotifier struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

// TelegramOption configures TelegramNotifier.
type TelegramOption func(*TelegramNotifier)

// WithTelegramBaseURL overrides the API base URL.
func WithTelegramBaseURL(u string) TelegramOption {
	return func(n *TelegramNotifier) {
		n.baseURL = u
	}
}

// WithTelegramHTTPClient sets custom http.Client.
func WithTelegramHTTPClient(client *http.Client) TelegramOption {
	return func(n *TelegramNotifier) {
		n.client = client
	}
}

// NewTelegramNotifier creates a notifier for one bot token and chat.
func NewTelegramNotifier(token, chatID string, opts ...TelegramOption) *TelegramNotifier {
	n := &TelegramNotifier{
		baseURL: "https://api.telegram.org",
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: DefaultTelegramTimeout},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify sends one message to the configured chat.
func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id": n.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

var _ Notifier = (*TelegramNotifier)(nil)
