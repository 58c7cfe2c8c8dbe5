package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const telegramAPIBase = "https://api.telegram.org"

// maxMessageLen is the Telegram limit for one sendMessage text.
const maxMessageLen = 4096

// TelegramNotifier pushes run reports to one chat via the Bot API.
type TelegramNotifier struct {
	APIBase      string
	BotToken     string
	ChatID       string
	Client       *http.Client
	RetryBackoff time.Duration // first retry delay, doubled per attempt
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		APIBase:      telegramAPIBase,
		BotToken:     botToken,
		ChatID:       chatID,
		Client:       &http.Client{Timeout: 35 * time.Second, Transport: transport},
		RetryBackoff: time.Second,
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.APIBase, t.BotToken, method)
}

// apiResponse is the envelope every Bot API method returns.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// call posts payload to method and returns the decoded result field.
func (t *TelegramNotifier) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: status %d, undecodable body: %w", method, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !out.OK {
		return nil, fmt.Errorf("telegram %s: status %d: %s", method, resp.StatusCode, out.Description)
	}
	return out.Result, nil
}

// Send posts text to the configured chat. Text longer than the API limit is
// truncated on a line boundary.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	_, err := t.call(ctx, "sendMessage", map[string]string{
		"chat_id":    t.ChatID,
		"text":       truncate(text, maxMessageLen),
		"parse_mode": "HTML",
	})
	return err
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		lastErr = t.Send(ctx, text)
		if lastErr == nil {
			return nil
		}
		if i == maxRetries {
			break
		}
		backoff := t.RetryBackoff << uint(i)
		log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, lastErr, backoff)
		if err := sleepCtx(ctx, backoff); err != nil {
			return err
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// truncate cuts text to at most limit bytes, on the last newline when there
// is one and otherwise on a rune boundary, so the result stays valid UTF-8.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		return cut[:i]
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}
