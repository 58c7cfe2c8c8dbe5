package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// CommandHandler is called when a user command is received. A non-empty
// return value is sent back to the chat.
type CommandHandler func(command string) string

// pollTimeout is the long-poll wait passed to getUpdates, in seconds.
const pollTimeout = 30

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// updates fetches pending updates starting at offset.
func (t *TelegramNotifier) updates(ctx context.Context, offset int) ([]telegramUpdate, error) {
	raw, err := t.call(ctx, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         pollTimeout,
		"allowed_updates": []string{"message"},
	})
	if err != nil {
		return nil, err
	}
	var ups []telegramUpdate
	if err := json.Unmarshal(raw, &ups); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return ups, nil
}

// StartPolling long-polls for commands from the configured chat and answers
// them with handler. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	for ctx.Err() == nil {
		ups, err := t.updates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[WARN] polling request failed: %v", err)
			sleepCtx(ctx, 5*time.Second)
			continue
		}
		for _, up := range ups {
			offset = up.UpdateID + 1
			t.dispatch(ctx, up, handler)
		}
	}
	log.Println("[INFO] Telegram polling stopped")
}

func (t *TelegramNotifier) dispatch(ctx context.Context, up telegramUpdate, handler CommandHandler) {
	if up.Message == nil || strings.TrimSpace(up.Message.Text) == "" {
		return
	}
	if from := strconv.FormatInt(up.Message.Chat.ID, 10); t.ChatID != "" && from != t.ChatID {
		log.Printf("[WARN] ignoring command from chat %s", from)
		return
	}
	text := strings.TrimSpace(up.Message.Text)
	log.Printf("[INFO] received command: %s", text)
	if reply := handler(text); reply != "" {
		if err := t.Send(ctx, reply); err != nil {
			log.Printf("[ERROR] send reply: %v", err)
		}
	}
}
