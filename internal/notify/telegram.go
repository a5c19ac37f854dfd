package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

const TelegramAPI = "https://api.telegram.org"

// Telegram posts HTML messages through the Bot API. It starts enabled; a
// failed handshake calls Disable and every later Send returns ErrDisabled.
type Telegram struct {
	Token   string
	ChatID  string
	BaseURL string
	Client  *http.Client

	disabled atomic.Bool
}

// NewTelegram returns nil when token or chat id is missing.
func NewTelegram(token, chatID string) *Telegram {
	if token == "" || chatID == "" {
		return nil
	}
	return &Telegram{
		Token:   token,
		ChatID:  chatID,
		BaseURL: TelegramAPI,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Disable()       { t.disabled.Store(true) }
func (t *Telegram) Enabled() bool { return t != nil && !t.disabled.Load() }

type telegramReply struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) call(ctx context.Context, method string, payload any) error {
	var body io.Reader
	httpMethod := http.MethodGet
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
		httpMethod = http.MethodPost
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(t.BaseURL, "/"), t.Token, method)
	req, err := http.NewRequestWithContext(ctx, httpMethod, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		// The url.Error would carry the bot token.
		return fmt.Errorf("telegram %s: %w", method, unwrapURL(err))
	}
	defer resp.Body.Close()

	var reply telegramReply
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&reply)
	if resp.StatusCode/100 != 2 || !reply.OK {
		if reply.Description == "" {
			reply.Description = resp.Status
		}
		return fmt.Errorf("telegram %s: %s", method, reply.Description)
	}
	return nil
}

// Verify calls getMe to check the bot token.
func (t *Telegram) Verify(ctx context.Context) error {
	if t == nil {
		return ErrDisabled
	}
	return t.call(ctx, "getMe", nil)
}

// Send posts body with parse_mode HTML; subject is not used.
func (t *Telegram) Send(ctx context.Context, subject, body string) error {
	if !t.Enabled() {
		return ErrDisabled
	}
	return t.call(ctx, "sendMessage", map[string]any{
		"chat_id":    t.ChatID,
		"text":       body,
		"parse_mode": "HTML",
	})
}

func unwrapURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
