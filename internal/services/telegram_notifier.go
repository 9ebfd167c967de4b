package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// TelegramNotifier posts order notifications to a Telegram chat
type TelegramNotifier struct {
	client   *resty.Client
	botToken string
	chatID   string
}

type telegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewTelegramNotifier creates a Telegram sink for the Bot API at apiURL
func NewTelegramNotifier(apiURL, botToken, chatID string, timeout time.Duration) *TelegramNotifier {
	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &TelegramNotifier{
		client:   client,
		botToken: botToken,
		chatID:   chatID,
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

// Notify sends n.Text with sendMessage
func (t *TelegramNotifier) Notify(ctx context.Context, n Notification) error {
	var result telegramResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(telegramMessage{ChatID: t.chatID, Text: n.Text}).
		SetResult(&result).
		SetError(&result).
		Post("/bot" + t.botToken + "/sendMessage")
	if err != nil {
		// url.Error carries the request URL, which contains the bot token
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}

	if resp.IsError() || !result.OK {
		return fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode(), result.Description)
	}
	return nil
}
