package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MaxMessageRunes is the longest text the Bot API accepts in one message.
const MaxMessageRunes = 4096

const truncationMarker = "\n…"

// TelegramOptions configures a TelegramSender.
type TelegramOptions struct {
	// APIEndpoint overrides tgbotapi.APIEndpoint (format "…/bot%s/%s").
	APIEndpoint string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// TelegramSender delivers messages through the Telegram Bot API.
type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramSender authenticates token against the Bot API.
func NewTelegramSender(token string, opts TelegramOptions) (*TelegramSender, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("bot token is required")
	}
	endpoint := opts.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultSendTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot}, nil
}

// Username returns the bot's username as reported by getMe.
func (s *TelegramSender) Username() string {
	return s.bot.Self.UserName
}

// Send posts text to chatID. Numeric ids address chats and groups; anything
// else is treated as a channel username such as "@olx_alerts".
//
// The Bot API client takes no context, so Send returns ctx.Err() as soon as
// ctx is done while the request keeps running in the background until the
// HTTP client timeout. A message abandoned this way may still be delivered.
func (s *TelegramSender) Send(ctx context.Context, chatID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text = truncateRunes(text, MaxMessageRunes)

	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else {
		msg = tgbotapi.NewMessageToChannel(chatID, text)
	}
	msg.DisableWebPagePreview = true

	done := make(chan error, 1)
	go func() {
		_, err := s.bot.Send(msg)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("telegram sendMessage: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram sendMessage: %w", err)
		}
		return nil
	}
}

func truncateRunes(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	keep := limit - utf8.RuneCountInString(truncationMarker)
	return string(runes[:keep]) + truncationMarker
}
