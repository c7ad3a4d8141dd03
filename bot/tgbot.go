package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"WaGate/internal/lib/sl"
)

const outboxSize = 32

// TgBot delivers operational alerts to a single admin chat.
type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.Bot
	adminId int64
	outbox  chan string
}

func NewTgBot(apiKey string, adminId int64, log *slog.Logger) (*TgBot, error) {
	if adminId == 0 {
		return nil, fmt.Errorf("telegram admin id is not set")
	}
	tgBot := &TgBot{
		log:     log.With(sl.Module("tgbot")),
		adminId: adminId,
		outbox:  make(chan string, outboxSize),
	}

	api, err := tgbotapi.NewBot(apiKey, &tgbotapi.BotOpts{
		RequestOpts: &tgbotapi.RequestOpts{
			Timeout: 10 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api
	go tgBot.sendLoop()

	return tgBot, nil
}

// SendMessage queues msg for the admin chat without blocking the caller.
// Alerts are dropped while the outbox is full.
func (t *TgBot) SendMessage(msg string) {
	select {
	case t.outbox <- msg:
	default:
		t.log.Warn("telegram outbox full, alert dropped", slog.Int("size", cap(t.outbox)))
	}
}

func (t *TgBot) sendLoop() {
	for msg := range t.outbox {
		t.plainResponse(t.adminId, msg)
	}
}

func (t *TgBot) plainResponse(chatId int64, text string) {
	sanitized := sanitize(text)
	if sanitized == "" {
		t.log.With(
			slog.Int64("id", chatId),
		).Debug("empty message")
		return
	}

	_, err := t.api.SendMessage(chatId, sanitized, &tgbotapi.SendMessageOpts{
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		t.log.With(
			slog.Int64("id", chatId),
		).Warn("sending message", sl.Err(err))
		_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
		if err != nil {
			t.log.With(
				slog.Int64("id", chatId),
			).Warn("sending safe message", sl.Err(err))
		}
	}
}

// sanitize escapes MarkdownV2 reserved characters, leaving * for bold.
func sanitize(input string) string {
	reservedChars := "\\`_{}#+-.!|()[]=<>~"

	var b strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
