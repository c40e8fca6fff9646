package bot

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Keyboard selects the reply keyboard sent along with a message.
type Keyboard int

const (
	KeepKeyboard Keyboard = iota
	MainMenu
	AnalysisMenu
	RemoveKeyboard
)

type Message struct {
	Text     string
	Markdown bool
	Keyboard Keyboard
}

type Sender interface {
	Send(ctx context.Context, chatID int64, msg Message) error
}

// TelegramSender sends through the Bot API, retrying rate limits, server
// errors and network failures with jittered backoff.
type TelegramSender struct {
	API      *tgbotapi.BotAPI
	Log      *slog.Logger
	Attempts uint
}

func NewTelegramSender(api *tgbotapi.BotAPI, log *slog.Logger) *TelegramSender {
	return &TelegramSender{API: api, Log: log, Attempts: 4}
}

func (s *TelegramSender) Send(ctx context.Context, chatID int64, msg Message) error {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	cfg := tgbotapi.NewMessage(chatID, msg.Text)
	if msg.Markdown {
		cfg.ParseMode = tgbotapi.ModeMarkdown
	}
	if markup := replyMarkup(msg.Keyboard); markup != nil {
		cfg.ReplyMarkup = markup
	}

	attempts := s.Attempts
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(
		func() error {
			_, err := s.API.Send(cfg)
			if err != nil && !retryable(err) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(15*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debug("retrying telegram send", "attempt", n+1, "chat_id", chatID, "err", err)
		}),
	)
}

func retryable(err error) bool {
	if code, ok := apiErrorCode(err); ok {
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}
	return true
}

// rejected reports whether Telegram refused the message itself, for example
// because of broken Markdown entities.
func rejected(err error) bool {
	code, ok := apiErrorCode(err)
	return ok && code == http.StatusBadRequest
}

// apiErrorCode extracts the Bot API error code. The library returns
// *tgbotapi.Error, the value form is accepted too.
func apiErrorCode(err error) (int, bool) {
	var ptr *tgbotapi.Error
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, true
	}
	var val tgbotapi.Error
	if errors.As(err, &val) {
		return val.Code, true
	}
	return 0, false
}

func replyMarkup(k Keyboard) any {
	switch k {
	case MainMenu:
		kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(StartButton)))
		kb.ResizeKeyboard = true
		return kb
	case AnalysisMenu:
		kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(AnalyzeButton),
			tgbotapi.NewKeyboardButton(CancelButton),
		))
		kb.ResizeKeyboard = true
		return kb
	case RemoveKeyboard:
		return tgbotapi.NewRemoveKeyboard(true)
	default:
		return nil
	}
}
