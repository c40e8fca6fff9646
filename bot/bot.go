// Package bot is the Telegram front end: a two-state conversation that
// collects pasted spike logs and replies with the zone report.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"spike-zone-bot/analyzer"
	"spike-zone-bot/report"
	"spike-zone-bot/session"
	"spike-zone-bot/zones"
)

const historyLimit = 5

type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) (analyzer.Report, error)
}

type HistoryItem struct {
	AnalyzedAt time.Time
	Events     int
	Window     int
	Wrap       bool
	Zones      []HistoryZone
}

type HistoryZone struct {
	Start int
	Score int
}

type HistoryReader interface {
	RecentAnalyses(ctx context.Context, chatID int64, limit int) ([]HistoryItem, error)
}

type Counter interface {
	BotMessage(kind string)
}

type Bot struct {
	Log      *slog.Logger
	API      *tgbotapi.BotAPI
	Sender   Sender
	Sessions *session.Store
	Analyzer Analyzer
	History  HistoryReader
	Metrics  Counter
}

// Run long-polls Telegram until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if b.API == nil {
		return fmt.Errorf("missing telegram api")
	}
	if b.Sender == nil {
		b.Sender = NewTelegramSender(b.API, b.Log)
	}
	if err := b.validate(); err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message"}
	updates := b.API.GetUpdatesChan(u)
	defer b.API.StopReceivingUpdates()

	b.logger().Info("bot polling", "username", b.API.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return errors.New("telegram updates channel closed")
			}
			if upd.Message != nil {
				b.HandleMessage(ctx, upd.Message)
			}
		}
	}
}

func (b *Bot) validate() error {
	switch {
	case b.Sender == nil:
		return fmt.Errorf("missing sender")
	case b.Sessions == nil:
		return fmt.Errorf("missing session store")
	case b.Analyzer == nil:
		return fmt.Errorf("missing analyzer")
	}
	return nil
}

func (b *Bot) logger() *slog.Logger {
	if b.Log == nil {
		return slog.Default()
	}
	return b.Log
}

// HandleMessage drives the conversation for one incoming message.
func (b *Bot) HandleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m == nil || m.Chat == nil || m.Text == "" {
		return
	}
	chatID := m.Chat.ID

	if m.IsCommand() {
		b.count("command")
		switch m.Command() {
		case "start":
			b.Sessions.Cancel(chatID)
			b.send(ctx, chatID, Message{Text: welcomeText, Keyboard: MainMenu})
		case "tahlil":
			b.analyze(ctx, chatID, notStartedText)
		case "history":
			b.history(ctx, chatID)
		}
		return
	}

	switch m.Text {
	case StartButton, EnterDataButton:
		b.count("start")
		b.Sessions.StartAccumulating(chatID)
		b.send(ctx, chatID, Message{Text: startedText, Keyboard: AnalysisMenu})
		return
	case AnalyzeButton:
		b.count("analyze")
		b.analyze(ctx, chatID, noDataText)
		return
	case CancelButton:
		b.count("cancel")
		b.Sessions.Cancel(chatID)
		b.send(ctx, chatID, Message{Text: cancelledText, Keyboard: MainMenu})
		return
	}

	accumulating, err := b.Sessions.AppendLine(chatID, m.Text)
	if !accumulating {
		b.count("ignored")
		return
	}
	b.count("data")
	if errors.Is(err, session.ErrBufferFull) {
		b.logger().Warn("session buffer full", "chat_id", chatID)
		b.send(ctx, chatID, Message{Text: bufferFullText})
	}
}

// analyze runs the collected text through the analyzer. Without data it
// only sends hint and keeps the session as is.
func (b *Bot) analyze(ctx context.Context, chatID int64, hint string) {
	if !b.Sessions.HasData(chatID) {
		b.send(ctx, chatID, Message{Text: hint})
		return
	}
	b.send(ctx, chatID, Message{Text: analyzingText, Keyboard: RemoveKeyboard})

	text := b.Sessions.TakeBufferAndReset(chatID)
	rep, err := b.Analyzer.Analyze(ctx, analyzer.Request{ChatID: chatID, Source: "telegram", Text: text})
	if err != nil {
		b.send(ctx, chatID, Message{Text: fmt.Sprintf(analysisErrorFmt, analyzer.UserMessage(err))})
	} else {
		b.sendReport(ctx, chatID, rep.Text)
	}
	b.send(ctx, chatID, Message{Text: againText, Keyboard: MainMenu})
}

func (b *Bot) sendReport(ctx context.Context, chatID int64, text string) {
	err := b.Sender.Send(ctx, chatID, Message{Text: text, Markdown: true})
	if err == nil {
		return
	}
	if !rejected(err) {
		b.logger().Warn("send report failed", "chat_id", chatID, "err", err)
		return
	}
	b.logger().Warn("markdown report rejected, sending plain", "chat_id", chatID, "err", err)
	b.send(ctx, chatID, Message{Text: text})
}

func (b *Bot) history(ctx context.Context, chatID int64) {
	if b.History == nil {
		b.send(ctx, chatID, Message{Text: noHistoryText})
		return
	}
	items, err := b.History.RecentAnalyses(ctx, chatID, historyLimit)
	if err != nil {
		b.logger().Warn("load history failed", "chat_id", chatID, "err", err)
		b.send(ctx, chatID, Message{Text: fmt.Sprintf(analysisErrorFmt, "tarixni o'qib bo'lmadi")})
		return
	}
	b.send(ctx, chatID, Message{Text: FormatHistory(items)})
}

func (b *Bot) send(ctx context.Context, chatID int64, msg Message) {
	if err := b.Sender.Send(ctx, chatID, msg); err != nil {
		b.logger().Warn("send failed", "chat_id", chatID, "err", err)
	}
}

func (b *Bot) count(kind string) {
	if b.Metrics != nil {
		b.Metrics.BotMessage(kind)
	}
}

// end mirrors zones.Result.End for a stored zone.
func (it HistoryItem) end(z HistoryZone) int {
	end := z.Start + it.Window
	if it.Wrap {
		end %= zones.MinutesPerDay
	}
	return end
}

// FormatHistory renders recent analyses, newest first, as plain text.
func FormatHistory(items []HistoryItem) string {
	if len(items) == 0 {
		return noHistoryText
	}
	var sb strings.Builder
	sb.WriteString("🗂 Oxirgi tahlillar:\n")
	for _, it := range items {
		fmt.Fprintf(&sb, "\n%s UTC: %d ta spike", it.AnalyzedAt.UTC().Format("2006-01-02 15:04"), it.Events)
		for _, z := range it.Zones {
			fmt.Fprintf(&sb, "\n   • %s - %s (%d ta)", report.Clock(z.Start), report.Clock(it.end(z)), z.Score)
		}
		if len(it.Zones) == 0 {
			sb.WriteString("\n   • zona topilmadi")
		}
	}
	return sb.String()
}
