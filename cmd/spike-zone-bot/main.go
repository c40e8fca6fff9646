package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"spike-zone-bot/analyzer"
	"spike-zone-bot/bot"
	"spike-zone-bot/config"
	"spike-zone-bot/httpapi"
	"spike-zone-bot/logging"
	"spike-zone-bot/metrics"
	"spike-zone-bot/scheduler"
	"spike-zone-bot/session"
	"spike-zone-bot/storage"
	"spike-zone-bot/zones"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := logging.Init(os.Stdout, true, slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "err", err)
		return 1
	}
	logger = logging.Init(os.Stdout, true, logging.ParseLevel(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		logger.Error("db open failed", "err", err)
		return 1
	}
	defer func() { _ = st.Close() }()

	sessions := session.New(cfg.SessionTTL(), cfg.MaxBufferBytes)
	m := metrics.New(sessions.Active)

	svc := &analyzer.Service{
		Log:       logger,
		Finder:    zones.Finder{Window: cfg.WindowMinutes, TopZones: cfg.TopZones, Wrap: cfg.WrapMidnight},
		MinEvents: cfg.MinEvents,
		History:   historyAdapter{s: st},
		Observer:  m,
	}

	purge := scheduler.Purge{Store: st, Retention: cfg.HistoryRetention(), Log: logger}
	sched := scheduler.New(purge, schedulerLogger{log: logger})
	if err := sched.Start(ctx, cfg.PurgeTime, cfg.Timezone); err != nil {
		logger.Error("scheduler start failed", "err", err)
		return 1
	}
	defer sched.Stop()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error("create telegram api failed", "err", err)
		return 1
	}

	if cfg.HTTPAddr != "" {
		srv := &httpapi.Server{Log: logger, Analyzer: svc, Metrics: m, MaxBodyBytes: int64(cfg.MaxBufferBytes)}
		httpDone := startHTTP(ctx, srv, cfg.HTTPAddr, logger, cancel)
		// In-flight requests may still write history; drain them before the
		// store closes.
		defer func() {
			cancel()
			<-httpDone
		}()
	}

	tg := &bot.Bot{
		Log:      logger,
		API:      api,
		Sender:   bot.NewTelegramSender(api, logger),
		Sessions: sessions,
		Analyzer: svc,
		History:  historyAdapter{s: st},
		Metrics:  m,
	}

	logger.Info("started",
		"window_minutes", cfg.WindowMinutes,
		"top_zones", cfg.TopZones,
		"wrap_midnight", cfg.WrapMidnight,
		"next_purge", sched.Next(),
	)
	if err := tg.Run(ctx); err != nil {
		logger.Error("bot run failed", "err", err)
		return 1
	}
	logger.Info("shutdown")
	return 0
}

// startHTTP serves srv on addr until ctx is done. A serve failure calls
// fail. The returned channel is closed once the server has shut down.
func startHTTP(ctx context.Context, srv *httpapi.Server, addr string, log *slog.Logger, fail func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.ListenAndServe(ctx, addr); err != nil {
			log.Error("http server failed", "err", err)
			fail()
		}
	}()
	return done
}

type schedulerLogger struct{ log *slog.Logger }

func (s schedulerLogger) Info(msg string, keysAndValues ...any) { s.log.Debug(msg, keysAndValues...) }
func (s schedulerLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{"err", err}, keysAndValues...)
	s.log.Error(msg, args...)
}

// historyAdapter maps between the analyzer, bot and storage types so none of
// those packages import each other.
type historyAdapter struct{ s *storage.Store }

func (h historyAdapter) SaveAnalysis(ctx context.Context, e analyzer.HistoryEntry) error {
	zs := make([]storage.Zone, 0, len(e.Zones))
	for _, z := range e.Zones {
		zs = append(zs, storage.Zone{Start: z.Start, Score: z.Score})
	}
	return h.s.SaveAnalysis(ctx, storage.Analysis{
		ID:         e.ID,
		ChatID:     e.ChatID,
		Source:     e.Source,
		AnalyzedAt: e.AnalyzedAt,
		Events:     e.Events,
		Skipped:    e.Skipped,
		Window:     e.Window,
		Wrap:       e.Wrap,
		Zones:      zs,
	})
}

func (h historyAdapter) RecentAnalyses(ctx context.Context, chatID int64, limit int) ([]bot.HistoryItem, error) {
	rows, err := h.s.RecentAnalyses(ctx, chatID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]bot.HistoryItem, 0, len(rows))
	for _, r := range rows {
		it := bot.HistoryItem{AnalyzedAt: r.AnalyzedAt, Events: r.Events, Window: r.Window, Wrap: r.Wrap}
		for _, z := range r.Zones {
			it.Zones = append(it.Zones, bot.HistoryZone{Start: z.Start, Score: z.Score})
		}
		out = append(out, it)
	}
	return out, nil
}
