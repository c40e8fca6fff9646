package scheduler

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// LastPurgeKey is the setting holding the unix time of the last purge.
const LastPurgeKey = "last_purge_at"

type HistoryStore interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Purge deletes analysis history older than Retention.
type Purge struct {
	Store     HistoryStore
	Retention time.Duration
	Log       *slog.Logger
	Now       func() time.Time
}

func (p Purge) Run(ctx context.Context) error {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	cutoff := now.Add(-p.Retention)
	n, err := p.Store.PurgeBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if err := p.Store.SetSetting(ctx, LastPurgeKey, strconv.FormatInt(now.Unix(), 10)); err != nil {
		log.Warn("record purge time failed", "err", err)
	}
	log.Info("history purged", "deleted", n, "cutoff", cutoff.UTC())
	return nil
}
