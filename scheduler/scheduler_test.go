package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct{ calls atomic.Int64 }

func (f *fakeRunner) Run(ctx context.Context) error {
	f.calls.Add(1)
	return nil
}

type noopCronLogger struct{}

func (n noopCronLogger) Info(msg string, keysAndValues ...any)             {}
func (n noopCronLogger) Error(err error, msg string, keysAndValues ...any) {}

func TestCronSpecDailyHHMM(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "30 9 * * *", CronSpecDailyHHMM("09:30"))
	assert.Equal(t, "0 3 * * *", CronSpecDailyHHMM("03:00"))
}

func TestScheduler_StartNextStop(t *testing.T) {
	t.Parallel()
	s := New(&fakeRunner{}, noopCronLogger{})
	require.NoError(t, s.Start(context.Background(), "03:00", "UTC"))
	assert.Error(t, s.Start(context.Background(), "03:00", "UTC"))

	next := s.Next()
	require.False(t, next.IsZero())
	assert.Equal(t, 3, next.UTC().Hour())
	assert.Equal(t, 0, next.Minute())

	s.Stop()
	assert.True(t, s.Next().IsZero())
	s.Stop()
}

func TestScheduler_StartRejectsBadTimezone(t *testing.T) {
	t.Parallel()
	s := New(&fakeRunner{}, cron.VerbosePrintfLogger(nil))
	assert.Error(t, s.Start(context.Background(), "00:00", "Nope/Nope"))
}

type fakeHistory struct {
	cutoff  time.Time
	deleted int64
	err     error
	setting map[string]string
}

func (f *fakeHistory) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func (f *fakeHistory) SetSetting(ctx context.Context, key, value string) error {
	if f.setting == nil {
		f.setting = map[string]string{}
	}
	f.setting[key] = value
	return nil
}

func TestPurge_Run(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 6, 30, 3, 0, 0, 0, time.UTC)
	st := &fakeHistory{deleted: 4}
	p := Purge{Store: st, Retention: 30 * 24 * time.Hour, Now: func() time.Time { return now }}

	require.NoError(t, p.Run(context.Background()))
	assert.True(t, st.cutoff.Equal(time.Date(2024, 5, 31, 3, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1719716400", st.setting[LastPurgeKey])
}

func TestPurge_RunError(t *testing.T) {
	t.Parallel()
	st := &fakeHistory{err: errors.New("locked")}
	p := Purge{Store: st, Retention: time.Hour}
	assert.Error(t, p.Run(context.Background()))
	assert.Empty(t, st.setting)
}
