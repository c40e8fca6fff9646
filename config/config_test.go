package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadFile_AppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := LoadFile(writeConfig(t, "telegram_token: t\nwindow_minutes: 30\n"))
	require.NoError(t, err)
	assert.Equal(t, "t", cfg.TelegramToken)
	assert.Equal(t, 30, cfg.WindowMinutes)
	assert.Equal(t, 3, cfg.TopZones)
	assert.Equal(t, 10, cfg.MinEvents)
	assert.False(t, cfg.WrapMidnight)
	assert.Equal(t, "03:00", cfg.PurgeTime)
}

func TestLoadFile_BadYAML(t *testing.T) {
	t.Parallel()
	_, err := LoadFile(writeConfig(t, "window_minutes: [\n"))
	assert.Error(t, err)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Parallel()
	p := writeConfig(t, "telegram_token: from-file\ndb_path: ./a.db\n")
	cfg, err := LoadFromEnv(envFrom(map[string]string{
		"SPIKE_BOT_CONFIG":    p,
		"BOT_TOKEN":           "from-env",
		"SPIKE_BOT_DB":        "./override.db",
		"SPIKE_BOT_HTTP_ADDR": ":8080",
	}))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.TelegramToken)
	assert.Equal(t, "./override.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoadFromEnv_ExplicitMissingFileFails(t *testing.T) {
	t.Parallel()
	_, err := LoadFromEnv(envFrom(map[string]string{
		"SPIKE_BOT_CONFIG": filepath.Join(t.TempDir(), "nope.yaml"),
		"BOT_TOKEN":        "x",
	}))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	ok := Defaults()
	ok.TelegramToken = "t"
	require.NoError(t, ok.Validate())

	tests := map[string]func(c *Config){
		"missing token":  func(c *Config) { c.TelegramToken = "" },
		"zero window":    func(c *Config) { c.WindowMinutes = 0 },
		"huge window":    func(c *Config) { c.WindowMinutes = 1000 },
		"zero zones":     func(c *Config) { c.TopZones = 0 },
		"zero minimum":   func(c *Config) { c.MinEvents = 0 },
		"negative ttl":   func(c *Config) { c.SessionTTLMinutes = -1 },
		"no db":          func(c *Config) { c.DBPath = "" },
		"zero retention": func(c *Config) { c.HistoryRetentionDays = 0 },
		"bad purge time": func(c *Config) { c.PurgeTime = "3am" },
		"bad timezone":   func(c *Config) { c.Timezone = "Nope/Nope" },
	}
	for name, mutate := range tests {
		name, mutate := name, mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c := ok
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestParseHHMM(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		ok   bool
		hour int
		min  int
	}{
		{in: "09:00", ok: true, hour: 9, min: 0},
		{in: "23:59", ok: true, hour: 23, min: 59},
		{in: "24:00", ok: false},
		{in: "00:60", ok: false},
		{in: "9:00", ok: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			h, m, err := ParseHHMM(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, h)
			assert.Equal(t, tt.min, m)
		})
	}
}
