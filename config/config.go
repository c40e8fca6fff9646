package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	TelegramToken        string `yaml:"telegram_token"`
	WindowMinutes        int    `yaml:"window_minutes"`
	TopZones             int    `yaml:"top_zones"`
	MinEvents            int    `yaml:"min_events"`
	WrapMidnight         bool   `yaml:"wrap_midnight"`
	SessionTTLMinutes    int    `yaml:"session_ttl_minutes"`
	MaxBufferBytes       int    `yaml:"max_buffer_bytes"`
	DBPath               string `yaml:"db_path"`
	HistoryRetentionDays int    `yaml:"history_retention_days"`
	PurgeTime            string `yaml:"purge_time"`
	Timezone             string `yaml:"timezone"`
	HTTPAddr             string `yaml:"http_addr"`
	LogLevel             string `yaml:"log_level"`
}

func Defaults() Config {
	return Config{
		WindowMinutes:        20,
		TopZones:             3,
		MinEvents:            10,
		SessionTTLMinutes:    360,
		MaxBufferBytes:       1 << 20,
		DBPath:               "./spike-zone-bot.db",
		HistoryRetentionDays: 30,
		PurgeTime:            "03:00",
		Timezone:             "UTC",
		LogLevel:             "info",
	}
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c Config) HistoryRetention() time.Duration {
	return time.Duration(c.HistoryRetentionDays) * 24 * time.Hour
}

func Load() (Config, error) {
	return LoadFromEnv(os.Getenv)
}

// LoadFromEnv reads the YAML file named by SPIKE_BOT_CONFIG (default
// ./config.yaml) and applies env overrides. A missing file is fine as long
// as the result validates, so BOT_TOKEN alone is enough to run.
func LoadFromEnv(getenv func(string) string) (Config, error) {
	path := getenv("SPIKE_BOT_CONFIG")
	explicit := path != ""
	if !explicit {
		path = "./config.yaml"
	}

	cfg, err := LoadFile(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
		cfg = Defaults()
	}

	if v := getenv("BOT_TOKEN"); v != "" {
		cfg.TelegramToken = v
	}
	if v := getenv("SPIKE_BOT_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("SPIKE_BOT_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadFile(path string) (Config, error) {
	cfg := Defaults()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config yaml: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.TelegramToken == "" {
		errs = append(errs, errors.New("telegram_token is required (or set BOT_TOKEN)"))
	}
	if c.WindowMinutes < 1 || c.WindowMinutes > 720 {
		errs = append(errs, errors.New("window_minutes must be between 1 and 720"))
	}
	if c.TopZones < 1 || c.TopZones > 10 {
		errs = append(errs, errors.New("top_zones must be between 1 and 10"))
	}
	if c.MinEvents < 1 {
		errs = append(errs, errors.New("min_events must be > 0"))
	}
	if c.SessionTTLMinutes < 0 {
		errs = append(errs, errors.New("session_ttl_minutes must be >= 0"))
	}
	if c.MaxBufferBytes < 0 {
		errs = append(errs, errors.New("max_buffer_bytes must be >= 0"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.HistoryRetentionDays < 1 {
		errs = append(errs, errors.New("history_retention_days must be > 0"))
	}
	if _, _, err := ParseHHMM(c.PurgeTime); err != nil {
		errs = append(errs, fmt.Errorf("purge_time: %w", err))
	}
	if c.Timezone == "" {
		errs = append(errs, errors.New("timezone is required"))
	} else if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

var hhmmRe = regexp.MustCompile(`^(\d\d):(\d\d)$`)

func ParseHHMM(s string) (hour int, minute int, err error) {
	m := hhmmRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid format (expected HH:MM)")
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if h > 23 {
		return 0, 0, fmt.Errorf("hour out of range")
	}
	if min > 59 {
		return 0, 0, fmt.Errorf("minute out of range")
	}
	return h, min, nil
}
