package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ARBSCAN_"

// Load reads an optional TOML file on top of the defaults, loads a .env file
// if one is present, then applies ARBSCAN_* environment overrides. An empty
// path skips the file. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	// A missing .env is the normal case.
	_ = godotenv.Load()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	var errs []string
	e := envSetter{errs: &errs}

	e.str(&cfg.LogLevel, "LOG_LEVEL")
	e.boolean(&cfg.LogJSON, "LOG_JSON")

	e.str(&cfg.ESI.BaseURL, "ESI_BASE_URL")
	e.str(&cfg.ESI.UserAgent, "ESI_USER_AGENT")
	e.float(&cfg.ESI.RequestsPerSecond, "ESI_REQUESTS_PER_SECOND")
	e.integer(&cfg.ESI.Burst, "ESI_BURST")
	e.integer(&cfg.ESI.PageWorkers, "ESI_PAGE_WORKERS")
	e.duration(&cfg.ESI.OrdersTimeout, "ESI_ORDERS_TIMEOUT")
	e.duration(&cfg.ESI.HistoryTimeout, "ESI_HISTORY_TIMEOUT")

	e.integer(&cfg.Loop.IntervalMinutes, "LOOP_INTERVAL_MINUTES")
	e.boolean(&cfg.Loop.Repeat, "LOOP_REPEAT")

	e.str(&cfg.Reports.Dir, "REPORTS_DIR")
	e.str(&cfg.Storage.Path, "STORAGE_PATH")

	e.str(&cfg.Redis.Addr, "REDIS_ADDR")
	e.str(&cfg.Redis.Password, "REDIS_PASSWORD")
	e.integer(&cfg.Redis.DB, "REDIS_DB")

	e.str(&cfg.S3.Endpoint, "S3_ENDPOINT")
	e.str(&cfg.S3.Region, "S3_REGION")
	e.str(&cfg.S3.Bucket, "S3_BUCKET")
	e.str(&cfg.S3.AccessKey, "S3_ACCESS_KEY")
	e.str(&cfg.S3.SecretKey, "S3_SECRET_KEY")

	e.str(&cfg.Notify.TelegramToken, "NOTIFY_TELEGRAM_TOKEN")
	e.str(&cfg.Notify.TelegramChatID, "NOTIFY_TELEGRAM_CHAT_ID")
	e.str(&cfg.Notify.DiscordWebhook, "NOTIFY_DISCORD_WEBHOOK")

	e.str(&cfg.Metrics.Addr, "METRICS_ADDR")

	if len(errs) > 0 {
		return fmt.Errorf("env overrides: %s", strings.Join(errs, "; "))
	}
	return nil
}

// envSetter mutates a target only when the variable is set and non-empty.
type envSetter struct {
	errs *[]string
}

func (e envSetter) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e envSetter) fail(key string, err error) {
	*e.errs = append(*e.errs, fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
}

func (e envSetter) str(dst *string, key string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e envSetter) integer(dst *int, key string) {
	if v, ok := e.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = n
	}
}

func (e envSetter) float(dst *float64, key string) {
	if v, ok := e.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = f
	}
}

func (e envSetter) boolean(dst *bool, key string) {
	if v, ok := e.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = b
	}
}

func (e envSetter) duration(dst *time.Duration, key string) {
	if v, ok := e.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = d
	}
}
