package config

import "time"

// ESIConfig controls how the market API client talks to ESI.
type ESIConfig struct {
	BaseURL           string        `toml:"base_url" validate:"required,url"`
	UserAgent         string        `toml:"user_agent" validate:"required"`
	OrdersTimeout     time.Duration `toml:"orders_timeout" validate:"gt=0"`
	HistoryTimeout    time.Duration `toml:"history_timeout" validate:"gt=0"`
	NamesTimeout      time.Duration `toml:"names_timeout" validate:"gt=0"`
	RequestsPerSecond float64       `toml:"requests_per_second" validate:"gt=0"`
	Burst             int           `toml:"burst" validate:"gte=1"`
	PageWorkers       int           `toml:"page_workers" validate:"gte=1,lte=100"`
}

// VelocityConfig holds the defaults of the single-hub spread scan.
type VelocityConfig struct {
	Hub            string  `toml:"hub" validate:"required"`
	MinPrice       float64 `toml:"min_price" validate:"gte=0"`
	MaxPrice       float64 `toml:"max_price" validate:"gtefield=MinPrice"`
	MinVolume      float64 `toml:"min_volume" validate:"gte=0"`
	MinDailyProfit float64 `toml:"min_daily_profit" validate:"gte=0"`
	Depth          int     `toml:"depth" validate:"gte=0"` // 0 = all pages
}

// ImportConfig holds the defaults of the cross-hub import scan.
type ImportConfig struct {
	Hub          string  `toml:"hub" validate:"required"`
	MinROI       float64 `toml:"min_roi" validate:"gte=0"`
	MinVolume    float64 `toml:"min_volume" validate:"gte=0"`
	IncludeEmpty bool    `toml:"include_empty"`
	Depth        int     `toml:"depth" validate:"gte=0"` // 0 = all pages (reference hub falls back to ReferenceDepth)
}

// ScanConfig groups per-strategy defaults.
type ScanConfig struct {
	Velocity VelocityConfig `toml:"velocity"`
	Import   ImportConfig   `toml:"import"`
}

// TuningConfig exposes the heuristics of both strategies. The defaults
// reproduce the long-standing behaviour; they are not calibrated values.
type TuningConfig struct {
	MinROI            float64 `toml:"min_roi" validate:"gte=0"`
	MaxROI            float64 `toml:"max_roi" validate:"gtfield=MinROI"`
	TopCandidates     int     `toml:"top_candidates" validate:"gte=1"`
	StalePriceFactor  float64 `toml:"stale_price_factor" validate:"gt=0"`
	EmptyMarketMarkup float64 `toml:"empty_market_markup" validate:"gt=0"`
	ReferenceHub      string  `toml:"reference_hub" validate:"required"`
	ReferenceDepth    int     `toml:"reference_depth" validate:"gte=1"`
	HistoryWindow     int     `toml:"history_window" validate:"gte=1"`
	ProgressEvery     int     `toml:"progress_every" validate:"gte=1"`
}

// LoopConfig controls repeat mode.
type LoopConfig struct {
	Repeat          bool          `toml:"repeat"`
	IntervalMinutes int           `toml:"interval_minutes" validate:"gte=1,lte=1440"`
	Tick            time.Duration `toml:"tick" validate:"gt=0"`
}

// ReportsConfig controls the CSV snapshot sink.
type ReportsConfig struct {
	Dir string `toml:"dir" validate:"required"`
}

// StorageConfig controls the SQLite store. An empty path disables it.
type StorageConfig struct {
	Path       string        `toml:"path"`
	HistoryTTL time.Duration `toml:"history_ttl" validate:"gte=0"`
}

// RedisConfig controls the status/cycle feed. An empty address disables it.
type RedisConfig struct {
	Addr     string `toml:"addr" validate:"omitempty,hostname_port"`
	Password string `toml:"password"`
	DB       int    `toml:"db" validate:"gte=0"`
	Channel  string `toml:"channel" validate:"required_with=Addr"`
	Stream   string `toml:"stream" validate:"required_with=Addr"`
}

// S3Config controls snapshot archiving. An empty bucket disables it.
type S3Config struct {
	Endpoint       string `toml:"endpoint" validate:"omitempty,url"`
	Region         string `toml:"region" validate:"required_with=Bucket"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	Prefix         string `toml:"prefix"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig controls cycle alerts. Each channel is enabled by its credentials.
type NotifyConfig struct {
	TelegramToken  string `toml:"telegram_token"`
	TelegramChatID string `toml:"telegram_chat_id" validate:"required_with=TelegramToken"`
	DiscordWebhook string `toml:"discord_webhook" validate:"omitempty,url"`
	TopN           int    `toml:"top_n" validate:"gte=1"`
}

// MetricsConfig controls the Prometheus listener. An empty address disables it.
type MetricsConfig struct {
	Addr string `toml:"addr" validate:"omitempty,hostname_port"`
}

// Config holds application settings.
type Config struct {
	LogLevel string `toml:"log_level" validate:"oneof=debug info warn error"`
	LogJSON  bool   `toml:"log_json"`

	ESI     ESIConfig     `toml:"esi"`
	Scan    ScanConfig    `toml:"scan"`
	Tuning  TuningConfig  `toml:"tuning"`
	Loop    LoopConfig    `toml:"loop"`
	Reports ReportsConfig `toml:"reports"`
	Storage StorageConfig `toml:"storage"`
	Redis   RedisConfig   `toml:"redis"`
	S3      S3Config      `toml:"s3"`
	Notify  NotifyConfig  `toml:"notify"`
	Metrics MetricsConfig `toml:"metrics"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		ESI: ESIConfig{
			BaseURL:           "https://esi.evetech.net/latest",
			UserAgent:         "eve-arbscan/1.0 (github.com)",
			OrdersTimeout:     10 * time.Second,
			HistoryTimeout:    5 * time.Second,
			NamesTimeout:      10 * time.Second,
			RequestsPerSecond: 100,
			Burst:             20,
			PageWorkers:       20,
		},
		Scan: ScanConfig{
			Velocity: VelocityConfig{
				Hub:            "Jita 4-4 (The Forge)",
				MinPrice:       500_000,
				MaxPrice:       20_000_000,
				MinVolume:      50,
				MinDailyProfit: 500_000,
				Depth:          10,
			},
			Import: ImportConfig{
				Hub:          "G-0Q86 (Curse - Angel Hub)",
				MinROI:       30,
				MinVolume:    0.1,
				IncludeEmpty: true,
			},
		},
		Tuning: TuningConfig{
			MinROI:            10,
			MaxROI:            300,
			TopCandidates:     300,
			StalePriceFactor:  3,
			EmptyMarketMarkup: 2,
			ReferenceHub:      "Jita 4-4 (The Forge)",
			ReferenceDepth:    50,
			HistoryWindow:     30,
			ProgressEvery:     10,
		},
		Loop: LoopConfig{
			IntervalMinutes: 15,
			Tick:            time.Second,
		},
		Reports: ReportsConfig{Dir: "reports"},
		Storage: StorageConfig{
			Path:       "arbscan.db",
			HistoryTTL: 24 * time.Hour,
		},
		Redis: RedisConfig{
			Channel: "arbscan:status",
			Stream:  "arbscan:cycles",
		},
		S3:     S3Config{Prefix: "snapshots/"},
		Notify: NotifyConfig{TopN: 5},
	}
}
