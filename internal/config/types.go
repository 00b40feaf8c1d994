package config

// Config is the full wcnotify configuration.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
// Required keys: source.site_url, source.username, source.password,
// telegram.bot_token, telegram.chat_id, store.path.
type Config struct {
	Source   SourceConfig   `json:"source"`
	Telegram TelegramConfig `json:"telegram"`
	Store    StoreConfig    `json:"store"`
	Notifier NotifierConfig `json:"notifier"`
	Logging  LoggingConfig  `json:"logging"`
	Watch    WatchConfig    `json:"watch"`
}

// SourceConfig describes the WooCommerce REST API the orders are read from.
//
// Defaults (when fields are omitted/zero):
//   - timeout: "30s"
//   - statuses: ["pending", "processing", "on-hold"]
//   - per_page: 10
type SourceConfig struct {
	SiteURL  string   `json:"site_url" validate:"required,url"`
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password" validate:"required"`
	Timeout  string   `json:"timeout,omitempty"`
	Statuses []string `json:"statuses,omitempty" validate:"omitempty,dive,required"`
	PerPage  int      `json:"per_page,omitempty" validate:"gte=0,lte=100"`
}

// TelegramConfig describes the chat the order summaries are delivered to.
//
// Driver values:
//   - "form": form-encoded POST to sendMessage (default)
//   - "telebot": delivery through gopkg.in/telebot.v4
type TelegramConfig struct {
	BotToken string `json:"bot_token" validate:"required"`
	ChatID   string `json:"chat_id" validate:"required"`
	APIURL   string `json:"api_url,omitempty" validate:"omitempty,url"`
	Driver   string `json:"driver,omitempty" validate:"omitempty,oneof=form telebot"`
	// Timeout is a Go duration string; default "10s".
	Timeout   string `json:"timeout,omitempty"`
	ParseMode string `json:"parse_mode,omitempty" validate:"omitempty,oneof=Markdown none"`
	// DisablePreview is a pointer so we can distinguish "omitted" (default true)
	// from an explicit false.
	DisablePreview *bool `json:"disable_preview,omitempty"`
}

// StoreConfig controls the record of already-notified order ids.
//
// Example:
//
//	"store": { "driver": "file", "path": "./orders_log.txt" }
type StoreConfig struct {
	Driver      string `json:"driver,omitempty" validate:"omitempty,oneof=file"`
	Path        string `json:"path" validate:"required"`
	LockTimeout string `json:"lock_timeout,omitempty"` // default "5s"
}

// NotifierConfig controls one notification run.
type NotifierConfig struct {
	// SendInterval is the minimum pause between two sends; default "1s".
	SendInterval string `json:"send_interval,omitempty"`
	// Timezone renders zoned order timestamps (IANA name); default UTC.
	Timezone       string `json:"timezone,omitempty"`
	EscapeMarkdown bool   `json:"escape_markdown,omitempty"`
}

type LoggingConfig struct {
	Level   string       `json:"level"`
	Console bool         `json:"console"`
	File    LoggingFile  `json:"file"`
	Alert   LoggingAlert `json:"alert"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingAlert forwards high-severity log lines to a separate Telegram chat.
// The bot token of the telegram section is reused.
type LoggingAlert struct {
	Enabled    bool   `json:"enabled"`
	ChatID     string `json:"chat_id,omitempty" validate:"required_if=Enabled true"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty" validate:"gte=0"`
}

// WatchConfig controls `wcnotify watch`.
//
// Schedule accepts a cron expression ("*/5 * * * *", "@every 2m"),
// a Go duration ("1m") or an HH:MM interval ("00:05"). Default "1m".
type WatchConfig struct {
	Schedule   string `json:"schedule,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
	RunOnStart *bool  `json:"run_on_start,omitempty"`
}

// Default returns the configuration every file/env source is layered on.
func Default() *Config {
	return &Config{
		Store: StoreConfig{Driver: "file"},
		Logging: LoggingConfig{
			Level: "INFO",
			File:  LoggingFile{Enabled: true, Path: "./notifier.log"},
		},
	}
}
