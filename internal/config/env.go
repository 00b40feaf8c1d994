package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override file values.
const (
	EnvSiteURL   = "WCNOTIFY_SITE_URL"
	EnvAPIUser   = "WCNOTIFY_API_USER"
	EnvAPIPass   = "WCNOTIFY_API_PASS"
	EnvBotToken  = "WCNOTIFY_BOT_TOKEN"
	EnvChatID    = "WCNOTIFY_CHAT_ID"
	EnvStorePath = "WCNOTIFY_STORE_PATH"
	EnvLogFile   = "WCNOTIFY_LOG_FILE"
	EnvLogLevel  = "WCNOTIFY_LOG_LEVEL"
	EnvSchedule  = "WCNOTIFY_SCHEDULE"
)

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&cfg.Source.SiteURL, EnvSiteURL)
	set(&cfg.Source.Username, EnvAPIUser)
	set(&cfg.Source.Password, EnvAPIPass)
	set(&cfg.Telegram.BotToken, EnvBotToken)
	set(&cfg.Telegram.ChatID, EnvChatID)
	set(&cfg.Store.Path, EnvStorePath)
	if v, ok := os.LookupEnv(EnvLogFile); ok && strings.TrimSpace(v) != "" {
		cfg.Logging.File.Enabled = true
		cfg.Logging.File.Path = strings.TrimSpace(v)
	}
	set(&cfg.Logging.Level, EnvLogLevel)
	set(&cfg.Watch.Schedule, EnvSchedule)
}
