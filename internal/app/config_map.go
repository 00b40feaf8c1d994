package app

import (
	"fmt"
	"strings"
	"time"

	"wcnotify/internal/config"
	"wcnotify/internal/format"
	"wcnotify/internal/notifier"
	"wcnotify/internal/store"
	"wcnotify/internal/telegram"
	"wcnotify/internal/woo"
	logx "wcnotify/pkg/logx"
)

const defaultSendInterval = time.Second

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Alert: logx.AlertConfig{
			Enabled:    cfg.Logging.Alert.Enabled,
			MinLevel:   cfg.Logging.Alert.MinLevel,
			RatePerSec: cfg.Logging.Alert.RatePerSec,
		},
	}
}

func mapStoreConfig(cfg *config.Config) store.Config {
	return store.Config{
		Driver:      cfg.Store.Driver,
		Path:        strings.TrimSpace(cfg.Store.Path),
		LockTimeout: cfg.Store.LockTimeout,
	}
}

func mapSourceConfig(cfg *config.Config) (woo.Config, error) {
	timeout, err := config.ParseDurationOrDefault("source.timeout", cfg.Source.Timeout, woo.DefaultTimeout)
	if err != nil {
		return woo.Config{}, err
	}
	return woo.Config{
		SiteURL:   strings.TrimSpace(cfg.Source.SiteURL),
		Username:  strings.TrimSpace(cfg.Source.Username),
		Password:  strings.TrimSpace(cfg.Source.Password),
		Timeout:   timeout,
		Statuses:  cfg.Source.Statuses,
		PerPage:   cfg.Source.PerPage,
		UserAgent: "wcnotify/" + Version,
	}, nil
}

func mapSenderConfig(cfg *config.Config) (telegram.Config, error) {
	timeout, err := config.ParseDurationOrDefault("telegram.timeout", cfg.Telegram.Timeout, telegram.DefaultTimeout)
	if err != nil {
		return telegram.Config{}, err
	}
	disablePreview := true
	if cfg.Telegram.DisablePreview != nil {
		disablePreview = *cfg.Telegram.DisablePreview
	}
	return telegram.Config{
		Token:          strings.TrimSpace(cfg.Telegram.BotToken),
		ChatID:         strings.TrimSpace(cfg.Telegram.ChatID),
		APIURL:         cfg.Telegram.APIURL,
		Driver:         cfg.Telegram.Driver,
		Timeout:        timeout,
		ParseMode:      cfg.Telegram.ParseMode,
		DisablePreview: disablePreview,
	}, nil
}

// mapAlertConfig returns the sender config for the alert sink (ok=false when disabled).
// Alert lines are JSON, so they go out without a parse mode.
func mapAlertConfig(cfg *config.Config) (telegram.Config, bool, error) {
	if !cfg.Logging.Alert.Enabled {
		return telegram.Config{}, false, nil
	}
	sc, err := mapSenderConfig(cfg)
	if err != nil {
		return telegram.Config{}, false, err
	}
	sc.ChatID = strings.TrimSpace(cfg.Logging.Alert.ChatID)
	sc.ParseMode = telegram.ModeNone
	sc.DisablePreview = true
	return sc, true, nil
}

// mapNotifierConfig keeps an explicit "0s" (no pacing); only an omitted
// send_interval falls back to the default.
func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	raw := strings.TrimSpace(cfg.Notifier.SendInterval)
	if raw == "" {
		return notifier.Config{SendInterval: defaultSendInterval}, nil
	}
	interval, err := config.ParseDurationField("notifier.send_interval", raw)
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{SendInterval: interval}, nil
}

func mapFormatOptions(cfg *config.Config) (format.Options, error) {
	loc := time.UTC
	if tz := strings.TrimSpace(cfg.Notifier.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return format.Options{}, fmt.Errorf("notifier.timezone: invalid %q: %w", tz, err)
		}
		loc = l
	}
	return format.Options{Location: loc, EscapeMarkdown: cfg.Notifier.EscapeMarkdown}, nil
}
