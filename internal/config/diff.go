package config

import (
	"reflect"
	"sort"
	"strings"

	logx "wcnotify/pkg/logx"
)

// SummarizeConfigChange returns (1) a compact list of changed sections and
// (2) safe structured attrs for logging (never includes secrets like tokens or passwords).
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 16)

	// Source (never log password)
	if strings.TrimSpace(oldCfg.Source.SiteURL) != strings.TrimSpace(newCfg.Source.SiteURL) ||
		oldCfg.Source.Username != newCfg.Source.Username ||
		oldCfg.Source.Password != newCfg.Source.Password ||
		strings.TrimSpace(oldCfg.Source.Timeout) != strings.TrimSpace(newCfg.Source.Timeout) ||
		!reflect.DeepEqual(oldCfg.Source.Statuses, newCfg.Source.Statuses) ||
		oldCfg.Source.PerPage != newCfg.Source.PerPage {
		changed = append(changed, "source")
		attrs = append(attrs,
			logx.String("source.site_url", strings.TrimSpace(newCfg.Source.SiteURL)),
			logx.String("source.timeout", strings.TrimSpace(newCfg.Source.Timeout)),
			logx.Int("source.per_page", newCfg.Source.PerPage),
			logx.Bool("source.credentials_changed", oldCfg.Source.Username != newCfg.Source.Username ||
				oldCfg.Source.Password != newCfg.Source.Password),
		)
	}

	// Telegram (never log token)
	if oldCfg.Telegram.BotToken != newCfg.Telegram.BotToken ||
		strings.TrimSpace(oldCfg.Telegram.ChatID) != strings.TrimSpace(newCfg.Telegram.ChatID) ||
		strings.TrimSpace(oldCfg.Telegram.APIURL) != strings.TrimSpace(newCfg.Telegram.APIURL) ||
		oldCfg.Telegram.Driver != newCfg.Telegram.Driver ||
		strings.TrimSpace(oldCfg.Telegram.Timeout) != strings.TrimSpace(newCfg.Telegram.Timeout) ||
		oldCfg.Telegram.ParseMode != newCfg.Telegram.ParseMode ||
		!reflect.DeepEqual(oldCfg.Telegram.DisablePreview, newCfg.Telegram.DisablePreview) {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.String("telegram.driver", newCfg.Telegram.Driver),
			logx.String("telegram.timeout", strings.TrimSpace(newCfg.Telegram.Timeout)),
			logx.Bool("telegram.token_changed", oldCfg.Telegram.BotToken != newCfg.Telegram.BotToken),
		)
	}

	if oldCfg.Store != newCfg.Store {
		changed = append(changed, "store")
		attrs = append(attrs,
			logx.String("store.driver", newCfg.Store.Driver),
			logx.String("store.path", strings.TrimSpace(newCfg.Store.Path)),
		)
	}

	if oldCfg.Notifier != newCfg.Notifier {
		changed = append(changed, "notifier")
		attrs = append(attrs,
			logx.String("notifier.send_interval", strings.TrimSpace(newCfg.Notifier.SendInterval)),
			logx.String("notifier.timezone", strings.TrimSpace(newCfg.Notifier.Timezone)),
			logx.Bool("notifier.escape_markdown", newCfg.Notifier.EscapeMarkdown),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.alert_enabled", newCfg.Logging.Alert.Enabled),
		)
	}

	if strings.TrimSpace(oldCfg.Watch.Schedule) != strings.TrimSpace(newCfg.Watch.Schedule) ||
		strings.TrimSpace(oldCfg.Watch.Timezone) != strings.TrimSpace(newCfg.Watch.Timezone) ||
		!reflect.DeepEqual(oldCfg.Watch.RunOnStart, newCfg.Watch.RunOnStart) {
		changed = append(changed, "watch")
		attrs = append(attrs,
			logx.String("watch.schedule", strings.TrimSpace(newCfg.Watch.Schedule)),
			logx.String("watch.timezone", strings.TrimSpace(newCfg.Watch.Timezone)),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
