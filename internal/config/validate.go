package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"wcnotify/internal/scheduler"
	logx "wcnotify/pkg/logx"
)

// MissingError reports required configuration keys that are empty.
// A run must abort before any network call when it is returned.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "configuration is incomplete: missing " + strings.Join(e.Keys, ", ")
}

// InvalidError reports configuration values that are present but unusable.
type InvalidError struct {
	Problems []string
}

func (e *InvalidError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Report json keys ("source.site_url") instead of Go field names.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate = v
	})
	return validate
}

// Validate checks cfg. Missing required keys win over other problems so the
// caller can report "incomplete" the same way regardless of what else is wrong.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &MissingError{Keys: []string{"source.site_url", "source.username", "source.password",
			"telegram.bot_token", "telegram.chat_id", "store.path"}}
	}

	var missing, invalid []string

	trimmed := *cfg
	trimRequired(&trimmed)
	if err := structValidator().Struct(&trimmed); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			key := keyPath(fe.Namespace())
			switch fe.Tag() {
			case "required", "required_if":
				missing = append(missing, key)
			default:
				invalid = append(invalid, describe(key, fe))
			}
		}
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}

	durations := []struct{ key, raw string }{
		{"source.timeout", cfg.Source.Timeout},
		{"telegram.timeout", cfg.Telegram.Timeout},
		{"store.lock_timeout", cfg.Store.LockTimeout},
		{"notifier.send_interval", cfg.Notifier.SendInterval},
	}
	for _, d := range durations {
		if _, err := ParseDurationField(d.key, d.raw); err != nil {
			invalid = append(invalid, err.Error())
		}
	}
	for _, tz := range []struct{ key, raw string }{
		{"notifier.timezone", cfg.Notifier.Timezone},
		{"watch.timezone", cfg.Watch.Timezone},
	} {
		if s := strings.TrimSpace(tz.raw); s != "" {
			if _, err := time.LoadLocation(s); err != nil {
				invalid = append(invalid, fmt.Sprintf("%s: invalid %q: %v", tz.key, s, err))
			}
		}
	}
	if !logx.ValidLevel(cfg.Logging.Level) {
		invalid = append(invalid, fmt.Sprintf("logging.level: unknown level %q", cfg.Logging.Level))
	}
	if !logx.ValidLevel(cfg.Logging.Alert.MinLevel) {
		invalid = append(invalid, fmt.Sprintf("logging.alert.min_level: unknown level %q", cfg.Logging.Alert.MinLevel))
	}
	if s := strings.TrimSpace(cfg.Watch.Schedule); s != "" {
		if err := scheduler.ValidateSchedule(s); err != nil {
			invalid = append(invalid, "watch.schedule: "+err.Error())
		}
	}

	if len(invalid) > 0 {
		return &InvalidError{Problems: invalid}
	}
	return nil
}

// trimRequired blanks whitespace-only values so "required" treats them as missing.
func trimRequired(c *Config) {
	c.Source.SiteURL = strings.TrimSpace(c.Source.SiteURL)
	c.Source.Username = strings.TrimSpace(c.Source.Username)
	c.Source.Password = strings.TrimSpace(c.Source.Password)
	c.Telegram.BotToken = strings.TrimSpace(c.Telegram.BotToken)
	c.Telegram.ChatID = strings.TrimSpace(c.Telegram.ChatID)
	c.Store.Path = strings.TrimSpace(c.Store.Path)
	c.Logging.Alert.ChatID = strings.TrimSpace(c.Logging.Alert.ChatID)
}

func keyPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(key string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "url":
		return key + ": must be an absolute URL"
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s]", key, fe.Param())
	case "gte":
		return fmt.Sprintf("%s: must be >= %s", key, fe.Param())
	case "lte":
		return fmt.Sprintf("%s: must be <= %s", key, fe.Param())
	default:
		return key + ": is invalid"
	}
}
