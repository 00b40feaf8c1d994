package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	logx "wcnotify/pkg/logx"
)

const (
	DefaultAPIURL  = "https://api.telegram.org"
	DefaultTimeout = 10 * time.Second

	ModeMarkdown = "Markdown"
	ModeNone     = "none"
)

type Config struct {
	Token     string
	ChatID    string
	APIURL    string        // default DefaultAPIURL
	Driver    string        // "form" (default) | "telebot"
	Timeout   time.Duration // default 10s
	ParseMode string        // "Markdown" (default) | "none"
	// DisablePreview disables link previews; callers default it to true.
	DisablePreview bool
}

// DeliveryError describes a failed send.
type DeliveryError struct {
	StatusCode  int    // HTTP status, 0 when the transport failed
	Description string // API-reported description, if any
	Err         error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.Description != "" && e.StatusCode != 0:
		return fmt.Sprintf("telegram sendMessage failed: %s (http=%d)", e.Description, e.StatusCode)
	case e.Description != "":
		return "telegram sendMessage failed: " + e.Description
	case e.StatusCode != 0:
		return fmt.Sprintf("telegram sendMessage failed: http=%d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("telegram sendMessage failed: %v", e.Err)
	}
}

func (e *DeliveryError) Unwrap() error { return e.Err }

type driver interface {
	deliver(ctx context.Context, chatID, text string) error
	getMe(ctx context.Context) (string, error)
}

// Sender sends messages to one chat.
type Sender struct {
	log    logx.Logger
	cfg    Config
	driver driver
}

func New(cfg Config, hc *http.Client, log logx.Logger) (*Sender, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ParseMode == "" {
		cfg.ParseMode = ModeMarkdown
	}
	if hc == nil {
		hc = &http.Client{}
	}
	c := *hc
	c.Timeout = cfg.Timeout

	s := &Sender{cfg: cfg, log: log.With(logx.String("comp", "telegram"))}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "form":
		s.cfg.Driver = "form"
		s.driver = &formDriver{cfg: s.cfg, http: &c}
	case "telebot":
		s.cfg.Driver = "telebot"
		d, err := newTelebotDriver(s.cfg, &c)
		if err != nil {
			return nil, err
		}
		s.driver = d
	default:
		return nil, errors.New("unknown telegram driver: " + cfg.Driver)
	}
	return s, nil
}

// Send delivers text and reports whether Telegram accepted it.
// Failures are logged.
func (s *Sender) Send(ctx context.Context, text string) bool {
	if err := s.Deliver(ctx, text); err != nil {
		var de *DeliveryError
		fields := []logx.Field{logx.String("driver", s.cfg.Driver), logx.Err(err)}
		if errors.As(err, &de) {
			fields = append(fields, logx.Int("http_status", de.StatusCode))
			if de.Description != "" {
				fields = append(fields, logx.String("description", de.Description))
			}
		}
		s.log.Error("message delivery failed", fields...)
		if de != nil && s.cfg.ParseMode == ModeMarkdown && strings.Contains(strings.ToLower(de.Description), "can't parse entities") {
			s.log.Warn("telegram rejected the Markdown; order values with _ * ` or [ need notifier.escape_markdown: true")
		}
		return false
	}
	return true
}

// Deliver performs one send attempt.
func (s *Sender) Deliver(ctx context.Context, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	if err := s.driver.deliver(ctx, s.cfg.ChatID, text); err != nil {
		return s.redact(err)
	}
	s.log.Debug("message delivered", logx.Duration("took", time.Since(start)))
	return nil
}

// Verify checks the bot token with getMe and returns the bot username.
func (s *Sender) Verify(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	name, err := s.driver.getMe(ctx)
	if err != nil {
		return "", s.redact(err)
	}
	return name, nil
}

// redact strips the bot token from error texts (it is part of every API URL).
func (s *Sender) redact(err error) error {
	if err == nil || !strings.Contains(err.Error(), s.cfg.Token) {
		return err
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		cp := *de
		cp.Err = redactedError{err: de.Err, token: s.cfg.Token}
		cp.Description = strings.ReplaceAll(cp.Description, s.cfg.Token, "<redacted>")
		return &cp
	}
	return redactedError{err: err, token: s.cfg.Token}
}

type redactedError struct {
	err   error
	token string
}

func (e redactedError) Error() string {
	if e.err == nil {
		return "<nil>"
	}
	return strings.ReplaceAll(e.err.Error(), e.token, "<redacted>")
}

func (e redactedError) Unwrap() error { return e.err }
