package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"wcnotify/internal/config"
	"wcnotify/internal/format"
	"wcnotify/internal/notifier"
	"wcnotify/internal/store"
	"wcnotify/internal/telegram"
	"wcnotify/internal/woo"
	logx "wcnotify/pkg/logx"
)

type App struct {
	log  logx.Logger
	logs *logx.Service
	http *http.Client

	// runMu serializes runs and pipeline swaps.
	runMu sync.Mutex

	mu  sync.RWMutex
	cfg *config.Config
	p   *pipeline
}

// pipeline is the set of components one run uses.
type pipeline struct {
	store  store.Store
	source *woo.Client
	sender *telegram.Sender
	format *format.Formatter
	notif  *notifier.Notifier
}

type Option func(*App)

// WithHTTPClient sets the base http client for both APIs (timeouts are applied per API).
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) { a.http = hc }
}

// NewLogging creates the logging service for cfg. It only reads the logging
// section, so it also works for an incomplete config whose error must be logged.
func NewLogging(cfg *config.Config) (*logx.Service, logx.Logger) {
	if cfg == nil {
		cfg = config.Default()
	}
	return logx.New(mapLogConfig(cfg))
}

// New validates cfg and builds every component. Validation failures are
// returned before anything touches the network.
func New(cfg *config.Config, logs *logx.Service, log logx.Logger, opts ...Option) (*App, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &App{log: log.With(logx.String("comp", "app")), logs: logs}
	for _, o := range opts {
		o(a)
	}

	p, err := a.build(cfg)
	if err != nil {
		return nil, err
	}
	if err := a.applyAlerts(cfg); err != nil {
		_ = p.store.Close()
		return nil, err
	}
	a.cfg = cfg
	a.p = p
	return a, nil
}

func (a *App) build(cfg *config.Config) (*pipeline, error) {
	srcCfg, err := mapSourceConfig(cfg)
	if err != nil {
		return nil, err
	}
	sndCfg, err := mapSenderConfig(cfg)
	if err != nil {
		return nil, err
	}
	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		return nil, err
	}
	fopts, err := mapFormatOptions(cfg)
	if err != nil {
		return nil, err
	}

	sender, err := telegram.New(sndCfg, a.http, a.log)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(mapStoreConfig(cfg), a.log)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		store:  st,
		source: woo.New(srcCfg, a.http, a.log),
		sender: sender,
		format: format.New(fopts),
	}
	p.notif = notifier.New(ncfg, p.source, p.format, p.sender, p.store, a.log)
	return p, nil
}

func (a *App) applyAlerts(cfg *config.Config) error {
	if a.logs == nil {
		return nil
	}
	ac, ok, err := mapAlertConfig(cfg)
	if err != nil {
		return err
	}
	if !ok {
		a.logs.SetAlertSender(nil)
		return nil
	}
	s, err := telegram.New(ac, a.http, logx.Nop())
	if err != nil {
		return err
	}
	a.logs.SetAlertSender(s)
	return nil
}

func (a *App) current() (*config.Config, *pipeline) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg, a.p
}

// Config returns the configuration the app currently runs with.
func (a *App) Config() *config.Config {
	cfg, _ := a.current()
	return cfg
}

// RunOnce performs one notification run.
func (a *App) RunOnce(ctx context.Context) (notifier.Result, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	_, p := a.current()
	return p.notif.Run(ctx)
}

// tryRun is RunOnce for scheduled triggers: it skips instead of queueing
// when a run is already active.
func (a *App) tryRun(ctx context.Context) (notifier.Result, bool, error) {
	if !a.runMu.TryLock() {
		a.log.Warn("previous run still active; trigger skipped")
		return notifier.Result{}, false, nil
	}
	defer a.runMu.Unlock()
	_, p := a.current()
	res, err := p.notif.Run(ctx)
	return res, true, err
}

// CheckReport is the outcome of Check.
type CheckReport struct {
	BotUsername string
	OrdersURL   string
	Orders      int
}

// Check verifies the bot token and performs one strict fetch. Nothing is sent or recorded.
func (a *App) Check(ctx context.Context) (CheckReport, error) {
	_, p := a.current()
	rep := CheckReport{OrdersURL: p.source.URL()}

	name, err := p.sender.Verify(ctx)
	if err != nil {
		return rep, fmt.Errorf("telegram: %w", err)
	}
	rep.BotUsername = name

	orders, err := p.source.Fetch(ctx)
	if err != nil {
		return rep, fmt.Errorf("woocommerce: %w", err)
	}
	rep.Orders = len(orders)
	return rep, nil
}

// Close releases the record store and flushes the logging service. A nil or
// deadline-free ctx gets the logging flush timeout.
func (a *App) Close(ctx context.Context) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	var errs []error
	if _, p := a.current(); p != nil && p.store != nil {
		errs = append(errs, p.store.Close())
	}
	if a.logs != nil {
		// logx bounds the alert flush when ctx has no deadline.
		errs = append(errs, a.logs.Close(ctx))
	}
	return errors.Join(errs...)
}

// Formatter builds the message formatter for cfg without requiring credentials.
func Formatter(cfg *config.Config) (*format.Formatter, error) {
	opts, err := mapFormatOptions(cfg)
	if err != nil {
		return nil, err
	}
	return format.New(opts), nil
}
