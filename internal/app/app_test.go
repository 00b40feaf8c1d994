package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"wcnotify/internal/config"
	"wcnotify/internal/telegram"
	"wcnotify/internal/woo"
)

// fakeAPIs serves both the WooCommerce and the Telegram endpoints.
type fakeAPIs struct {
	mu       sync.Mutex
	orders   string
	messages []string
	chats    []string
	srv      *httptest.Server
}

func newFakeAPIs(t *testing.T, orders string) *fakeAPIs {
	t.Helper()
	f := &fakeAPIs{orders: orders}
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wc/v3/orders", func(w http.ResponseWriter, r *http.Request) {
		if u, p, ok := r.BasicAuth(); !ok || u != "ck_test" || p != "cs_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		body := f.orders
		f.mu.Unlock()
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			_ = r.ParseForm()
			f.mu.Lock()
			f.messages = append(f.messages, r.PostForm.Get("text"))
			f.chats = append(f.chats, r.PostForm.Get("chat_id"))
			f.mu.Unlock()
			_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1}}`)
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"username":"orders_bot"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPIs) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func testConfig(t *testing.T, f *fakeAPIs) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Source.SiteURL = f.srv.URL
	cfg.Source.Username = "ck_test"
	cfg.Source.Password = "cs_test"
	cfg.Telegram.BotToken = "123:abc"
	cfg.Telegram.ChatID = "42"
	cfg.Telegram.APIURL = f.srv.URL
	cfg.Store.Path = filepath.Join(dir, "orders_log.txt")
	cfg.Logging.File.Path = filepath.Join(dir, "notifier.log")
	cfg.Notifier.SendInterval = "0s"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	logs, log := NewLogging(cfg)
	a, err := New(cfg, logs, log, WithHTTPClient(&http.Client{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

const twoOrders = `[
	{"id":502,"status":"on-hold","total":"10.00","currency":"EUR","billing":{"first_name":"Max"}},
	{"id":501,"status":"processing","total":"45.00","currency":"USD",
	 "billing":{"first_name":"Jane","last_name":"Doe","email":"j@x.com"},
	 "line_items":[{"name":"Widget","quantity":2}]}
]`

func TestRunOnceEndToEnd(t *testing.T) {
	f := newFakeAPIs(t, twoOrders)
	cfg := testConfig(t, f)
	a := newTestApp(t, cfg)

	res, err := a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Sent != 2 {
		t.Fatalf("sent = %d, want 2", res.Sent)
	}
	msgs := f.sent()
	if !strings.Contains(msgs[0], "#502") || !strings.Contains(msgs[1], "Widget (Qty: 2)") {
		t.Fatalf("unexpected messages / order: %q", msgs)
	}

	res, err = a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if res.Sent != 0 || res.Skipped != 2 || len(f.sent()) != 2 {
		t.Fatalf("second run = %+v, total sends %d", res, len(f.sent()))
	}

	b, err := os.ReadFile(cfg.Store.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "502\n501\n" {
		t.Fatalf("record file = %q", b)
	}
	logb, err := os.ReadFile(cfg.Logging.File.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(logb), "order notified") {
		t.Fatalf("operational log missing entries:\n%s", logb)
	}
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	f := newFakeAPIs(t, "[]")
	cfg := testConfig(t, f)
	cfg.Telegram.ChatID = ""
	cfg.Source.Password = "  "

	_, err := New(cfg, nil, logxNop())
	var me *config.MissingError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want *config.MissingError", err)
	}
	if len(f.sent()) != 0 {
		t.Fatal("no network call expected")
	}
}

func TestCheck(t *testing.T) {
	f := newFakeAPIs(t, twoOrders)
	a := newTestApp(t, testConfig(t, f))

	rep, err := a.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if rep.BotUsername != "orders_bot" || rep.Orders != 2 {
		t.Fatalf("report = %+v", rep)
	}
	if len(f.sent()) != 0 {
		t.Fatal("Check must not send")
	}
}

func TestCheckReportsFetchError(t *testing.T) {
	f := newFakeAPIs(t, "[]")
	cfg := testConfig(t, f)
	cfg.Source.Password = "wrong"
	a := newTestApp(t, cfg)

	_, err := a.Check(context.Background())
	var fe *woo.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 FetchError", err)
	}
}

func TestAlertSinkForwardsErrors(t *testing.T) {
	f := newFakeAPIs(t, twoOrders)
	cfg := testConfig(t, f)
	cfg.Logging.Alert.Enabled = true
	cfg.Logging.Alert.ChatID = "-100999"
	cfg.Store.Path = t.TempDir() // a directory: every append fails
	a := newTestApp(t, cfg)

	res, err := a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.RecordFailures != 2 {
		t.Fatalf("record failures = %d, want 2", res.RecordFailures)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		var alerts int
		for _, c := range f.chats {
			if c == "-100999" {
				alerts++
			}
		}
		f.mu.Unlock()
		if alerts > 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("no alert delivered to the alert chat")
}

func TestMapSenderConfigDefaults(t *testing.T) {
	f := newFakeAPIs(t, "[]")
	cfg := testConfig(t, f)

	sc, err := mapSenderConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !sc.DisablePreview || sc.Timeout != telegram.DefaultTimeout {
		t.Fatalf("sender config = %+v", sc)
	}

	off := false
	cfg.Telegram.DisablePreview = &off
	cfg.Telegram.Timeout = "3s"
	sc, err = mapSenderConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if sc.DisablePreview || sc.Timeout != 3*time.Second {
		t.Fatalf("sender config = %+v", sc)
	}

	nc, err := mapNotifierConfig(config.Default())
	if err != nil || nc.SendInterval != time.Second {
		t.Fatalf("notifier config = %+v, %v", nc, err)
	}
	cfg.Notifier.SendInterval = "0s"
	if nc, err = mapNotifierConfig(cfg); err != nil || nc.SendInterval != 0 {
		t.Fatalf("explicit 0s = %+v, %v", nc, err)
	}
}

func TestWatchRunsOnStartAndStops(t *testing.T) {
	f := newFakeAPIs(t, twoOrders)
	cfg := testConfig(t, f)
	cfg.Watch.Schedule = "1h"
	a := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx, nil) }()

	deadline := time.Now().Add(3 * time.Second)
	for len(f.sent()) < 2 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if len(f.sent()) != 2 {
		t.Fatalf("sent = %d, want 2", len(f.sent()))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop")
	}
}

func TestWatchAppliesConfigReload(t *testing.T) {
	f := newFakeAPIs(t, "[]")
	cfg := testConfig(t, f)
	dir := t.TempDir()
	path := filepath.Join(dir, "wcnotify.json")
	write := func(chatID string) {
		t.Helper()
		body := `{
  "source": {"site_url": "` + f.srv.URL + `", "username": "ck_test", "password": "cs_test"},
  "telegram": {"bot_token": "123:abc", "chat_id": "` + chatID + `", "api_url": "` + f.srv.URL + `"},
  "store": {"path": "` + filepath.ToSlash(cfg.Store.Path) + `"},
  "notifier": {"send_interval": "0s"},
  "logging": {"level": "DEBUG", "file": {"enabled": true, "path": "` + filepath.ToSlash(cfg.Logging.File.Path) + `"}},
  "watch": {"schedule": "@every 1s", "run_on_start": false}
}`
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("42")

	cfgm := config.NewManager(path, true)
	loaded, err := cfgm.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a := newTestApp(t, loaded)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx, cfgm) }()

	// Give the watcher a moment to start, then change the target chat and add an order.
	time.Sleep(300 * time.Millisecond)
	write("77")
	deadline := time.Now().Add(5 * time.Second)
	for a.Config().Telegram.ChatID != "77" && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if got := a.Config().Telegram.ChatID; got != "77" {
		t.Fatalf("chat id after reload = %q", got)
	}

	f.mu.Lock()
	f.orders = `[{"id":900,"status":"pending","total":"1"}]`
	f.mu.Unlock()
	for len(f.sent()) == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	f.mu.Lock()
	chats := append([]string(nil), f.chats...)
	f.mu.Unlock()
	if len(chats) == 0 || chats[0] != "77" {
		t.Fatalf("chats = %v, want first send to 77", chats)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop")
	}
}
