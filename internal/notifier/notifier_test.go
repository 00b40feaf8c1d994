package notifier

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"wcnotify/internal/format"
	"wcnotify/internal/store"
	"wcnotify/internal/woo"
	logx "wcnotify/pkg/logx"
)

type fakeSource struct {
	orders []woo.Order
	calls  int
}

func (f *fakeSource) FetchCandidateOrders(context.Context) []woo.Order {
	f.calls++
	return append([]woo.Order(nil), f.orders...)
}

type fakeSender struct {
	mu     sync.Mutex
	fail   map[string]bool // text substring -> fail
	sent   []string
	at     []time.Time
	failed int
}

func (f *fakeSender) Send(_ context.Context, text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.at = append(f.at, time.Now())
	for sub := range f.fail {
		if strings.Contains(text, sub) {
			f.failed++
			return false
		}
	}
	f.sent = append(f.sent, text)
	return true
}

type brokenStore struct {
	readErr, writeErr error
	recorded          []int64
}

func (b *brokenStore) Contains(context.Context, int64) (bool, error) {
	return false, b.readErr
}

func (b *brokenStore) Record(_ context.Context, id int64) error {
	if b.writeErr != nil {
		return b.writeErr
	}
	b.recorded = append(b.recorded, id)
	return nil
}

func (b *brokenStore) Close() error { return nil }

func order501() woo.Order {
	return woo.Order{
		ID:        501,
		Status:    "processing",
		Total:     "45.00",
		Currency:  "USD",
		Billing:   woo.Billing{FirstName: "Jane", LastName: "Doe", Email: "j@x.com"},
		LineItems: []woo.LineItem{{Name: "Widget", Quantity: "2"}},
	}
}

func openStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.Open(store.Config{Path: filepath.Join(t.TempDir(), "orders_log.txt")}, logx.Nop())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func mustContain(t *testing.T, st store.Store, id int64, want bool) {
	t.Helper()
	got, err := st.Contains(context.Background(), id)
	if err != nil {
		t.Fatalf("Contains(%d): %v", id, err)
	}
	if got != want {
		t.Fatalf("Contains(%d) = %v, want %v", id, got, want)
	}
}

func TestRunScenarioRecordsDeliveredOrder(t *testing.T) {
	t.Parallel()
	src := &fakeSource{orders: []woo.Order{order501()}}
	snd := &fakeSender{}
	st := openStore(t)
	n := New(Config{}, src, format.New(format.Options{}), snd, st, logx.Nop())

	res, err := n.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Sent != 1 || len(snd.sent) != 1 {
		t.Fatalf("sent = %d (%d calls), want 1", res.Sent, len(snd.sent))
	}
	for _, want := range []string{"#501", "Jane Doe", "45.00 USD", "Widget (Qty: 2)"} {
		if !strings.Contains(snd.sent[0], want) {
			t.Fatalf("message missing %q:\n%s", want, snd.sent[0])
		}
	}
	mustContain(t, st, 501, true)
	if res.RunID == "" {
		t.Fatal("missing run id")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()
	o2 := order501()
	o2.ID = 502
	src := &fakeSource{orders: []woo.Order{o2, order501()}}
	snd := &fakeSender{}
	st := openStore(t)
	n := New(Config{}, src, format.New(format.Options{}), snd, st, logx.Nop())

	first, err := n.Run(context.Background())
	if err != nil || first.Sent != 2 {
		t.Fatalf("first run = %+v, %v", first, err)
	}
	second, err := n.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Sent != 0 || second.Skipped != 2 {
		t.Fatalf("second run = %+v, want 0 sent / 2 skipped", second)
	}
	if len(snd.sent) != 2 {
		t.Fatalf("total sends = %d, want 2", len(snd.sent))
	}
	if first.RunID == second.RunID {
		t.Fatalf("runs share id %q", first.RunID)
	}
}

func TestRunFailedSendIsNotRecordedAndDoesNotAbort(t *testing.T) {
	t.Parallel()
	first := order501()
	first.ID = 601
	first.Billing.FirstName = "Failing"
	second := order501()
	second.ID = 602

	var logBuf bytes.Buffer
	src := &fakeSource{orders: []woo.Order{first, second}}
	snd := &fakeSender{fail: map[string]bool{"Failing": true}}
	st := openStore(t)
	n := New(Config{}, src, format.New(format.Options{}), snd, st, logx.NewWriter(&logBuf, "DEBUG"))

	res, err := n.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failed != 1 || res.Sent != 1 {
		t.Fatalf("result = %+v, want 1 failed / 1 sent", res)
	}
	if snd.failed != 1 || len(snd.sent) != 1 {
		t.Fatalf("sender saw %d failures / %d sends", snd.failed, len(snd.sent))
	}
	mustContain(t, st, 601, false)
	mustContain(t, st, 602, true)

	logs := logBuf.String()
	if !strings.Contains(logs, "order notification failed") || !strings.Contains(logs, `"order_id":601`) {
		t.Fatalf("failure not logged:\n%s", logs)
	}
	if !strings.Contains(logs, "order notified") || !strings.Contains(logs, `"order_id":602`) {
		t.Fatalf("success not logged:\n%s", logs)
	}
}

func TestRunNoOrders(t *testing.T) {
	t.Parallel()
	var logBuf bytes.Buffer
	snd := &fakeSender{}
	n := New(Config{}, &fakeSource{}, format.New(format.Options{}), snd, openStore(t), logx.NewWriter(&logBuf, "INFO"))

	res, err := n.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Fetched != 0 || len(snd.sent) != 0 {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(logBuf.String(), "no new orders") {
		t.Fatalf("missing log line:\n%s", logBuf.String())
	}
}

func TestRunUnreadableStoreTreatsOrderAsUnseen(t *testing.T) {
	t.Parallel()
	bs := &brokenStore{readErr: store.ErrUnavailable}
	snd := &fakeSender{}
	n := New(Config{}, &fakeSource{orders: []woo.Order{order501()}}, format.New(format.Options{}), snd, bs, logx.Nop())

	res, err := n.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Sent != 1 || len(bs.recorded) != 1 {
		t.Fatalf("result = %+v recorded = %v", res, bs.recorded)
	}
}

func TestRunRecordFailureIsCounted(t *testing.T) {
	t.Parallel()
	var logBuf bytes.Buffer
	bs := &brokenStore{writeErr: errors.New("disk full")}
	snd := &fakeSender{}
	n := New(Config{}, &fakeSource{orders: []woo.Order{order501()}}, format.New(format.Options{}), snd, bs, logx.NewWriter(&logBuf, "INFO"))

	res, err := n.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Sent != 1 || res.RecordFailures != 1 {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(logBuf.String(), "order sent but not recorded") {
		t.Fatalf("missing log line:\n%s", logBuf.String())
	}
}

func TestRunSkipsOrdersWithoutID(t *testing.T) {
	t.Parallel()
	snd := &fakeSender{}
	n := New(Config{}, &fakeSource{orders: []woo.Order{{ID: 0}, {ID: -3}}}, format.New(format.Options{}), snd, openStore(t), logx.Nop())

	res, err := n.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Skipped != 2 || len(snd.sent) != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestRunPacesSends(t *testing.T) {
	t.Parallel()
	orders := []woo.Order{order501(), order501(), order501()}
	orders[1].ID, orders[2].ID = 502, 503
	snd := &fakeSender{}
	interval := 60 * time.Millisecond
	n := New(Config{SendInterval: interval}, &fakeSource{orders: orders}, format.New(format.Options{}), snd, openStore(t), logx.Nop())

	if _, err := n.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(snd.at) != 3 {
		t.Fatalf("sends = %d, want 3", len(snd.at))
	}
	for i := 1; i < len(snd.at); i++ {
		// rate.Limiter may release a little early; allow some slack.
		if gap := snd.at[i].Sub(snd.at[i-1]); gap < interval-10*time.Millisecond {
			t.Fatalf("gap %d = %v, want >= %v", i, gap, interval)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snd := &fakeSender{}
	n := New(Config{}, &fakeSource{orders: []woo.Order{order501()}}, format.New(format.Options{}), snd, openStore(t), logx.Nop())

	if _, err := n.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(snd.sent) != 0 {
		t.Fatal("nothing should be sent after cancel")
	}
}

func TestRunRequiresCollaborators(t *testing.T) {
	t.Parallel()
	n := New(Config{}, nil, nil, nil, nil, logx.Nop())
	if _, err := n.Run(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
