package woo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	logx "wcnotify/pkg/logx"
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultPerPage = 10

	ordersPath   = "/wp-json/wc/v3/orders"
	maxBodyBytes = 8 << 20
)

// DefaultStatuses are the order states worth announcing.
var DefaultStatuses = []string{"pending", "processing", "on-hold"}

// Config configures the order source client.
type Config struct {
	SiteURL   string
	Username  string
	Password  string
	Timeout   time.Duration // default 30s
	Statuses  []string      // default DefaultStatuses
	PerPage   int           // default 10
	UserAgent string
}

// FetchError describes why an order page could not be read.
type FetchError struct {
	Op         string // "request", "status", "decode"
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch orders: %s: http %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch orders: %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Client struct {
	log  logx.Logger
	cfg  Config
	http *http.Client
	url  string
}

func New(cfg Config, hc *http.Client, log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if len(cfg.Statuses) == 0 {
		cfg.Statuses = DefaultStatuses
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	if hc == nil {
		hc = &http.Client{}
	}
	c := *hc
	c.Timeout = cfg.Timeout

	return &Client{
		log:  log.With(logx.String("comp", "woo")),
		cfg:  cfg,
		http: &c,
		url:  ordersURL(cfg),
	}
}

// URL returns the request URL used by Fetch.
func (c *Client) URL() string { return c.url }

func ordersURL(cfg Config) string {
	statuses := make([]string, 0, len(cfg.Statuses))
	for _, st := range cfg.Statuses {
		statuses = append(statuses, url.QueryEscape(strings.TrimSpace(st)))
	}
	q := "status=" + strings.Join(statuses, ",") +
		"&per_page=" + strconv.Itoa(cfg.PerPage) +
		"&orderby=date&order=desc"
	return strings.TrimRight(strings.TrimSpace(cfg.SiteURL), "/") + ordersPath + "?" + q
}

// FetchCandidateOrders returns the newest page of candidate orders.
// Every failure is logged and reported as an empty page.
func (c *Client) FetchCandidateOrders(ctx context.Context) []Order {
	orders, err := c.Fetch(ctx)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) && fe.StatusCode != 0 {
			c.log.Error("order fetch failed", logx.Int("status", fe.StatusCode), logx.Err(fe.Err))
		} else {
			c.log.Error("order fetch failed", logx.Err(err))
		}
		return []Order{}
	}
	return orders
}

// Fetch performs one authenticated request and decodes the order array.
func (c *Client) Fetch(ctx context.Context) ([]Order, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FetchError{Op: "request", Err: err}
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Op: "read", StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Op: "status", StatusCode: resp.StatusCode, Err: errors.New(snippet(body))}
	}

	var orders []Order
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, &FetchError{Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}
	if orders == nil {
		// JSON null
		return nil, &FetchError{Op: "decode", StatusCode: resp.StatusCode, Err: errors.New("response is not an order array")}
	}
	c.log.Debug("orders fetched", logx.Int("count", len(orders)), logx.Duration("took", time.Since(start)))
	return orders, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "empty body"
	}
	if r := []rune(s); len(r) > 200 {
		return string(r[:200]) + "…"
	}
	return s
}
