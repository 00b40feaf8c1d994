package notifier

import (
	"context"
	"time"

	"wcnotify/internal/woo"
)

// Config controls a notification run.
type Config struct {
	// SendInterval is the minimum pause between two sends; 0 disables pacing.
	SendInterval time.Duration
}

// OrderSource returns candidate orders, newest first. It never fails;
// problems degrade to an empty page.
type OrderSource interface {
	FetchCandidateOrders(ctx context.Context) []woo.Order
}

type Formatter interface {
	Format(o woo.Order) string
}

// Sender reports whether the chat endpoint confirmed delivery.
type Sender interface {
	Send(ctx context.Context, text string) bool
}

// Result summarizes one run.
type Result struct {
	RunID          string
	StartedAt      time.Time
	Took           time.Duration
	Fetched        int
	Skipped        int
	Sent           int
	Failed         int
	RecordFailures int
}
