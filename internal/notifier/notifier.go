package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"wcnotify/internal/store"
	logx "wcnotify/pkg/logx"
)

var ErrNotConfigured = errors.New("notifier not configured")

type Notifier struct {
	log     logx.Logger
	source  OrderSource
	format  Formatter
	sender  Sender
	store   store.Store
	limiter *rate.Limiter
}

func New(cfg Config, source OrderSource, format Formatter, sender Sender, st store.Store, log logx.Logger) *Notifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	limit := rate.Inf
	if cfg.SendInterval > 0 {
		limit = rate.Every(cfg.SendInterval)
	}
	return &Notifier{
		log:     log.With(logx.String("comp", "notifier")),
		source:  source,
		format:  format,
		sender:  sender,
		store:   st,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Run performs one pass. The only errors are a missing collaborator and ctx
// cancellation; per-order failures are reflected in the Result.
func (n *Notifier) Run(ctx context.Context) (res Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	res = Result{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := n.log.With(logx.String("run_id", res.RunID))

	if n.source == nil || n.format == nil || n.sender == nil || n.store == nil {
		log.Error("run aborted", logx.Err(ErrNotConfigured))
		return res, ErrNotConfigured
	}

	defer func() { res.Took = time.Since(res.StartedAt) }()

	orders := n.source.FetchCandidateOrders(ctx)
	res.Fetched = len(orders)
	if len(orders) == 0 {
		log.Info("no new orders")
		return res, nil
	}
	log.Debug("candidate orders fetched", logx.Int("count", len(orders)))

	for _, o := range orders {
		if err := ctx.Err(); err != nil {
			log.Warn("run interrupted", logx.Err(err))
			return res, err
		}
		olog := log.With(logx.Int64("order_id", o.ID))

		if o.ID <= 0 {
			olog.Warn("order without usable id skipped")
			res.Skipped++
			continue
		}

		seen, err := n.store.Contains(ctx, o.ID)
		if err != nil {
			olog.Warn("record store unreadable; treating order as unseen", logx.Err(err))
		}
		if seen {
			olog.Debug("order already notified")
			res.Skipped++
			continue
		}

		text := n.format.Format(o)

		if err := n.limiter.Wait(ctx); err != nil {
			log.Warn("run interrupted", logx.Err(err))
			return res, err
		}
		if !n.sender.Send(ctx, text) {
			olog.Error("order notification failed; will retry next run")
			res.Failed++
			continue
		}
		res.Sent++

		if err := n.store.Record(ctx, o.ID); err != nil {
			olog.Error("order sent but not recorded", logx.Err(err))
			res.RecordFailures++
			continue
		}
		olog.Info("order notified")
	}

	log.Info("run completed",
		logx.Int("fetched", res.Fetched),
		logx.Int("sent", res.Sent),
		logx.Int("skipped", res.Skipped),
		logx.Int("failed", res.Failed),
		logx.Int("record_failures", res.RecordFailures),
	)
	return res, nil
}
