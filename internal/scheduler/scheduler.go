package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "wcnotify/pkg/logx"
)

// Config controls the scheduler service.
type Config struct {
	Timezone string // IANA TZ, e.g. "Asia/Jakarta"; empty means local time
}

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

type entry struct {
	name    string
	spec    string
	timeout time.Duration
	id      cron.EntryID
}

type Service struct {
	mu sync.Mutex

	log    logx.Logger
	cfg    Config
	loc    *time.Location
	parser cron.Parser
	c      *cron.Cron
	ctx    context.Context

	entries map[string]entry
}

// parser accepts both 5-field and 6-field (with seconds) cron specs plus descriptors.
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule reports whether raw can be registered.
func ValidateSchedule(raw string) error {
	ps, err := ParseSchedule(raw)
	if err != nil {
		return err
	}
	if _, err := parser.Parse(ps.CronSpec()); err != nil {
		return fmt.Errorf("invalid cron %q: %w", ps.Cron, err)
	}
	return nil
}

func New(cfg Config, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:     cfg,
		log:     log,
		parser:  parser,
		entries: map[string]entry{},
	}
}

// Start starts cron triggering. Jobs receive contexts derived from ctx.
func (s *Service) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}

	loc := time.Local
	if tz := strings.TrimSpace(s.cfg.Timezone); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			s.log.Warn("invalid timezone; using local", logx.String("tz", tz), logx.Err(err))
		}
	}
	s.loc = loc
	s.ctx = ctx
	cl := cronLogger{log: s.log}
	s.c = cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.c.Start()
	s.log.Info("scheduler started", logx.String("tz", loc.String()))
}

// Stop stops cron triggering and waits for running jobs until ctx is done.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.entries = map[string]entry{}
	s.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("scheduler stopped")
}

// Schedule registers job under name, replacing a previous registration with the same name.
// A timeout <= 0 means no per-run deadline.
func (s *Service) Schedule(name, schedule string, timeout time.Duration, job Job) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name required")
	}
	if job == nil {
		return errors.New("job required")
	}
	ps, err := ParseSchedule(schedule)
	if err != nil {
		return err
	}
	spec := ps.CronSpec()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return errors.New("scheduler not started")
	}
	if prev, ok := s.entries[name]; ok {
		s.c.Remove(prev.id)
		delete(s.entries, name)
	}

	ctx := s.ctx
	log := s.log.With(logx.String("job", name))
	id, err := s.c.AddFunc(spec, func() {
		runCtx := ctx
		var cancel context.CancelFunc
		if timeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		start := time.Now()
		if err := job(runCtx); err != nil {
			log.Error("scheduled run failed", logx.Err(err), logx.Duration("took", time.Since(start)))
			return
		}
		log.Debug("scheduled run finished", logx.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	s.entries[name] = entry{name: name, spec: spec, timeout: timeout, id: id}

	fields := []logx.Field{logx.String("name", name), logx.String("spec", spec)}
	if next := s.c.Entry(id).Next; !next.IsZero() {
		fields = append(fields, logx.Time("next", next))
	} else if sch, err := s.parser.Parse(spec); err == nil {
		fields = append(fields, logx.Time("next", sch.Next(time.Now().In(s.loc))))
	}
	s.log.Info("schedule registered", fields...)
	return nil
}

// Next returns the next trigger time for name (zero if unknown).
func (s *Service) Next(name string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok || s.c == nil {
		return time.Time{}
	}
	return s.c.Entry(e.id).Next
}

// cronLogger adapts logx to cron.Logger.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logx.Err(err))...)
}

func kvFields(kv []interface{}) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			k = fmt.Sprint(kv[i])
		}
		out = append(out, logx.Any(k, kv[i+1]))
	}
	return out
}
