package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"wcnotify/internal/config"
	"wcnotify/internal/runtime/supervisor"
	"wcnotify/internal/scheduler"
	logx "wcnotify/pkg/logx"
)

const (
	DefaultSchedule = "1m"
	runJobName      = "orders"
	stopTimeout     = 10 * time.Second
)

func scheduleOf(cfg *config.Config) string {
	if s := strings.TrimSpace(cfg.Watch.Schedule); s != "" {
		return s
	}
	return DefaultSchedule
}

func runOnStart(cfg *config.Config) bool {
	return cfg.Watch.RunOnStart == nil || *cfg.Watch.RunOnStart
}

// Watch runs the notifier on the configured schedule until ctx is done.
// When cfgm is non-nil the config file is watched and valid changes are applied live.
func (a *App) Watch(ctx context.Context, cfgm *config.Manager) error {
	cfg, _ := a.current()
	sup := supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)

	sched := scheduler.New(scheduler.Config{Timezone: cfg.Watch.Timezone}, a.log.With(logx.String("comp", "scheduler")))
	sched.Start(sup.Context())

	schedule := scheduleOf(cfg)
	if err := sched.Schedule(runJobName, schedule, 0, a.scheduledRun); err != nil {
		sup.Cancel()
		sched.Stop(context.Background())
		return fmt.Errorf("watch.schedule: %w", err)
	}

	a.log.Info("watching for new orders",
		logx.String("schedule", schedule),
		logx.Time("next", sched.Next(runJobName)),
	)

	if runOnStart(cfg) {
		sup.Go0("run.initial", func(c context.Context) { _ = a.scheduledRun(c) })
	}

	if cfgm != nil {
		cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
		sub := cfgm.Subscribe(4)
		sup.Go0("config.reload", func(c context.Context) {
			defer cfgm.Unsubscribe(sub)
			for {
				select {
				case <-c.Done():
					return
				case newCfg, ok := <-sub:
					if !ok {
						return
					}
					// Coalesce bursts: keep only the latest config in the channel.
					for drained := false; !drained; {
						select {
						case newer := <-sub:
							if newer != nil {
								newCfg = newer
							}
						default:
							drained = true
						}
					}
					schedule = a.reload(newCfg, sched, schedule)
				}
			}
		})
		sup.Go("config.watch", cfgm.Watch)
	}

	sup.Go0("systemd.watchdog", func(c context.Context) { sdWatchdog(c, a.log) })
	sdNotify(a.log, daemon.SdNotifyReady)

	<-sup.Context().Done()

	reason := StopSignal
	if ctx.Err() == nil {
		reason = StopFatalError
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	sdNotify(a.log, daemon.SdNotifyStopping)

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	sched.Stop(stopCtx)
	return sup.Stop(stopCtx)
}

func (a *App) scheduledRun(ctx context.Context) error {
	res, ran, err := a.tryRun(ctx)
	if !ran {
		return nil
	}
	sdNotify(a.log, fmt.Sprintf("STATUS=last run %s: fetched=%d sent=%d failed=%d",
		res.StartedAt.Format(time.RFC3339), res.Fetched, res.Sent, res.Failed))
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// reload applies newCfg and returns the schedule in effect afterwards.
func (a *App) reload(newCfg *config.Config, sched *scheduler.Service, schedule string) string {
	oldCfg, _ := a.current()
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return schedule
	}
	changed := map[string]bool{}
	for _, s := range sections {
		changed[s] = true
	}

	if changed["logging"] && a.logs != nil {
		a.logs.Apply(mapLogConfig(newCfg))
	}
	if err := a.applyAlerts(newCfg); err != nil {
		a.log.Warn("invalid alert config; keeping previous", logx.Err(err))
	}
	if changed["watch"] && strings.TrimSpace(newCfg.Watch.Timezone) != strings.TrimSpace(oldCfg.Watch.Timezone) {
		a.log.Warn("watch.timezone changed; restart required for changes to take effect")
	}

	if changed["source"] || changed["telegram"] || changed["store"] || changed["notifier"] {
		p, err := a.build(newCfg)
		if err != nil {
			a.log.Warn("invalid config; keeping previous pipeline", logx.Err(err))
			return schedule
		}
		// Swap between runs.
		a.runMu.Lock()
		a.mu.Lock()
		old := a.p
		a.p = p
		a.mu.Unlock()
		a.runMu.Unlock()
		if old != nil && old.store != nil {
			_ = old.store.Close()
		}
	}

	a.mu.Lock()
	a.cfg = newCfg
	a.mu.Unlock()

	if next := scheduleOf(newCfg); next != schedule {
		if err := sched.Schedule(runJobName, next, 0, a.scheduledRun); err != nil {
			a.log.Warn("invalid watch.schedule; keeping previous", logx.String("schedule", next), logx.Err(err))
		} else {
			schedule = next
		}
	}

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
	return schedule
}
