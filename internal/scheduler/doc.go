// Package scheduler triggers notification runs for `wcnotify watch`.
//
// It is responsible only for:
//   - parsing schedule strings (cron / interval / HH:MM)
//   - registering named jobs on a robfig/cron instance
//   - skipping a trigger while the previous run of the same job is still active
package scheduler
