// Package notifier runs one notification pass over the order source.
//
// A run fetches one page of candidate orders and, in the order returned,
// skips ids already in the record store, formats the rest, sends each one and
// records the id only after Telegram confirmed delivery. Per-order failures
// are logged and never abort the run. Sends are paced by a minimum interval.
package notifier
