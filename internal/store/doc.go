// Package store remembers which orders have already been announced.
//
// The only driver is a line-oriented text file: one decimal order id per line,
// append-only, never rewritten. Appends take an exclusive advisory lock on
// "<path>.lock"; reads take a shared one. Only newline-terminated lines are
// treated as ids, so a torn trailing write is never observed.
package store
