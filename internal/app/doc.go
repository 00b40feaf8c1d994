// Package app wires the configuration into the order notifier components and
// runs them either once (`wcnotify run`) or on a schedule (`wcnotify watch`).
package app
