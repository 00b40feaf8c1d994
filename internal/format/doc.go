// Package format renders a WooCommerce order into the Telegram message text.
//
// Format is pure: the same order and options always yield byte-identical output.
package format
