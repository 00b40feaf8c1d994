// Package tgmd provides small helpers for Telegram's legacy Markdown parse mode
// (parse_mode="Markdown"): escaping, bold labels and length limits.
package tgmd
