// Package logx configures wcnotify's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured (the operational log)
//   - Optional Telegram alert sink (min-level + rate limiting)
package logx
