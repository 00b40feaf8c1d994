// Package telegram delivers order summaries to a Telegram chat.
//
// Two drivers implement the same contract (one attempt, no retry):
//   - "form": a form-encoded POST to sendMessage (default)
//   - "telebot": the same call through gopkg.in/telebot.v4
//
// A send succeeds only when the transport succeeds, the HTTP status is 2xx
// and the API reports ok=true.
package telegram
