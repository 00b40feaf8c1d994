package tgmd

import (
	"strings"
	"unicode/utf8"
)

// MaxMessageLen is Telegram's text limit for sendMessage.
const MaxMessageLen = 4096

// M is text that is safe to pass to Telegram when ParseMode="Markdown".
type M string

func (m M) String() string { return string(m) }

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// Esc escapes the legacy Markdown control characters in s.
func Esc(s string) M { return M(escaper.Replace(s)) }

// B renders a bold label. The label is expected to be plain text without
// control characters.
func B(s string) M { return M("*" + s + "*") }

// TruncRunes returns s cut to at most n runes, ending with "…" when cut.
func TruncRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n-1 {
			return s[:i] + "…"
		}
		count++
	}
	return s
}

// TruncMarkdown is TruncRunes for legacy Markdown text. An entity left open by
// the cut (*bold*, _italic_, `code`) is closed after the ellipsis and a
// dangling escape backslash is dropped, so Telegram can still parse the result.
func TruncMarkdown(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n < 3 {
		return TruncRunes(s, n)
	}
	// Room for the ellipsis and one closing marker.
	body := TruncRunes(s, n-1)
	body = strings.TrimSuffix(body, "…")

	var open byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case open == '`':
			if c == '`' {
				open = 0
			}
		case c == '\\':
			if i == len(body)-1 {
				body = body[:i]
			}
			i++
		case open != 0:
			if c == open {
				open = 0
			}
		case c == '*' || c == '_' || c == '`':
			open = c
		}
	}
	if open == 0 {
		return body + "…"
	}
	return body + "…" + string(open)
}
