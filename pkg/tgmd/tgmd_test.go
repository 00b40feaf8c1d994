package tgmd

import (
	"testing"
	"unicode/utf8"
)

func TestEsc(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"snake_case", `snake\_case`},
		{"*bold*", `\*bold\*`},
		{"[link](x)", `\[link](x)`},
		{"a`b", "a\\`b"},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := Esc(tt.in).String(); got != tt.want {
			t.Fatalf("Esc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncRunes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 4, "hel…"},
		{"🛒🛒🛒", 2, "🛒…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		got := TruncRunes(tt.in, tt.n)
		if got != tt.want {
			t.Fatalf("TruncRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if tt.n > 0 && utf8.RuneCountInString(got) > tt.n {
			t.Fatalf("TruncRunes(%q, %d) exceeds limit: %q", tt.in, tt.n, got)
		}
	}
}

func TestTruncMarkdown(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"*Total:* 45", 20, "*Total:* 45"},
		{"*Shipping Address:*\nx", 8, "*Shipp…*"},
		{"ab _it_ cd", 7, "ab _i…_"},
		{"*a* bcdefgh", 6, "*a* …"},
		{"abc `co` def", 8, "abc `c…`"},
		{`abc\_def`, 6, "abc…"},
		{"abcdef", 2, "a…"},
	}
	for _, tt := range tests {
		got := TruncMarkdown(tt.in, tt.n)
		if got != tt.want {
			t.Fatalf("TruncMarkdown(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if utf8.RuneCountInString(got) > tt.n {
			t.Fatalf("TruncMarkdown(%q, %d) exceeds limit: %q", tt.in, tt.n, got)
		}
	}
}
