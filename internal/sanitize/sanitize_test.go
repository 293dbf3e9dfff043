package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"pgregory.net/rapid"
)

func TestText(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"plain text untouched", "Hello there", 0, "Hello there"},
		{"tags stripped", "<script>alert(1)</script>hi", 0, "hi"},
		{"nested tags stripped", "<b><i>bold</i></b>", 0, "bold"},
		{"entities escaped once", "fish & chips", 0, "fish &amp; chips"},
		{"pre-escaped input not double escaped", "fish &amp; chips", 0, "fish &amp; chips"},
		{"angle brackets escaped", "a < b", 0, "a &lt; b"},
		{"control characters removed", "abc\x00\x07def", 0, "abcdef"},
		{"surrounding whitespace trimmed", "  hello  ", 0, "hello"},
		{"truncated on plain runes", "aaaaa & bbbbb", 7, "aaaaa &amp;"},
		{"empty input", "", 100, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input, tt.maxLen); got != tt.want {
				t.Fatalf("Text(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"newlines become spaces", "Subject line\ninjected: header", "Subject line injected: header"},
		{"whitespace runs collapsed", "too   many\t\tspaces", "too many spaces"},
		{"tags stripped", "Hi <b>there</b>", "Hi there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Line(tt.input, 0); got != tt.want {
				t.Fatalf("Line(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  User@Example.ORG  ", "user@example.org"},
		{"plain@example.com", "plain@example.com"},
		{"tab\t@example.com", "tab\t@example.com"},
	}

	for _, tt := range tests {
		if got := Email(tt.input); got != tt.want {
			t.Fatalf("Email(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestText_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := rapid.String().Draw(t, "input")
		maxLen := rapid.IntRange(0, 64).Draw(t, "maxLen")

		once := Text(input, maxLen)
		twice := Text(once, maxLen)
		if once != twice {
			t.Fatalf("Text not idempotent: %q -> %q -> %q", input, once, twice)
		}
	})
}

func TestLine_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := rapid.String().Draw(t, "input")

		once := Line(input, 0)
		twice := Line(once, 0)
		if once != twice {
			t.Fatalf("Line not idempotent: %q -> %q -> %q", input, once, twice)
		}
	})
}

func TestText_TruncationBound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := rapid.StringN(0, 200, -1).Draw(t, "input")
		maxLen := rapid.IntRange(1, 50).Draw(t, "maxLen")

		got := Text(input, maxLen)
		// The bound applies to plain text; entity escaping may expand
		// individual runes afterwards, so measure the decoded form.
		plain := clean(got)
		if utf8.RuneCountInString(plain) > maxLen {
			t.Fatalf("Text(%q, %d) plain form %q exceeds bound", input, maxLen, plain)
		}
	})
}

func TestText_NeverContainsTags(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := rapid.String().Draw(t, "input")
		got := Text(input, 0)
		if strings.ContainsAny(got, "<>") {
			t.Fatalf("Text(%q) = %q contains raw angle brackets", input, got)
		}
	})
}
