// Package sanitize neutralizes untrusted form input before it is validated
// or rendered into notification emails. All functions are pure: they take a
// string and return a string, with no error conditions.
package sanitize

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// textPolicy strips every HTML element and attribute; form fields are plain
// text and anything tag-shaped in them is at best an accident.
var textPolicy = bluemonday.StrictPolicy()

// Text neutralizes a free-text field: control characters are removed, HTML
// tags are stripped, surrounding whitespace is trimmed, and the result is
// entity-escaped for safe interpolation into an HTML email body. When
// maxLen > 0 the plain text is truncated to that many runes before escaping.
//
// Text is idempotent: applying it to its own output returns the same string.
func Text(input string, maxLen int) string {
	if input == "" {
		return ""
	}
	return html.EscapeString(truncate(clean(input), maxLen))
}

// Line sanitizes a single-line field the same way as Text and additionally
// collapses interior newlines and whitespace runs, which have no business in
// a name or subject and would otherwise allow header injection in the
// outbound mail.
func Line(input string, maxLen int) string {
	if input == "" {
		return ""
	}
	out := clean(input)
	out = strings.ReplaceAll(out, "\n", " ")
	out = collapseSpaces(out)
	return html.EscapeString(truncate(out, maxLen))
}

// Email normalizes an email address: trimmed and lower-cased. Shape
// validation happens later in the field validator; deliverability is not
// checked at all.
func Email(input string) string {
	return strings.ToLower(strings.TrimSpace(stripControl(input)))
}

// clean produces trimmed, tag-free, entity-decoded plain text. Decoding and
// stripping repeat until the string stops changing, so layered escaping like
// "&amp;lt;b&amp;gt;" reduces all the way down; each pass either shortens
// the string or leaves it alone, so the loop terminates.
func clean(input string) string {
	out := stripControl(input)
	for {
		next := html.UnescapeString(textPolicy.Sanitize(html.UnescapeString(out)))
		if next == out {
			break
		}
		out = next
	}
	return strings.TrimSpace(out)
}

func truncate(s string, maxLen int) string {
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		runes := []rune(s)
		s = strings.TrimSpace(string(runes[:maxLen]))
	}
	return s
}

// stripControl removes ASCII control characters (0-31 and 127) except tab
// and newline, which Text/Line handle explicitly.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

// collapseSpaces reduces runs of spaces and tabs to a single space.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
