// internal/app/features/submission/sanitize.go
package submission

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// strict removes every element and attribute; text content survives.
var strict = bluemonday.StrictPolicy()

// sanitizeLine cleans a single-line text field. Line breaks and tabs become
// spaces and other control characters are dropped.
func sanitizeLine(s string) string {
	return stripMarkup(cleanRunes(s, false))
}

// sanitizeMultiline cleans free text, keeping newlines and tabs. CRLF and
// lone CR are normalized to LF.
func sanitizeMultiline(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return stripMarkup(cleanRunes(s, true))
}

// sanitizeEmail drops control characters and trims the ends. Interior
// spaces are kept so the validator rejects "jane @example.com" rather than
// a different mailbox being accepted. Markup is not stripped: anything
// markup-like fails address validation anyway.
func sanitizeEmail(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// sanitizeAmount keeps ASCII digits only and drops leading zeros, so
// "$500,000" becomes "500000" and "000" becomes "" (an empty amount).
func sanitizeAmount(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			if b.Len() == 0 && r == '0' {
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cleanRunes(s string, multiline bool) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			if multiline {
				return r
			}
			return ' '
		case r == '\r':
			return ' '
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			return -1
		}
		return r
	}, s)
}

var (
	tagRe     = regexp.MustCompile(`^</?([A-Za-z][A-Za-z0-9]*)(?:[\s/][^<>]*)?>`)
	commentRe = regexp.MustCompile(`^<!--[\s\S]*?-->`)
)

// stripMarkup removes HTML tags and returns the literal text: the policy
// output is entity-escaped, so it is decoded again for a plain-text mail.
func stripMarkup(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(escapeLiteralLT(s))))
}

// escapeLiteralLT escapes every "<" that does not open a comment or a
// complete tag of a known HTML element. "Smith<Jones LLC" and
// "Bridge <Fund> II" then reach the policy as text instead of as tags.
func escapeLiteralLT(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	for {
		i := strings.IndexByte(s, '<')
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		rest := s[i:]
		if m := commentRe.FindString(rest); m != "" {
			b.WriteString(m)
			s = rest[len(m):]
			continue
		}
		if m := tagRe.FindStringSubmatch(rest); m != nil && atom.Lookup([]byte(strings.ToLower(m[1]))) != 0 {
			b.WriteString(m[0])
			s = rest[len(m[0]):]
			continue
		}
		b.WriteString("&lt;")
		s = rest[1:]
	}
}
