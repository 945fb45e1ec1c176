package ical

import (
	"strings"
)

// foldWidth is the RFC 5545 line length limit in octets. The first physical
// line holds foldWidth octets; each continuation is a single space followed
// by up to foldWidth-1 octets.
const foldWidth = 75

// Unfold rejoins folded lines: a CRLF (or bare LF) immediately followed by a
// single space or tab is a continuation marker and is removed.
func Unfold(s string) string {
	s = strings.ReplaceAll(s, "\r\n ", "")
	s = strings.ReplaceAll(s, "\r\n\t", "")
	s = strings.ReplaceAll(s, "\n ", "")
	s = strings.ReplaceAll(s, "\n\t", "")
	return s
}

// FoldLine wraps a logical content line at the 75-octet limit, joining the
// physical lines with CRLF and prefixing each continuation with one space.
func FoldLine(line string) string {
	if len(line) <= foldWidth {
		return line
	}

	var b strings.Builder
	b.WriteString(line[:foldWidth])
	rest := line[foldWidth:]

	for len(rest) > foldWidth-1 {
		b.WriteString("\r\n ")
		b.WriteString(rest[:foldWidth-1])
		rest = rest[foldWidth-1:]
	}
	if len(rest) > 0 {
		b.WriteString("\r\n ")
		b.WriteString(rest)
	}

	return b.String()
}

// Escape encodes a text value for inclusion in a content line: backslash,
// semicolon, comma, and newline become backslash sequences. Carriage returns
// are dropped so CRLF pairs collapse to \n.
func Escape(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// Unescape decodes the \n, \,, \; and \\ sequences in a text value. A single
// left-to-right scan consumes each escaped pair as a unit, so an escaped
// backslash can never be re-read as the start of another sequence.
func Unescape(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'n', 'N':
			b.WriteByte('\n')
			i++
		case ',':
			b.WriteByte(',')
			i++
		case ';':
			b.WriteByte(';')
			i++
		case '\\':
			b.WriteByte('\\')
			i++
		default:
			b.WriteByte(s[i])
		}
	}

	return b.String()
}
