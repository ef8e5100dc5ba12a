package parser

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// UnquoteString decodes a JavaScript string literal, quotes included, into
// its runtime value.
func UnquoteString(lit string) (string, error) {
	if len(lit) < 2 || (lit[0] != '"' && lit[0] != '\'') || lit[len(lit)-1] != lit[0] {
		return "", fmt.Errorf("not a string literal: %s", lit)
	}
	body := lit[1 : len(lit)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var b strings.Builder
	b.Grow(len(body))
	var pendingHigh rune = -1

	flushHigh := func() {
		if pendingHigh >= 0 {
			b.WriteRune(utf8.RuneError)
			pendingHigh = -1
		}
	}
	writeUnit := func(r rune) {
		if utf16.IsSurrogate(r) {
			if pendingHigh >= 0 {
				if dec := utf16.DecodeRune(pendingHigh, r); dec != utf8.RuneError {
					b.WriteRune(dec)
					pendingHigh = -1
					return
				}
				flushHigh()
			}
			if r < 0xDC00 {
				pendingHigh = r
				return
			}
			b.WriteRune(utf8.RuneError)
			return
		}
		flushHigh()
		b.WriteRune(r)
	}

	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			flushHigh()
			r, size := utf8.DecodeRuneInString(body[i:])
			b.WriteRune(r)
			i += size
			continue
		}
		if i+1 >= len(body) {
			return "", fmt.Errorf("dangling escape in %s", lit)
		}
		esc := body[i+1]
		i += 2
		switch esc {
		case 'n':
			writeUnit('\n')
		case 'r':
			writeUnit('\r')
		case 't':
			writeUnit('\t')
		case 'b':
			writeUnit('\b')
		case 'f':
			writeUnit('\f')
		case 'v':
			writeUnit('\v')
		case '0':
			writeUnit(0)
		case '\n':
			// line continuation
		case '\r':
			if i < len(body) && body[i] == '\n' {
				i++
			}
		case 'x':
			if i+2 > len(body) {
				return "", fmt.Errorf("short \\x escape in %s", lit)
			}
			v, err := strconv.ParseUint(body[i:i+2], 16, 8)
			if err != nil {
				return "", fmt.Errorf("invalid \\x escape in %s: %w", lit, err)
			}
			writeUnit(rune(v))
			i += 2
		case 'u':
			r, n, err := parseUnicodeEscape(body[i:])
			if err != nil {
				return "", fmt.Errorf("invalid \\u escape in %s: %w", lit, err)
			}
			writeUnit(r)
			i += n
		default:
			flushHigh()
			r, size := utf8.DecodeRuneInString(body[i-1:])
			b.WriteRune(r)
			i += size - 1
		}
	}
	flushHigh()
	return b.String(), nil
}

func parseUnicodeEscape(s string) (rune, int, error) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, 0, fmt.Errorf("unterminated code point")
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0, fmt.Errorf("bad code point %q", s[1:end])
		}
		return rune(v), end + 1, nil
	}
	if len(s) < 4 {
		return 0, 0, fmt.Errorf("short escape")
	}
	v, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, 0, err
	}
	return rune(v), 4, nil
}

// jsxEntity matches character references terminated by a semicolon, the only
// form JSX decodes.
var jsxEntity = regexp.MustCompile(`&(?:#[0-9]+|#[xX][0-9a-fA-F]+|[A-Za-z][A-Za-z0-9]*);`)

// UnquoteJSXString decodes a JSX attribute string. JSX does not process
// backslash escapes, only HTML character references ending in ';'.
func UnquoteJSXString(lit string) (string, error) {
	if len(lit) < 2 || (lit[0] != '"' && lit[0] != '\'') || lit[len(lit)-1] != lit[0] {
		return "", fmt.Errorf("not a JSX string: %s", lit)
	}
	return jsxEntity.ReplaceAllStringFunc(lit[1:len(lit)-1], html.UnescapeString), nil
}

// QuoteString renders s as a double-quoted JavaScript string literal.
func QuoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\v':
			b.WriteString(`\v`)
		case 0x2028, 0x2029:
			fmt.Fprintf(&b, `\u%04X`, r)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

var jsxAttributeEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;")

// QuoteJSXAttribute renders s as a double-quoted JSX attribute value.
func QuoteJSXAttribute(s string) string {
	return `"` + jsxAttributeEscaper.Replace(s) + `"`
}
