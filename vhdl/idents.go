package vhdl

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// makeIdent turns inp into a VHDL basic identifier: ASCII letters, digits
// and single underscores, starting with a letter and not ending with an
// underscore. The result is lower case, since VHDL doesn't distinguish.
func makeIdent(inp string) string {
	var b strings.Builder
	pendingUnderscore := false
	for _, r := range inp {
		switch {
		case r < utf8.RuneSelf && unicode.IsDigit(r):
			if b.Len() == 0 {
				b.WriteByte('x')
			}
		case r < utf8.RuneSelf && unicode.IsLetter(r):
			r = unicode.ToLower(r)
		default:
			pendingUnderscore = b.Len() > 0
			continue
		}
		if pendingUnderscore {
			b.WriteByte('_')
			pendingUnderscore = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// stringLiteral pads s with spaces, or truncates it, to exactly width
// characters and quotes it as a VHDL string literal.
func stringLiteral(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		runes = runes[:width]
	}
	padded := string(runes) + strings.Repeat(" ", width-len(runes))
	return `"` + strings.ReplaceAll(padded, `"`, `""`) + `"`
}
