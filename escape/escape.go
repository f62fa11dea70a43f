// Package escape decodes the two escape alphabets used inside dump text
// values: the "ol" alphabet used for long-text cells, and the default
// alphabet used for everything else.
package escape

import (
	"strings"
	"unicode/utf8"
)

// UnescapeOL decodes the alphabet used after the `ol<n>,` header of a long
// text cell. Productions, tried in this order at each byte position (the
// two quoted forms must be tried before the generic two-byte form since
// they share its leading backtick):
//
//	'X      -> chr(X - 0x20)
//	`b"`"Z  -> UTF-8 from bytes (0xE2, 0x80, Z+0x20)
//	`b"``Z  -> UTF-8 from bytes (0xE2, 0x80, Z+0x80)
//	`X`Y    -> UTF-8 from bytes (X+0x80, Y+0x80)
func UnescapeOL(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	data := []byte(text)
	i := 0
	for i < len(data) {
		c := data[i]

		if c == '\'' && i+1 < len(data) {
			b.WriteRune(rune(data[i+1] - 0x20))
			i += 2
			continue
		}

		if c == '`' && i+5 < len(data) && data[i+1] == 'b' && data[i+2] == '"' && data[i+3] == '`' {
			switch data[i+4] {
			case '"':
				z := data[i+5]
				if r, size := utf8.DecodeRune([]byte{0xE2, 0x80, z + 0x20}); size > 0 && r != utf8.RuneError {
					b.WriteRune(r)
					i += 6
					continue
				}
			case '`':
				z := data[i+5]
				if r, size := utf8.DecodeRune([]byte{0xE2, 0x80, z + 0x80}); size > 0 && r != utf8.RuneError {
					b.WriteRune(r)
					i += 6
					continue
				}
			}
		}

		if c == '`' && i+3 < len(data) && data[i+2] == '`' {
			x, y := data[i+1], data[i+3]
			if r, size := utf8.DecodeRune([]byte{x + 0x80, y + 0x80}); size > 0 && r != utf8.RuneError {
				b.WriteRune(r)
				i += 4
				continue
			}
		}

		b.WriteByte(c)
		i++
	}

	return b.String()
}

// Unescape decodes the default alphabet: backslash-space and backslash-star
// each fold the following byte down by 0x20 (newline is the only one that
// occurs in practice). Anything else passes through unchanged.
func Unescape(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	data := []byte(text)
	i := 0
	for i < len(data) {
		if data[i] == '\\' && i+1 < len(data) && (data[i+1] == ' ' || data[i+1] == '*') {
			b.WriteByte(data[i+1] - 0x20)
			i += 2
			continue
		}
		b.WriteByte(data[i])
		i++
	}
	return b.String()
}
