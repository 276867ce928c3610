package codec

import (
	"errors"
	"unicode/utf16"
)

var errMalformedString = errors.New("malformed modified UTF-8")

// mutf8Len returns the modified UTF-8 length of s. Supplementary characters
// are counted as two surrogates of three bytes each.
func mutf8Len(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r >= 0x0001 && r <= 0x007F:
			n++
		case r <= 0x07FF:
			n += 2
		case r <= 0xFFFF:
			n += 3
		default:
			n += 6
		}
	}
	return n
}

// appendMUTF8 appends s to dst in modified UTF-8: U+0000 becomes C0 80 and
// characters outside the BMP are written as encoded surrogate pairs.
func appendMUTF8(dst []byte, s string) []byte {
	for _, r := range s {
		switch {
		case r >= 0x0001 && r <= 0x007F:
			dst = append(dst, byte(r))
		case r <= 0x07FF:
			dst = append(dst, 0xC0|byte(r>>6&0x1F), 0x80|byte(r&0x3F))
		case r <= 0xFFFF:
			dst = appendUnit3(dst, r)
		default:
			hi, lo := utf16.EncodeRune(r)
			dst = appendUnit3(dst, hi)
			dst = appendUnit3(dst, lo)
		}
	}
	return dst
}

func appendUnit3(dst []byte, u rune) []byte {
	return append(dst, 0xE0|byte(u>>12&0x0F), 0x80|byte(u>>6&0x3F), 0x80|byte(u&0x3F))
}

// decodeMUTF8 is the inverse of appendMUTF8.
func decodeMUTF8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || !isContinuation(b[i+1]) {
				return "", errMalformedString
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || !isContinuation(b[i+1]) || !isContinuation(b[i+2]) {
				return "", errMalformedString
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", errMalformedString
		}
	}
	return string(utf16.Decode(units)), nil
}

func isContinuation(c byte) bool {
	return c&0xC0 == 0x80
}
