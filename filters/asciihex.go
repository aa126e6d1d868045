package filters

import (
	"bytes"
	"fmt"
)

const eodHexDecode = '>'

// decodeASCIIHex reverses an ASCIIHexDecode stream: pairs of hex digits,
// whitespace ignored, an odd trailing digit implicitly padded with a
// trailing zero, terminated by '>'.
func decodeASCIIHex(src []byte) ([]byte, error) {
	if i := bytes.IndexByte(src, eodHexDecode); i >= 0 {
		src = src[:i]
	}

	var digits []byte
	for _, b := range src {
		switch {
		case b >= '0' && b <= '9', b >= 'a' && b <= 'f', b >= 'A' && b <= 'F':
			digits = append(digits, b)
		case b == ' ', b == '\t', b == '\r', b == '\n', b == '\f', b == 0:
			// whitespace, ignored
		default:
			return nil, &Error{Filter: ASCIIHex, Stage: "decode", Err: fmt.Errorf("invalid hex digit %q", b)}
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	out := make([]byte, len(digits)/2)
	for i := range out {
		hi := hexVal(digits[2*i])
		lo := hexVal(digits[2*i+1])
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	default:
		return b - 'A' + 10
	}
}

const hexDigits = "0123456789ABCDEF"

func encodeASCIIHex(src []byte) []byte {
	out := make([]byte, 0, len(src)*2+1)
	for _, b := range src {
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	out = append(out, eodHexDecode)
	return out
}
