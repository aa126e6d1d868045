package filters

import (
	"bytes"
	"errors"
	"io"
)

const eodRunLength = 0x80

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return errors.New("missing EOD marker in encoded stream")
	}
	return err
}

func decodeRunLength(src []byte) ([]byte, error) {
	var out bytes.Buffer
	r := bytes.NewReader(src)
	for {
		b, err := r.ReadByte()
		if err != nil {
			// EOF is an error: the EOD marker is mandatory.
			return nil, &Error{Filter: RunLength, Stage: "decode", Err: unexpectedEOF(err)}
		}
		if b == eodRunLength {
			return out.Bytes(), nil
		}
		if b < 0x80 {
			c := int(b) + 1
			buf := make([]byte, c)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, &Error{Filter: RunLength, Stage: "decode", Err: unexpectedEOF(err)}
			}
			out.Write(buf)
			continue
		}
		c := 257 - int(b)
		nextChar, err := r.ReadByte()
		if err != nil {
			return nil, &Error{Filter: RunLength, Stage: "decode", Err: unexpectedEOF(err)}
		}
		for j := 0; j < c; j++ {
			out.WriteByte(nextChar)
		}
	}
}

// encodeRunLength packs src using literal runs only (length-prefixed copies,
// no repeat-run compression): simple, always reversible and sufficient
// since this encoder exists for round-tripping, not for density.
func encodeRunLength(src []byte) []byte {
	var out bytes.Buffer
	for len(src) > 0 {
		n := len(src)
		if n > 128 {
			n = 128
		}
		out.WriteByte(byte(n - 1))
		out.Write(src[:n])
		src = src[n:]
	}
	out.WriteByte(eodRunLength)
	return out.Bytes()
}
