package filters

import (
	"bytes"
	"encoding/ascii85"
	"io/ioutil"
)

const eodASCII85 = "~>"

// decodeASCII85 reverses an ASCII85Decode stream. PDF's variant differs from
// Adobe's base85 only by the optional "<~" prefix (tolerated, not required)
// and the mandatory "~>" EOD marker, so both are stripped before handing the
// body to the standard library's decoder, which otherwise implements the
// same grammar (including 'z' as a run of four zero bytes).
func decodeASCII85(src []byte) ([]byte, error) {
	body := bytes.TrimPrefix(src, []byte("<~"))
	if i := bytes.Index(body, []byte(eodASCII85)); i >= 0 {
		body = body[:i]
	}
	r := ascii85.NewDecoder(bytes.NewReader(body))
	out, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, &Error{Filter: ASCII85, Stage: "decode", Err: err}
	}
	return out, nil
}

func encodeASCII85(src []byte) []byte {
	maxLen := ascii85.MaxEncodedLen(len(src))
	buf := make([]byte, maxLen)
	n := ascii85.Encode(buf, src)
	out := make([]byte, 0, n+2)
	out = append(out, buf[:n]...)
	out = append(out, eodASCII85...)
	return out
}
