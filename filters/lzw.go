package filters

import (
	"bytes"
	"io/ioutil"

	"github.com/hhrutter/lzw"
)

func decodeLZWWithPredictor(earlyChange bool, params Params, src []byte) ([]byte, error) {
	rc := lzw.NewReader(bytes.NewReader(src), earlyChange)
	defer rc.Close()

	decoded, err := ioutil.ReadAll(rc)
	if err != nil {
		return nil, &Error{Filter: LZW, Stage: "decode", Err: err}
	}

	pp, err := processFlateParams(params)
	if err != nil {
		return nil, &Error{Filter: LZW, Stage: "params", Err: err}
	}
	out, err := pp.decodePostProcess(bytes.NewReader(decoded))
	if err != nil {
		return nil, &Error{Filter: LZW, Stage: "decode", Err: err}
	}
	return ioutil.ReadAll(out)
}

func encodeLZW(earlyChange bool, src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, earlyChange)
	if _, err := w.Write(src); err != nil {
		return nil, &Error{Filter: LZW, Stage: "encode", Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &Error{Filter: LZW, Stage: "encode", Err: err}
	}
	return buf.Bytes(), nil
}
