// Package filters implements the stream filter pipeline: the PDF-defined
// encodings (ASCII85, ASCIIHex, RunLength, LZW, Flate) plus passthrough
// handling for the image-only filters (DCTDecode, CCITTFaxDecode), which
// this package never decodes, only recognizes.
package filters

import "fmt"

// PDF defines the following filters. See also 7.4 in the PDF spec,
// and 8.9.7 - Inline Images.
const (
	ASCII85   = "ASCII85Decode"
	ASCIIHex  = "ASCIIHexDecode"
	RunLength = "RunLengthDecode"
	LZW       = "LZWDecode"
	Flate     = "FlateDecode"
	DCT       = "DCTDecode"
	CCITTFax  = "CCITTFaxDecode"
	JBIG2     = "JBIG2Decode"
	JPX       = "JPXDecode"
)

// Params carries the filter-specific decode parameters found in a stream's
// /DecodeParms entry. Unset integer fields are zero, which each filter
// interprets as "use default" the way the PDF spec defines it.
type Params struct {
	Predictor        int
	Colors           int
	BitsPerComponent int
	Columns          int
	EarlyChange      *bool // LZW only; nil means the PDF default of true
	Level            int   // Flate encode only; 0 means zlib.DefaultCompression
}

// Error reports a failure at a specific stage of the filter pipeline, so
// callers can tell a malformed filter name from a corrupt encoded payload.
type Error struct {
	Filter string
	Stage  string // "decode", "encode" or "params"
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("filter %s: %s: %v", e.Filter, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsImageOnly reports whether name is a filter this package recognizes but
// never decodes (DCTDecode, CCITTFaxDecode, JBIG2Decode, JPXDecode): callers
// must treat the stream's Content as opaque compressed image data.
func IsImageOnly(name string) bool {
	switch name {
	case DCT, CCITTFax, JBIG2, JPX:
		return true
	default:
		return false
	}
}

// Decode reverses filter name over src, applying params (which may be the
// zero value when the filter has no parameters). It returns an *Error when
// name is an image-only filter or is not recognized at all.
func Decode(name string, params Params, src []byte) ([]byte, error) {
	switch name {
	case ASCII85:
		return decodeASCII85(src)
	case ASCIIHex:
		return decodeASCIIHex(src)
	case RunLength:
		return decodeRunLength(src)
	case LZW:
		earlyChange := true
		if params.EarlyChange != nil {
			earlyChange = *params.EarlyChange
		}
		return decodeLZWWithPredictor(earlyChange, params, src)
	case Flate:
		return decodeFlateWithPredictor(params, src)
	default:
		if IsImageOnly(name) {
			return nil, &Error{Filter: name, Stage: "decode", Err: fmt.Errorf("%s is image data, not decodable", name)}
		}
		return nil, &Error{Filter: name, Stage: "decode", Err: fmt.Errorf("unsupported filter")}
	}
}

// Encode applies filter name to src, producing the bytes a reader would
// later pass to Decode. Image-only filters are rejected: this package never
// produces DCT/CCITTFax/JBIG2/JPX data.
func Encode(name string, params Params, src []byte) ([]byte, error) {
	switch name {
	case ASCII85:
		return encodeASCII85(src), nil
	case ASCIIHex:
		return encodeASCIIHex(src), nil
	case RunLength:
		return encodeRunLength(src), nil
	case LZW:
		earlyChange := true
		if params.EarlyChange != nil {
			earlyChange = *params.EarlyChange
		}
		return encodeLZW(earlyChange, src)
	case Flate:
		return encodeFlate(src, params)
	default:
		return nil, &Error{Filter: name, Stage: "encode", Err: fmt.Errorf("unsupported or non-encodable filter")}
	}
}
