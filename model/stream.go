package model

import (
	"fmt"

	"github.com/harrowgate/pdf/filters"
)

// Stream is a dictionary followed by a run of bytes (7.3.8). Raw holds the
// bytes exactly as stored (still filtered/encrypted as found on disk, or as
// set by the caller); Decode reverses whatever /Filter chain the
// dictionary names.
// AllowCompression controls whether compress() may apply FlateDecode to a
// Stream carrying no /Filter yet. It defaults to true (NewStream, and every
// stream the parser loads without a pre-existing filter, are fair game);
// a caller that needs to keep a payload untouched - because it will be
// re-filtered by other means, for instance - clears it explicitly.
type Stream struct {
	Dict             Dict
	Raw              []byte
	AllowCompression bool
}

func NewStream(dict Dict, raw []byte) Stream {
	return Stream{Dict: dict, Raw: raw, AllowCompression: true}
}

// filterNames returns the stream's /Filter entry normalized to a slice,
// since the spec allows both a single Name and an Array of Name.
func (s Stream) filterNames() []Name {
	v, ok := s.Dict.Get("Filter")
	if !ok {
		return nil
	}
	switch f := v.(type) {
	case Name:
		return []Name{f}
	case Array:
		out := make([]Name, 0, len(f))
		for _, o := range f {
			if n, ok := o.(Name); ok {
				out = append(out, n)
			}
		}
		return out
	default:
		return nil
	}
}

// decodeParmsList returns the stream's /DecodeParms entry normalized to one
// Dict per filter (possibly empty Dicts when a filter has no parameters).
func (s Stream) decodeParmsList(n int) []Dict {
	out := make([]Dict, n)
	for i := range out {
		out[i] = NewDict()
	}
	v, ok := s.Dict.Get("DecodeParms")
	if !ok {
		v, ok = s.Dict.Get("DP")
	}
	if !ok {
		return out
	}
	switch p := v.(type) {
	case Dict:
		if n > 0 {
			out[0] = p
		}
	case Array:
		for i := 0; i < len(p) && i < n; i++ {
			if d, ok := p[i].(Dict); ok {
				out[i] = d
			}
		}
	}
	return out
}

func dictToParams(d Dict) filters.Params {
	var p filters.Params
	if v, ok := IsNumber(firstOr(d, "Predictor")); ok {
		p.Predictor = int(v)
	}
	if v, ok := IsNumber(firstOr(d, "Colors")); ok {
		p.Colors = int(v)
	}
	if v, ok := IsNumber(firstOr(d, "BitsPerComponent")); ok {
		p.BitsPerComponent = int(v)
	}
	if v, ok := IsNumber(firstOr(d, "Columns")); ok {
		p.Columns = int(v)
	}
	if v, ok := d.Get("EarlyChange"); ok {
		if b, ok := v.(Boolean); ok {
			bv := bool(b)
			p.EarlyChange = &bv
		} else if i, ok := v.(Integer); ok {
			bv := i != 0
			p.EarlyChange = &bv
		}
	}
	return p
}

func firstOr(d Dict, key Name) Object {
	v, _ := d.Get(key)
	return v
}

// Decode reverses the stream's filter pipeline and returns the plain bytes.
// An image-only filter (DCTDecode, CCITTFaxDecode, ...) stops the pipeline
// early and its remaining bytes are returned as-is: this package never
// decodes image samples.
func (s Stream) Decode() ([]byte, error) {
	names := s.filterNames()
	if len(names) == 0 {
		return s.Raw, nil
	}
	parms := s.decodeParmsList(len(names))

	data := s.Raw
	for i, name := range names {
		if filters.IsImageOnly(string(name)) {
			break
		}
		decoded, err := filters.Decode(string(name), dictToParams(parms[i]), data)
		if err != nil {
			return nil, wrapError(KindFilter, -1, fmt.Sprintf("decoding %s", name), err)
		}
		data = decoded
	}
	return data, nil
}

// Encode applies name (with params) to data and returns a Stream whose
// /Filter and /Length reflect the result. Any existing /Filter is replaced
// and any /DecodeParms is removed; params are not written to the dictionary.
func Encode(dict Dict, data []byte, name string, params filters.Params) (Stream, error) {
	encoded, err := filters.Encode(name, params, data)
	if err != nil {
		return Stream{}, wrapError(KindFilter, -1, fmt.Sprintf("encoding %s", name), err)
	}
	dict = dict.Clone().(Dict)
	dict.Set("Filter", Name(name))
	dict.Delete("DecodeParms")
	dict.Set("Length", Integer(len(encoded)))
	return Stream{Dict: dict, Raw: encoded}, nil
}

func (s Stream) Write(dst []byte) []byte {
	d := s.Dict.Clone().(Dict)
	d.Set("Length", Integer(len(s.Raw)))
	dst = d.Write(dst)
	dst = append(dst, "\nstream\n"...)
	dst = append(dst, s.Raw...)
	dst = append(dst, "\nendstream"...)
	return dst
}

func (s Stream) Clone() Object {
	raw := make([]byte, len(s.Raw))
	copy(raw, s.Raw)
	return Stream{Dict: s.Dict.Clone().(Dict), Raw: raw, AllowCompression: s.AllowCompression}
}
