package model

import "golang.org/x/text/encoding/unicode"

// textStringCodec is the byte encoding PDF calls a "text string" (7.9.2.2):
// PDFDocEncoding by default, UTF-16BE with a leading byte-order mark when
// the text isn't representable in PDFDocEncoding. /Info entries (Title,
// Author, Subject, Keywords, Creator, Producer) and signature/annotation
// text fields all use this convention.
var textStringCodec = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)

// EncodeTextString converts a Go string to the bytes a PDF text string
// object should carry, preferring the single-byte PDFDocEncoding and
// falling back to UTF-16BE only when s has a rune it can't represent.
func EncodeTextString(s string) String {
	if enc, ok := stringToPDFDocEncoding(s); ok {
		return String{Value: enc, Format: Literal}
	}
	enc, err := textStringCodec.NewEncoder().Bytes([]byte(s))
	if err != nil {
		// Every rune failing PDFDocEncoding should still be representable
		// in UTF-16; fall back to the lossy PDFDocEncoding mapping rather
		// than producing a string with no bytes at all.
		enc, _ = stringToPDFDocEncoding(s)
	}
	return String{Value: enc, Format: Literal}
}

// DecodeTextString reverses EncodeTextString. A leading 0xFE 0xFF marks the
// UTF-16BE form; anything else is read as PDFDocEncoding.
func DecodeTextString(s String) string {
	if len(s.Value) >= 2 && s.Value[0] == 0xfe && s.Value[1] == 0xff {
		if out, err := textStringCodec.NewDecoder().Bytes(s.Value); err == nil {
			return string(out)
		}
	}
	return pdfDocEncodingToString(s.Value)
}

// InfoString reads a text-string entry from the /Info dictionary (Title,
// Author, Subject, Keywords, Creator, Producer, ...), decoding it per
// EncodeTextString's convention.
func (d *Document) InfoString(key Name) (string, bool) {
	if !d.Trailer.HasInfo {
		return "", false
	}
	obj, ok := d.Get(d.Trailer.Info)
	if !ok {
		return "", false
	}
	dict, ok := obj.(Dict)
	if !ok {
		return "", false
	}
	value, ok := d.DereferenceDict(dict, key)
	if !ok {
		return "", false
	}
	str, ok := value.(String)
	if !ok {
		return "", false
	}
	return DecodeTextString(str), true
}

// SetInfoString sets a text-string entry in the /Info dictionary, creating
// the dictionary object if the document doesn't have one yet.
func (d *Document) SetInfoString(key Name, value string) {
	var dict Dict
	if d.Trailer.HasInfo {
		if obj, ok := d.Get(d.Trailer.Info); ok {
			if existing, ok := obj.(Dict); ok {
				dict = existing
			}
		}
	}
	if dict.values == nil {
		dict = NewDict()
	}
	dict.Set(key, EncodeTextString(value))
	if d.Trailer.HasInfo {
		d.SetObject(d.Trailer.Info.Number, dict)
	} else {
		id := d.AddObject(dict)
		d.Trailer.Info = id
		d.Trailer.HasInfo = true
	}
}
