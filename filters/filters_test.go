package filters

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	payload := []byte("A stream of bytes, repeated repeated repeated for compression.")

	tests := []struct {
		name   string
		filter string
		params Params
	}{
		{"ascii85", ASCII85, Params{}},
		{"asciihex", ASCIIHex, Params{}},
		{"runlength", RunLength, Params{}},
		{"lzw", LZW, Params{}},
		{"flate", Flate, Params{}},
		{"flate with PNG predictor", Flate, Params{Predictor: 12, Colors: 1, BitsPerComponent: 8, Columns: 31}},
		{"flate with TIFF predictor", Flate, Params{Predictor: 2, Colors: 1, BitsPerComponent: 8, Columns: 31}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.filter, tt.params, payload)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			decoded, err := Decode(tt.filter, tt.params, encoded)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !bytes.Equal(decoded, payload) {
				t.Errorf("round trip mismatch: got %q, want %q", decoded, payload)
			}
		})
	}
}

func TestRunLengthMissingEOD(t *testing.T) {
	_, err := decodeRunLength([]byte{0x00, 'a'})
	if err == nil {
		t.Fatal("expected an error for a stream missing its EOD marker")
	}
}

func TestASCIIHexOddDigitCount(t *testing.T) {
	out, err := decodeASCIIHex([]byte("4E6F>"))
	if err != nil {
		t.Fatalf("decodeASCIIHex: %v", err)
	}
	if string(out) != "No" {
		t.Errorf("got %q, want %q", out, "No")
	}

	out, err = decodeASCIIHex([]byte("4E6>"))
	if err != nil {
		t.Fatalf("decodeASCIIHex with odd digit count: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("expected the trailing digit to be zero-padded, got %q", out)
	}
}

func TestIsImageOnly(t *testing.T) {
	for _, f := range []string{DCT, CCITTFax, JBIG2, JPX} {
		if !IsImageOnly(f) {
			t.Errorf("%s should be classified as image-only", f)
		}
	}
	if IsImageOnly(Flate) {
		t.Error("FlateDecode must not be classified as image-only")
	}
	if _, err := Decode(DCT, Params{}, nil); err == nil {
		t.Error("Decode should refuse an image-only filter")
	}
}
