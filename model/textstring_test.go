package model

import "testing"

func TestTextStringRoundTripASCII(t *testing.T) {
	s := EncodeTextString("Gerhard Muller")
	if s.Value[0] == 0xfe {
		t.Fatal("an all-PDFDocEncoding string must not be written as UTF-16")
	}
	if got := DecodeTextString(s); got != "Gerhard Muller" {
		t.Errorf("DecodeTextString(EncodeTextString(s)) = %q, want %q", got, "Gerhard Muller")
	}
}

func TestTextStringRoundTripPDFDocEncodingExtras(t *testing.T) {
	const want = "Gerþrúður"
	s := EncodeTextString(want)
	if s.Value[0] == 0xfe {
		t.Fatal("Icelandic thorn/acute letters are representable in PDFDocEncoding, should not fall back to UTF-16")
	}
	if got := DecodeTextString(s); got != want {
		t.Errorf("round trip = %q, want %q", got, want)
	}
}

func TestTextStringFallsBackToUTF16(t *testing.T) {
	const want = "日本語"
	s := EncodeTextString(want)
	if len(s.Value) < 2 || s.Value[0] != 0xfe || s.Value[1] != 0xff {
		t.Fatalf("expected a UTF-16BE BOM prefix for %q, got %x", want, s.Value)
	}
	if got := DecodeTextString(s); got != want {
		t.Errorf("round trip = %q, want %q", got, want)
	}
}

func TestInfoStringRoundTrip(t *testing.T) {
	d := NewDocument()
	d.SetInfoString("Title", "Annual Report")
	d.SetInfoString("Author", "日本語 author")

	title, ok := d.InfoString("Title")
	if !ok || title != "Annual Report" {
		t.Errorf("Title = %q, %v; want %q, true", title, ok, "Annual Report")
	}
	author, ok := d.InfoString("Author")
	if !ok || author != "日本語 author" {
		t.Errorf("Author = %q, %v; want %q, true", author, ok, "日本語 author")
	}

	if _, ok := d.InfoString("Subject"); ok {
		t.Error("an unset key should report ok=false")
	}
}

func TestInfoStringNoInfoDict(t *testing.T) {
	d := NewDocument()
	if _, ok := d.InfoString("Title"); ok {
		t.Error("a document with no /Info must report ok=false")
	}
}
