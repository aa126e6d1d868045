package model

import "testing"

func roundTripRC4(t *testing.T, r, keyLengthBits int) {
	t.Helper()
	id0 := []byte("0123456789abcdef")
	writeState, dict, err := NewEncryptionState("owner-secret", "user-secret", PermPrint, r, keyLengthBits, id0, true)
	if err != nil {
		t.Fatalf("NewEncryptionState(R%d): %v", r, err)
	}

	id := ObjectId{Number: 7, Generation: 0}
	plain := []byte("hello, encrypted world")
	cipher, err := writeState.EncryptBytes(id, plain)
	if err != nil {
		t.Fatalf("EncryptBytes: %v", err)
	}

	readState := NewEncryptionStateFromDict(dict, id0)
	if isOwner, ok := readState.Authenticate("user-secret"); !ok || isOwner {
		t.Fatalf("Authenticate(user password): ok=%v isOwner=%v, want ok=true isOwner=false", ok, isOwner)
	}
	decoded, err := readState.DecryptBytes(id, cipher)
	if err != nil {
		t.Fatalf("DecryptBytes: %v", err)
	}
	if string(decoded) != string(plain) {
		t.Errorf("round trip mismatch: got %q, want %q", decoded, plain)
	}

	ownerState := NewEncryptionStateFromDict(dict, id0)
	if isOwner, ok := ownerState.Authenticate("owner-secret"); !ok || !isOwner {
		t.Fatalf("Authenticate(owner password): ok=%v isOwner=%v, want ok=true isOwner=true", ok, isOwner)
	}

	wrongState := NewEncryptionStateFromDict(dict, id0)
	if _, ok := wrongState.Authenticate("not-it"); ok {
		t.Error("a wrong password must fail authentication")
	}
}

func TestEncryptionRoundTripR2(t *testing.T) { roundTripRC4(t, 2, 40) }
func TestEncryptionRoundTripR3(t *testing.T) { roundTripRC4(t, 3, 128) }
func TestEncryptionRoundTripR4(t *testing.T) { roundTripRC4(t, 4, 128) }

func roundTripAES256(t *testing.T, r int) {
	t.Helper()
	writeState, dict, err := NewEncryptionStateAES256("owner-secret", "user-secret", PermPrint, r, true)
	if err != nil {
		t.Fatalf("NewEncryptionStateAES256(R%d): %v", r, err)
	}

	id := ObjectId{Number: 3, Generation: 0}
	plain := []byte("AES-256 payload spanning more than one cipher block")
	cipher, err := writeState.EncryptBytes(id, plain)
	if err != nil {
		t.Fatalf("EncryptBytes: %v", err)
	}

	userState := NewEncryptionStateFromDict(dict, nil)
	if isOwner, ok := userState.Authenticate("user-secret"); !ok || isOwner {
		t.Fatalf("Authenticate(user password): ok=%v isOwner=%v, want ok=true isOwner=false", ok, isOwner)
	}
	decoded, err := userState.DecryptBytes(id, cipher)
	if err != nil {
		t.Fatalf("DecryptBytes: %v", err)
	}
	if string(decoded) != string(plain) {
		t.Errorf("round trip mismatch: got %q, want %q", decoded, plain)
	}

	ownerState := NewEncryptionStateFromDict(dict, nil)
	if isOwner, ok := ownerState.Authenticate("owner-secret"); !ok || !isOwner {
		t.Fatalf("Authenticate(owner password): ok=%v isOwner=%v, want ok=true isOwner=true", ok, isOwner)
	}

	wrongState := NewEncryptionStateFromDict(dict, nil)
	if _, ok := wrongState.Authenticate("not-it"); ok {
		t.Error("a wrong password must fail authentication")
	}
}

func TestEncryptionRoundTripR5(t *testing.T) { roundTripAES256(t, 5) }
func TestEncryptionRoundTripR6(t *testing.T) { roundTripAES256(t, 6) }

func TestDocumentEncryptDecryptObjectRoundTrip(t *testing.T) {
	writeState, dict, err := NewEncryptionStateAES256("", "", 0, 6, true)
	if err != nil {
		t.Fatalf("NewEncryptionStateAES256: %v", err)
	}

	src := NewDocument()
	src.SetEncryption(writeState)
	id := ObjectId{Number: 5, Generation: 0}
	plain := String{Value: []byte("a secret title"), Format: Literal}
	encrypted, err := src.EncryptObject(id, plain)
	if err != nil {
		t.Fatalf("EncryptObject: %v", err)
	}
	if string(encrypted.(String).Value) == string(plain.Value) {
		t.Fatal("EncryptObject should have changed the string's bytes")
	}

	dst := NewDocument()
	dst.SetEncryption(NewEncryptionStateFromDict(dict, nil))
	if _, ok := dst.Authenticate(""); !ok {
		t.Fatal("the empty password should authenticate against an empty-password dictionary")
	}
	decrypted, err := dst.DecryptObject(id, encrypted)
	if err != nil {
		t.Fatalf("DecryptObject: %v", err)
	}
	if string(decrypted.(String).Value) != string(plain.Value) {
		t.Errorf("round trip mismatch: got %q, want %q", decrypted.(String).Value, plain.Value)
	}
}

func TestAuthenticateUnencryptedDocument(t *testing.T) {
	d := NewDocument()
	if d.IsEncrypted() {
		t.Fatal("a fresh document must not report IsEncrypted")
	}
	if _, ok := d.Authenticate(""); ok {
		t.Error("Authenticate on an unencrypted document must report ok=false")
	}
}
