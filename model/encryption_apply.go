package model

// SetEncryption installs an already-authenticated encryption session on the
// document (used by the reader once the password has checked out) or the
// session created for writing (used by the writer).
func (d *Document) SetEncryption(state *encryptionState) {
	d.encryption = state
}

// IsEncrypted reports whether the document carries an /Encrypt dictionary.
func (d *Document) IsEncrypted() bool {
	return d.encryption != nil
}

// Authenticate tries password against the document's encryption
// dictionary. It must be called (successfully) before DecryptObject will
// produce meaningful plaintext. Returns false if the document isn't
// encrypted at all.
func (d *Document) Authenticate(password string) (isOwner bool, ok bool) {
	if d.encryption == nil {
		return false, false
	}
	return d.encryption.Authenticate(password)
}

// DecryptObject decrypts every String and Stream reachable directly inside
// obj (not following References) for the given object id, returning a new
// object tree. Objects inside an object stream are never separately
// encrypted (7.5.7) and must not be passed here.
func (d *Document) DecryptObject(id ObjectId, obj Object) (Object, error) {
	if d.encryption == nil {
		return obj, nil
	}
	return transformStringsAndStreams(obj, func(s String) (String, error) {
		plain, err := d.encryption.DecryptBytes(id, s.Value)
		if err != nil {
			return s, err
		}
		return String{Value: plain, Format: s.Format}, nil
	}, func(raw []byte) ([]byte, error) {
		return d.encryption.DecryptBytes(id, raw)
	})
}

// EncryptObject is the write-side counterpart of DecryptObject.
func (d *Document) EncryptObject(id ObjectId, obj Object) (Object, error) {
	if d.encryption == nil {
		return obj, nil
	}
	return transformStringsAndStreams(obj, func(s String) (String, error) {
		cipher, err := d.encryption.EncryptBytes(id, s.Value)
		if err != nil {
			return s, err
		}
		return String{Value: cipher, Format: s.Format}, nil
	}, func(raw []byte) ([]byte, error) {
		return d.encryption.EncryptBytes(id, raw)
	})
}

func transformStringsAndStreams(obj Object, onString func(String) (String, error), onRaw func([]byte) ([]byte, error)) (Object, error) {
	switch v := obj.(type) {
	case String:
		return onString(v)
	case Array:
		out := make(Array, len(v))
		for i, o := range v {
			t, err := transformStringsAndStreams(o, onString, onRaw)
			if err != nil {
				return nil, err
			}
			out[i] = t
		}
		return out, nil
	case Dict:
		out := NewDict()
		for _, e := range v.Entries() {
			t, err := transformStringsAndStreams(e.Value, onString, onRaw)
			if err != nil {
				return nil, err
			}
			out.Set(e.Key, t)
		}
		return out, nil
	case Stream:
		if v.bypassEncryption() {
			return v, nil
		}
		dict, err := transformStringsAndStreams(v.Dict, onString, onRaw)
		if err != nil {
			return nil, err
		}
		raw, err := onRaw(v.Raw)
		if err != nil {
			return nil, err
		}
		return Stream{Dict: dict.(Dict), Raw: raw, AllowCompression: v.AllowCompression}, nil
	default:
		return obj, nil
	}
}

// bypassEncryption reports whether a Crypt filter of Identity marks the
// stream as already-plain, which the standard security handler uses to
// mark e.g. its own metadata stream (7.4.10).
func (s Stream) bypassEncryption() bool {
	for _, n := range s.filterNames() {
		if n == "Crypt" {
			if parms := s.decodeParmsList(len(s.filterNames())); len(parms) > 0 {
				if name, ok := parms[0].Get("Name"); ok {
					if n, ok := name.(Name); ok && n == "Identity" {
						return true
					}
				}
			}
		}
	}
	return false
}
