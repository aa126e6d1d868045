package model

// Dict is a PDF dictionary: a set of name/object pairs. Unlike a Go map,
// Dict preserves insertion order, which the writer reproduces byte for byte
// on round-trip even though the PDF spec does not assign it meaning -
// tools that diff or hash producer output still observe it.
type Dict struct {
	keys   []Name
	values map[Name]Object
}

// NewDict returns an empty Dict ready to use.
func NewDict() Dict {
	return Dict{values: map[Name]Object{}}
}

// DictFrom builds a Dict from an ordered list of key/value pairs, in the
// order given. A later duplicate key overwrites the earlier value but does
// not change the position already recorded for that key, matching how a
// parser folds a dictionary with a relaxed duplicate-key tolerance.
func DictFrom(pairs ...DictEntry) Dict {
	d := NewDict()
	for _, p := range pairs {
		d.Set(p.Key, p.Value)
	}
	return d
}

// DictEntry is one key/value pair, used by DictFrom and by Entries.
type DictEntry struct {
	Key   Name
	Value Object
}

// Set inserts or overwrites key. Setting a key to Null is equivalent to
// Delete, per 7.3.7.
func (d *Dict) Set(key Name, value Object) {
	if d.values == nil {
		d.values = map[Name]Object{}
	}
	if _, isNull := value.(Null); isNull {
		d.Delete(key)
		return
	}
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value for key and whether it was present. An absent key
// and a key explicitly set to Null are indistinguishable, per 7.3.7.
func (d Dict) Get(key Name) (Object, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Delete removes key, preserving the relative order of the remaining keys.
func (d *Dict) Delete(key Name) {
	if _, exists := d.values[key]; !exists {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (d Dict) Len() int { return len(d.keys) }

// Keys returns the keys in insertion order. The returned slice must not be
// mutated by the caller.
func (d Dict) Keys() []Name { return d.keys }

// Entries returns the key/value pairs in insertion order.
func (d Dict) Entries() []DictEntry {
	out := make([]DictEntry, len(d.keys))
	for i, k := range d.keys {
		out[i] = DictEntry{Key: k, Value: d.values[k]}
	}
	return out
}

func (d Dict) Write(dst []byte) []byte {
	dst = append(dst, "<<"...)
	for _, k := range d.keys {
		dst = append(dst, ' ')
		dst = k.Write(dst)
		dst = append(dst, ' ')
		dst = d.values[k].Write(dst)
	}
	dst = append(dst, " >>"...)
	return dst
}

func (d Dict) Clone() Object {
	out := Dict{
		keys:   append([]Name(nil), d.keys...),
		values: make(map[Name]Object, len(d.values)),
	}
	for k, v := range d.values {
		out.values[k] = v.Clone()
	}
	return out
}
