package model

import "fmt"

// EncryptDictToDict renders an EncryptionDict as the generic Dict the
// writer stores in the trailer's /Encrypt entry.
func EncryptDictToDict(e EncryptionDict) Dict {
	d := NewDict()
	d.Set("Filter", Name("Standard"))
	d.Set("V", Integer(e.V))
	d.Set("R", Integer(e.R))
	d.Set("O", String{Value: append([]byte(nil), e.O[:e.OLen]...), Format: Literal})
	d.Set("U", String{Value: append([]byte(nil), e.U[:e.ULen]...), Format: Literal})
	d.Set("P", Integer(e.P))
	if e.V >= 2 {
		d.Set("Length", Integer(e.Length))
	}
	if !e.EncryptMetadata {
		d.Set("EncryptMetadata", Boolean(false))
	}
	if e.R >= 5 {
		d.Set("OE", String{Value: append([]byte(nil), e.OE[:]...), Format: Literal})
		d.Set("UE", String{Value: append([]byte(nil), e.UE[:]...), Format: Literal})
		d.Set("Perms", String{Value: append([]byte(nil), e.Perms[:]...), Format: Literal})
	}
	if e.V >= 4 {
		cfm := Name("V2")
		switch e.Method {
		case MethodAESV2:
			cfm = "AESV2"
		case MethodAESV3:
			cfm = "AESV3"
		case MethodIdentity:
			cfm = "Identity"
		}
		cf := NewDict()
		stdCF := NewDict()
		stdCF.Set("CFM", cfm)
		stdCF.Set("AuthEvent", Name("DocOpen"))
		stdCF.Set("Length", Integer(e.Length/8))
		cf.Set("StdCF", stdCF)
		d.Set("CF", cf)
		d.Set("StmF", Name("StdCF"))
		d.Set("StrF", Name("StdCF"))
	}
	return d
}

// EncryptDictFromDict parses a trailer's /Encrypt dictionary. It only
// understands the standard security handler (/Filter /Standard); any other
// filter is reported as an error since this package has no registered
// handler for it.
func EncryptDictFromDict(dict Dict) (EncryptionDict, error) {
	var e EncryptionDict
	if f, ok := dict.Get("Filter"); ok {
		if n, ok := f.(Name); ok && n != "Standard" {
			return e, newError(KindEncryption, -1, fmt.Sprintf("unsupported security handler /%s", n))
		}
	}
	if v, ok := IsNumber(firstOr(dict, "V")); ok {
		e.V = int(v)
	}
	if v, ok := IsNumber(firstOr(dict, "R")); ok {
		e.R = int(v)
	}
	if v, ok := IsNumber(firstOr(dict, "Length")); ok {
		e.Length = int(v)
	} else {
		e.Length = 40
	}
	if s, ok := IsString(firstOr(dict, "O")); ok {
		e.OLen = copy(e.O[:], s)
	}
	if s, ok := IsString(firstOr(dict, "U")); ok {
		e.ULen = copy(e.U[:], s)
	}
	if v, ok := IsNumber(firstOr(dict, "P")); ok {
		e.P = int32(int64(v))
	}
	e.EncryptMetadata = true
	if v, ok := dict.Get("EncryptMetadata"); ok {
		if b, ok := v.(Boolean); ok {
			e.EncryptMetadata = bool(b)
		}
	}
	if s, ok := IsString(firstOr(dict, "OE")); ok {
		copy(e.OE[:], s)
	}
	if s, ok := IsString(firstOr(dict, "UE")); ok {
		copy(e.UE[:], s)
	}
	if s, ok := IsString(firstOr(dict, "Perms")); ok {
		copy(e.Perms[:], s)
	}

	e.Method = MethodRC4
	if e.V >= 4 {
		if cf, ok := dict.Get("CF"); ok {
			if cfDict, ok := cf.(Dict); ok {
				if stmF, ok := dict.Get("StmF"); ok {
					if name, ok := stmF.(Name); ok {
						if sub, ok := cfDict.Get(name); ok {
							if subDict, ok := sub.(Dict); ok {
								if cfm, ok := subDict.Get("CFM"); ok {
									if n, ok := cfm.(Name); ok {
										switch n {
										case "AESV2":
											e.Method = MethodAESV2
										case "AESV3":
											e.Method = MethodAESV3
										case "Identity":
											e.Method = MethodIdentity
										}
									}
								}
							}
						}
					}
				}
			}
		}
	}
	if e.R >= 5 {
		e.Method = MethodAESV3
	}
	return e, nil
}
