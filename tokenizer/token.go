// Package tokenizer implements the lowest level of PDF file processing:
// splitting a byte buffer into delimiters, names, numbers, strings and
// bare keywords, without knowing what a dictionary or an array is. See the
// higher level package parse to assemble these tokens into PDF objects.
package tokenizer

// The lexer also accepts a few PostScript-only constructs (procedures,
// binary charstrings) inherited from content-stream Type 4 function
// syntax; nothing in this module currently parses /FunctionType 4, but
// rejecting them outright would make this tokenizer unusable for that case
// later, so they're recognized and left for a caller to interpret.

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Fl = float64

type Kind uint8

const (
	EOF Kind = iota
	Float
	Integer
	String
	StringHex
	Name
	StartArray
	EndArray
	StartDic
	EndDic
	// Ref
	Other // include commands in content stream

	StartProc  // only valid in PostScript files
	EndProc    // idem
	CharString // PS only: binary stream, introduce by and integer and a RD or -| command
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Float:
		return "Float"
	case Integer:
		return "Integer"
	case String:
		return "String"
	case StringHex:
		return "StringHex"
	case Name:
		return "Name"
	case StartArray:
		return "StartArray"
	case EndArray:
		return "EndArray"
	case StartDic:
		return "StartDic"
	case EndDic:
		return "EndDic"
	case Other:
		return "Other"
	case StartProc:
		return "StartProc"
	case EndProc:
		return "EndProc"
	case CharString:
		return "CharString"
	default:
		return "<invalid token>"
	}
}

func isWhitespace(ch byte) bool {
	switch ch {
	case 0, 9, 10, 12, 13, 32:
		return true
	default:
		return false
	}
}

// white space + delimiters
func isDelimiter(ch byte) bool {
	switch ch {
	case 40, 41, 60, 62, 91, 93, 123, 125, 47, 37:
		return true
	default:
		return isWhitespace(ch)
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Token represents a basic piece of information.
// `Value` must be interpreted according to `Kind`,
// which is left to parsing packages.
type Token struct {
	Kind  Kind
	Value string // additional value found in the data
}

// Int returns the integer value of the token,
// also accepting float values and truncating them.
func (t Token) Int() (int, error) {
	// also accepts floats and round
	f, err := t.Float()
	return int(f), err
}

// Float returns the float value of the token.
func (t Token) Float() (Fl, error) {
	return strconv.ParseFloat(t.Value, 64)
}

// IsNumber returns `true` for integers and floats.
func (t Token) IsNumber() bool {
	return t.Kind == Integer || t.Kind == Float
}

// return true for binary stream or inline data
func (t Token) startsBinary() bool {
	return t.Kind == Other && (t.Value == "stream" || t.Value == "ID")
}

// Tokenize consume all the input, splitting it
// into tokens.
// When performance matters, you should use
// the iteration method `NextToken` of the Tokenizer type.
func Tokenize(data []byte) ([]Token, error) {
	tk := NewTokenizer(data)
	var out []Token
	t, err := tk.NextToken()
	for ; t.Kind != EOF && err == nil; t, err = tk.NextToken() {
		out = append(out, t)
	}
	return out, err
}

// Tokenizer lexes a PDF byte buffer into a stream of Tokens.
//
// It also recognizes the PostScript Proc and CharString constructs a
// content stream's Type 4 functions can carry; a caller parsing plain PDF
// objects should treat them as unexpected and return an error.
//
// Comments are ignored.
//
// The tokenizer can't handle streams and inline image data on its own: it
// will stop (by returning EOF) when reached. Processing may be resumed
// with the SetPosition method.
//
// Regarding exponential numbers: 7.3.3 Numeric Objects:
// A conforming writer shall not use the PostScript syntax for numbers
// with non-decimal radices (such as 16#FFFE) or in exponential format
// (such as 6.02E23).
// Nonetheless, we sometimes get numbers with exponential format, so
// we support it in the tokenizer (no confusion with other types, so
// no compromise).
type Tokenizer struct {
	data []byte

	// since indirect reference require
	// to read two more tokens
	// we store the two next token

	pos int // main position (end of the aaToken)

	currentPos int // end of the current token
	nextPos    int // end of the +1 token

	aToken Token // +1
	aError error // +1

	aaToken Token // +2
	aaError error // +2
}

func NewTokenizer(data []byte) Tokenizer {
	tk := Tokenizer{data: data}
	tk.initiateAt(0)
	return tk
}

// there are two cases where NextToken() is not sufficient:
// at the stat (aToken and aaToken are empty)
// end after skipping over bytes (aToken and aaToken are invalid)
// in this cases, `initiateAt` force the 2 next tokenizations
// (in the contrary, NextToken only does 1).
func (tk *Tokenizer) initiateAt(pos int) {
	tk.currentPos = pos
	tk.pos = pos
	tk.aToken, tk.aError = tk.nextToken(Token{})
	tk.nextPos = tk.pos
	tk.aaToken, tk.aaError = tk.nextToken(tk.aToken)
}

// PeekToken reads a token but does not advance the position.
// It returns a cached value, meaning it is a very cheap call.
func (tz Tokenizer) PeekToken() (Token, error) {
	return tz.aToken, tz.aError
}

// PeekPeekToken reads the token after the next but does not advance the position.
// It returns a cached value, meaning it is a very cheap call.
func (tz Tokenizer) PeekPeekToken() (Token, error) {
	return tz.aaToken, tz.aaError
}

// NextToken reads a token and advances (consuming the token).
// If EOF is reached, no error is returned, but an `EOF` token.
func (tz *Tokenizer) NextToken() (Token, error) {
	tk, err := tz.PeekToken()                     // n+1 to n
	tz.aToken, tz.aError = tz.aaToken, tz.aaError // n+2 to n+1
	tz.currentPos = tz.nextPos                    // n+1 to n
	tz.nextPos = tz.pos                           // n+2 to n

	// the tokenizer can't handle binary stream or inline data:
	// such data will be handled with a parser
	// thus, we simply stop the tokenization when we encounter them
	// to avoid useless (and maybe costly) processing
	if tz.aaToken.startsBinary() {
		tz.aaToken, tz.aaError = Token{Kind: EOF}, nil
	} else {
		tz.aaToken, tz.aaError = tz.nextToken(tz.aaToken) // read the n+3 and store it in n+2
	}
	return tk, err
}

// CurrentPosition returns the byte offset the tokenizer is at (the start of
// the next NextToken call). SetPosition can later restore it, which lets a
// caller backtrack after a failed speculative parse.
func (tz Tokenizer) CurrentPosition() int {
	return tz.currentPos
}

// SetPosition rewinds (or advances) the tokenizer to pos, re-reading the
// next two tokens from there.
func (tz *Tokenizer) SetPosition(pos int) {
	tz.initiateAt(pos)
}

// SkipBytes skips the next `n` bytes and return them. This method is useful
// to handle streams and inline data.
func (tz *Tokenizer) SkipBytes(n int) []byte {
	// use currentPos, which is the position 'expected' by the caller
	target := tz.currentPos + n
	if target > len(tz.data) { // truncate if needed
		target = len(tz.data)
	}
	out := tz.data[tz.currentPos:target]
	tz.initiateAt(target)
	return out
}

// Bytes return a slice of the bytes, starting
// from the current position.
func (tz Tokenizer) Bytes() []byte {
	if tz.currentPos >= len(tz.data) {
		return nil
	}
	return tz.data[tz.currentPos:]
}

// IsHexChar converts a hex character into its value and a success flag
// (see encoding/hex for details).
func IsHexChar(c byte) (uint8, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return c, false
}

// return false if EOF, true if the moved forward
func (tz *Tokenizer) read() (byte, bool) {
	if tz.pos >= len(tz.data) {
		return 0, false
	}
	ch := tz.data[tz.pos]
	tz.pos++
	return ch, true
}

// reads and advances, mutating `pos`
func (tz *Tokenizer) nextToken(previous Token) (Token, error) {
	ch, ok := tz.read()
	for ok && isWhitespace(ch) {
		ch, ok = tz.read()
	}
	if !ok {
		return Token{Kind: EOF}, nil
	}

	var outBuf []byte
	switch ch {
	case '[':
		return Token{Kind: StartArray}, nil
	case ']':
		return Token{Kind: EndArray}, nil
	case '{':
		return Token{Kind: StartProc}, nil
	case '}':
		return Token{Kind: EndProc}, nil
	case '/':
		for {
			ch, ok = tz.read()
			if !ok || isDelimiter(ch) {
				break
			}
			outBuf = append(outBuf, ch)
			if ch == '#' {
				h1, _ := tz.read()
				h2, _ := tz.read()
				_, err := hex.Decode([]byte{0}, []byte{h1, h2})
				if err != nil {
					return Token{}, errors.New("corrupted name object")
				}
				outBuf = append(outBuf, h1, h2)
			}
		}
		// the delimiter may be important, dont skip it
		if ok { // we moved, so its safe go back
			tz.pos--
		}
		return Token{Kind: Name, Value: string(outBuf)}, nil
	case '>':
		ch, ok = tz.read()
		if ch != '>' {
			return Token{}, errors.New("'>' not expected")
		}
		return Token{Kind: EndDic}, nil
	case '<':
		v1, ok1 := tz.read()
		if v1 == '<' {
			return Token{Kind: StartDic}, nil
		}
		var (
			v2  byte
			ok2 bool
		)
		for {
			for ok1 && isWhitespace(v1) {
				v1, ok1 = tz.read()
			}
			if v1 == '>' {
				break
			}
			v1, ok1 = IsHexChar(v1)
			if !ok1 {
				return Token{}, fmt.Errorf("invalid hex char %d (%s)", v1, string(rune(v1)))
			}
			v2, ok2 = tz.read()
			for ok2 && isWhitespace(v2) {
				v2, ok2 = tz.read()
			}
			if v2 == '>' {
				ch = v1 << 4
				outBuf = append(outBuf, ch)
				break
			}
			v2, ok2 = IsHexChar(v2)
			if !ok2 {
				return Token{}, fmt.Errorf("invalid hex char %d", v2)
			}
			ch = (v1 << 4) + v2
			outBuf = append(outBuf, ch)
			v1, ok1 = tz.read()
		}
		return Token{Kind: StringHex, Value: string(outBuf)}, nil
	case '%':
		ch, ok = tz.read()
		for ok && ch != '\r' && ch != '\n' {
			ch, ok = tz.read()
		}
		// ignore comments: go to next token
		return tz.nextToken(previous)
	case '(':
		nesting := 0
		for {
			ch, ok = tz.read()
			if !ok {
				break
			}
			if ch == '(' {
				nesting++
			} else if ch == ')' {
				nesting--
			} else if ch == '\\' {
				lineBreak := false
				ch, ok = tz.read()
				switch ch {
				case 'n':
					ch = '\n'
				case 'r':
					ch = '\r'
				case 't':
					ch = '\t'
				case 'b':
					ch = '\b'
				case 'f':
					ch = '\f'
				case '(', ')', '\\':
				case '\r':
					lineBreak = true
					ch, ok = tz.read()
					if ch != '\n' {
						tz.pos--
					}
				case '\n':
					lineBreak = true
				default:
					if ch < '0' || ch > '7' {
						break
					}
					octal := ch - '0'
					ch, ok = tz.read()
					if ch < '0' || ch > '7' {
						tz.pos--
						ch = octal
						break
					}
					octal = (octal << 3) + ch - '0'
					ch, ok = tz.read()
					if ch < '0' || ch > '7' {
						tz.pos--
						ch = octal
						break
					}
					octal = (octal << 3) + ch - '0'
					ch = octal & 0xff
					break
				}
				if lineBreak {
					continue
				}
				if !ok || ch < 0 {
					break
				}
			} else if ch == '\r' {
				ch, ok = tz.read()
				if !ok {
					break
				}
				if ch != '\n' {
					tz.pos--
					ch = '\n'
				}
			}
			if nesting == -1 {
				break
			}
			outBuf = append(outBuf, ch)
		}
		if !ok {
			return Token{}, errors.New("error reading string: unexpected EOF")
		}
		return Token{Kind: String, Value: string(outBuf)}, nil
	default:
		tz.pos-- // we need the test char
		if token, ok := tz.readNumber(); ok {
			return token, nil
		}
		ch, ok = tz.read() // we went back before parsing a number
		outBuf = append(outBuf, ch)
		ch, ok = tz.read()
		for !isDelimiter(ch) {
			outBuf = append(outBuf, ch)
			ch, ok = tz.read()
		}
		if ok {
			tz.pos--
		}
		cmd := string(outBuf)
		if cmd == "RD" || cmd == "-|" {
			// return the next CharString instead
			if previous.Kind == Integer {
				f, err := previous.Int()
				if err != nil {
					return Token{}, fmt.Errorf("invalid charstring length: %s", err)
				}
				return tz.readCharString(f), nil
			} else {
				return Token{}, errors.New("expected INTEGER before -| or RD")
			}
		}
		return Token{Kind: Other, Value: cmd}, nil
	}
}

// accept PS syntax (radix and exponents)
// return false if it is not a number
func (tz *Tokenizer) readNumber() (Token, bool) {
	markedPos := tz.pos

	sb, radix := &strings.Builder{}, &strings.Builder{}
	c, ok := tz.read() // one char is OK
	hasDigit := false
	// optional + or -
	if c == '+' || c == '-' {
		sb.WriteByte(c)
		c, _ = tz.read()
	}

	// optional digits
	for isDigit(c) {
		sb.WriteByte(c)
		c, ok = tz.read()
		hasDigit = true
	}

	// optional .
	if c == '.' {
		sb.WriteByte(c)
		c, _ = tz.read()
	} else if c == '#' {
		// PostScript radix number takes the form base#number
		radix = sb
		sb = &strings.Builder{}
		c, _ = tz.read()
	} else if sb.Len() == 0 || !hasDigit {
		// failure
		tz.pos = markedPos
		return Token{}, false
	} else if c == 'E' || c == 'e' {
		// optional minus
		sb.WriteByte(c)
		c, ok = tz.read()
		if c == '-' {
			sb.WriteByte(c)
			c, ok = tz.read()
		}
	} else {
		// integer
		if ok {
			tz.pos--
		}
		return Token{Value: sb.String(), Kind: Integer}, true
	}

	// required digit
	if isDigit(c) {
		sb.WriteByte(c)
		c, ok = tz.read()
	} else {
		// failure
		tz.pos = markedPos
		return Token{}, false
	}

	// optional digits
	for isDigit(c) {
		sb.WriteByte(c)
		c, ok = tz.read()
	}

	if ok {
		tz.pos--
	}
	if radix := radix.String(); radix != "" {
		intRadix, _ := strconv.Atoi(radix)
		valInt, _ := strconv.ParseInt(sb.String(), intRadix, 0)
		return Token{Value: strconv.Itoa(int(valInt)), Kind: Integer}, true
	}
	return Token{Value: sb.String(), Kind: Float}, true
}

// reads a binary CharString.
func (tz *Tokenizer) readCharString(length int) Token {
	tz.pos++ // space
	maxL := tz.pos + length
	if maxL >= len(tz.data) {
		maxL = len(tz.data)
	}
	out := Token{Value: string(tz.data[tz.pos:maxL]), Kind: CharString}
	tz.pos += length
	return out
}
