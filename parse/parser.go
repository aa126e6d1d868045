// Package parse maps a token stream (see package tokenizer) onto the
// generic model.Object tree. It handles a single object fragment at a
// time; assembling a full file (streams, xref, object streams) is the
// reader package's job.
package parse

import (
	"errors"
	"fmt"

	"github.com/harrowgate/pdf/model"
	tok "github.com/harrowgate/pdf/tokenizer"
	"github.com/pdfcpu/pdfcpu/pkg/log"
)

var (
	errArrayNotTerminated      = errors.New("parse: unterminated array")
	errDictionaryCorrupt       = errors.New("parse: corrupt dictionary")
	errDictionaryNotTerminated = errors.New("parse: unterminated dictionary")
	errBufNotAvailable         = errors.New("parse: no object available")
)

// maxNestingDepth bounds how deeply arrays and dictionaries may nest,
// rejecting pathological or malicious input instead of recursing until the
// call stack overflows.
const maxNestingDepth = 150

// Parser turns a token stream into model.Object values. Streams and the
// indirect-object "N G obj ... endobj" wrapper are the reader's job, since
// both need file-level context (byte offsets, filters) the tokenizer
// alone doesn't have.
type Parser struct {
	tokens tok.Tokenizer
	depth  int
}

func NewParser(data []byte) *Parser {
	return &Parser{tokens: tok.NewTokenizer(data)}
}

// ParseObject tokenizes data and parses a single object from the front of
// it.
func ParseObject(data []byte) (model.Object, error) {
	log.Parse.Printf("ParseObject: buf=<%s>\n", data)
	return NewParser(data).ParseObject()
}

// ParseObject reads one object from the current position.
func (p *Parser) ParseObject() (model.Object, error) {
	tk, err := p.tokens.NextToken()
	if err != nil {
		return nil, err
	}

	var value model.Object

	switch tk.Kind {
	case tok.EOF:
		return nil, errBufNotAvailable
	case tok.Name:
		value = model.Name(tk.Value)
	case tok.String:
		value = model.String{Value: []byte(tk.Value), Format: model.Literal}
	case tok.StringHex:
		value = model.String{Value: []byte(tk.Value), Format: model.Hex}
	case tok.StartArray:
		p.depth++
		if p.depth > maxNestingDepth {
			return nil, fmt.Errorf("parse: array nesting exceeds %d", maxNestingDepth)
		}
		arr, err := p.parseArray()
		p.depth--
		if err != nil {
			return nil, err
		}
		value = arr
	case tok.StartDic:
		p.depth++
		if p.depth > maxNestingDepth {
			return nil, fmt.Errorf("parse: dictionary nesting exceeds %d", maxNestingDepth)
		}
		save := p.tokens.CurrentPosition()
		dict, derr := p.parseDict(false)
		if derr != nil {
			p.tokens.SetPosition(save)
			dict, derr = p.parseDict(true)
		}
		p.depth--
		if derr != nil {
			return nil, derr
		}
		value = dict
	case tok.Float:
		f, ferr := tk.Float()
		if ferr != nil {
			return nil, ferr
		}
		value = model.Real(f)
	case tok.Other:
		value, err = p.parseOther(tk.Value)
	default:
		// Must be numeric or indirect reference: "1", "1.0", "1 0 R".
		value, err = p.parseNumericOrIndRef(tk)
	}

	return value, err
}

func (p *Parser) parseArray() (model.Array, error) {
	a := model.Array{}
	tk, err := p.tokens.PeekToken()
	for ; err == nil; tk, err = p.tokens.PeekToken() {
		switch tk.Kind {
		case tok.EndArray:
			_, _ = p.tokens.NextToken()
			return a, nil
		case tok.EOF:
			return nil, errArrayNotTerminated
		default:
			obj, oerr := p.ParseObject()
			if oerr != nil {
				return nil, oerr
			}
			a = append(a, obj)
		}
	}
	return nil, err
}

// parseDict parses a dictionary body up to ">>". In relaxed mode, an
// unexpected token is skipped rather than erroring, and EOF ends the
// dictionary early rather than failing outright - real-world producers
// sometimes emit malformed dictionaries that strict parsing can't recover
// from.
func (p *Parser) parseDict(relaxed bool) (model.Dict, error) {
	d := model.NewDict()

	tk, err := p.tokens.PeekToken()
	for ; err == nil; tk, err = p.tokens.PeekToken() {
		switch tk.Kind {
		case tok.EndDic:
			_, _ = p.tokens.NextToken()
			return d, nil
		case tok.EOF:
			if relaxed {
				return d, nil
			}
			return model.Dict{}, errDictionaryNotTerminated
		case tok.Name:
			key := tk.Value
			_, _ = p.tokens.NextToken() // consume the key

			obj, oerr := p.ParseObject()
			if oerr != nil {
				if relaxed {
					return d, nil
				}
				return model.Dict{}, oerr
			}

			// Specifying null as a dictionary entry's value is equivalent to
			// omitting the entry entirely (7.3.7). A duplicate key simply
			// overwrites the earlier value, last writer wins.
			if obj != nil {
				d.Set(model.Name(key), obj)
			}
		default:
			if relaxed {
				_, _ = p.tokens.NextToken() // skip the unexpected token and keep going
				continue
			}
			return model.Dict{}, errDictionaryCorrupt
		}
	}
	return model.Dict{}, err
}

func (p *Parser) parseOther(l string) (model.Object, error) {
	switch l {
	case "null":
		return model.Null{}, nil
	case "true":
		return model.Boolean(true), nil
	case "false":
		return model.Boolean(false), nil
	default:
		return nil, fmt.Errorf("parse: unexpected keyword %q", l)
	}
}

var tokenReference = tok.Token{Kind: tok.Other, Value: "R"}

func (p *Parser) parseNumericOrIndRef(currentToken tok.Token) (model.Object, error) {
	if currentToken.Kind != tok.Integer {
		return nil, fmt.Errorf("parse: expected number, got %v", currentToken)
	}

	i, err := currentToken.Int()
	if err != nil {
		return nil, err
	}

	next, err := p.tokens.PeekToken()
	if err != nil {
		return nil, err
	}

	gen, err := next.Int()
	if next.Kind != tok.Integer || err != nil {
		return model.Integer(i), nil
	}

	if nextNext, _ := p.tokens.PeekPeekToken(); nextNext != tokenReference {
		return model.Integer(i), nil
	}

	_, _ = p.tokens.NextToken()
	_, _ = p.tokens.NextToken()
	return model.Reference{Number: uint32(i), Generation: uint16(gen)}, nil
}

// ParseObjectDefinition parses an "N G obj ..." header and, unless
// headerOnly, the object that follows it.
func ParseObjectDefinition(line []byte, headerOnly bool) (objectNumber, generationNumber int, o model.Object, err error) {
	tokens := tok.NewTokenizer(line)

	t, err := tokens.NextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	objNr, err := t.Int()
	if t.Kind != tok.Integer || err != nil {
		return 0, 0, nil, errors.New("parse: can't find object number")
	}

	t, err = tokens.NextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	genNr, err := t.Int()
	if t.Kind != tok.Integer || err != nil {
		return 0, 0, nil, errors.New("parse: can't find generation number")
	}

	t, err = tokens.NextToken()
	if err != nil {
		return 0, 0, nil, errors.New(`parse: can't find "obj"`)
	}
	if t != (tok.Token{Kind: tok.Other, Value: "obj"}) {
		return 0, 0, nil, errors.New(`parse: can't find "obj"`)
	}

	if headerOnly {
		return objNr, genNr, nil, nil
	}

	pr := &Parser{tokens: tokens}
	obj, err := pr.ParseObject()
	return objNr, genNr, obj, err
}
