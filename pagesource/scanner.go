// seehuhn.de/go/printer - convert documents to printer raster streams
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pagesource

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"seehuhn.de/go/pdf"
)

// A contentOp is one content stream operator together with its arguments.
type contentOp struct {
	Name string
	Args []pdf.Object
}

// operator marks bare operator tokens while scanning.  The type is internal
// to the tokenizer; operators never appear inside argument lists.
type operator string

// tokenizeContent splits a decoded content stream into operators and appends
// them to ops.  Numbers, strings, names, arrays and dictionaries before an
// operator become its arguments.  The binary data of inline images is
// consumed but not retained; the image dictionary is kept as the single
// argument of the "BI" operator.
func tokenizeContent(src io.Reader, ops []contentOp) ([]contentOp, error) {
	s := &contentScanner{
		src: src,
		buf: make([]byte, 512),
	}

	var args []pdf.Object
	for {
		obj, err := s.next()
		if err == io.EOF {
			break
		} else if err != nil {
			return ops, err
		}

		op, isOperator := obj.(operator)
		if !isOperator {
			args = append(args, obj)
			continue
		}

		if op == "BI" {
			// the tokens up to "ID" form the image dictionary
			args = nil
			continue
		}
		if op == "ID" {
			// Inline image data follows immediately.  The preceding
			// arguments form the image dictionary written as alternating
			// keys and values after "BI".
			err = s.skipInlineImage()
			if err != nil && err != io.EOF {
				return ops, err
			}
			ops = append(ops, contentOp{Name: "BI", Args: []pdf.Object{inlineImageDict(args)}})
			args = nil
			continue
		}

		ops = append(ops, contentOp{Name: string(op), Args: args})
		args = nil
	}
	return ops, nil
}

// inlineImageDict collects the key/value tokens between "BI" and "ID" into
// a dictionary.  Malformed sequences yield a partial dictionary instead of
// an error, since the image is skipped anyway.
func inlineImageDict(args []pdf.Object) pdf.Dict {
	dict := pdf.Dict{}
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(pdf.Name)
		if !ok {
			break
		}
		dict[key] = args[i+1]
	}
	return dict
}

// A contentScanner reads tokens from a content stream.
type contentScanner struct {
	src       io.Reader
	buf       []byte
	pos, used int
	ahead     []byte
	err       error
}

// next returns the next object from the input.  Arrays and dictionaries are
// assembled recursively.  Bare operators are returned as type operator.
func (s *contentScanner) next() (pdf.Object, error) {
	type frame struct {
		isDict bool
		data   []pdf.Object
	}
	var stack []*frame
	for {
		obj, err := s.nextToken()
		if err != nil {
			return nil, err
		}

	place:
		switch obj {
		case operator("<<"):
			stack = append(stack, &frame{isDict: true})
		case operator(">>"):
			if len(stack) == 0 || !stack[len(stack)-1].isDict {
				return nil, &contentError{"unexpected '>>'"}
			}
			entry := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(entry.data)%2 != 0 {
				return nil, &contentError{"malformed dictionary"}
			}
			dict := pdf.Dict{}
			for i := 0; i < len(entry.data); i += 2 {
				key, ok := entry.data[i].(pdf.Name)
				if !ok {
					return nil, &contentError{"malformed dictionary key"}
				}
				if entry.data[i+1] != nil {
					dict[key] = entry.data[i+1]
				}
			}
			obj = dict
			goto place
		case operator("["):
			stack = append(stack, &frame{})
		case operator("]"):
			if len(stack) == 0 || stack[len(stack)-1].isDict {
				return nil, &contentError{"unexpected ']'"}
			}
			entry := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			obj = pdf.Array(entry.data)
			goto place
		default:
			if len(stack) == 0 {
				return obj, nil
			}
			stack[len(stack)-1].data = append(stack[len(stack)-1].data, obj)
		}
	}
}

func (s *contentScanner) nextToken() (pdf.Object, error) {
	err := s.skipWhiteSpace()
	if err != nil {
		return nil, err
	}
	b, err := s.peek()
	if err != nil {
		return nil, err
	}
	switch b {
	case '(':
		return s.readString()
	case '<':
		if string(s.peekN(2)) == "<<" {
			s.skipByte()
			s.skipByte()
			return operator("<<"), nil
		}
		return s.readHexString()
	case '>':
		if string(s.peekN(2)) == ">>" {
			s.skipByte()
			s.skipByte()
			return operator(">>"), nil
		}
		return nil, &contentError{"unexpected '>'"}
	case '/':
		s.skipByte()
		return s.readName()
	case '[', ']', '{', '}':
		s.skipByte()
		return operator(string(b)), nil
	default:
		s.skipByte()
		tok := []byte{b}
		if !isDelimiter(b) {
			for {
				b, err := s.peek()
				if err == io.EOF {
					break
				} else if err != nil {
					return nil, err
				}
				if isWhiteSpace(b) || isDelimiter(b) {
					break
				}
				s.skipByte()
				tok = append(tok, b)
			}
		}

		if x, ok := parseNumber(tok); ok {
			return x, nil
		}
		switch string(tok) {
		case "true":
			return pdf.Bool(true), nil
		case "false":
			return pdf.Bool(false), nil
		case "null":
			return nil, nil
		}
		return operator(tok), nil
	}
}

func (s *contentScanner) readString() (pdf.String, error) {
	s.skipByte() // '('
	var res []byte
	depth := 1
	ignoreLF := false
	for {
		b, err := s.nextByte()
		if err != nil {
			return nil, err
		}
		if ignoreLF && b == '\n' {
			ignoreLF = false
			continue
		}
		ignoreLF = false
		switch b {
		case '(':
			depth++
			res = append(res, b)
		case ')':
			depth--
			if depth == 0 {
				return pdf.String(res), nil
			}
			res = append(res, b)
		case '\\':
			b, err = s.nextByte()
			if err != nil {
				return nil, err
			}
			switch b {
			case 'n':
				res = append(res, '\n')
			case 'r':
				res = append(res, '\r')
			case 't':
				res = append(res, '\t')
			case 'b':
				res = append(res, '\b')
			case 'f':
				res = append(res, '\f')
			case '\n':
				// line continuation
			case '\r':
				ignoreLF = true
			case '0', '1', '2', '3', '4', '5', '6', '7':
				oct := b - '0'
				for i := 0; i < 2; i++ {
					b, err = s.peek()
					if err != nil || b < '0' || b > '7' {
						break
					}
					s.skipByte()
					oct = oct*8 + (b - '0')
				}
				res = append(res, oct)
			default:
				res = append(res, b)
			}
		default:
			res = append(res, b)
		}
	}
}

func (s *contentScanner) readHexString() (pdf.String, error) {
	s.skipByte() // '<'
	var res []byte
	var hi byte
	first := true
	for {
		b, err := s.nextByte()
		if err != nil {
			return nil, err
		}
		var v byte
		switch {
		case b == '>':
			if !first {
				res = append(res, hi)
			}
			return pdf.String(res), nil
		case isWhiteSpace(b):
			continue
		case b >= '0' && b <= '9':
			v = b - '0'
		case b >= 'A' && b <= 'F':
			v = b - 'A' + 10
		case b >= 'a' && b <= 'f':
			v = b - 'a' + 10
		default:
			return nil, &contentError{fmt.Sprintf("invalid hex digit %q", b)}
		}
		if first {
			hi = v << 4
			first = false
		} else {
			res = append(res, hi|v)
			first = true
		}
	}
}

func (s *contentScanner) readName() (pdf.Name, error) {
	var name []byte
	for {
		b, err := s.peek()
		if err == io.EOF {
			break
		} else if err != nil {
			return "", err
		}
		if b == '#' {
			s.skipByte()
			var v byte
			for i := 0; i < 2; i++ {
				c, err := s.nextByte()
				if err != nil {
					return "", err
				}
				switch {
				case c >= '0' && c <= '9':
					v = v<<4 | (c - '0')
				case c >= 'A' && c <= 'F':
					v = v<<4 | (c - 'A' + 10)
				case c >= 'a' && c <= 'f':
					v = v<<4 | (c - 'a' + 10)
				default:
					return "", &contentError{fmt.Sprintf("invalid hex digit %q", c)}
				}
			}
			name = append(name, v)
			continue
		}
		if isWhiteSpace(b) || isDelimiter(b) {
			break
		}
		s.skipByte()
		name = append(name, b)
	}
	return pdf.Name(name), nil
}

// skipInlineImage consumes the binary data between "ID" and "EI".  The
// length of the data is not known in advance; the end is detected by
// looking for "EI" surrounded by white space.
func (s *contentScanner) skipInlineImage() error {
	// a single white space character separates "ID" from the data
	b, err := s.peek()
	if err != nil {
		return err
	}
	if isWhiteSpace(b) {
		s.skipByte()
	}

	prev := byte(' ')
	for {
		b, err := s.nextByte()
		if err != nil {
			return err
		}
		if b == 'E' && isWhiteSpace(prev) {
			bb := s.peekN(2)
			if len(bb) >= 1 && bb[0] == 'I' {
				if len(bb) == 1 || isWhiteSpace(bb[1]) || isDelimiter(bb[1]) {
					s.skipByte()
					return nil
				}
			}
		}
		prev = b
	}
}

func (s *contentScanner) skipWhiteSpace() error {
	for {
		b, err := s.peek()
		if err != nil {
			return err
		}
		switch {
		case isWhiteSpace(b):
			s.skipByte()
		case b == '%':
			for {
				b, err := s.peek()
				if err != nil {
					return err
				}
				if b == '\n' || b == '\r' {
					break
				}
				s.skipByte()
			}
		default:
			return nil
		}
	}
}

func (s *contentScanner) peek() (byte, error) {
	if len(s.ahead) == 0 {
		b, err := s.readByte()
		if err != nil {
			return 0, err
		}
		s.ahead = append(s.ahead, b)
	}
	return s.ahead[0], nil
}

func (s *contentScanner) peekN(n int) []byte {
	for len(s.ahead) < n {
		b, err := s.readByte()
		if err != nil {
			return s.ahead
		}
		s.ahead = append(s.ahead, b)
	}
	return s.ahead[:n]
}

func (s *contentScanner) skipByte() {
	if len(s.ahead) > 0 {
		copy(s.ahead, s.ahead[1:])
		s.ahead = s.ahead[:len(s.ahead)-1]
		return
	}
	s.readByte()
}

func (s *contentScanner) nextByte() (byte, error) {
	if len(s.ahead) > 0 {
		b := s.ahead[0]
		copy(s.ahead, s.ahead[1:])
		s.ahead = s.ahead[:len(s.ahead)-1]
		return b, nil
	}
	return s.readByte()
}

func (s *contentScanner) readByte() (byte, error) {
	for s.pos >= s.used {
		if s.err != nil {
			return 0, s.err
		}
		s.used = copy(s.buf, s.buf[s.pos:s.used])
		s.pos = 0
		n, err := s.src.Read(s.buf[s.used:])
		s.used += n
		if err != nil {
			s.err = err
			if n == 0 {
				return 0, err
			}
		}
	}
	b := s.buf[s.pos]
	s.pos++
	return b, nil
}

func parseNumber(tok []byte) (pdf.Object, bool) {
	if x, err := strconv.ParseInt(string(tok), 10, 64); err == nil {
		return pdf.Integer(x), true
	}

	for i, c := range tok {
		if i == 0 && (c == '+' || c == '-') {
			continue
		}
		if c != '.' && (c < '0' || c > '9') {
			return nil, false
		}
	}
	y, err := strconv.ParseFloat(string(tok), 64)
	if err != nil || math.IsInf(y, 0) || math.IsNaN(y) {
		return nil, false
	}
	return pdf.Real(y), true
}

func isWhiteSpace(b byte) bool {
	switch b {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

type contentError struct {
	msg string
}

func (e *contentError) Error() string {
	return "content stream: " + e.msg
}
