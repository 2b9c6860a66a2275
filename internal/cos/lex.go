// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Reading of PDF tokens and objects from a raw byte stream.

package cos

import (
	"io"
	"strconv"
)

// A token is a PDF token in the input stream, one of the following Go types:
//
//	bool, a PDF boolean
//	int64, a PDF integer
//	float64, a PDF real
//	string, a PDF string literal
//	keyword, a PDF keyword
//	name, a PDF name without the leading slash
//
// io.EOF is returned as a token at the end of input when the lexer allows it.
type token any

// A keyword is a PDF keyword.
// Delimiter tokens used in higher-level syntax,
// such as "<<", ">>", "[", "]", "{", "}", are also treated as keywords.
type keyword string

// A lexer reads tokens and objects from one region of the file, or from
// the decoded contents of an object stream.
type lexer struct {
	r      io.Reader // source of data
	buf    []byte    // buffered data
	pos    int       // read index in buf
	offset int64     // offset at end of buf; aka offset of next read
	tmp    []byte    // scratch space for accumulating token
	unread []token   // stack of read but then unread tokens
	eof    bool

	allowEOF    bool
	allowObjptr bool
	allowStream bool

	sec    *security // decrypts strings of the object being read; nil if none
	objptr objptr    // object currently being read
}

// newLexer returns a lexer reading from r, whose first byte is at offset.
func newLexer(r io.Reader, offset int64) *lexer {
	return &lexer{
		r:           r,
		offset:      offset,
		buf:         make([]byte, 0, 4096),
		allowObjptr: true,
		allowStream: true,
	}
}

func (l *lexer) readByte() byte {
	if l.pos >= len(l.buf) {
		l.reload()
		if l.pos >= len(l.buf) {
			return '\n'
		}
	}
	c := l.buf[l.pos]
	l.pos++
	return c
}

func (l *lexer) reload() bool {
	n := cap(l.buf) - int(l.offset%int64(cap(l.buf)))
	n, err := l.r.Read(l.buf[:n])
	if n == 0 && err != nil {
		l.buf = l.buf[:0]
		l.pos = 0
		if l.allowEOF && err == io.EOF {
			l.eof = true
			return false
		}
		faultf("malformed PDF: reading at offset %d: %v", l.offset, err)
	}
	l.offset += int64(n)
	l.buf = l.buf[:n]
	l.pos = 0
	return true
}

func (l *lexer) seekForward(offset int64) {
	for l.offset < offset {
		if !l.reload() {
			return
		}
	}
	l.pos = len(l.buf) - int(l.offset-offset)
}

// readOffset returns the file offset of the next unread byte.
func (l *lexer) readOffset() int64 {
	return l.offset - int64(len(l.buf)) + int64(l.pos)
}

func (l *lexer) unreadByte() {
	if l.pos > 0 {
		l.pos--
	}
}

func (l *lexer) unreadToken(t token) {
	l.unread = append(l.unread, t)
}

func (l *lexer) readToken() token {
	if n := len(l.unread); n > 0 {
		t := l.unread[n-1]
		l.unread = l.unread[:n-1]
		return t
	}

	// Skip white space and comments.
	c := l.readByte()
	for {
		if isSpace(c) {
			if l.eof {
				return io.EOF
			}
			c = l.readByte()
		} else if c == '%' {
			for c != '\r' && c != '\n' {
				c = l.readByte()
			}
		} else {
			break
		}
	}

	switch c {
	case '<':
		if l.readByte() == '<' {
			return keyword("<<")
		}
		l.unreadByte()
		return l.readHexString()

	case '(':
		return l.readLiteralString()

	case '[', ']', '{', '}':
		return keyword(string(c))

	case '/':
		return l.readName()

	case '>':
		if l.readByte() == '>' {
			return keyword(">>")
		}
		l.unreadByte()
		faultf("unexpected delimiter %q at offset %d", '>', l.readOffset())

	case ')':
		faultf("unexpected delimiter %q at offset %d", ')', l.readOffset())
	}

	l.unreadByte()
	return l.readKeyword()
}

func (l *lexer) readHexString() token {
	tmp := l.tmp[:0]
	hi := -1
	for !l.eof {
		c := l.readByte()
		if c == '>' {
			break
		}
		if isSpace(c) {
			continue
		}
		x := unhex(c)
		if x < 0 {
			faultf("malformed hex string: byte %q", c)
		}
		if hi < 0 {
			hi = x
			continue
		}
		tmp = append(tmp, byte(hi<<4|x))
		hi = -1
	}
	if hi >= 0 {
		// An odd final digit is followed by an implied 0.
		tmp = append(tmp, byte(hi<<4))
	}
	l.tmp = tmp
	return string(tmp)
}

func unhex(b byte) int {
	switch {
	case '0' <= b && b <= '9':
		return int(b) - '0'
	case 'a' <= b && b <= 'f':
		return int(b) - 'a' + 10
	case 'A' <= b && b <= 'F':
		return int(b) - 'A' + 10
	}
	return -1
}

func (l *lexer) readLiteralString() token {
	tmp := l.tmp[:0]
	depth := 1
Loop:
	for !l.eof {
		c := l.readByte()
		switch c {
		default:
			tmp = append(tmp, c)
		case '(':
			depth++
			tmp = append(tmp, c)
		case ')':
			if depth--; depth == 0 {
				break Loop
			}
			tmp = append(tmp, c)
		case '\r':
			// End-of-line markers inside strings read as a single \n.
			if l.readByte() != '\n' {
				l.unreadByte()
			}
			tmp = append(tmp, '\n')
		case '\\':
			switch c = l.readByte(); c {
			default:
				// Unknown escapes drop the backslash.
				tmp = append(tmp, c)
			case 'n':
				tmp = append(tmp, '\n')
			case 'r':
				tmp = append(tmp, '\r')
			case 'b':
				tmp = append(tmp, '\b')
			case 't':
				tmp = append(tmp, '\t')
			case 'f':
				tmp = append(tmp, '\f')
			case '\r':
				if l.readByte() != '\n' {
					l.unreadByte()
				}
			case '\n':
				// line continuation
			case '0', '1', '2', '3', '4', '5', '6', '7':
				x := int(c - '0')
				for i := 0; i < 2; i++ {
					c = l.readByte()
					if c < '0' || c > '7' {
						l.unreadByte()
						break
					}
					x = x*8 + int(c-'0')
				}
				tmp = append(tmp, byte(x))
			}
		}
	}
	l.tmp = tmp
	return string(tmp)
}

func (l *lexer) readName() token {
	tmp := l.tmp[:0]
	for {
		c := l.readByte()
		if isDelim(c) || isSpace(c) {
			l.unreadByte()
			break
		}
		if c == '#' {
			x := unhex(l.readByte())<<4 | unhex(l.readByte())
			if x < 0 {
				faultf("malformed name at offset %d", l.readOffset())
			}
			tmp = append(tmp, byte(x))
			continue
		}
		tmp = append(tmp, c)
		if l.eof {
			break
		}
	}
	l.tmp = tmp
	return name(tmp)
}

func (l *lexer) readKeyword() token {
	tmp := l.tmp[:0]
	for {
		c := l.readByte()
		if isDelim(c) || isSpace(c) {
			l.unreadByte()
			break
		}
		tmp = append(tmp, c)
		if l.eof {
			break
		}
	}
	l.tmp = tmp
	s := string(tmp)
	switch {
	case s == "true":
		return true
	case s == "false":
		return false
	case isInteger(s):
		x, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// Out of int64 range: PDF readers treat these as reals.
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				faultf("invalid integer %s", s)
			}
			return f
		}
		return x
	case isReal(s):
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			faultf("invalid real %s", s)
		}
		return x
	}
	return keyword(s)
}

func isInteger(s string) bool {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if c < '0' || '9' < c {
			return false
		}
	}
	return true
}

func isReal(s string) bool {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if len(s) == 0 || s == "." {
		return false
	}
	ndot := 0
	for _, c := range s {
		if c == '.' {
			ndot++
			continue
		}
		if c < '0' || '9' < c {
			return false
		}
	}
	return ndot == 1
}

func (l *lexer) readObject() object {
	tok := l.readToken()
	if kw, ok := tok.(keyword); ok {
		switch kw {
		case "null":
			return nil
		case "<<":
			return l.readDict()
		case "[":
			return l.readArray()
		}
		faultf("unexpected keyword %q parsing object", kw)
	}
	if tok == io.EOF {
		faultf("unexpected end of data parsing object")
	}

	if str, ok := tok.(string); ok && l.sec != nil && l.objptr.id != 0 {
		dec, err := l.sec.decrypt(l.objptr, []byte(str))
		if err != nil {
			faultf("decrypting string in object %d: %v", l.objptr.id, err)
		}
		tok = string(dec)
	}

	if !l.allowObjptr {
		return tok
	}

	if t1, ok := tok.(int64); ok && int64(uint32(t1)) == t1 {
		tok2 := l.readToken()
		if t2, ok := tok2.(int64); ok && int64(uint16(t2)) == t2 {
			tok3 := l.readToken()
			switch tok3 {
			case keyword("R"):
				return objptr{uint32(t1), uint16(t2)}
			case keyword("obj"):
				old := l.objptr
				l.objptr = objptr{uint32(t1), uint16(t2)}
				obj := l.readObject()
				if _, ok := obj.(stream); !ok {
					// A missing endobj is common enough to tolerate.
					if tok4 := l.readToken(); tok4 != keyword("endobj") {
						l.unreadToken(tok4)
					}
				}
				l.objptr = old
				return objdef{objptr{uint32(t1), uint16(t2)}, obj}
			}
			l.unreadToken(tok3)
		}
		l.unreadToken(tok2)
	}
	return tok
}

func (l *lexer) readArray() object {
	var x array
	for {
		tok := l.readToken()
		if tok == io.EOF {
			faultf("data ended with open array")
		}
		if tok == keyword("]") {
			break
		}
		l.unreadToken(tok)
		x = append(x, l.readObject())
	}
	return x
}

func (l *lexer) readDict() object {
	x := make(dict)
	for {
		tok := l.readToken()
		if tok == io.EOF {
			faultf("data ended with open dictionary")
		}
		if tok == keyword(">>") {
			break
		}
		n, ok := tok.(name)
		if !ok {
			faultf("unexpected non-name key %v parsing dictionary", tok)
		}
		x[n] = l.readObject()
	}

	if !l.allowStream {
		return x
	}

	tok := l.readToken()
	if tok != keyword("stream") {
		l.unreadToken(tok)
		return x
	}

	switch l.readByte() {
	case '\r':
		if l.readByte() != '\n' {
			l.unreadByte()
		}
	case '\n':
		// ok
	default:
		// Some writers put a space before the end-of-line marker.
		l.unreadByte()
	}

	return stream{hdr: x, ptr: l.objptr, offset: l.readOffset()}
}

func isSpace(b byte) bool {
	switch b {
	case '\x00', '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(b byte) bool {
	switch b {
	case '<', '>', '(', ')', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
