/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package httpmsg implements a restartable, byte-level HTTP/1.x message
// state machine (start line, headers, identity or chunked body plus
// trailers), streaming reader/writer wrappers around it, and a
// no-I/O envelope composer for one-shot sends. It never overruns its
// configured size budgets and always terminates in MessageCompleted or
// BadMessage.
package httpmsg

import (
	"errors"
	"strings"
)

// Parser is the core byte-by-byte HTTP/1.x state machine shared by the
// request and response specializations.
type Parser struct {
	state State
	kind  Kind

	// AllowHeaderFolding restores the deprecated RFC 7230 obs-fold
	// continuation-line behavior. Off by default: folded headers are
	// rejected with KindBadHeaderFolding.
	AllowHeaderFolding bool

	MaxFirstTokenLen  int
	MaxSecondTokenLen int
	MaxThirdTokenLen  int
	MaxHeaderNameLen  int
	MaxHeaderValueLen int
	MaxHeaders        int

	firstToken  []byte
	secondToken []byte
	thirdToken  []byte

	curName  []byte
	curValue []byte
	skipOWS  bool
	folding  bool

	headers     Headers
	headerCount int

	chunked           bool
	haveContentLength bool
	contentLength     int64
	chunkExt          bool
	chunkSizeRemain   int64
	bodyRemain        int64

	pos             int64
	bodyBytesParsed int64
}

// NewParser builds a Parser with conservative default size limits.
func NewParser() *Parser {
	p := &Parser{
		MaxFirstTokenLen:  32,
		MaxSecondTokenLen: 8192,
		MaxThirdTokenLen:  32,
		MaxHeaderNameLen:  256,
		MaxHeaderValueLen: 8192,
		MaxHeaders:        100,
	}
	p.Reset()
	return p
}

// Reset returns the parser to its initial state, ready to parse the next
// message on the same byte stream (HTTP/1.1 persistent connections).
func (p *Parser) Reset() {
	p.state = ParsingFirstToken
	p.kind = KindNone
	p.firstToken = p.firstToken[:0]
	p.secondToken = p.secondToken[:0]
	p.thirdToken = p.thirdToken[:0]
	p.curName = p.curName[:0]
	p.curValue = p.curValue[:0]
	p.skipOWS = false
	p.folding = false
	p.headers = Headers{}
	p.headerCount = 0
	p.chunked = false
	p.haveContentLength = false
	p.contentLength = 0
	p.chunkExt = false
	p.chunkSizeRemain = 0
	p.bodyRemain = 0
	p.pos = 0
	p.bodyBytesParsed = 0
}

// State returns the parser's current state.
func (p *Parser) State() State { return p.state }

// Kind returns the failure reason recorded when State is BadMessage.
func (p *Parser) Kind() Kind { return p.kind }

// IsCompleted reports whether the current message has been fully parsed.
func (p *Parser) IsCompleted() bool { return p.state == MessageCompleted }

// IsBad reports whether the parser has rejected the input.
func (p *Parser) IsBad() bool { return p.state == BadMessage }

// FirstToken returns the first start-line token (method, or HTTP version
// for a response).
func (p *Parser) FirstToken() string { return string(p.firstToken) }

// SecondToken returns the second start-line token (URI, or status code).
func (p *Parser) SecondToken() string { return string(p.secondToken) }

// ThirdToken returns the third start-line token (HTTP version, or reason
// phrase).
func (p *Parser) ThirdToken() string { return string(p.thirdToken) }

// Headers returns the parsed header (and, once completed, trailer)
// fields.
func (p *Parser) Headers() *Headers { return &p.headers }

func (p *Parser) bad(k Kind) {
	p.state = BadMessage
	p.kind = k
}

func (p *Parser) bodyState() bool {
	return p.state == ParsingIdentityBody || p.state == ParsingChunk
}

// Step consumes exactly one byte. It returns (b, true) when b is a body
// byte to surface to the caller, or (0, false) when the byte was
// consumed entirely by framing.
func (p *Parser) Step(b byte) (byte, bool) {
	p.pos++

	switch p.state {
	case ParsingFirstToken:
		if b == sp {
			p.state = ParsingFirstTokenSp
			return 0, false
		}
		if !isTokenChar(b) {
			p.bad(KindInvalidCharInFirstToken)
			return 0, false
		}
		if len(p.firstToken) >= p.MaxFirstTokenLen {
			p.bad(KindMethodTokenTooLong)
			return 0, false
		}
		p.firstToken = append(p.firstToken, b)
		return 0, false

	case ParsingFirstTokenSp:
		if b == sp {
			return 0, false
		}
		p.state = ParsingSecondToken
		return p.Step(b)

	case ParsingSecondToken:
		if b == sp {
			p.state = ParsingSecondTokenSp
			return 0, false
		}
		if b < 0x21 || b == 0x7f {
			p.bad(KindInvalidCharInSecondToken)
			return 0, false
		}
		if len(p.secondToken) >= p.MaxSecondTokenLen {
			p.bad(KindUriTooLong)
			return 0, false
		}
		p.secondToken = append(p.secondToken, b)
		return 0, false

	case ParsingSecondTokenSp:
		if b == sp {
			return 0, false
		}
		p.state = ParsingThirdToken
		return p.Step(b)

	case ParsingThirdToken:
		if b == cr {
			p.state = ParsingThirdTokenCR
			return 0, false
		}
		if b < 0x20 && b != htab {
			p.bad(KindInvalidCharInThirdToken)
			return 0, false
		}
		if len(p.thirdToken) >= p.MaxThirdTokenLen {
			p.bad(KindVersionTooLong)
			return 0, false
		}
		p.thirdToken = append(p.thirdToken, b)
		return 0, false

	case ParsingThirdTokenCR:
		if b != lf {
			p.bad(KindExpectedLF)
			return 0, false
		}
		p.state = ParsingHeaderFieldName
		return 0, false

	case ParsingHeaderFieldName:
		return p.stepFieldName(b, false)

	case ParsingHeaderFieldValue:
		return p.stepFieldValue(b, false)

	case ParsingHeaderFieldValueLF:
		if b != lf {
			p.bad(KindExpectedLF)
			return 0, false
		}
		if p.folding {
			p.folding = false
		} else {
			p.headers.Add(string(p.curName), string(trimOWS(p.curValue)))
			p.headerCount++
			if p.headerCount > p.MaxHeaders {
				p.bad(KindTooManyHeaders)
				return 0, false
			}
		}
		p.curName = p.curName[:0]
		p.curValue = p.curValue[:0]
		p.state = ParsingHeaderFieldName
		return 0, false

	case ParsingHeaderFieldValueLWS:
		return p.stepFieldValue(b, true)

	case ParsingEndOfHeaderCR:
		if b != lf {
			p.bad(KindExpectedLF)
			return 0, false
		}
		return 0, p.decideBody()

	case ParsingIdentityBody:
		p.bodyRemain--
		p.bodyBytesParsed++
		if p.bodyRemain <= 0 {
			p.state = MessageCompleted
		}
		return b, true

	case ParsingChunkSize:
		if b == ';' {
			p.chunkExt = true
			return 0, false
		}
		if b == cr {
			p.state = ParsingChunkSizeLF
			return 0, false
		}
		if p.chunkExt {
			return 0, false
		}
		if !isHexDigit(b) {
			p.bad(KindInvalidChunkSize)
			return 0, false
		}
		p.chunkSizeRemain = p.chunkSizeRemain*16 + int64(hexVal(b))
		return 0, false

	case ParsingChunkSizeLF:
		if b != lf {
			p.bad(KindExpectedLF)
			return 0, false
		}
		p.chunkExt = false
		if p.chunkSizeRemain == 0 {
			p.state = ParsingTrailerFieldName
		} else {
			p.state = ParsingChunk
		}
		return 0, false

	case ParsingChunk:
		p.chunkSizeRemain--
		p.bodyBytesParsed++
		if p.chunkSizeRemain == 0 {
			p.state = ParsingChunkCR
		}
		return b, true

	case ParsingChunkCR:
		if b != cr {
			p.bad(KindExpectedCR)
			return 0, false
		}
		p.state = ParsingChunkLF
		return 0, false

	case ParsingChunkLF:
		if b != lf {
			p.bad(KindExpectedLF)
			return 0, false
		}
		p.state = ParsingChunkSize
		return 0, false

	case ParsingTrailerFieldName:
		return p.stepFieldName(b, true)

	case ParsingTrailerFieldValue:
		return p.stepFieldValue(b, false)

	case ParsingTrailerFieldValueLWS:
		return p.stepFieldValue(b, true)

	case ParsingTrailerFieldValueLF:
		if b != lf {
			p.bad(KindExpectedLF)
			return 0, false
		}
		if p.folding {
			p.folding = false
		} else {
			p.headers.Add(string(p.curName), string(trimOWS(p.curValue)))
		}
		p.curName = p.curName[:0]
		p.curValue = p.curValue[:0]
		p.state = ParsingTrailerFieldName
		return 0, false

	case ParsingFinalCR:
		if b != lf {
			p.bad(KindExpectedLF)
			return 0, false
		}
		p.state = MessageCompleted
		return 0, false

	case MessageCompleted, BadMessage:
		return 0, false
	}

	return 0, false
}

func (p *Parser) stepFieldName(b byte, trailer bool) (byte, bool) {
	if len(p.curName) == 0 {
		if b == cr {
			if trailer {
				p.state = ParsingFinalCR
			} else {
				p.state = ParsingEndOfHeaderCR
			}
			return 0, false
		}
		if b == sp || b == htab {
			if !p.AllowHeaderFolding {
				p.bad(KindBadHeaderFolding)
				return 0, false
			}
			p.curValue = p.curValue[:0]
			p.skipOWS = true
			if trailer {
				p.state = ParsingTrailerFieldValueLWS
			} else {
				p.state = ParsingHeaderFieldValueLWS
			}
			return 0, false
		}
	}

	if b == ':' {
		p.skipOWS = true
		if trailer {
			p.state = ParsingTrailerFieldValue
		} else {
			p.state = ParsingHeaderFieldValue
		}
		return 0, false
	}

	if !isHeaderNameChar(b) {
		p.bad(KindInvalidCharInHeaderFieldName)
		return 0, false
	}
	if len(p.curName) >= p.MaxHeaderNameLen {
		p.bad(KindHeaderFieldNameTooLong)
		return 0, false
	}
	p.curName = append(p.curName, b)
	return 0, false
}

func (p *Parser) stepFieldValue(b byte, folded bool) (byte, bool) {
	if p.skipOWS {
		if b == sp || b == htab {
			return 0, false
		}
		p.skipOWS = false
	}

	if b == cr {
		if folded {
			if !p.headers.appendFolded(string(trimOWS(p.curValue))) {
				p.bad(KindBadHeaderFolding)
				return 0, false
			}
			p.curValue = p.curValue[:0]
			p.curName = p.curName[:0]
			p.folding = true
			if p.state == ParsingTrailerFieldValueLWS {
				p.state = ParsingTrailerFieldValueLF
			} else {
				p.state = ParsingHeaderFieldValueLF
			}
			return 0, false
		}
		if p.state == ParsingTrailerFieldValue {
			p.state = ParsingTrailerFieldValueLF
		} else {
			p.state = ParsingHeaderFieldValueLF
		}
		return 0, false
	}

	if !isHeaderValueChar(b) {
		p.bad(KindInvalidCharInHeaderFieldValue)
		return 0, false
	}
	if len(p.curValue) >= p.MaxHeaderValueLen {
		p.bad(KindHeaderFieldValueTooLong)
		return 0, false
	}
	p.curValue = append(p.curValue, b)
	return 0, false
}

func trimOWS(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && (b[start] == sp || b[start] == htab) {
		start++
	}
	for end > start && (b[end-1] == sp || b[end-1] == htab) {
		end--
	}
	return b[start:end]
}

func (p *Parser) decideBody() bool {
	if te, ok := p.headers.Get("Transfer-Encoding"); ok && strings.Contains(strings.ToLower(te), "chunked") {
		p.chunked = true
		p.state = ParsingChunkSize
		return false
	}

	if cl, ok := p.headers.Get("Content-Length"); ok {
		n, err := parseContentLength(cl)
		if err != nil {
			p.bad(KindInvalidTransferEncoding)
			return false
		}
		p.haveContentLength = true
		p.contentLength = n
		if n == 0 {
			p.state = MessageCompleted
			return false
		}
		p.bodyRemain = n
		p.state = ParsingIdentityBody
		return false
	}

	p.state = MessageCompleted
	return false
}

func parseContentLength(s string) (int64, error) {
	var n int64
	if len(s) == 0 {
		return 0, errNotANumber
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, errNotANumber
		}
		n = n*10 + int64(c-'0')
	}
	return n, nil
}

// Parse is the bulk API: it feeds buf into Step byte by byte, stopping
// early once the message completes, goes bad, or bodyOut fills.
func (p *Parser) Parse(buf []byte, bodyOut []byte) (bytesConsumed int, bodyBytesWritten int) {
	for i := 0; i < len(buf); i++ {
		if p.state == MessageCompleted || p.state == BadMessage {
			return i, bodyBytesWritten
		}
		if p.bodyState() && bodyBytesWritten >= len(bodyOut) {
			return i, bodyBytesWritten
		}

		bb, emit := p.Step(buf[i])
		if emit {
			bodyOut[bodyBytesWritten] = bb
			bodyBytesWritten++
		}
	}
	return len(buf), bodyBytesWritten
}

var errNotANumber = errors.New("httpmsg: Content-Length is not a valid number")
