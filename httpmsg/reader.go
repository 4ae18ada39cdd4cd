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

package httpmsg

import "github.com/sabouaram/svckernel/clock"

// Source is the byte origin a StreamReader pulls from: a deadline-
// bounded, possibly-partial read, matching tcp.Socket.Read's shape.
// n==0, err==nil means the deadline elapsed with nothing read.
type Source interface {
	Read(buf []byte, deadline clock.Timestamp) (int, error)
}

// MessageParser is the subset of Parser (or one of its request/response
// specializations) a StreamReader drives.
type MessageParser interface {
	Step(b byte) (byte, bool)
	State() State
	IsCompleted() bool
	IsBad() bool
	Kind() Kind
	Reset()
}

// StreamReader drives a MessageParser from a byte Source: reads from the
// source happen only when its internal buffer is exhausted.
type StreamReader struct {
	src    Source
	parser MessageParser

	buf    []byte
	bufLen int
	bufPos int
}

// NewStreamReader builds a StreamReader with the given internal buffer
// size.
func NewStreamReader(src Source, parser MessageParser, bufSize int) *StreamReader {
	if bufSize <= 0 {
		bufSize = 4096
	}
	return &StreamReader{src: src, parser: parser, buf: make([]byte, bufSize)}
}

// Parser returns the underlying parser.
func (r *StreamReader) Parser() MessageParser { return r.parser }

// Read drives the parser until it completes, goes bad, or bodyOut
// fills. On the first call after a prior MessageCompleted, it resets
// the parser so the next message on the same persistent connection can
// be parsed with no state carry-over.
func (r *StreamReader) Read(bodyOut []byte, deadline clock.Timestamp) (completed bool, bodyBytes int, err error) {
	if r.parser.IsCompleted() {
		r.parser.Reset()
	}

	for {
		if r.parser.IsBad() {
			return false, bodyBytes, nil
		}

		if r.bufPos >= r.bufLen {
			n, rerr := r.src.Read(r.buf, deadline)
			if n == 0 {
				return false, bodyBytes, rerr
			}
			r.bufLen = n
			r.bufPos = 0
		}

		for r.bufPos < r.bufLen {
			if isBodyState(r.parser.State()) && bodyBytes >= len(bodyOut) {
				return false, bodyBytes, nil
			}

			b := r.buf[r.bufPos]
			r.bufPos++

			bb, emit := r.parser.Step(b)
			if emit {
				bodyOut[bodyBytes] = bb
				bodyBytes++
			}

			if r.parser.IsCompleted() {
				return true, bodyBytes, nil
			}
			if r.parser.IsBad() {
				return false, bodyBytes, nil
			}
		}
	}
}

func isBodyState(s State) bool {
	return s == ParsingIdentityBody || s == ParsingChunk
}
