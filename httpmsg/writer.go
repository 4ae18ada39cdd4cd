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

import (
	"strings"

	"github.com/sabouaram/svckernel/clock"
)

// Sink is the byte destination a StreamWriter drains into: a deadline-
// bounded, possibly-partial write, matching tcp.Socket.Write's shape.
type Sink interface {
	Write(buf []byte, deadline clock.Timestamp) (int, error)
}

// StreamWriter composes an HTTP/1.x start line and headers, then streams
// the body either as one identity write or as a sequence of chunks.
type StreamWriter struct {
	sink Sink

	isResponse   bool
	method       string
	requestURI   string
	version      string
	statusCode   int
	reasonPhrase string

	headers      Headers
	envelopeSent int

	transmissionStarted bool
	chunkedStarted      bool
	finalised           bool

	pending    []byte
	pendingPos int
}

// NewRequestStreamWriter builds a StreamWriter that will compose a
// request start line.
func NewRequestStreamWriter(sink Sink, method, requestURI, version string) *StreamWriter {
	return &StreamWriter{sink: sink, method: method, requestURI: requestURI, version: version}
}

// NewResponseStreamWriter builds a StreamWriter that will compose a
// status line.
func NewResponseStreamWriter(sink Sink, version string, statusCode int, reasonPhrase string) *StreamWriter {
	return &StreamWriter{sink: sink, isResponse: true, version: version, statusCode: statusCode, reasonPhrase: reasonPhrase}
}

// SetHeader stores name=value. Once the envelope has been serialised,
// only new field names may still be added (they become trailers in
// chunked mode); touching an already-serialised name fails.
func (w *StreamWriter) SetHeader(name, value string, replaceIfExists bool) error {
	if w.transmissionStarted {
		if !w.chunkedStarted {
			return ErrorWriterHeaderAlreadySerialised.Error(nil)
		}
		if w.nameInEnvelope(name) {
			return ErrorWriterHeaderAlreadySerialised.Error(nil)
		}
		w.headers.Add(name, value)
		return nil
	}

	if replaceIfExists {
		w.headers.Set(name, value)
	} else {
		w.headers.Add(name, value)
	}
	return nil
}

// RemoveHeader deletes every field stored under name. Fails once that
// name has already been serialised into the envelope.
func (w *StreamWriter) RemoveHeader(name string) error {
	if w.transmissionStarted && w.nameInEnvelope(name) {
		return ErrorWriterHeaderAlreadySerialised.Error(nil)
	}
	w.headers.Remove(name)
	return nil
}

func (w *StreamWriter) nameInEnvelope(name string) bool {
	for i := 0; i < w.envelopeSent && i < len(w.headers.entries); i++ {
		if strings.EqualFold(w.headers.entries[i].name, name) {
			return true
		}
	}
	return false
}

func (w *StreamWriter) envelope(bodyLen int) string {
	if w.isResponse {
		return ComposeResponseEnvelope(w.version, w.statusCode, w.reasonPhrase, &w.headers, bodyLen)
	}
	return ComposeRequestEnvelope(w.method, w.requestURI, w.version, &w.headers, bodyLen)
}

// WriteChunk streams buf as one chunk, composing the envelope (with
// Transfer-Encoding: chunked) on the first call. Returns false if the
// underlying write did not finish before deadline; the caller must then
// call Flush until it returns true before writing the next chunk.
func (w *StreamWriter) WriteChunk(buf []byte, deadline clock.Timestamp) (bool, error) {
	if !w.chunkedStarted && w.transmissionStarted {
		return false, ErrorWriterChunkedAfterOnce.Error(nil)
	}

	if len(w.pending) == 0 {
		var parts []byte
		if !w.transmissionStarted {
			w.headers.Set("Transfer-Encoding", "chunked")
			env := w.envelope(0)
			env = env[:len(env)-2] + "Transfer-Encoding: chunked\r\n\r\n"
			parts = append(parts, env...)
			w.envelopeSent = w.headers.Len()
			w.transmissionStarted = true
			w.chunkedStarted = true
		}
		parts = append(parts, ComposeChunk(buf)...)
		w.pending = parts
		w.pendingPos = 0
	}

	return w.Flush(deadline)
}

// WriteOnce forbids any further use of this writer's chunked path:
// inserts Content-Length (or omits it for an empty body), serialises
// headers, writes the body, and finalises in one operation.
func (w *StreamWriter) WriteOnce(buf []byte, deadline clock.Timestamp) (bool, error) {
	if w.chunkedStarted {
		return false, ErrorWriterOnceAfterChunked.Error(nil)
	}

	if len(w.pending) == 0 && !w.transmissionStarted {
		parts := append([]byte(w.envelope(len(buf))), buf...)
		w.envelopeSent = w.headers.Len()
		w.transmissionStarted = true
		w.finalised = true
		w.pending = parts
		w.pendingPos = 0
	}

	return w.Flush(deadline)
}

// Finalize completes the message: in chunked mode it emits the
// zero-length chunk, any still-unserialised header fields as trailers,
// and the terminating CRLF; outside chunked mode it sends the bare
// header block with no body.
func (w *StreamWriter) Finalize(deadline clock.Timestamp) (bool, error) {
	if w.finalised && len(w.pending) == 0 {
		return true, nil
	}

	if len(w.pending) == 0 {
		var parts []byte
		if w.chunkedStarted {
			trailers := Headers{}
			for i := w.envelopeSent; i < len(w.headers.entries); i++ {
				trailers.Add(w.headers.entries[i].name, w.headers.entries[i].value)
			}
			parts = ComposeFinalChunk(&trailers)
		} else {
			parts = []byte(w.envelope(0))
			w.transmissionStarted = true
		}
		w.finalised = true
		w.pending = parts
		w.pendingPos = 0
	}

	return w.Flush(deadline)
}

// Flush attempts to drain any buffered, not-yet-written bytes. Call it
// repeatedly after a WriteChunk/WriteOnce/Finalize call returns false
// until it returns true.
func (w *StreamWriter) Flush(deadline clock.Timestamp) (bool, error) {
	if w.pendingPos >= len(w.pending) {
		w.pending = nil
		w.pendingPos = 0
		return true, nil
	}

	n, err := w.sink.Write(w.pending[w.pendingPos:], deadline)
	w.pendingPos += n
	if err != nil {
		return false, err
	}
	if w.pendingPos >= len(w.pending) {
		w.pending = nil
		w.pendingPos = 0
		return true, nil
	}
	return false, nil
}
