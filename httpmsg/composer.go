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
	"strconv"
	"strings"
)

// ComposeRequestEnvelope builds the request line plus header block for a
// one-shot send. Content-Length and Transfer-Encoding are stripped from
// headers and re-derived from bodyLen.
func ComposeRequestEnvelope(method, requestURI, version string, headers *Headers, bodyLen int) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(sp)
	b.WriteString(requestURI)
	b.WriteByte(sp)
	b.WriteString(version)
	b.WriteString("\r\n")
	writeFramedHeaders(&b, headers, bodyLen)
	return b.String()
}

// ComposeResponseEnvelope builds the status line plus header block for a
// one-shot send.
func ComposeResponseEnvelope(version string, statusCode int, reasonPhrase string, headers *Headers, bodyLen int) string {
	var b strings.Builder
	b.WriteString(version)
	b.WriteByte(sp)
	b.WriteString(strconv.Itoa(statusCode))
	b.WriteByte(sp)
	b.WriteString(reasonPhrase)
	b.WriteString("\r\n")
	writeFramedHeaders(&b, headers, bodyLen)
	return b.String()
}

func writeFramedHeaders(b *strings.Builder, headers *Headers, bodyLen int) {
	if headers != nil {
		headers.Walk(func(name, value string) {
			if strings.EqualFold(name, "Content-Length") || strings.EqualFold(name, "Transfer-Encoding") {
				return
			}
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(value)
			b.WriteString("\r\n")
		})
	}

	if bodyLen > 0 {
		b.WriteString("Content-Length: ")
		b.WriteString(strconv.Itoa(bodyLen))
		b.WriteString("\r\n")
	}

	b.WriteString("\r\n")
}

// ComposePacket prepends the envelope to packet so the whole message is
// one contiguous byte range suitable for a single write.
func ComposePacket(envelope string, packet []byte) []byte {
	out := make([]byte, 0, len(envelope)+len(packet))
	out = append(out, envelope...)
	out = append(out, packet...)
	return out
}

// ComposeChunk builds one chunk's wire framing: size in hex, CRLF, data,
// CRLF.
func ComposeChunk(data []byte) []byte {
	size := strconv.FormatInt(int64(len(data)), 16)
	out := make([]byte, 0, len(size)+2+len(data)+2)
	out = append(out, size...)
	out = append(out, cr, lf)
	out = append(out, data...)
	out = append(out, cr, lf)
	return out
}

// ComposeFinalChunk builds the terminating zero-length chunk, any
// trailer fields, and the final CRLF.
func ComposeFinalChunk(trailers *Headers) []byte {
	var b strings.Builder
	b.WriteString("0\r\n")
	if trailers != nil {
		trailers.Walk(func(name, value string) {
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(value)
			b.WriteString("\r\n")
		})
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}
