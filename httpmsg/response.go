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

import "strconv"

// ResponseParser wraps Parser with response-line accessors: version,
// status code, and reason phrase.
type ResponseParser struct {
	*Parser
}

// NewResponseParser builds a ResponseParser with NewParser's default
// limits.
func NewResponseParser() *ResponseParser {
	return &ResponseParser{Parser: NewParser()}
}

// Version returns the parsed HTTP version token (e.g. "HTTP/1.1").
func (r *ResponseParser) Version() string { return r.FirstToken() }

// StatusCode returns the parsed numeric status code, or 0 if it is not
// a valid integer.
func (r *ResponseParser) StatusCode() int {
	n, err := strconv.Atoi(r.SecondToken())
	if err != nil {
		return 0
	}
	return n
}

// ReasonPhrase returns the parsed reason phrase.
func (r *ResponseParser) ReasonPhrase() string { return r.ThirdToken() }
