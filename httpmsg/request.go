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
	"net/url"
	"strings"
)

// RequestParser wraps Parser with request-line accessors: method, URI
// (split into path and query), lazily-decoded query and form params, and
// lazily-parsed cookies.
type RequestParser struct {
	*Parser

	uri    *url.URL
	get    url.Values
	post   url.Values
	cookie map[string]string
}

// NewRequestParser builds a RequestParser with NewParser's default
// limits.
func NewRequestParser() *RequestParser {
	return &RequestParser{Parser: NewParser()}
}

// Method returns the parsed request method.
func (r *RequestParser) Method() string { return r.FirstToken() }

// RequestURI returns the raw request-target as sent on the wire.
func (r *RequestParser) RequestURI() string { return r.SecondToken() }

// Version returns the parsed HTTP version token (e.g. "HTTP/1.1").
func (r *RequestParser) Version() string { return r.ThirdToken() }

func (r *RequestParser) ensureURI() *url.URL {
	if r.uri == nil {
		r.uri, _ = url.ParseRequestURI(r.RequestURI())
		if r.uri == nil {
			r.uri = &url.URL{}
		}
	}
	return r.uri
}

// Path returns the decoded path component of the request target.
func (r *RequestParser) Path() string { return r.ensureURI().Path }

// RawQuery returns the query component of the request target exactly
// as it appeared on the wire, still percent-encoded.
func (r *RequestParser) RawQuery() string { return r.ensureURI().RawQuery }

// Get returns the lazily percent-decoded query parameters.
func (r *RequestParser) Get() url.Values {
	if r.get == nil {
		r.get = r.ensureURI().Query()
	}
	return r.get
}

// Form returns the lazily-decoded application/x-www-form-urlencoded
// body parameters, given the fully-read body bytes.
func (r *RequestParser) Form(body []byte) url.Values {
	if r.post != nil {
		return r.post
	}
	ct, _ := r.Headers().Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/x-www-form-urlencoded") {
		r.post = url.Values{}
		return r.post
	}
	v, err := url.ParseQuery(string(body))
	if err != nil {
		r.post = url.Values{}
	} else {
		r.post = v
	}
	return r.post
}

// Cookies lazily parses the RFC 6265 "name=value; name2=value2" Cookie
// header into a map.
func (r *RequestParser) Cookies() map[string]string {
	if r.cookie != nil {
		return r.cookie
	}
	r.cookie = map[string]string{}
	raw, ok := r.Headers().Get("Cookie")
	if !ok {
		return r.cookie
	}
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		r.cookie[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return r.cookie
}

// Reset returns the parser to its initial state and clears the lazily
// computed request accessors.
func (r *RequestParser) Reset() {
	r.Parser.Reset()
	r.uri = nil
	r.get = nil
	r.post = nil
	r.cookie = nil
}
