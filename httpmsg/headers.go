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

import "strings"

type headerEntry struct {
	name       string
	value      string
	serialised bool
}

// Headers is an ordered, case-insensitive-for-lookup multimap of header
// fields: original casing is preserved for serialisation, but Get/Values/
// Remove match names regardless of case, matching RFC 7230 §3.2 field
// name semantics.
type Headers struct {
	entries []headerEntry
}

// Add appends a new field, keeping any existing fields of the same name.
func (h *Headers) Add(name, value string) {
	h.entries = append(h.entries, headerEntry{name: name, value: value})
}

// Set replaces every existing field with this name (case-insensitive)
// with a single field holding value, or appends one if none existed.
func (h *Headers) Set(name, value string) {
	idx := h.indexOf(name)
	if idx < 0 {
		h.Add(name, value)
		return
	}
	h.entries[idx].value = value
	h.entries = append(h.entries[:idx+1], h.removeAllBut(name, idx+1)...)
}

func (h *Headers) removeAllBut(name string, from int) []headerEntry {
	out := h.entries[:from:from]
	for i := from; i < len(h.entries); i++ {
		if !strings.EqualFold(h.entries[i].name, name) {
			out = append(out, h.entries[i])
		}
	}
	return out
}

func (h *Headers) indexOf(name string) int {
	for i := range h.entries {
		if strings.EqualFold(h.entries[i].name, name) {
			return i
		}
	}
	return -1
}

// Get returns the first value stored under name, case-insensitive.
func (h *Headers) Get(name string) (string, bool) {
	idx := h.indexOf(name)
	if idx < 0 {
		return "", false
	}
	return h.entries[idx].value, true
}

// Values returns every value stored under name, in insertion order.
func (h *Headers) Values(name string) []string {
	var out []string
	for _, e := range h.entries {
		if strings.EqualFold(e.name, name) {
			out = append(out, e.value)
		}
	}
	return out
}

// Remove deletes every field stored under name.
func (h *Headers) Remove(name string) {
	out := h.entries[:0]
	for _, e := range h.entries {
		if !strings.EqualFold(e.name, name) {
			out = append(out, e)
		}
	}
	h.entries = out
}

// Has reports whether any field is stored under name.
func (h *Headers) Has(name string) bool {
	return h.indexOf(name) >= 0
}

// Len returns the number of stored fields (not distinct names).
func (h *Headers) Len() int {
	return len(h.entries)
}

// Walk calls fn for every field, in insertion order.
func (h *Headers) Walk(fn func(name, value string)) {
	for _, e := range h.entries {
		fn(e.name, e.value)
	}
}

// Clone returns an independent copy.
func (h *Headers) Clone() Headers {
	out := Headers{entries: make([]headerEntry, len(h.entries))}
	copy(out.entries, h.entries)
	return out
}

// appendFolded appends a folded-continuation line to the most recently
// added field's value, separated by a single space, per RFC 7230's
// (deprecated) obs-fold handling.
func (h *Headers) appendFolded(line string) bool {
	if len(h.entries) == 0 {
		return false
	}
	last := &h.entries[len(h.entries)-1]
	last.value = last.value + " " + line
	return true
}
