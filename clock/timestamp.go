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

package clock

import "time"

// Now returns the current instant.
func Now() Timestamp {
	return Timestamp{t: time.Now()}
}

// NewTimestamp wraps an arbitrary time.Time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t}
}

// At returns a Timestamp timeout seconds/nanos from now.
func At(timeout Timeout) Timestamp {
	return Timestamp{t: time.Now().Add(timeout.Time())}
}

// IsZero reports whether the timestamp has never been set.
func (t Timestamp) IsZero() bool {
	return t.t.IsZero()
}

// Time returns the wrapped standard library value.
func (t Timestamp) Time() time.Time {
	return t.t
}

// Add returns the timestamp shifted forward by a Timeout.
func (t Timestamp) Add(d Timeout) Timestamp {
	return Timestamp{t: t.t.Add(d.Time())}
}

// Sub returns the Timeout elapsed between o and t (t-o), clamped at zero.
func (t Timestamp) Sub(o Timestamp) Timeout {
	d := t.t.Sub(o.t)
	if d < 0 {
		return Zero
	}
	return FromDuration(d)
}

// LeftTo returns how much Timeout remains between now and t. Zero if
// t is already in the past.
func (t Timestamp) LeftTo(now Timestamp) Timeout {
	return t.Sub(now)
}

// Before reports whether t is strictly earlier than o.
func (t Timestamp) Before(o Timestamp) bool {
	return t.t.Before(o.t)
}

// After reports whether t is strictly later than o.
func (t Timestamp) After(o Timestamp) bool {
	return t.t.After(o.t)
}

func (t Timestamp) String() string {
	return t.t.Format(time.RFC3339Nano)
}
