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

import (
	"fmt"
	"math"
	"time"
)

const nanosPerSecond = int64(time.Second)

// Zero is the zero-length timeout.
var Zero = Timeout{}

// NewTimeout builds a normalized Timeout from a seconds/nanoseconds pair.
func NewTimeout(seconds, nanos int64) Timeout {
	return normalize(seconds, nanos)
}

// FromDuration converts a standard library duration into a Timeout.
func FromDuration(d time.Duration) Timeout {
	return normalize(int64(d)/nanosPerSecond, int64(d)%nanosPerSecond)
}

// Time returns the Timeout as a time.Duration. Values beyond
// time.Duration's range saturate to math.MaxInt64/math.MinInt64.
func (t Timeout) Time() time.Duration {
	if t.Seconds > math.MaxInt64/nanosPerSecond {
		return time.Duration(math.MaxInt64)
	} else if t.Seconds < math.MinInt64/nanosPerSecond {
		return time.Duration(math.MinInt64)
	}
	return time.Duration(t.Seconds)*time.Second + time.Duration(t.Nanos)
}

// IsZero reports whether the timeout is exactly zero.
func (t Timeout) IsZero() bool {
	return t.Seconds == 0 && t.Nanos == 0
}

// Add returns t+o, saturating instead of overflowing.
func (t Timeout) Add(o Timeout) Timeout {
	sec, over := addOverflow(t.Seconds, o.Seconds)
	if over {
		if t.Seconds > 0 {
			return Timeout{Seconds: math.MaxInt64, Nanos: 999999999}
		}
		return Timeout{Seconds: math.MinInt64, Nanos: 0}
	}
	return normalize(sec, t.Nanos+o.Nanos)
}

// Sub returns t-o, clamped at zero: this package has no notion of a
// negative timeout.
func (t Timeout) Sub(o Timeout) Timeout {
	tn := t.Seconds*nanosPerSecond + t.Nanos
	on := o.Seconds*nanosPerSecond + o.Nanos
	if on >= tn {
		return Zero
	}
	diff := tn - on
	return normalize(diff/nanosPerSecond, diff%nanosPerSecond)
}

func (t Timeout) String() string {
	return fmt.Sprintf("%d.%09ds", t.Seconds, t.Nanos)
}

func addOverflow(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, true
	}
	return sum, false
}

func normalize(seconds, nanos int64) Timeout {
	if nanos >= nanosPerSecond {
		carry := nanos / nanosPerSecond
		var over bool
		seconds, over = addOverflow(seconds, carry)
		if over {
			return Timeout{Seconds: math.MaxInt64, Nanos: 999999999}
		}
		nanos -= carry * nanosPerSecond
	} else if nanos < 0 {
		borrow := (-nanos + nanosPerSecond - 1) / nanosPerSecond
		seconds -= borrow
		nanos += borrow * nanosPerSecond
	}
	return Timeout{Seconds: seconds, Nanos: nanos}
}
