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

package sigset

import (
	"syscall"

	"github.com/sabouaram/svckernel/clock"
	"golang.org/x/sys/unix"
)

// Wait blocks until one of the tracked signals is pending, or the timeout
// elapses, whichever comes first. The set must already be Block()-ed. A
// zero timeout waits forever. Returns (0, nil) on timeout.
func (s *Set) Wait(timeout clock.Timeout) (syscall.Signal, error) {
	s.mu.Lock()
	mask := s.mask
	s.mu.Unlock()

	var ts *unix.Timespec
	if !timeout.IsZero() {
		ts = &unix.Timespec{Sec: timeout.Seconds, Nsec: timeout.Nanos}
	}

	var info unix.Siginfo
	e := unix.Sigtimedwait(&mask, &info, ts)
	if e == unix.EAGAIN {
		return 0, nil
	} else if e != nil {
		return 0, ErrorSigWait.Error(e)
	}

	return syscall.Signal(info.Signo), nil
}
