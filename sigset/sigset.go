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

// Package sigset wraps POSIX process-wide signal masking so a Server can
// block a fixed set of signals on every thread and synchronously wait for
// one of them to arrive, instead of routing an asynchronous copy through
// os/signal.Notify.
package sigset

import (
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// Set is an immutable collection of tracked signals plus the process-wide
// mask state needed to block and later restore them.
type Set struct {
	mu      sync.Mutex
	sigs    []syscall.Signal
	mask    unix.Sigset_t
	prior   unix.Sigset_t
	blocked bool
}

// New builds a Set tracking the given signals. An empty signal list is
// rejected: a SignalSet with nothing to wait on cannot make progress.
func New(sigs ...syscall.Signal) (*Set, error) {
	if len(sigs) == 0 {
		return nil, ErrorParamsEmpty.Error(nil)
	}

	s := &Set{sigs: append([]syscall.Signal(nil), sigs...)}
	for _, sig := range s.sigs {
		addSignal(&s.mask, sig)
	}
	return s, nil
}

// Signals returns the tracked signal list in construction order.
func (s *Set) Signals() []syscall.Signal {
	return append([]syscall.Signal(nil), s.sigs...)
}

// Contains reports whether sig is a member of this set.
func (s *Set) Contains(sig syscall.Signal) bool {
	for _, m := range s.sigs {
		if m == sig {
			return true
		}
	}
	return false
}

// Block masks the tracked signals process-wide, saving the previous mask so
// Restore can undo it. Calling Block twice without an intervening Restore
// is a no-op.
func (s *Set) Block() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blocked {
		return nil
	}

	if e := unix.PthreadSigmask(unix.SIG_BLOCK, &s.mask, &s.prior); e != nil {
		return ErrorSigMaskBlock.Error(e)
	}

	s.blocked = true
	return nil
}

// Restore reinstates the signal mask captured by the last Block call.
func (s *Set) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.blocked {
		return nil
	}

	if e := unix.PthreadSigmask(unix.SIG_SETMASK, &s.prior, nil); e != nil {
		return ErrorSigMaskRestore.Error(e)
	}

	s.blocked = false
	return nil
}

// addSignal sets the bit for sig inside a Linux kernel sigset_t, which
// x/sys/unix models as an array of 64-bit words indexed from signal 1.
func addSignal(set *unix.Sigset_t, sig syscall.Signal) {
	word := (int(sig) - 1) / 64
	bit := uint((int(sig) - 1) % 64)
	set.Val[word] |= uint64(1) << bit
}
