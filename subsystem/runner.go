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

package subsystem

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sabouaram/svckernel/clock"
)

func timeAfter(t clock.Timeout) <-chan time.Time {
	return time.After(t.Time())
}

// Func is the body a Runner executes on Start, in its own goroutine. It
// must return promptly once ctx is canceled.
type Func func(ctx context.Context) error

// Runner is the tick-loop thread base every leaf subsystem embeds: it runs
// Func in a goroutine, tracks uptime, and serializes Start/Stop against
// concurrent callers.
type Runner struct {
	mu      sync.Mutex
	fn      Func
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
	started clock.Timestamp
	lastErr atomic.Value
}

// NewRunner builds a Runner around fn. fn is not invoked until Start.
func NewRunner(fn Func) *Runner {
	return &Runner{fn: fn}
}

// Start launches fn in a new goroutine derived from ctx. Returns
// ErrorAlreadyRunning if already started.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running.Load() {
		return ErrorAlreadyRunning.Error(nil)
	}

	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.started = clock.Now()
	r.running.Store(true)

	go func() {
		defer close(r.done)
		defer r.running.Store(false)

		if err := r.fn(cctx); err != nil {
			r.lastErr.Store(err)
		}
	}()

	return nil
}

// Stop cancels the running Func and blocks until it has returned or
// timeout elapses. A zero timeout waits forever. Returns ErrorNotRunning
// if the Runner was never started, ErrorStopTimeout on deadline exceeded.
func (r *Runner) Stop(timeout clock.Timeout) error {
	r.mu.Lock()
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	if cancel == nil {
		return ErrorNotRunning.Error(nil)
	}

	cancel()

	if timeout.IsZero() {
		<-done
		return nil
	}

	select {
	case <-done:
		return nil
	case <-timeAfter(timeout):
		return ErrorStopTimeout.Error(nil)
	}
}

// IsRunning reports whether Func is currently executing.
func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// Uptime returns how long the Runner has been running since the last
// Start. Zero if not running.
func (r *Runner) Uptime() clock.Timeout {
	if !r.running.Load() {
		return clock.Zero
	}
	return clock.Now().Sub(r.started)
}

// LastError returns the error the most recent run returned, if any.
func (r *Runner) LastError() error {
	v := r.lastErr.Load()
	if v == nil {
		return nil
	}
	return v.(error)
}
