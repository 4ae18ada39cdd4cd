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

// Package dispatcher provides a bounded work queue backed by a fixed
// worker pool: Perform admits a task only while the number of tasks
// already admitted but not yet finished stays within workers+overflow,
// and rejects (invoking an overload hook) otherwise. An async task is
// admitted as a pair of functions scheduled on two separate workers, one
// per direction of a connection.
package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sabouaram/svckernel/clock"
	"golang.org/x/sync/semaphore"
)

func timeAfter(t clock.Timeout) <-chan time.Time {
	return time.After(t.Time())
}

// ExecFunc is one unit of work a worker goroutine runs.
type ExecFunc func(ctx context.Context) error

// OverloadFunc is invoked, synchronously, whenever Perform rejects a
// submission because the pool is saturated.
type OverloadFunc func()

// Pool is a bounded task dispatcher: workers goroutines drain a FIFO
// queue whose total admitted depth is gated by a weighted semaphore
// sized workers+overflow.
type Pool struct {
	workers  int
	overflow int

	sem   *semaphore.Weighted
	queue chan ExecFunc

	onOverload OverloadFunc

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
}

// New builds a Pool with the given fixed worker count and overflow
// allowance. overflow may be zero. onOverload may be nil.
func New(workers, overflow int, onOverload OverloadFunc) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if overflow < 0 {
		overflow = 0
	}

	return &Pool{
		workers:    workers,
		overflow:   overflow,
		sem:        semaphore.NewWeighted(int64(workers + overflow)),
		queue:      make(chan ExecFunc, workers+overflow),
		onOverload: onOverload,
	}
}

// Workers returns the fixed worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Overflow returns the configured overflow allowance.
func (p *Pool) Overflow() int {
	return p.overflow
}

// Start launches the fixed worker goroutines. Returns ErrorAlreadyRunning
// if already started.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.Load() {
		return ErrorAlreadyRunning.Error(nil)
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running.Store(true)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work()
	}

	return nil
}

func (p *Pool) work() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case fn, ok := <-p.queue:
			if !ok {
				return
			}
			_ = fn(p.ctx)
		}
	}
}

// Stop cancels the pool's context and waits, bounded by timeout, for
// every worker to return. A zero timeout waits forever.
func (p *Pool) Stop(timeout clock.Timeout) error {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel == nil {
		return ErrorNotRunning.Error(nil)
	}

	cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	if timeout.IsZero() {
		<-done
	} else {
		select {
		case <-done:
		case <-timeAfter(timeout):
			return ErrorStopTimeout.Error(nil)
		}
	}

	p.running.Store(false)
	return nil
}

// IsRunning reports whether the pool's workers are active.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Perform admits fns as a single task. One fn schedules a sync task on
// one worker; two fns (receive/send) schedule an async task split across
// two workers. Returns false, invoking the overload hook, if admitting
// the task would exceed workers+overflow tasks already in flight.
func (p *Pool) Perform(fns ...ExecFunc) bool {
	n := int64(len(fns))
	if n == 0 {
		return false
	}

	if !p.sem.TryAcquire(n) {
		if p.onOverload != nil {
			p.onOverload()
		}
		return false
	}

	for _, fn := range fns {
		fn := fn
		p.queue <- func(ctx context.Context) error {
			defer p.sem.Release(1)
			return fn(ctx)
		}
	}

	return true
}
