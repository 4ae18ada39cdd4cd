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

package tcpservice

import (
	"context"
	"sync"

	"github.com/sabouaram/svckernel/clock"
	"github.com/sabouaram/svckernel/dispatcher"
	"github.com/sabouaram/svckernel/subsystem"
	"github.com/sabouaram/svckernel/tcp"
)

// Async is a TCP service that splits each accepted connection across two
// dispatcher.Pool workers, one driving the receive side and one the
// send side. Because every connection consumes two workers at once, the
// pool's usable concurrency (its Max clients figure) is workers/2 and
// the pool must be built with an even worker count.
type Async struct {
	*listener
	receive Handler
	send    Handler
}

// NewAsync builds an Async service. pool.Workers must be even; an odd
// count is rejected with ErrorOddWorkers since it cannot be split evenly
// between the receive and send sides.
func NewAsync(addr *tcp.AddrInfo, backlog int, pool *dispatcher.Pool, receive, send Handler) (*Async, error) {
	if receive == nil || send == nil {
		return nil, ErrorParamsEmpty.Error(nil)
	}
	if pool != nil && pool.Workers()%2 != 0 {
		return nil, ErrorOddWorkers.Error(nil)
	}
	l, err := newListener(addr, backlog, pool)
	if err != nil {
		return nil, err
	}
	return &Async{listener: l, receive: receive, send: send}, nil
}

// MaxClients returns the maximum number of connections the service can
// drive concurrently: half of the backing pool's worker count.
func (a *Async) MaxClients() int {
	return a.pool.Workers() / 2
}

// Start starts the backing dispatcher.Pool and the accept loop.
func (a *Async) Start(ctx context.Context) error {
	if a.runner != nil && a.runner.IsRunning() {
		return ErrorAlreadyRunning.Error(nil)
	}

	if !a.pool.IsRunning() {
		if err := a.pool.Start(ctx); err != nil {
			return err
		}
	}

	a.runner = subsystem.NewRunner(func(rctx context.Context) error {
		return a.acceptLoop(rctx, func(conn *tcp.Socket) {
			var once sync.Once
			closeConn := func() { once.Do(func() { _ = conn.Close() }) }

			accepted := a.pool.Perform(
				func(fctx context.Context) error {
					defer closeConn()
					a.receive(fctx, conn)
					return nil
				},
				func(fctx context.Context) error {
					defer closeConn()
					a.send(fctx, conn)
					return nil
				},
			)
			if !accepted {
				closeConn()
			}
		})
	})

	return a.runner.Start(ctx)
}

// Stop stops the accept loop and the backing pool, both bounded by
// timeout.
func (a *Async) Stop(timeout clock.Timeout) error {
	if a.runner == nil {
		return ErrorNotRunning.Error(nil)
	}
	if err := a.runner.Stop(timeout); err != nil {
		return err
	}
	return a.pool.Stop(timeout)
}
