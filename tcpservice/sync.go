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

	"github.com/sabouaram/svckernel/clock"
	"github.com/sabouaram/svckernel/dispatcher"
	"github.com/sabouaram/svckernel/subsystem"
	"github.com/sabouaram/svckernel/tcp"
)

// Sync is a TCP service that hands each accepted connection to a single
// dispatcher.Pool worker as one task: the same goroutine both reads and
// writes the connection for its whole lifetime.
type Sync struct {
	*listener
	handler Handler
}

// NewSync builds a Sync service listening on addr with the given accept
// backlog, dispatching accepted connections to pool and handler.
func NewSync(addr *tcp.AddrInfo, backlog int, pool *dispatcher.Pool, handler Handler) (*Sync, error) {
	if handler == nil {
		return nil, ErrorParamsEmpty.Error(nil)
	}
	l, err := newListener(addr, backlog, pool)
	if err != nil {
		return nil, err
	}
	return &Sync{listener: l, handler: handler}, nil
}

// Start starts the backing dispatcher.Pool and the accept loop.
func (s *Sync) Start(ctx context.Context) error {
	if s.runner != nil && s.runner.IsRunning() {
		return ErrorAlreadyRunning.Error(nil)
	}

	if !s.pool.IsRunning() {
		if err := s.pool.Start(ctx); err != nil {
			return err
		}
	}

	s.runner = subsystem.NewRunner(func(rctx context.Context) error {
		return s.acceptLoop(rctx, func(conn *tcp.Socket) {
			s.pool.Perform(func(fctx context.Context) error {
				defer func() { _ = conn.Close() }()
				s.handler(fctx, conn)
				return nil
			})
		})
	})

	return s.runner.Start(ctx)
}

// Stop stops the accept loop and the backing pool, both bounded by
// timeout.
func (s *Sync) Stop(timeout clock.Timeout) error {
	if s.runner == nil {
		return ErrorNotRunning.Error(nil)
	}
	if err := s.runner.Stop(timeout); err != nil {
		return err
	}
	return s.pool.Stop(timeout)
}
