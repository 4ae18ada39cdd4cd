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
	"time"

	"github.com/sabouaram/svckernel/clock"
	"github.com/sabouaram/svckernel/dispatcher"
	"github.com/sabouaram/svckernel/errors"
	"github.com/sabouaram/svckernel/subsystem"
	"github.com/sabouaram/svckernel/tcp"
)

// acceptPollInterval bounds how long a single Accept call blocks before
// the loop re-checks ctx for cancellation.
const acceptPollInterval = 200 * time.Millisecond

// Handler processes one accepted connection to completion (or until the
// connection is closed); the service closes the socket once the handler
// returns.
type Handler func(ctx context.Context, sock *tcp.Socket)

// listener is the shared accept-loop base Sync and Async build on: it
// owns the bound tcp.Socket and the subsystem.Runner driving its accept
// loop, and schedules work on a dispatcher.Pool.
type listener struct {
	addr    *tcp.AddrInfo
	backlog int
	pool    *dispatcher.Pool
	sock    *tcp.Socket
	runner  *subsystem.Runner
}

func newListener(addr *tcp.AddrInfo, backlog int, pool *dispatcher.Pool) (*listener, error) {
	if addr == nil || pool == nil {
		return nil, ErrorParamsEmpty.Error(nil)
	}
	return &listener{addr: addr, backlog: backlog, pool: pool}, nil
}

// acceptLoop binds a new listening socket each time it runs and
// accepts connections until ctx is canceled, handing each one to submit.
func (l *listener) acceptLoop(ctx context.Context, submit func(sock *tcp.Socket)) error {
	sock, err := tcp.Listen(l.addr, l.backlog)
	if err != nil {
		return err
	}
	l.sock = sock
	defer func() { _ = l.sock.Close() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		deadline := clock.Now().Add(clock.FromDuration(acceptPollInterval))
		conn, aerr := l.sock.Accept(deadline)
		if aerr != nil {
			if errors.IsCode(aerr, tcp.ErrorTimeout) {
				continue
			}
			return ErrorAcceptFailed.Error(aerr)
		}

		submit(conn)
	}
}

// Uptime returns how long the accept loop has been running.
func (l *listener) Uptime() clock.Timeout {
	if l.runner == nil {
		return clock.Zero
	}
	return l.runner.Uptime()
}

// IsRunning reports whether the accept loop is active.
func (l *listener) IsRunning() bool {
	return l.runner != nil && l.runner.IsRunning()
}
