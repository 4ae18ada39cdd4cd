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

// Package request implements the typed inter-thread request/response
// channel the tick-loop subsystems use to hand work to one another without
// sharing mutable state directly: a caller posts a request of type M and
// blocks (with a deadline) on a oneshot reply, while the worker thread
// drains pending requests from its own goroutine.
package request

import (
	"context"
	"sync/atomic"

	libctx "github.com/sabouaram/svckernel/context"
	"github.com/rs/xid"
)

// Pending is one request in flight: the payload plus the channel its
// response will be delivered on.
type Pending[M any] struct {
	ID      uint64
	Token   string
	Payload M
	reply   chan any
}

// Reply delivers resp to the caller blocked on this pending request. Safe
// to call at most once; subsequent calls are no-ops.
func (p *Pending[M]) Reply(resp any) {
	defer func() { _ = recover() }()
	select {
	case p.reply <- resp:
	default:
	}
}

// Requester is a generic, thread-safe request/response channel: Post hands
// a payload to whichever goroutine is draining Requests and blocks for a
// reply, Requests exposes the inbound channel for that goroutine to range
// over.
type Requester[M any] struct {
	queue   chan *Pending[M]
	inflt   libctx.Config[uint64]
	counter uint64
	closed  atomic.Bool
}

// New builds a Requester with the given inbound queue depth.
func New[M any](queueDepth int) *Requester[M] {
	if queueDepth <= 0 {
		queueDepth = 1
	}
	return &Requester[M]{
		queue: make(chan *Pending[M], queueDepth),
		inflt: libctx.New[uint64](context.Background()),
	}
}

// Requests exposes the channel of inbound pending requests for the serving
// goroutine to range over.
func (r *Requester[M]) Requests() <-chan *Pending[M] {
	return r.queue
}

// Post submits payload and blocks until a reply arrives, ctx is canceled,
// or the requester is closed.
func (r *Requester[M]) Post(ctx context.Context, payload M) (any, error) {
	if r.closed.Load() {
		return nil, ErrorClosed.Error(nil)
	}

	id := atomic.AddUint64(&r.counter, 1)
	p := &Pending[M]{
		ID:      id,
		Token:   xid.New().String(),
		Payload: payload,
		reply:   make(chan any, 1),
	}

	r.inflt.Store(id, p)
	defer r.inflt.Delete(id)

	select {
	case r.queue <- p:
	case <-ctx.Done():
		return nil, ErrorTimeout.Error(ctx.Err())
	}

	select {
	case resp := <-p.reply:
		return resp, nil
	case <-ctx.Done():
		return nil, ErrorTimeout.Error(ctx.Err())
	}
}

// ReplyTo delivers resp to the pending request identified by id. Returns
// an error if no such request is currently in flight.
func (r *Requester[M]) ReplyTo(id uint64, resp any) error {
	v, ok := r.inflt.Load(id)
	if !ok {
		return ErrorUnknownRequest.Error(nil)
	}

	p, ok := v.(*Pending[M])
	if !ok {
		return ErrorUnknownRequest.Error(nil)
	}

	p.Reply(resp)
	return nil
}

// Close marks the requester closed: further Post calls fail immediately.
// Already-queued requests are left for the serving goroutine to drain.
func (r *Requester[M]) Close() {
	r.closed.Store(true)
}

// IsClosed reports whether Close has been called.
func (r *Requester[M]) IsClosed() bool {
	return r.closed.Load()
}
