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

package httpserver

import (
	"context"
	"strings"
	"time"

	"github.com/sabouaram/svckernel/clock"
	"github.com/sabouaram/svckernel/dispatcher"
	"github.com/sabouaram/svckernel/httpmsg"
	"github.com/sabouaram/svckernel/tcp"
	"github.com/sabouaram/svckernel/tcpservice"
)

// Handler answers one parsed request by driving w. It must eventually
// call Finalize (directly or via a helper) before returning; Server
// finalizes on the handler's behalf if it did not.
type Handler func(req *httpmsg.RequestParser, w *httpmsg.StreamWriter)

// Server is one plaintext HTTP listener: accepted connections are
// handed to a tcpservice.Sync worker that parses requests one at a time
// off the socket and streams each response back before looking for the
// next request, per HTTP/1.1 persistent-connection semantics.
type Server struct {
	sync *tcpservice.Sync

	requestTimeout clock.Timeout
	maxBodyBytes   int
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithRequestTimeout bounds how long the server waits for a full
// request (headers + body) before abandoning the connection.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.requestTimeout = clock.FromDuration(d) }
}

// WithMaxBodyBytes bounds how large a request body the server will
// buffer per request.
func WithMaxBodyBytes(n int) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// New builds a Server listening on addr, dispatching accepted
// connections through pool.
func New(addr *tcp.AddrInfo, backlog int, pool *dispatcher.Pool, handler Handler, opts ...Option) (*Server, error) {
	if addr == nil || pool == nil || handler == nil {
		return nil, ErrorParamsEmpty.Error(nil)
	}

	s := &Server{
		requestTimeout: clock.FromDuration(30 * time.Second),
		maxBodyBytes:   1 << 20,
	}
	for _, o := range opts {
		o(s)
	}

	sync, err := tcpservice.NewSync(addr, backlog, pool, func(ctx context.Context, sock *tcp.Socket) {
		s.serveConn(ctx, sock, handler)
	})
	if err != nil {
		return nil, err
	}
	s.sync = sync

	return s, nil
}

// Start starts the backing accept loop and dispatcher pool.
func (s *Server) Start(ctx context.Context) error { return s.sync.Start(ctx) }

// Stop stops the accept loop and dispatcher pool, bounded by timeout.
func (s *Server) Stop(timeout clock.Timeout) error { return s.sync.Stop(timeout) }

// IsRunning reports whether the accept loop is active.
func (s *Server) IsRunning() bool { return s.sync.IsRunning() }

// Uptime returns how long the accept loop has been running.
func (s *Server) Uptime() clock.Timeout { return s.sync.Uptime() }

func (s *Server) serveConn(ctx context.Context, sock *tcp.Socket, handler Handler) {
	parser := httpmsg.NewRequestParser()
	reader := httpmsg.NewStreamReader(sock, parser, 8192)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		body := make([]byte, s.maxBodyBytes)
		deadline := clock.Now().Add(s.requestTimeout)
		completed, _, err := reader.Read(body, deadline)
		if err != nil {
			return
		}
		if !completed {
			if parser.IsBad() {
				s.writeBadRequest(sock, parser)
			}
			return
		}

		w := httpmsg.NewResponseStreamWriter(sock, parser.Version(), 200, "OK")
		handler(parser, w)
		s.drainFinalize(w, sock)

		if !persistent(parser) {
			return
		}

		parser.Reset()
	}
}

func (s *Server) writeBadRequest(sock *tcp.Socket, parser *httpmsg.RequestParser) {
	w := httpmsg.NewResponseStreamWriter(sock, "HTTP/1.1", 400, "Bad Request")
	body := []byte(parser.Kind().String())
	_, _ = w.WriteOnce(body, clock.Now().Add(clock.FromDuration(2*time.Second)))
}

func (s *Server) drainFinalize(w *httpmsg.StreamWriter, sock *tcp.Socket) {
	deadline := clock.Now().Add(clock.FromDuration(5 * time.Second))
	for {
		done, err := w.Finalize(deadline)
		if err != nil || done {
			return
		}
	}
}

// persistent reports whether the connection should stay open for the
// next request, per HTTP/1.1 defaulting to keep-alive and HTTP/1.0
// defaulting to close unless overridden by the Connection header.
func persistent(req *httpmsg.RequestParser) bool {
	conn, ok := req.Headers().Get("Connection")
	version := req.Version()

	if ok {
		return strings.EqualFold(strings.TrimSpace(conn), "keep-alive")
	}
	return version == "HTTP/1.1"
}
