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

package tcp

import (
	"sync"

	"github.com/sabouaram/svckernel/clock"
	"golang.org/x/sys/unix"
)

// Socket wraps a non-blocking POSIX socket file descriptor. Every
// suspension point (Accept, Read, Write) honors an absolute clock.Timestamp
// deadline by pselect-ing the descriptor before retrying the syscall,
// matching the POSIX discipline the kernel is built on instead of Go's
// net.Conn deadline model.
type Socket struct {
	mu     sync.Mutex
	fd     int
	closed bool
}

// sockaddr builds the unix.Sockaddr and socket family matching addr's
// resolved address family, erroring rather than silently truncating an
// IPv6-only address into a zeroed 4-byte field.
func sockaddr(addr *AddrInfo) (int, unix.Sockaddr, error) {
	if addr.Family() == FamilyIPv6 {
		ip := addr.First().To16()
		if ip == nil {
			return 0, nil, ErrorResolve.Error(nil)
		}
		sa := &unix.SockaddrInet6{Port: int(addr.Port())}
		copy(sa.Addr[:], ip)
		return unix.AF_INET6, sa, nil
	}

	ip := addr.First().To4()
	if ip == nil {
		return 0, nil, ErrorResolve.Error(nil)
	}
	sa := &unix.SockaddrInet4{Port: int(addr.Port())}
	copy(sa.Addr[:], ip)
	return unix.AF_INET, sa, nil
}

// Listen creates, binds and listens a non-blocking TCP socket on addr,
// with backlog pending connections.
func Listen(addr *AddrInfo, backlog int) (*Socket, error) {
	family, sa, e := sockaddr(addr)
	if e != nil {
		return nil, e
	}

	fd, e := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if e != nil {
		return nil, ErrorSocketCreate.Error(e)
	}

	_ = unix.SetNonblock(fd, true)
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)

	if e = unix.Bind(fd, sa); e != nil {
		_ = unix.Close(fd)
		return nil, ErrorSocketBind.Error(e)
	}

	if e = unix.Listen(fd, backlog); e != nil {
		_ = unix.Close(fd)
		return nil, ErrorSocketListen.Error(e)
	}

	return &Socket{fd: fd}, nil
}

// Dial opens a non-blocking client connection to addr, waiting until
// connected or deadline elapses.
func Dial(addr *AddrInfo, deadline clock.Timestamp) (*Socket, error) {
	family, sa, e := sockaddr(addr)
	if e != nil {
		return nil, e
	}

	fd, e := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if e != nil {
		return nil, ErrorSocketCreate.Error(e)
	}
	_ = unix.SetNonblock(fd, true)

	e = unix.Connect(fd, sa)
	if e != nil && e != unix.EINPROGRESS && e != unix.EINTR {
		_ = unix.Close(fd)
		return nil, ErrorSocketConnect.Error(e)
	}

	s := &Socket{fd: fd}
	if e == unix.EINPROGRESS {
		if ok, werr := s.waitWritable(deadline); werr != nil {
			_ = s.Close()
			return nil, werr
		} else if !ok {
			_ = s.Close()
			return nil, ErrorTimeout.Error(nil)
		}
	}

	return s, nil
}

// Fd returns the raw file descriptor.
func (s *Socket) Fd() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fd
}

// Accept blocks (subject to deadline) until a new connection is ready and
// returns the accepted Socket.
func (s *Socket) Accept(deadline clock.Timestamp) (*Socket, error) {
	for {
		nfd, _, e := unix.Accept(s.Fd())
		if e == nil {
			_ = unix.SetNonblock(nfd, true)
			return &Socket{fd: nfd}, nil
		}
		if e != unix.EAGAIN && e != unix.EWOULDBLOCK && e != unix.EINTR {
			return nil, ErrorSocketAccept.Error(e)
		}

		ok, werr := s.waitReadable(deadline)
		if werr != nil {
			return nil, werr
		}
		if !ok {
			return nil, ErrorTimeout.Error(nil)
		}
	}
}

// Read reads into buf, blocking (subject to deadline) until data is
// available. Returns the number of bytes read; 0 with a nil error means
// the deadline elapsed with nothing read, or the peer closed the
// connection.
func (s *Socket) Read(buf []byte, deadline clock.Timestamp) (int, error) {
	for {
		n, e := unix.Read(s.Fd(), buf)
		if e == nil {
			return n, nil
		}
		if e != unix.EAGAIN && e != unix.EWOULDBLOCK && e != unix.EINTR {
			return 0, ErrorSocketRead.Error(e)
		}

		ok, werr := s.waitReadable(deadline)
		if werr != nil {
			return 0, werr
		}
		if !ok {
			return 0, nil
		}
	}
}

// Write writes all of buf, blocking (subject to deadline) between partial
// writes. Returns the number of bytes written (== len(buf) on success).
func (s *Socket) Write(buf []byte, deadline clock.Timestamp) (int, error) {
	total := 0
	for total < len(buf) {
		n, e := unix.Write(s.Fd(), buf[total:])
		if e == nil {
			total += n
			continue
		}
		if e != unix.EAGAIN && e != unix.EWOULDBLOCK && e != unix.EINTR {
			return total, ErrorSocketWrite.Error(e)
		}

		ok, werr := s.waitWritable(deadline)
		if werr != nil {
			return total, werr
		}
		if !ok {
			return total, ErrorTimeout.Error(nil)
		}
	}
	return total, nil
}

// Close closes the underlying descriptor. Idempotent.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if e := unix.Close(s.fd); e != nil {
		return ErrorSocketClose.Error(e)
	}
	return nil
}

func (s *Socket) waitReadable(deadline clock.Timestamp) (bool, error) {
	return s.pselect(true, deadline)
}

func (s *Socket) waitWritable(deadline clock.Timestamp) (bool, error) {
	return s.pselect(false, deadline)
}

// pselect waits for the descriptor to become ready for read (forRead=true)
// or write (forRead=false), returning false if deadline elapses first.
func (s *Socket) pselect(forRead bool, deadline clock.Timestamp) (bool, error) {
	fd := s.Fd()

	var rfds, wfds unix.FdSet
	fdZero(&rfds)
	fdZero(&wfds)
	if forRead {
		fdSet(&rfds, fd)
	} else {
		fdSet(&wfds, fd)
	}

	var ts *unix.Timespec
	if !deadline.IsZero() {
		left := deadline.LeftTo(clock.Now())
		ts = &unix.Timespec{Sec: left.Seconds, Nsec: left.Nanos}
	}

	n, e := unix.Pselect(fd+1, &rfds, &wfds, nil, ts, nil)
	if e != nil && e != unix.EINTR {
		return false, ErrorSocketRead.Error(e)
	}
	return n > 0, nil
}

func fdZero(set *unix.FdSet) {
	for i := range set.Bits {
		set.Bits[i] = 0
	}
}

func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= int64(1) << (uint(fd) % 64)
}
