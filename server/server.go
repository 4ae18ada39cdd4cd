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

package server

import (
	"context"
	"syscall"

	"github.com/sabouaram/svckernel/clock"
	"github.com/sabouaram/svckernel/logger"
	logcfg "github.com/sabouaram/svckernel/logger/config"
	"github.com/sabouaram/svckernel/request"
	"github.com/sabouaram/svckernel/sigset"
	"github.com/sabouaram/svckernel/subsystem"
)

// DefaultTrackedSignals is the signal set Run blocks and waits on when
// New is given a nil Set: SIGHUP (restart), SIGINT and SIGTERM
// (terminate).
func DefaultTrackedSignals() (*sigset.Set, error) {
	return sigset.New(syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
}

// Server is the process main loop: a signal-driven wrapper around a
// subsystem tree.
type Server struct {
	argv         []string
	tree         *subsystem.Node
	sigs         *sigset.Set
	clockTimeout clock.Timeout
	stopTimeout  clock.Timeout
	commands     *request.Requester[Command]
	log          logger.Logger
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithLogger overrides the default logger, which is otherwise
// logger.New(context.Background()) at its default level.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New builds a Server. A nil sigs uses DefaultTrackedSignals. argv is
// passed through to subclasses unchanged; the core never inspects it.
func New(argv []string, tree *subsystem.Node, clockTimeout, stopTimeout clock.Timeout, sigs *sigset.Set, opts ...Option) (*Server, error) {
	if tree == nil {
		return nil, ErrorParamsEmpty.Error(nil)
	}

	if sigs == nil {
		var err error
		sigs, err = DefaultTrackedSignals()
		if err != nil {
			return nil, err
		}
	}

	defaultLog := logger.New(context.Background())
	_ = defaultLog.SetOptions(&logcfg.Options{Stdout: &logcfg.OptionsStd{}})

	s := &Server{
		argv:         append([]string(nil), argv...),
		tree:         tree,
		sigs:         sigs,
		clockTimeout: clockTimeout,
		stopTimeout:  stopTimeout,
		commands:     request.New[Command](8),
		log:          defaultLog,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Argv returns the argument vector the Server was constructed with.
func (s *Server) Argv() []string {
	return append([]string(nil), s.argv...)
}

// Commands exposes the Server's command queue so external code (a signal
// handler registered elsewhere, an admin endpoint) can Post a
// RestartCommand or TerminateCommand instead of sending a real signal.
func (s *Server) Commands() *request.Requester[Command] {
	return s.commands
}

// Run blocks the tracked signal set process-wide, starts the subsystem
// tree, then loops waiting on that signal set (or a posted Command)
// until a terminate condition is reached, at which point it stops the
// tree and restores the previous signal mask. Must be called from the
// process's initial thread, per the POSIX pthread_sigmask discipline
// sigset relies on.
func (s *Server) Run(ctx context.Context) error {
	if err := s.sigs.Block(); err != nil {
		return err
	}
	defer func() { _ = s.sigs.Restore() }()

	if err := s.tree.Start(ctx); err != nil {
		return ErrorTreeStart.Error(err)
	}
	s.log.Info("subsystem tree started", nil)

	for {
		sig, err := s.sigs.Wait(s.clockTimeout)
		if err != nil {
			break
		}

		switch sig {
		case syscall.SIGHUP:
			s.log.Info("received restart signal", nil)
			_ = s.tree.Stop(s.stopTimeout)
			if err := s.tree.Start(ctx); err != nil {
				return ErrorTreeStart.Error(err)
			}
		case syscall.SIGINT, syscall.SIGTERM:
			s.log.Info("received terminate signal", nil)
			if e := s.tree.Stop(s.stopTimeout); e != nil {
				return ErrorTreeStop.Error(e)
			}
			return nil
		}

		if s.drainCommands(ctx) {
			break
		}
	}

	if err := s.tree.Stop(s.stopTimeout); err != nil {
		return ErrorTreeStop.Error(err)
	}
	s.log.Info("subsystem tree stopped", nil)
	return nil
}

// drainCommands performs a zero-timeout drain of the command queue,
// honoring any RestartCommand/TerminateCommand posted from outside the
// signal path. Returns true if a TerminateCommand was seen.
func (s *Server) drainCommands(ctx context.Context) bool {
	for {
		select {
		case p := <-s.commands.Requests():
			switch p.Payload.Kind {
			case RestartCommand:
				s.log.Info("received restart command", nil)
				_ = s.tree.Stop(s.stopTimeout)
				_ = s.tree.Start(ctx)
				p.Reply(nil)
			case TerminateCommand:
				s.log.Info("received terminate command", nil)
				p.Reply(nil)
				return true
			}
		default:
			return false
		}
	}
}
