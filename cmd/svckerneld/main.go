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

// Command svckerneld is the process entrypoint: it loads the bootstrap
// configuration, builds a subsystem tree of TCP/HTTP listeners under a
// dispatcher pool each, and runs the signal-driven server main loop
// until SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sabouaram/svckernel/clock"
	"github.com/sabouaram/svckernel/config"
	"github.com/sabouaram/svckernel/dispatcher"
	"github.com/sabouaram/svckernel/httpmsg"
	"github.com/sabouaram/svckernel/httpserver"
	"github.com/sabouaram/svckernel/metrics"
	"github.com/sabouaram/svckernel/server"
	"github.com/sabouaram/svckernel/subsystem"
	"github.com/sabouaram/svckernel/tcp"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "svckerneld",
		Short: "Runs the service kernel: a tree of TCP/HTTP listeners under one signal-driven main loop.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), os.Args, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "svckerneld.yaml", "path to the bootstrap configuration file")
	return cmd
}

func run(ctx context.Context, argv []string, configPath string) error {
	cfg, err := config.New(configPath)
	if err != nil {
		return err
	}
	root := cfg.Current()

	reg := metrics.New("svckerneld")
	tree := subsystem.NewNode("root")

	for _, lc := range root.Listeners {
		addr, err := tcp.NewAddrInfo(lc.Host, lc.Port)
		if err != nil {
			return err
		}

		name := lc.Name
		pool := dispatcher.New(lc.Workers, lc.Overflow, func() {
			reg.DispatcherOverflow.WithLabelValues(name).Inc()
		})

		lsrv, err := httpserver.New(addr, lc.Backlog, pool, func(req *httpmsg.RequestParser, w *httpmsg.StreamWriter) {
			deadline := clock.Now().Add(clock.FromDuration(2 * time.Second))
			_, _ = w.WriteOnce([]byte("svckerneld: "+req.Path()), deadline)
		})
		if err != nil {
			return err
		}

		if err := tree.Add(name, lsrv); err != nil {
			return err
		}
	}

	srv, err := server.New(argv, tree, clock.FromDuration(root.ClockTimeout), clock.FromDuration(root.StopTimeout), nil)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
