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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every Prometheus collector the kernel's components
// report through, on a private prometheus.Registry rather than the
// global default one.
type Registry struct {
	reg *prometheus.Registry

	DispatcherOverflow   *prometheus.CounterVec
	DispatcherInFlight   *prometheus.GaugeVec
	TimerOverloadedTicks prometheus.Counter
	TimerPeriodicFired   *prometheus.CounterVec
	ListenerOpenConns    *prometheus.GaugeVec
}

// New builds a Registry with every collector registered under the
// given namespace (e.g. "svckernel").
func New(namespace string) *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,

		DispatcherOverflow: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "overload_total",
			Help:      "Number of Perform calls rejected because the pool was saturated, by pool name.",
		}, []string{"pool"}),

		DispatcherInFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "in_flight_tasks",
			Help:      "Number of tasks currently admitted but not finished, by pool name.",
		}, []string{"pool"}),

		TimerOverloadedTicks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "timer",
			Name:      "overloaded_ticks_total",
			Help:      "Number of tick-loop iterations that found more than one tick already expired.",
		}),

		TimerPeriodicFired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "timer",
			Name:      "periodic_fired_total",
			Help:      "Number of periodic task executions, by task id.",
		}, []string{"task"}),

		ListenerOpenConns: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tcpservice",
			Name:      "open_connections",
			Help:      "Number of currently open accepted connections, by listener name.",
		}, []string{"listener"}),
	}
}

// Registry exposes the underlying prometheus.Registry for callers that
// want to add their own collectors or gather it themselves.
func (r *Registry) Registry() *prometheus.Registry {
	return r.reg
}
