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

package timer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sabouaram/svckernel/clock"
	"github.com/sabouaram/svckernel/subsystem"
)

// PeriodicTask is re-armed on its own period for as long as the Timer
// runs. OnStart/OnStop bracket the Timer's whole lifetime, not each
// individual firing.
type PeriodicTask interface {
	OnStart(t *Timer)
	Execute(t *Timer, lastExpired clock.Timestamp, expiredCount int, period clock.Timeout)
	OnStop(t *Timer)
}

// ScheduledTask fires once, on the tick whose window ends after its
// target timestamp; that can be up to one clockTimeout before the target.
type ScheduledTask interface {
	Execute(t *Timer, scheduledAt clock.Timestamp)
}

// OverloadFunc is invoked when a tick discovers it is more than one
// clockTimeout behind, naming how many ticks were skipped.
type OverloadFunc func(ticksExpired int)

type periodicEntry struct {
	id            string
	task          PeriodicTask
	period        clock.Timeout
	nextExecution clock.Timestamp
}

type scheduledEntry struct {
	at   clock.Timestamp
	task ScheduledTask
}

// Timer is a subsystem.Runner-driven tick loop owning a periodic-task
// registry and a capacity-bounded, timestamp-ordered scheduled-task
// queue.
type Timer struct {
	*subsystem.Runner

	clockTimeout  clock.Timeout
	maxScheduled  int
	onOverload    OverloadFunc

	mu        sync.Mutex
	periodic  []*periodicEntry
	scheduled []scheduledEntry
	prevTick  clock.Timestamp
}

// New builds a Timer ticking every clockTimeout, holding at most
// maxScheduledTasks scheduled tasks at once. onOverload may be nil.
func New(clockTimeout clock.Timeout, maxScheduledTasks int, onOverload OverloadFunc) *Timer {
	t := &Timer{
		clockTimeout: clockTimeout,
		maxScheduled: maxScheduledTasks,
		onOverload:   onOverload,
	}
	t.Runner = subsystem.NewRunner(t.run)
	return t
}

// RegisterPeriodic adds a periodic task under id, re-armed every period.
// Rejects a zero period or a duplicate id.
func (t *Timer) RegisterPeriodic(id string, task PeriodicTask, period clock.Timeout) error {
	if id == "" || task == nil {
		return ErrorParamsEmpty.Error(nil)
	}
	if period.IsZero() {
		return ErrorZeroPeriod.Error(nil)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, pe := range t.periodic {
		if pe.id == id {
			return ErrorDuplicateRegistration.Error(nil)
		}
	}

	t.periodic = append(t.periodic, &periodicEntry{id: id, task: task, period: period})
	return nil
}

// UnregisterPeriodic removes the periodic task registered under id, if
// any.
func (t *Timer) UnregisterPeriodic(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, pe := range t.periodic {
		if pe.id == id {
			t.periodic = append(t.periodic[:i], t.periodic[i+1:]...)
			return
		}
	}
}

// ScheduleTask adds a one-shot task to fire on the first tick whose next
// tick time is later than at (up to one clockTimeout early). Returns
// false without adding the task if maxScheduledTasks would be exceeded.
func (t *Timer) ScheduleTask(task ScheduledTask, at clock.Timestamp) bool {
	if task == nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.maxScheduled > 0 && len(t.scheduled) >= t.maxScheduled {
		return false
	}

	idx := sort.Search(len(t.scheduled), func(i int) bool {
		return !t.scheduled[i].at.Before(at)
	})
	t.scheduled = append(t.scheduled, scheduledEntry{})
	copy(t.scheduled[idx+1:], t.scheduled[idx:])
	t.scheduled[idx] = scheduledEntry{at: at, task: task}
	return true
}

// ScheduledCount returns the number of scheduled tasks still pending.
func (t *Timer) ScheduledCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.scheduled)
}

func (t *Timer) run(ctx context.Context) error {
	t.mu.Lock()
	t.prevTick = clock.Now()
	for _, pe := range t.periodic {
		pe.nextExecution = t.prevTick
		pe.task.OnStart(t)
	}
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for _, pe := range t.periodic {
			pe.task.OnStop(t)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		now := clock.Now()
		nextTick := t.prevTick.Add(t.clockTimeout)
		ticksExpired := 0
		for !nextTick.After(now) {
			ticksExpired++
			nextTick = nextTick.Add(t.clockTimeout)
		}
		if ticksExpired > 1 && t.onOverload != nil {
			t.onOverload(ticksExpired)
		}

		t.firePeriodic(nextTick)
		t.fireScheduled(nextTick)

		if t.awaitTick(ctx, nextTick) {
			return nil
		}
		t.prevTick = nextTick
	}
}

func (t *Timer) firePeriodic(nextTick clock.Timestamp) {
	t.mu.Lock()
	type due struct {
		entry        *periodicEntry
		lastExpired  clock.Timestamp
		expiredCount int
	}
	var fires []due
	for _, pe := range t.periodic {
		expiredCount := 0
		var last clock.Timestamp
		for pe.nextExecution.Before(nextTick) {
			last = pe.nextExecution
			pe.nextExecution = pe.nextExecution.Add(pe.period)
			expiredCount++
		}
		if expiredCount > 0 {
			fires = append(fires, due{entry: pe, lastExpired: last, expiredCount: expiredCount})
		}
	}
	t.mu.Unlock()

	for _, f := range fires {
		f.entry.task.Execute(t, f.lastExpired, f.expiredCount, f.entry.period)
	}
}

func (t *Timer) fireScheduled(nextTick clock.Timestamp) {
	t.mu.Lock()
	i := 0
	for i < len(t.scheduled) && t.scheduled[i].at.Before(nextTick) {
		i++
	}
	due := append([]scheduledEntry(nil), t.scheduled[:i]...)
	t.scheduled = t.scheduled[i:]
	t.mu.Unlock()

	for _, e := range due {
		e.task.Execute(t, e.at)
	}
}

// awaitTick blocks until nextTick or ctx cancellation, returning true if
// the loop should exit.
func (t *Timer) awaitTick(ctx context.Context, nextTick clock.Timestamp) bool {
	wait := nextTick.LeftTo(clock.Now())
	if wait.IsZero() {
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(wait.Time())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}
