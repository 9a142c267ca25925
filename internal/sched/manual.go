// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sched

import "time"

// Manual is a Scheduler on a virtual clock. Nothing runs until the clock is
// advanced; due callbacks then run in due order (ties in scheduling order).
// Post runs immediately. Manual is not safe for concurrent use.
type Manual struct {
	now   time.Duration
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	due       time.Duration
	every     time.Duration
	seq       uint64
	fn        func()
	cancelled bool
}

func (t *manualTask) Cancel() { t.cancelled = true }

// NewManual returns a virtual clock starting at zero.
func NewManual() *Manual {
	return &Manual{}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

func (m *Manual) After(d time.Duration, fn func()) Task {
	return m.add(d, 0, fn)
}

func (m *Manual) Every(d time.Duration, fn func()) Task {
	if d <= 0 {
		d = time.Nanosecond
	}
	return m.add(d, d, fn)
}

func (m *Manual) Post(fn func()) {
	fn()
}

func (m *Manual) add(d, every time.Duration, fn func()) *manualTask {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTask{due: m.now + d, every: every, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

// AdvanceTo moves the clock to t, running every callback that falls due on
// the way. Callbacks observe Now() equal to their due time.
func (m *Manual) AdvanceTo(t time.Duration) {
	for {
		next := m.nextDue(t)
		if next == nil {
			break
		}
		m.now = next.due
		if next.every > 0 {
			m.seq++
			next.due += next.every
			next.seq = m.seq
		} else {
			next.cancelled = true
		}
		next.fn()
	}
	m.prune()
	if t > m.now {
		m.now = t
	}
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.AdvanceTo(m.now + d)
}

// Pending returns the number of live (not fired, not cancelled) tasks.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

func (m *Manual) nextDue(limit time.Duration) *manualTask {
	var best *manualTask
	for _, t := range m.tasks {
		if t.cancelled || t.due > limit {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (m *Manual) prune() {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	clear(m.tasks[len(live):])
	m.tasks = live
}
