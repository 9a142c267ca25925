// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sched

import (
	"context"
	"sync"
	"time"
)

// Loop is a goroutine-backed Scheduler. Work is consumed from a single
// queue by Run; timers post their callbacks into the same queue.
type Loop struct {
	queue chan func()
	quit  chan struct{}
	once  sync.Once
}

// NewLoop creates a loop whose queue holds up to depth pending functions.
func NewLoop(depth int) *Loop {
	if depth <= 0 {
		depth = 256
	}
	return &Loop{
		queue: make(chan func(), depth),
		quit:  make(chan struct{}),
	}
}

// Run consumes the queue until ctx is done. Anything posted afterwards is
// dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.quit) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Post queues fn. It blocks while the queue is full and returns without
// queueing once the loop has stopped.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.quit:
	}
}

// Do posts fn and waits for it to finish. Calling Do from the loop itself
// deadlocks.
func (l *Loop) Do(fn func()) {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-l.quit:
	}
}

func (l *Loop) After(d time.Duration, fn func()) Task {
	t := &loopTask{loop: l, fn: fn}
	t.arm(d)
	return t
}

func (l *Loop) Every(d time.Duration, fn func()) Task {
	t := &loopTask{loop: l, fn: fn, every: d}
	t.arm(d)
	return t
}

// loopTask fields other than loop and fn are only touched on the loop.
type loopTask struct {
	loop      *Loop
	fn        func()
	every     time.Duration
	timer     *time.Timer
	cancelled bool
}

func (t *loopTask) arm(d time.Duration) {
	t.timer = time.AfterFunc(d, func() { t.loop.Post(t.fire) })
}

func (t *loopTask) fire() {
	if t.cancelled {
		return
	}
	if t.every > 0 {
		t.arm(t.every)
	} else {
		t.cancelled = true
	}
	t.fn()
}

func (t *loopTask) Cancel() {
	t.cancelled = true
	if t.timer != nil {
		t.timer.Stop()
	}
}
