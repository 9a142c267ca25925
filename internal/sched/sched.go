// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sched provides the single sequential execution context the
// detection engine runs on: posted work and timer callbacks never interleave.
package sched

import (
	"math"
	"time"
)

// Task is a scheduled callback that can be cancelled. Once Cancel returns
// the callback will not run again, even if its timer already expired.
type Task interface {
	Cancel()
}

// Scheduler runs callbacks one at a time on one execution context.
//
// After, Every and Task.Cancel must themselves be called from that context
// (from inside a posted function or another callback).
type Scheduler interface {
	// After runs fn once, d from now.
	After(d time.Duration, fn func()) Task
	// Every runs fn every d until cancelled.
	Every(d time.Duration, fn func()) Task
	// Post queues fn to run on the execution context.
	Post(fn func())
}

// Seconds converts fractional seconds to a Duration, rounding to the
// nearest nanosecond.
func Seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
