// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import "sort"

// WindowSeconds is the span kept by the detection window.
const WindowSeconds = 2.2

// compactAt is the number of dropped leading slots tolerated before the
// backing array is shifted down.
const compactAt = 64

// Window is a time-bounded FIFO of samples. Entries older than span seconds
// relative to the newest push are dropped on every Push.
//
// Timestamps must be non-decreasing; the caller enforces that.
type Window struct {
	span float64
	buf  []Sample
	head int
}

// NewWindow creates a window covering span seconds.
func NewWindow(span float64) *Window {
	return &Window{
		span: span,
		buf:  make([]Sample, 0, 128),
	}
}

// Span returns the window duration in seconds.
func (w *Window) Span() float64 {
	return w.span
}

// Push appends s and trims everything with T < s.T - span.
func (w *Window) Push(s Sample) {
	w.buf = append(w.buf, s)

	cutoff := s.T - w.span
	for w.head < len(w.buf) && w.buf[w.head].T < cutoff {
		w.buf[w.head] = Sample{}
		w.head++
	}

	if w.head >= compactAt && w.head*2 >= len(w.buf) {
		n := copy(w.buf, w.buf[w.head:])
		w.buf = w.buf[:n]
		w.head = 0
	}
}

// Len returns the number of samples currently held.
func (w *Window) Len() int {
	return len(w.buf) - w.head
}

// Samples returns the held samples oldest first. The slice aliases the
// window and is only valid until the next Push.
func (w *Window) Samples() []Sample {
	return w.buf[w.head:]
}

// RecentSince returns the contiguous suffix of samples with T >= cutoff.
// Same aliasing rules as Samples.
func (w *Window) RecentSince(cutoff float64) []Sample {
	live := w.buf[w.head:]
	i := sort.Search(len(live), func(i int) bool { return live[i].T >= cutoff })
	return live[i:]
}

// Last returns up to n of the newest samples, oldest first.
func (w *Window) Last(n int) []Sample {
	live := w.buf[w.head:]
	if n > len(live) {
		n = len(live)
	}
	return live[len(live)-n:]
}

// Newest returns the most recent sample, if any.
func (w *Window) Newest() (Sample, bool) {
	if w.Len() == 0 {
		return Sample{}, false
	}
	return w.buf[len(w.buf)-1], true
}

// Reset drops every sample.
func (w *Window) Reset() {
	clear(w.buf)
	w.buf = w.buf[:0]
	w.head = 0
}
