// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualRunsInDueOrder(t *testing.T) {
	m := NewManual()
	var got []string

	m.After(300*time.Millisecond, func() { got = append(got, "c") })
	m.After(100*time.Millisecond, func() { got = append(got, "a") })
	m.After(100*time.Millisecond, func() { got = append(got, "b") })

	m.Advance(50 * time.Millisecond)
	assert.Empty(t, got)

	m.AdvanceTo(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, time.Second, m.Now())
	assert.Equal(t, 0, m.Pending())
}

func TestManualEveryAndCancel(t *testing.T) {
	m := NewManual()
	var at []time.Duration
	var task Task
	task = m.Every(100*time.Millisecond, func() {
		at = append(at, m.Now())
		if len(at) == 3 {
			task.Cancel()
		}
	})

	m.AdvanceTo(time.Second)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
	}, at)
	assert.Equal(t, 0, m.Pending())
}

func TestManualCancelFromSiblingCallback(t *testing.T) {
	m := NewManual()
	fired := 0
	pulse := m.Every(100*time.Millisecond, func() { fired++ })
	m.After(250*time.Millisecond, func() { pulse.Cancel() })

	m.AdvanceTo(2 * time.Second)
	assert.Equal(t, 2, fired)
}

func TestManualPostRunsImmediately(t *testing.T) {
	m := NewManual()
	ran := false
	m.Post(func() { ran = true })
	assert.True(t, ran)
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 1300*time.Millisecond, Seconds(1.3))
	assert.Equal(t, 480*time.Millisecond, Seconds(0.48))
	assert.Equal(t, time.Duration(0), Seconds(0))
}
