// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"math"
	"sync"
	"time"
)

// Activity is one scripted segment of the mock gait program.
type Activity int

const (
	ActivityStill Activity = iota
	ActivityWalking
	ActivityStartFreeze
	ActivityTurnFreeze
)

func (a Activity) String() string {
	switch a {
	case ActivityStill:
		return "still"
	case ActivityWalking:
		return "walking"
	case ActivityStartFreeze:
		return "start-freeze"
	case ActivityTurnFreeze:
		return "turn-freeze"
	default:
		return "unknown"
	}
}

// Phase is an activity held for a number of seconds.
type Phase struct {
	Activity Activity
	Seconds  float64
}

// DefaultProgram cycles through every situation the detectors care about.
var DefaultProgram = []Phase{
	{ActivityStill, 4},
	{ActivityWalking, 8},
	{ActivityStill, 3},
	{ActivityStartFreeze, 3},
	{ActivityStill, 14},
	{ActivityWalking, 6},
	{ActivityTurnFreeze, 2},
	{ActivityStill, 14},
}

const (
	mockStepHz   = 1.8
	mockShuffleG = 0.145
	mockTurnRate = 1.2
)

// Synth returns the scripted sample at time t (seconds) for the given
// program. The program repeats once its total length is exhausted.
func Synth(program []Phase, t float64) Sample {
	var total float64
	for _, p := range program {
		total += p.Seconds
	}
	s := Sample{T: t}
	if total <= 0 {
		return s
	}

	local := math.Mod(t, total)
	act := ActivityStill
	for _, p := range program {
		if local < p.Seconds {
			act = p.Activity
			break
		}
		local -= p.Seconds
	}

	// small deterministic jitter so still periods are not perfectly flat
	jitter := 0.01 * math.Sin(2*math.Pi*7.3*t)

	switch act {
	case ActivityWalking:
		s.AccelMag = 0.2 + 0.2*math.Sin(2*math.Pi*mockStepHz*t)
		s.YawRate = 0.15 * math.Sin(2*math.Pi*0.5*t)
	case ActivityStartFreeze:
		// shuffling in place: busy, but no step-sized peaks
		s.AccelMag = mockShuffleG + 0.5*math.Abs(jitter)
		s.YawRate = 0.1 * math.Sin(2*math.Pi*3*t)
	case ActivityTurnFreeze:
		s.AccelMag = 0.05 + math.Abs(jitter)
		s.YawRate = mockTurnRate + jitter
	default:
		s.AccelMag = math.Abs(jitter)
		s.YawRate = jitter
	}
	s.YawRateMag = math.Abs(s.YawRate)
	return s
}

type mockSource struct {
	program  []Phase
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// NewMockSource creates a source that plays program at the given interval.
// A nil program plays DefaultProgram.
func NewMockSource(program []Phase, interval time.Duration) Source {
	if program == nil {
		program = DefaultProgram
	}
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	return &mockSource{program: program, interval: interval}
}

func (m *mockSource) Start(handler func(Sample)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		return nil
	}
	m.stop = make(chan struct{})

	go func(stop chan struct{}) {
		start := time.Now()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				handler(Synth(m.program, now.Sub(start).Seconds()))
			}
		}
	}(m.stop)
	return nil
}

// Stop does not wait for the producer goroutine; a sample already in
// flight may still reach the handler.
func (m *mockSource) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
}
