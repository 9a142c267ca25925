// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"time"

	"github.com/relabs-tech/gait_guard/internal/detect"
	"github.com/relabs-tech/gait_guard/internal/gps"
	"github.com/relabs-tech/gait_guard/internal/stats"
)

const recorderQueue = 64

// assistRecorder writes assists to the statistics store off the engine's
// context.
type assistRecorder struct {
	store *stats.Store
	fix   func() (gps.Fix, bool)
	now   func() time.Time
	queue chan stats.Record
	done  chan struct{}
}

func newAssistRecorder(store *stats.Store, fix func() (gps.Fix, bool), now func() time.Time) *assistRecorder {
	return &assistRecorder{
		store: store,
		fix:   fix,
		now:   now,
		queue: make(chan stats.Record, recorderQueue),
		done:  make(chan struct{}),
	}
}

func (r *assistRecorder) onEvent(ev detect.Event) {
	if ev.Type != detect.EventAssistFired {
		return
	}
	rec := stats.Record{
		ID:      ev.Assist.ID,
		Kind:    ev.Assist.Kind.String(),
		FiredAt: r.now(),
		SampleT: ev.At,
	}
	if r.fix != nil {
		if f, ok := r.fix(); ok {
			rec.HasFix, rec.Lat, rec.Lon = true, f.Latitude, f.Longitude
		}
	}
	select {
	case r.queue <- rec:
	default:
		log.Printf("stats: queue full, dropping assist %s", rec.ID)
	}
}

func (r *assistRecorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		if err := r.store.Record(rec); err != nil {
			log.Printf("stats: %v", err)
		}
	}
}

// close drains the queue. No onEvent may follow.
func (r *assistRecorder) close() {
	close(r.queue)
	<-r.done
}

func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// resetAtMidnight posts reset at every local midnight until ctx is done.
func resetAtMidnight(ctx context.Context, post func(func()), reset func(), now func() time.Time) {
	for {
		t := now()
		timer := time.NewTimer(nextMidnight(t).Sub(t))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			post(reset)
			log.Println("guard: daily assist counts reset")
		}
	}
}
