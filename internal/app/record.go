// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"github.com/relabs-tech/gait_guard/internal/motion"
)

const (
	recordBuffer     = 256
	recordFlushEvery = 50
)

// RunRecord captures samples from src to out in the replay format until
// ctx is done or limit samples are written (0 = no limit). It returns the
// number of samples written.
func RunRecord(ctx context.Context, src motion.Source, out io.Writer, limit int) (int, error) {
	samples := make(chan motion.Sample, recordBuffer)
	var dropped atomic.Int64
	if err := src.Start(func(s motion.Sample) {
		select {
		case samples <- s:
		default:
			dropped.Add(1)
		}
	}); err != nil {
		return 0, fmt.Errorf("record: %w", err)
	}
	defer src.Stop()

	w := csv.NewWriter(out)
	w.Write(sampleHeader)

	n := 0
	finish := func() (int, error) {
		w.Flush()
		if d := dropped.Load(); d > 0 {
			log.Printf("record: %d samples dropped, writer too slow", d)
		}
		return n, w.Error()
	}

	for {
		select {
		case <-ctx.Done():
			return finish()
		case s := <-samples:
			w.Write(sampleRecord(s))
			n++
			if limit > 0 && n >= limit {
				return finish()
			}
			if n%recordFlushEvery == 0 {
				w.Flush()
				if err := w.Error(); err != nil {
					return n, fmt.Errorf("record: %w", err)
				}
				log.Printf("record: %d samples (t=%.1fs)", n, s.T)
			}
		}
	}
}
