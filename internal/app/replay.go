// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/gait_guard/internal/detect"
	"github.com/relabs-tech/gait_guard/internal/motion"
	"github.com/relabs-tech/gait_guard/internal/sched"
)

// ReplaySummary is printed after a recording has been replayed.
type ReplaySummary struct {
	Samples      int
	Rejected     int
	Assists      detect.AssistCounts
	Pulses       int
	CadenceMean  float64
	CadenceStd   float64
	WalkingShare float64
}

type pulseCount struct{ n int }

func (p *pulseCount) FirePulse() { p.n++ }

// RunReplay feeds a recorded CSV (t,accel_mag,yaw_rate,yaw_rate_mag) through
// a fresh engine on virtual time and writes every event to out.
func RunReplay(in io.Reader, settings detect.Settings, out io.Writer) (ReplaySummary, error) {
	var sum ReplaySummary

	samples, err := readSamples(in)
	if err != nil {
		return sum, err
	}
	if len(samples) == 0 {
		return sum, errors.New("replay: no samples")
	}

	clock := sched.NewManual()
	pulses := &pulseCount{}
	eng := detect.NewEngine(detect.Options{
		Scheduler: clock,
		Actuator:  pulses,
		Settings:  settings,
	})
	eng.Subscribe(func(ev detect.Event) {
		switch ev.Type {
		case detect.EventStateChanged:
			fmt.Fprintf(out, "t=%8.2f  state  %s -> %s\n", ev.At, ev.Prev, ev.State)
		case detect.EventAssistFired:
			fmt.Fprintf(out, "t=%8.2f  assist %s #%d\n", ev.At, ev.Assist.Kind, ev.Assist.Count)
		}
	})

	// virtual time starts at the first sample
	origin := samples[0].T
	if err := eng.Start(); err != nil {
		return sum, err
	}

	cadence := make([]float64, 0, len(samples))
	walking := 0
	for _, s := range samples {
		clock.AdvanceTo(sched.Seconds(s.T - origin))
		eng.Ingest(s)
		snap := eng.Snapshot()
		cadence = append(cadence, snap.CadenceHz)
		if snap.State == detect.MonitoringWalking {
			walking++
		}
	}
	// let an open cue session and its cooldown run out
	clock.Advance(sched.Seconds(eng.Settings().CueDurationSeconds))

	sum.Samples = len(samples)
	sum.Rejected = eng.Rejected()
	sum.Assists = eng.Snapshot().Assists
	sum.Pulses = pulses.n
	sum.CadenceMean, sum.CadenceStd = stat.MeanStdDev(cadence, nil)
	sum.WalkingShare = float64(walking) / float64(len(samples))
	eng.Stop()

	fmt.Fprintf(out, "samples=%d rejected=%d start=%d turn=%d pulses=%d\n",
		sum.Samples, sum.Rejected, sum.Assists.Start, sum.Assists.Turn, sum.Pulses)
	fmt.Fprintf(out, "cadence mean=%.2f Hz sd=%.2f, walking %.0f%% of samples\n",
		sum.CadenceMean, sum.CadenceStd, 100*sum.WalkingShare)
	return sum, nil
}

// readSamples parses the replay CSV. A header row is optional.
func readSamples(in io.Reader) ([]motion.Sample, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = 4
	r.Comment = '#'
	r.TrimLeadingSpace = true

	var out []motion.Sample
	for line := 1; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("replay: %w", err)
		}
		if line == 1 && strings.EqualFold(rec[0], "t") {
			continue
		}
		var v [4]float64
		for i, field := range rec {
			if v[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("replay: line %d column %d: %w", line, i+1, err)
			}
		}
		out = append(out, motion.Sample{T: v[0], AccelMag: v[1], YawRate: v[2], YawRateMag: v[3]})
	}
}

var sampleHeader = []string{"t", "accel_mag", "yaw_rate", "yaw_rate_mag"}

func sampleRecord(s motion.Sample) []string {
	return []string{
		strconv.FormatFloat(s.T, 'f', -1, 64),
		strconv.FormatFloat(s.AccelMag, 'f', -1, 64),
		strconv.FormatFloat(s.YawRate, 'f', -1, 64),
		strconv.FormatFloat(s.YawRateMag, 'f', -1, 64),
	}
}

// WriteSamples writes samples in the format RunReplay reads.
func WriteSamples(w io.Writer, samples []motion.Sample) error {
	cw := csv.NewWriter(w)
	cw.Write(sampleHeader)
	for _, s := range samples {
		cw.Write(sampleRecord(s))
	}
	cw.Flush()
	return cw.Error()
}
