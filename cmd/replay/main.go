// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"bytes"
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/gait_guard/internal/app"
	"github.com/relabs-tech/gait_guard/internal/detect"
	"github.com/relabs-tech/gait_guard/internal/motion"
)

func main() {
	input := flag.String("in", "", "recording to replay (CSV: t,accel_mag,yaw_rate,yaw_rate_mag)")
	synth := flag.Float64("synth", 0, "instead of -in, replay this many seconds of the built-in mock program")
	sensitivity := flag.Float64("sensitivity", detect.DefaultSensitivity, "detection sensitivity 0-1")
	cooldown := flag.Float64("cooldown", detect.DefaultCooldownSeconds, "cooldown after a cue, seconds")
	cue := flag.Float64("cue", detect.DefaultCueDurationSeconds, "cue duration, seconds")
	flag.Parse()

	settings := detect.Settings{
		Sensitivity:        *sensitivity,
		CooldownSeconds:    *cooldown,
		CueDurationSeconds: *cue,
	}

	switch {
	case *input != "":
		f, err := os.Open(*input)
		if err != nil {
			log.Fatalf("failed to open recording: %v", err)
		}
		defer f.Close()
		if _, err := app.RunReplay(f, settings, os.Stdout); err != nil {
			log.Fatalf("fatal: %v", err)
		}

	case *synth > 0:
		var samples []motion.Sample
		for i := 0; float64(i)*0.02 < *synth; i++ {
			samples = append(samples, motion.Synth(motion.DefaultProgram, float64(i)*0.02))
		}
		var buf bytes.Buffer
		if err := app.WriteSamples(&buf, samples); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		if _, err := app.RunReplay(&buf, settings, os.Stdout); err != nil {
			log.Fatalf("fatal: %v", err)
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}
