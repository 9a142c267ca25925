// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/gait_guard/internal/app"
	"github.com/relabs-tech/gait_guard/internal/config"
	"github.com/relabs-tech/gait_guard/internal/motion"
	"github.com/relabs-tech/gait_guard/internal/sensors"
)

func main() {
	configPath := flag.String("config", "./guard_config.txt", "path to configuration file")
	outPath := flag.String("out", "recording.csv", "CSV file to write")
	seconds := flag.Float64("seconds", 0, "stop after this many seconds of samples (0 = until Ctrl+C)")
	flag.Parse()

	log.Println("starting gait guard recorder (IMU -> CSV)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	var src motion.Source
	if cfg.SampleSource == "mock" {
		src = motion.NewMockSource(nil, time.Duration(cfg.IMUSampleInterval)*time.Millisecond)
	} else {
		src = sensors.NewIMUSource(cfg)
	}

	limit := 0
	if *seconds > 0 {
		limit = int(*seconds * 1000 / float64(cfg.IMUSampleInterval))
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *outPath, err)
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := app.RunRecord(ctx, src, f, limit)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	log.Printf("wrote %d samples to %s", n, *outPath)
}
