// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/relabs-tech/gait_guard/internal/config"
	"github.com/relabs-tech/gait_guard/internal/detect"
	"github.com/relabs-tech/gait_guard/internal/gps"
	"github.com/relabs-tech/gait_guard/internal/haptics"
	"github.com/relabs-tech/gait_guard/internal/motion"
	"github.com/relabs-tech/gait_guard/internal/mqttbus"
	"github.com/relabs-tech/gait_guard/internal/sched"
	"github.com/relabs-tech/gait_guard/internal/sensors"
	"github.com/relabs-tech/gait_guard/internal/stats"
)

// RunGuard runs the cueing engine, with every collaborator the config
// enables, until ctx is done.
func RunGuard(ctx context.Context) error {
	cfg := config.Get()

	loop := sched.NewLoop(0)
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loopDone := make(chan struct{})
	go func() {
		loop.Run(loopCtx)
		close(loopDone)
	}()

	source, err := newSource(cfg)
	if err != nil {
		return err
	}
	actuator, closeActuator, err := newActuator(cfg)
	if err != nil {
		return err
	}
	defer closeActuator()

	eng := detect.NewEngine(detect.Options{
		Scheduler: loop,
		Source:    source,
		Actuator:  actuator,
		Settings: detect.Settings{
			Sensitivity:        cfg.Sensitivity,
			CooldownSeconds:    cfg.CooldownSeconds,
			CueDurationSeconds: cfg.CueDurationSeconds,
		},
	})
	eng.Subscribe(logEvent)

	// ---- GPS (optional) ----
	var fixes gps.Reader
	haveGPS := false
	if cfg.GPSSerialPort != "" {
		port, err := gps.OpenSerial(cfg.GPSSerialPort, cfg.GPSBaudRate)
		if err != nil {
			log.Printf("gps: %v, continuing without position", err)
		} else {
			defer port.Close()
			haveGPS = true
			go func() {
				if err := fixes.Follow(ctx, port); err != nil && ctx.Err() == nil {
					log.Printf("gps: %v", err)
				}
			}()
		}
	}
	lastFix := func() (gps.Fix, bool) {
		if !haveGPS {
			return gps.Fix{}, false
		}
		return fixes.Last()
	}

	// ---- statistics (optional) ----
	var store *stats.Store
	if cfg.StatsDBPath != "" {
		store, err = stats.Open(cfg.StatsDBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		rec := newAssistRecorder(store, lastFix, time.Now)
		go rec.run()
		defer rec.close()
		eng.Subscribe(rec.onEvent)
		log.Printf("stats: recording to %s", cfg.StatsDBPath)
	}

	// ---- MQTT (optional) ----
	if cfg.MQTTBroker != "" {
		bus := mqttbus.New(mqttbus.Options{
			Topics: mqttbus.Topics{
				State:    cfg.TopicState,
				Assist:   cfg.TopicAssist,
				Settings: cfg.TopicSettings,
				Command:  cfg.TopicCommand,
			},
			Controller: eng,
			Post:       loop.Post,
			Fix:        lastFix,
		})
		eng.Subscribe(bus.OnEvent)
		client, err := mqttbus.Connect(cfg.MQTTBroker, cfg.MQTTClientID, bus.OnConnect)
		if err != nil {
			log.Printf("%v, continuing offline", err)
		} else {
			bus.Attach(client)
			defer client.Disconnect(250)
		}
	}

	// ---- web dashboard (optional) ----
	if cfg.WebServerPort != 0 {
		web := newWebServer(eng, loop.Do, store)
		eng.Subscribe(web.onEvent)
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
			Handler: web.routes(),
		}
		go func() {
			log.Printf("web server listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("web: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	// ---- OLED (optional) ----
	if cfg.DisplayI2CAddr != 0 {
		interval := time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond
		go func() {
			err := RunDisplay(ctx, cfg.DisplayI2CAddr, interval, func() displayStatus {
				var st displayStatus
				loop.Do(func() { st.snap = eng.Snapshot() })
				st.fix, st.hasFix = lastFix()
				return st
			})
			if err != nil {
				log.Printf("display: %v", err)
			}
		}()
	}

	go resetAtMidnight(ctx, loop.Post, eng.ResetDailyCounts, time.Now)

	var startErr error
	loop.Do(func() { startErr = eng.Start() })
	if startErr != nil {
		return fmt.Errorf("guard: start: %w", startErr)
	}
	log.Printf("guard: monitoring (source=%s)", cfg.SampleSource)

	<-ctx.Done()
	log.Println("guard: shutting down")
	loop.Do(eng.Stop)
	stopLoop()
	<-loopDone
	return nil
}

func newSource(cfg *config.Config) (motion.Source, error) {
	switch cfg.SampleSource {
	case "mock":
		return motion.NewMockSource(nil, time.Duration(cfg.IMUSampleInterval)*time.Millisecond), nil
	case "imu":
		return sensors.NewIMUSource(cfg), nil
	default:
		return nil, fmt.Errorf("unknown sample source %q", cfg.SampleSource)
	}
}

func newActuator(cfg *config.Config) (detect.Actuator, func(), error) {
	if cfg.HapticGPIOPin == "" {
		log.Println("haptic: no GPIO pin configured, pulses are logged only")
		return haptics.LogActuator{Name: "haptic"}, func() {}, nil
	}
	m, err := haptics.OpenGPIOMotor(cfg.HapticGPIOPin, time.Duration(cfg.HapticPulseMS)*time.Millisecond)
	if err != nil {
		return nil, nil, err
	}
	return m, func() {
		if err := m.Close(); err != nil {
			log.Printf("haptic motor: close: %v", err)
		}
	}, nil
}

func logEvent(ev detect.Event) {
	switch ev.Type {
	case detect.EventStateChanged:
		log.Printf("guard: t=%.2f %s -> %s", ev.At, ev.Prev, ev.State)
	case detect.EventAssistFired:
		log.Printf("guard: t=%.2f %s assist #%d (%s)", ev.At, ev.Assist.Kind, ev.Assist.Count, ev.Assist.ID)
	}
}
