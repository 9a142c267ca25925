// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors reads the body-worn MPU9250 and turns its readings into
// motion samples.
package sensors

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/gait_guard/internal/config"
	"github.com/relabs-tech/gait_guard/internal/motion"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"
)

// IMUSource polls an MPU9250 over SPI at a fixed interval. The device is
// opened on the first Start and kept for later restarts.
type IMUSource struct {
	spiDev     string
	csPin      string
	accelRange byte
	gyroRange  byte
	interval   time.Duration

	mu   sync.Mutex
	imu  *mpu9250.MPU9250
	stop chan struct{}
}

// NewIMUSource builds a source from the IMU section of cfg.
func NewIMUSource(cfg *config.Config) *IMUSource {
	return &IMUSource{
		spiDev:     cfg.IMUSPIDevice,
		csPin:      cfg.IMUCSPin,
		accelRange: cfg.IMUAccelRange,
		gyroRange:  cfg.IMUGyroRange,
		interval:   time.Duration(cfg.IMUSampleInterval) * time.Millisecond,
	}
}

func (s *IMUSource) open() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(s.csPin)
	if cs == nil {
		return fmt.Errorf("IMU: CS pin %q not found", s.csPin)
	}

	tr, err := mpu9250.NewSpiTransport(s.spiDev, cs)
	if err != nil {
		return fmt.Errorf("IMU: SPI transport (%s): %w", s.spiDev, err)
	}

	imu, err := mpu9250.New(*tr)
	if err != nil {
		return fmt.Errorf("IMU: device creation: %w", err)
	}

	if err := imu.Init(); err != nil {
		return fmt.Errorf("IMU: initialization: %w", err)
	}

	if err := imu.SetAccelRange(s.accelRange); err != nil {
		return fmt.Errorf("IMU: set accel range: %w", err)
	}
	log.Printf("IMU: accelerometer range set to %d (±%dg)", s.accelRange, []int{2, 4, 8, 16}[s.accelRange])

	if err := imu.SetGyroRange(s.gyroRange); err != nil {
		return fmt.Errorf("IMU: set gyro range: %w", err)
	}
	log.Printf("IMU: gyroscope range set to %d (±%d°/s)", s.gyroRange, []int{250, 500, 1000, 2000}[s.gyroRange])

	// the wearer is expected to stand still while monitoring starts
	if _, err := imu.SelfTest(); err != nil {
		log.Printf("Warning: IMU self-test failed: %v", err)
	}
	if err := imu.Calibrate(); err != nil {
		log.Printf("Warning: IMU calibration failed: %v", err)
	} else {
		log.Printf("IMU calibration complete")
	}

	s.imu = imu
	return nil
}

// Start opens the device if needed and starts polling. Errors mean the
// sensor cannot be acquired.
func (s *IMUSource) Start(handler func(motion.Sample)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return nil
	}
	if s.imu == nil {
		if err := s.open(); err != nil {
			return err
		}
	}
	s.stop = make(chan struct{})

	go s.poll(s.stop, handler)
	return nil
}

// Stop ends polling without waiting for an in-flight read.
func (s *IMUSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *IMUSource) poll(stop chan struct{}, handler func(motion.Sample)) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	derive := Deriver{AccelRange: s.accelRange, GyroRange: s.gyroRange}
	start := time.Now()
	failures := 0

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			raw, err := s.readRaw()
			if err != nil {
				failures++
				if failures == 1 || failures%100 == 0 {
					log.Printf("IMU: read error (%d so far): %v", failures, err)
				}
				continue
			}
			handler(derive.Derive(now.Sub(start).Seconds(), raw))
		}
	}
}

// readRaw reads accelerometer and gyroscope data from the IMU.
func (s *IMUSource) readRaw() (Raw, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return Raw{}, fmt.Errorf("IMU accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return Raw{}, fmt.Errorf("IMU accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return Raw{}, fmt.Errorf("IMU accel Z: %w", err)
	}

	gx, err := s.imu.GetRotationX()
	if err != nil {
		return Raw{}, fmt.Errorf("IMU gyro X: %w", err)
	}
	gy, err := s.imu.GetRotationY()
	if err != nil {
		return Raw{}, fmt.Errorf("IMU gyro Y: %w", err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return Raw{}, fmt.Errorf("IMU gyro Z: %w", err)
	}

	return Raw{Ax: ax, Ay: ay, Az: az, Gx: gx, Gy: gy, Gz: gz}, nil
}
