// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT (empty broker = disabled)
	MQTTBroker   string
	MQTTClientID string

	// Topics
	TopicState    string
	TopicAssist   string
	TopicSettings string
	TopicCommand  string

	// Sample source: "imu" or "mock"
	SampleSource string

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string

	// IMU Sensor Ranges
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	IMUSampleInterval int // milliseconds

	// Haptics
	HapticGPIOPin string // empty = log only
	HapticPulseMS int

	// Detection settings (seed values; the companion can change them live)
	Sensitivity        float64
	CooldownSeconds    float64
	CueDurationSeconds float64

	// Web Server (0 = disabled)
	WebServerPort int

	// Statistics database (empty = disabled)
	StatsDBPath string

	// Display (0 = disabled)
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds

	// GPS (empty = disabled)
	GPSSerialPort string
	GPSBaudRate   int
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config with every optional value filled in.
func Default() *Config {
	return &Config{
		MQTTBroker:            "tcp://localhost:1883",
		MQTTClientID:          "gait-guard",
		TopicState:            "guard/state",
		TopicAssist:           "guard/assist",
		TopicSettings:         "guard/settings",
		TopicCommand:          "guard/command",
		SampleSource:          "imu",
		IMUSampleInterval:     20,
		HapticPulseMS:         80,
		Sensitivity:           0.55,
		CooldownSeconds:       10,
		CueDurationSeconds:    6,
		DisplayUpdateInterval: 500,
		GPSBaudRate:           9600,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Default. Blank lines and lines
// starting with # are skipped.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseRange(key, value string, max int) (byte, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < 0 || v > max {
		return 0, fmt.Errorf("%s must be 0-%d, got %d", key, max, v)
	}
	return byte(v), nil
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value

	// Topics
	case "TOPIC_STATE":
		c.TopicState = value
	case "TOPIC_ASSIST":
		c.TopicAssist = value
	case "TOPIC_SETTINGS":
		c.TopicSettings = value
	case "TOPIC_COMMAND":
		c.TopicCommand = value

	case "SAMPLE_SOURCE":
		c.SampleSource = value

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		c.IMUAccelRange, err = parseRange(key, value, 3)
	case "IMU_GYRO_RANGE":
		c.IMUGyroRange, err = parseRange(key, value, 3)
	case "IMU_SAMPLE_INTERVAL":
		c.IMUSampleInterval, err = parseInt(key, value)

	// Haptics
	case "HAPTIC_GPIO_PIN":
		c.HapticGPIOPin = value
	case "HAPTIC_PULSE_MS":
		c.HapticPulseMS, err = parseInt(key, value)

	// Detection
	case "SENSITIVITY":
		c.Sensitivity, err = parseFloat(key, value)
	case "COOLDOWN_SECONDS":
		c.CooldownSeconds, err = parseFloat(key, value)
	case "CUE_DURATION_SECONDS":
		c.CueDurationSeconds, err = parseFloat(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value)

	case "STATS_DB_PATH":
		c.StatsDBPath = value

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 16)
		if perr != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, perr)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value)

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = parseInt(key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks required fields and ranges.
func (c *Config) validate() error {
	switch c.SampleSource {
	case "mock":
	case "imu":
		if c.IMUSPIDevice == "" {
			return fmt.Errorf("IMU_SPI_DEVICE is required when SAMPLE_SOURCE=imu")
		}
		if c.IMUCSPin == "" {
			return fmt.Errorf("IMU_CS_PIN is required when SAMPLE_SOURCE=imu")
		}
	default:
		return fmt.Errorf("SAMPLE_SOURCE must be imu or mock, got %q", c.SampleSource)
	}
	if c.IMUSampleInterval <= 0 {
		return fmt.Errorf("IMU_SAMPLE_INTERVAL must be positive, got %d", c.IMUSampleInterval)
	}
	if c.HapticPulseMS <= 0 {
		return fmt.Errorf("HAPTIC_PULSE_MS must be positive, got %d", c.HapticPulseMS)
	}
	if c.Sensitivity < 0 || c.Sensitivity > 1 {
		return fmt.Errorf("SENSITIVITY must be within 0-1, got %g", c.Sensitivity)
	}
	if !(c.CooldownSeconds > 0) {
		return fmt.Errorf("COOLDOWN_SECONDS must be positive, got %g", c.CooldownSeconds)
	}
	if !(c.CueDurationSeconds > 0) {
		return fmt.Errorf("CUE_DURATION_SECONDS must be positive, got %g", c.CueDurationSeconds)
	}
	if c.WebServerPort < 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT out of range: %d", c.WebServerPort)
	}
	if c.GPSSerialPort != "" && c.GPSBaudRate <= 0 {
		return fmt.Errorf("GPS_BAUD_RATE is required when GPS_SERIAL_PORT is set")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
