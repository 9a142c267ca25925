// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gait_guard/internal/detect"
	"github.com/relabs-tech/gait_guard/internal/gps"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13
)

// displayStatus is what one refresh of the OLED shows.
type displayStatus struct {
	snap   detect.Snapshot
	fix    gps.Fix
	hasFix bool
}

// RunDisplay refreshes an SSD1306 on the default I2C bus until ctx is done.
func RunDisplay(ctx context.Context, addr uint16, interval time.Duration, status func() displayStatus) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, addr, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized at 0x%02X", addr)

	if err := dev.Draw(dev.Bounds(), renderLines([]string{"", "  Gait Guard", "  starting..."}), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			dev.Halt()
			return nil
		case <-ticker.C:
		}
		img := renderLines(statusLines(status()))
		if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
			log.Printf("display: error updating: %v", err)
		}
	}
}

// statusLines lays out up to four lines of 18 characters.
func statusLines(st displayStatus) []string {
	snap := st.snap
	lines := []string{strings.ToUpper(shortState(snap.State))}

	switch {
	case snap.Session != nil:
		lines = append(lines, fmt.Sprintf("%s cue %.0fs", snap.Session.Kind, snap.Session.TotalDurationSeconds))
	case snap.State == detect.Cooldown:
		lines = append(lines, fmt.Sprintf("rest %.1fs", snap.CooldownUntil-snap.LastSampleT))
	default:
		lines = append(lines, fmt.Sprintf("cad %.2f Hz", snap.CadenceHz))
	}

	lines = append(lines, fmt.Sprintf("S:%d T:%d", snap.Assists.Start, snap.Assists.Turn))

	if st.hasFix {
		lines = append(lines, fmt.Sprintf("%.4f %.4f", st.fix.Latitude, st.fix.Longitude))
	} else {
		lines = append(lines, fmt.Sprintf("sens %.2f", snap.Settings.Sensitivity))
	}
	return lines
}

func shortState(s detect.GuardState) string {
	switch s {
	case detect.MonitoringStill:
		return "still"
	case detect.MonitoringWalking:
		return "walking"
	case detect.CueingStartAssist:
		return "cue: start"
	case detect.CueingTurnAssist:
		return "cue: turn"
	default:
		return s.String()
	}
}

func renderLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		if (i+1)*lineHeight > displayHeight {
			break
		}
		drawer.Dot = fixed.P(0, (i+1)*lineHeight)
		drawer.DrawString(line)
	}
	return img
}
