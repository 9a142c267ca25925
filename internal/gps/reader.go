// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	serial "github.com/jacobsa/go-serial/serial"
)

// Reader follows an NMEA stream and remembers the last valid fix.
type Reader struct {
	mu   sync.Mutex
	last Fix
	has  bool
}

// Last returns the most recent valid fix, if any.
func (r *Reader) Last() (Fix, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.has
}

// OpenSerial opens the receiver's serial port.
func OpenSerial(port string, baud int) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:        port,
		BaudRate:        uint(baud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}
	p, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open gps serial %s: %w", port, err)
	}
	return p, nil
}

// Follow consumes lines from src until it fails or ctx is cancelled.
// Cancelling ctx does not interrupt a blocked read; close src for that.
func (r *Reader) Follow(ctx context.Context, src io.Reader) error {
	br := bufio.NewReader(src)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line, err := br.ReadString('\n')
		if line = strings.TrimSpace(line); strings.HasPrefix(line, "$") {
			r.consume(line)
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("gps read: %w", err)
		}
	}
}

func (r *Reader) consume(line string) {
	fix, ok, err := ParseRMC(line)
	if err != nil || !ok {
		// partial sentences are normal on a cold serial line
		return
	}
	if !fix.Valid() {
		return
	}
	r.mu.Lock()
	first := !r.has
	r.last, r.has = fix, true
	r.mu.Unlock()
	if first {
		log.Printf("gps: first fix %.5f,%.5f", fix.Latitude, fix.Longitude)
	}
}
