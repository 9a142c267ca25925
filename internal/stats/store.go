// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package stats keeps the daily assist statistics on SQLite.
package stats

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const dayLayout = "2006-01-02"

// Store records one row per assist. Rows are keyed by the assist ID so a
// replayed event is counted once.
type Store struct {
	db *sql.DB
}

// Record is one delivered assist.
type Record struct {
	ID      string
	Kind    string // "start" or "turn"
	FiredAt time.Time
	SampleT float64
	HasFix  bool
	Lat     float64
	Lon     float64
}

// DayCount is the per-kind tally for one local day.
type DayCount struct {
	Day   string `json:"day"`
	Start int    `json:"start"`
	Turn  int    `json:"turn"`
}

func (d DayCount) Total() int { return d.Start + d.Turn }

// Day formats t as the local calendar day used for grouping.
func Day(t time.Time) string {
	return t.Local().Format(dayLayout)
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open stats database: %w", err)
	}
	// one writer is all SQLite wants
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS assists (
			id        TEXT PRIMARY KEY,
			kind      TEXT NOT NULL,
			day       TEXT NOT NULL,
			fired_at  TIMESTAMP NOT NULL,
			sample_t  DOUBLE NOT NULL,
			lat       DOUBLE,
			lon       DOUBLE
		);
		CREATE INDEX IF NOT EXISTS assists_day ON assists(day);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create stats schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores r. Recording the same ID twice is a no-op.
func (s *Store) Record(r Record) error {
	if r.Kind != "start" && r.Kind != "turn" {
		return fmt.Errorf("record assist %s: unknown kind %q", r.ID, r.Kind)
	}
	var lat, lon sql.NullFloat64
	if r.HasFix {
		lat = sql.NullFloat64{Float64: r.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: r.Lon, Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO assists (id, kind, day, fired_at, sample_t, lat, lon)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Kind, Day(r.FiredAt), r.FiredAt.UTC(), r.SampleT, lat, lon)
	if err != nil {
		return fmt.Errorf("record assist %s: %w", r.ID, err)
	}
	return nil
}

// CountsForDay returns the tally for day (YYYY-MM-DD).
func (s *Store) CountsForDay(day string) (DayCount, error) {
	dc := DayCount{Day: day}
	rows, err := s.db.Query(`
		SELECT kind, COUNT(*) FROM assists WHERE day = ? GROUP BY kind
	`, day)
	if err != nil {
		return dc, fmt.Errorf("query day counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return dc, fmt.Errorf("scan day count: %w", err)
		}
		dc.add(kind, n)
	}
	return dc, rows.Err()
}

// RecentDays returns up to n days that have assists, newest first.
func (s *Store) RecentDays(n int) ([]DayCount, error) {
	rows, err := s.db.Query(`
		SELECT day, kind, COUNT(*) FROM assists
		WHERE day IN (SELECT DISTINCT day FROM assists ORDER BY day DESC LIMIT ?)
		GROUP BY day, kind
		ORDER BY day DESC
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent days: %w", err)
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var day, kind string
		var count int
		if err := rows.Scan(&day, &kind, &count); err != nil {
			return nil, fmt.Errorf("scan recent day: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Day != day {
			out = append(out, DayCount{Day: day})
		}
		out[len(out)-1].add(kind, count)
	}
	return out, rows.Err()
}

func (d *DayCount) add(kind string, n int) {
	switch kind {
	case "start":
		d.Start += n
	case "turn":
		d.Turn += n
	}
}
