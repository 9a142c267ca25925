// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/relabs-tech/gait_guard/internal/detect"
	"github.com/relabs-tech/gait_guard/internal/mqttbus"
	"github.com/relabs-tech/gait_guard/internal/stats"
)

// webServer exposes the engine over HTTP. Every engine call goes through
// do, which runs it on the engine's execution context and waits.
type webServer struct {
	eng   *detect.Engine
	do    func(fn func())
	store *stats.Store
	hub   *hub
}

func newWebServer(eng *detect.Engine, do func(fn func()), store *stats.Store) *webServer {
	s := &webServer{eng: eng, do: do, store: store}
	s.hub = newHub(s.snapshot)
	return s
}

func (s *webServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/settings", s.handleSettings)
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/stop", s.handleStop)
	mux.HandleFunc("POST /api/assist/{kind}", s.handleAssist)
	mux.HandleFunc("POST /api/pulse", s.handlePulse)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /ws", s.hub.serveWS)

	// Static files from ./web as the root
	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}

// onEvent is registered as an engine listener.
func (s *webServer) onEvent(ev detect.Event) {
	s.hub.broadcast(newWSEvent(ev))
}

func (s *webServer) snapshot() detect.Snapshot {
	var snap detect.Snapshot
	s.do(func() { snap = s.eng.Snapshot() })
	return snap
}

func (s *webServer) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *webServer) handleSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	u, err := mqttbus.DecodeSettings(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var applied detect.Settings
	s.do(func() {
		if err = s.eng.SetSettings(u.Apply(s.eng.Settings())); err == nil {
			applied = s.eng.Settings()
		}
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, applied)
}

func (s *webServer) handleStart(w http.ResponseWriter, r *http.Request) {
	var err error
	s.do(func() { err = s.eng.Start() })
	if err != nil {
		log.Printf("web: start: %v", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *webServer) handleStop(w http.ResponseWriter, r *http.Request) {
	s.do(s.eng.Stop)
	w.WriteHeader(http.StatusNoContent)
}

func (s *webServer) handleAssist(w http.ResponseWriter, r *http.Request) {
	kind, err := detect.ParseAssistKind(r.PathValue("kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.do(func() { err = s.eng.SimulateAssist(kind) })
	switch {
	case errors.Is(err, detect.ErrNotMonitoring):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}

func (s *webServer) handlePulse(w http.ResponseWriter, r *http.Request) {
	s.do(s.eng.TestPulse)
	w.WriteHeader(http.StatusNoContent)
}

func (s *webServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "statistics disabled", http.StatusServiceUnavailable)
		return
	}
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = n
	}
	out, err := s.store.RecentDays(days)
	if err != nil {
		log.Printf("web: %v", err)
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []stats.DayCount{}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}
