// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/adscan/internal/adstore"
	xglog "github.com/ManuGH/adscan/internal/log"
)

type submitResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type adsResponse struct {
	Channel string             `json:"channel"`
	FromMs  int64              `json:"fromMs"`
	ToMs    int64              `json:"toMs,omitempty"`
	Ads     []adstore.Interval `json:"ads"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	counts := make(map[string]int)
	for state, n := range s.jobs.Counts() {
		counts[string(state)] = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "jobs": counts})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	req := s.defaults()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeBadRequest(w, fmt.Sprintf("decode job: %v", err))
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeBadRequest(w, "request body must contain a single JSON object")
		return
	}

	// Output paths and debug dumps are server-side settings.
	base := s.defaults()
	req.Output = base.Output
	req.Debug = base.Debug
	req.DebugDir = base.DebugDir
	req.MetricsTextfile = ""

	if s.checkSource != nil {
		if err := s.checkSource(r.Context(), req.Source); err != nil {
			s.reject(r, err)
			writeError(w, err)
			return
		}
	}

	job, err := s.jobs.Submit(req)
	if err != nil {
		s.reject(r, err)
		writeError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/jobs/"+job.ID)
	writeJSON(w, http.StatusAccepted, submitResponse{ID: job.ID, State: string(job.State)})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleListAds(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	from, err := queryMs(r, "from")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	to, err := queryMs(r, "to")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if to > 0 && to <= from {
		writeBadRequest(w, "to must be greater than from")
		return
	}

	ads, err := s.store.List(r.Context(), channel, from, to)
	if err != nil {
		if !errors.Is(err, adstore.ErrInvalidChannel) {
			xglog.FromContext(r.Context()).Error().
				Err(err).
				Str(xglog.FieldEvent, "adstore.list_failed").
				Str(xglog.FieldChannel, channel).
				Msg("listing ads failed")
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adsResponse{Channel: channel, FromMs: from, ToMs: to, Ads: ads})
}

// queryMs parses an optional non-negative epoch-millisecond parameter.
func queryMs(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative epoch millisecond value", name)
	}
	return v, nil
}

func (s *Server) reject(r *http.Request, err error) {
	xglog.FromContext(r.Context()).Warn().
		Err(err).
		Str(xglog.FieldEvent, "job.rejected").
		Msg("job submission rejected")
}
