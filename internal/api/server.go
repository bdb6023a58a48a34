// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes detection jobs and the per-channel ad store over HTTP
// for `adscan serve`.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/adscan/internal/adstore"
	"github.com/ManuGH/adscan/internal/api/middleware"
	"github.com/ManuGH/adscan/internal/config"
	"github.com/ManuGH/adscan/internal/jobs"
)

// maxBodyBytes bounds a job submission.
const maxBodyBytes = 1 << 20

// JobService is the part of *jobs.Manager the API needs.
type JobService interface {
	Submit(req config.Detect) (jobs.Job, error)
	Get(id string) (jobs.Job, bool)
	Counts() map[jobs.State]int
}

// Options configures NewServer.
type Options struct {
	Jobs  JobService
	Store adstore.Store
	// Defaults returns the job template submissions are decoded onto. It
	// is called per request so hot-reloaded configuration applies to new
	// jobs.
	Defaults func() config.Detect
	// CheckSource vets the playlist locator of each submission; nil
	// accepts every locator.
	CheckSource     func(ctx context.Context, locator string) error
	RateLimitPerMin int
	// TracingService names the HTTP spans; empty disables HTTP tracing.
	TracingService string
	Logger         zerolog.Logger
}

// Server serves the job API.
type Server struct {
	jobs        JobService
	store       adstore.Store
	defaults    func() config.Detect
	checkSource func(ctx context.Context, locator string) error
	opts        Options
	logger      zerolog.Logger
}

// NewServer creates the API server.
func NewServer(opts Options) *Server {
	defaults := opts.Defaults
	if defaults == nil {
		defaults = config.DefaultDetect
	}
	return &Server{
		jobs:        opts.Jobs,
		store:       opts.Store,
		defaults:    defaults,
		checkSource: opts.CheckSource,
		opts:        opts,
		logger:      opts.Logger,
	}
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.opts.TracingService,
		Logger:                &s.logger,
	})

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.SubmitRateLimit(s.opts.RateLimitPerMin)).Post("/jobs", s.handleSubmit)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Get("/channels/{channel}/ads", s.handleListAds)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { writeNotFound(w) })
	return r
}
