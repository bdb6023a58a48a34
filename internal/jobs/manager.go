// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package jobs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/adscan/internal/adstore"
	"github.com/ManuGH/adscan/internal/config"
	"github.com/ManuGH/adscan/internal/detector"
	"github.com/ManuGH/adscan/internal/faults"
	xglog "github.com/ManuGH/adscan/internal/log"
	"github.com/ManuGH/adscan/internal/metrics"
	netpolicy "github.com/ManuGH/adscan/internal/platform/net"
	"github.com/ManuGH/adscan/internal/report"
)

var (
	// ErrQueueFull rejects submissions while the queue is at capacity.
	ErrQueueFull = errors.New("jobs: queue full")
	// ErrStopped rejects submissions after Stop.
	ErrStopped = errors.New("jobs: manager stopped")
)

// Runner executes one detection. *detector.Detector implements it.
type Runner interface {
	Run(ctx context.Context, opts config.Detect) (*detector.Outcome, error)
}

// Options configures NewManager.
type Options struct {
	Runner  Runner
	Store   adstore.Store
	Workers int
	Queue   int
	// ResultDir receives <id>.json for every successful job; empty skips
	// writing.
	ResultDir string
	Logger    zerolog.Logger
}

// Manager owns the job table and the worker goroutines.
type Manager struct {
	runner    Runner
	store     adstore.Store
	resultDir string
	logger    zerolog.Logger
	workers   int
	now       func() time.Time

	queue chan string

	mu      sync.RWMutex
	jobs    map[string]*Job
	stopped bool

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewManager creates a manager; call Start to begin processing.
func NewManager(opts Options) *Manager {
	return &Manager{
		runner:    opts.Runner,
		store:     opts.Store,
		resultDir: opts.ResultDir,
		logger:    opts.Logger,
		workers:   max(1, opts.Workers),
		now:       time.Now,
		queue:     make(chan string, max(1, opts.Queue)),
		jobs:      make(map[string]*Job),
	}
}

// Start launches the workers. They stop when ctx is cancelled or Stop is
// called.
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	for w := 0; w < m.workers; w++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.work(ctx)
		}()
	}
	m.publish()
}

// Stop cancels running jobs and waits for the workers to exit. Queued
// jobs that never started are marked failed.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()

	m.mu.Lock()
	for _, j := range m.jobs {
		if j.State == StateQueued {
			m.finishLocked(j, context.Canceled)
		}
	}
	m.mu.Unlock()
	m.publish()
}

// Submit validates req against the detection rules and enqueues it.
func (m *Manager) Submit(req config.Detect) (Job, error) {
	config.NormalizeDetect(&req)
	if err := req.Validate(); err != nil {
		return Job{}, err
	}

	job := &Job{
		ID:        uuid.NewString(),
		State:     StateQueued,
		Request:   req,
		CreatedAt: m.now().UTC(),
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return Job{}, ErrStopped
	}
	select {
	case m.queue <- job.ID:
	default:
		m.mu.Unlock()
		return Job{}, ErrQueueFull
	}
	m.jobs[job.ID] = job
	snapshot := *job
	m.mu.Unlock()

	m.logger.Info().
		Str(xglog.FieldEvent, "job.queued").
		Str(xglog.FieldJobID, job.ID).
		Str(xglog.FieldSource, netpolicy.SanitizeURL(req.Source)).
		Str(xglog.FieldChannel, req.Channel).
		Msg("job queued")
	m.publish()
	return snapshot, nil
}

// Get returns a snapshot of the job.
func (m *Manager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Counts returns the number of jobs per state.
func (m *Manager) Counts() map[State]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[State]int, len(allStates))
	for _, s := range allStates {
		out[s] = 0
	}
	for _, j := range m.jobs {
		out[j.State]++
	}
	return out
}

func (m *Manager) publish() {
	for s, n := range m.Counts() {
		metrics.SetJobs(string(s), n)
	}
}

func (m *Manager) work(ctx context.Context) {
	for {
		// A cancelled manager must not pick up more work even if the
		// queue is non-empty.
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case id := <-m.queue:
			m.execute(ctx, id)
		}
	}
}

func (m *Manager) execute(ctx context.Context, id string) {
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok || job.State != StateQueued {
		m.mu.Unlock()
		return
	}
	started := m.now().UTC()
	job.State = StateRunning
	job.StartedAt = &started
	req := job.Request
	m.mu.Unlock()
	m.publish()

	ctx = xglog.ContextWithJobID(ctx, id)
	logger := xglog.WithContext(ctx, m.logger)
	ctx = logger.WithContext(ctx)
	logger.Info().Str(xglog.FieldEvent, "job.started").Msg("job started")

	out, err := m.runner.Run(ctx, req)
	var resultPath string
	var stored int
	if err == nil {
		resultPath, stored, err = m.persist(ctx, id, req, out)
	}

	m.mu.Lock()
	if err == nil {
		job.Result = out.Result
		job.ResultPath = resultPath
		job.StoredAds = stored
	}
	m.finishLocked(job, err)
	m.mu.Unlock()
	m.publish()

	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "job.failed").Str("kind", faults.Kind(err)).Msg("job failed")
		return
	}
	logger.Info().
		Str(xglog.FieldEvent, "job.succeeded").
		Int("ads", len(out.Intervals)).
		Int("stored", stored).
		Msg("job succeeded")
}

func (m *Manager) finishLocked(job *Job, err error) {
	finished := m.now().UTC()
	job.FinishedAt = &finished
	if err != nil {
		job.State = StateFailed
		job.Error = err.Error()
		job.ErrorKind = faults.Kind(err)
		return
	}
	job.State = StateSucceeded
}

// persist writes the result document and merges intervals carrying both
// program date-times into the channel store.
func (m *Manager) persist(ctx context.Context, id string, req config.Detect, out *detector.Outcome) (string, int, error) {
	var path string
	if m.resultDir != "" {
		path = filepath.Join(m.resultDir, id+".json")
		if err := report.Write(ctx, path, out.Result, nil); err != nil {
			return "", 0, err
		}
	}

	if m.store == nil || req.Channel == "" {
		return path, 0, nil
	}
	ivs := AbsoluteIntervals(out)
	if len(ivs) == 0 {
		return path, 0, nil
	}
	if err := m.store.Merge(ctx, req.Channel, ivs); err != nil {
		return path, 0, fmt.Errorf("store intervals: %w", err)
	}
	return path, len(ivs), nil
}

// AbsoluteIntervals maps the outcome's intervals onto epoch milliseconds,
// skipping those without a program date-time at either end.
func AbsoluteIntervals(out *detector.Outcome) []adstore.Interval {
	var ivs []adstore.Interval
	for _, iv := range out.Intervals {
		start, ok1 := out.Playlist.EpochMsAt(iv.StartSec)
		end, ok2 := out.Playlist.EpochMsAt(iv.EndSec)
		if !ok1 || !ok2 || end <= start {
			continue
		}
		ivs = append(ivs, adstore.Interval{StartMs: start, EndMs: end})
	}
	return ivs
}
