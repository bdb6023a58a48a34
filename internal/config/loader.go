// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	overrides       []func(*AppConfig)
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Override registers a mutation applied after the environment layer and
// before validation. The CLI uses it for explicitly set flags.
func (l *Loader) Override(fn func(*AppConfig)) {
	if fn != nil {
		l.overrides = append(l.overrides, fn)
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// envList reads a comma-separated list; blank entries are dropped.
func (l *Loader) envList(key string, defaultVal []string) []string {
	raw := l.envString(key, "")
	if strings.TrimSpace(raw) == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load loads configuration with precedence: overrides > ENV > File > Defaults.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)

	for _, fn := range l.overrides {
		fn(&cfg)
	}

	cfg.Version = l.version
	Normalize(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFile decodes a YAML file onto cfg with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultipleDocuments
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = l.envString("ADSCAN_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = l.envString("ADSCAN_LOG_SERVICE", cfg.LogService)

	d := &cfg.Detect
	d.Source = l.envString("ADSCAN_SOURCE", d.Source)
	d.Channel = l.envString("ADSCAN_CHANNEL", d.Channel)
	d.Output = l.envString("ADSCAN_OUTPUT", d.Output)
	d.Corner = l.envString("ADSCAN_CORNER", d.Corner)
	d.ROIWidthPct = l.envFloat("ADSCAN_ROI", d.ROIWidthPct)
	d.SampleEverySec = l.envFloat("ADSCAN_EVERY", d.SampleEverySec)
	d.K = l.envInt("ADSCAN_K", d.K)
	d.MinAdSec = l.envFloat("ADSCAN_MIN_AD_SEC", d.MinAdSec)
	d.Threads = l.envInt("ADSCAN_THREADS", d.Threads)
	d.Strategy = l.envString("ADSCAN_STRATEGY", d.Strategy)
	d.SmoothWindow = l.envInt("ADSCAN_SMOOTH", d.SmoothWindow)
	d.EnterMult = l.envFloat("ADSCAN_ENTER_MULT", d.EnterMult)
	d.ExitMult = l.envFloat("ADSCAN_EXIT_MULT", d.ExitMult)
	d.EnterConsecutive = l.envInt("ADSCAN_ENTER_CONSECUTIVE", d.EnterConsecutive)
	d.ExitConsecutive = l.envInt("ADSCAN_EXIT_CONSECUTIVE", d.ExitConsecutive)
	d.DBSCANEps = l.envFloat("ADSCAN_DBSCAN_EPS", d.DBSCANEps)
	d.DBSCANMinPts = l.envInt("ADSCAN_DBSCAN_MIN_PTS", d.DBSCANMinPts)
	d.LOFK = l.envInt("ADSCAN_LOF_K", d.LOFK)
	d.LOFThreshold = l.envFloat("ADSCAN_LOF_THRESHOLD", d.LOFThreshold)
	d.KNNK = l.envInt("ADSCAN_KNN_K", d.KNNK)
	d.KNNQuantile = l.envFloat("ADSCAN_KNN_QUANTILE", d.KNNQuantile)
	d.TemplateThreshold = l.envFloat("ADSCAN_TEMPLATE_THRESHOLD", d.TemplateThreshold)
	d.Refine = l.envBool("ADSCAN_REFINE", d.Refine)
	d.RefineStepSec = l.envFloat("ADSCAN_REFINE_STEP_SEC", d.RefineStepSec)
	d.Debug = l.envBool("ADSCAN_DEBUG", d.Debug)
	d.DebugDir = l.envString("ADSCAN_DEBUG_DIR", d.DebugDir)
	d.MetricsTextfile = l.envString("ADSCAN_METRICS_TEXTFILE", d.MetricsTextfile)

	cfg.Frames.Backend = l.envString("ADSCAN_FRAME_BACKEND", cfg.Frames.Backend)
	cfg.Frames.FFmpegBin = l.envString("ADSCAN_FFMPEG_BIN", cfg.Frames.FFmpegBin)
	cfg.Frames.FrameTimeout = l.envDuration("ADSCAN_FRAME_TIMEOUT", cfg.Frames.FrameTimeout)
	cfg.Frames.OpenRate = l.envFloat("ADSCAN_FRAME_OPEN_RATE", cfg.Frames.OpenRate)

	cfg.HTTP.Timeout = l.envDuration("ADSCAN_HTTP_TIMEOUT", cfg.HTTP.Timeout)
	cfg.HTTP.UserAgent = l.envString("ADSCAN_HTTP_USER_AGENT", cfg.HTTP.UserAgent)

	cfg.Server.ListenAddr = l.envString("ADSCAN_LISTEN_ADDR", cfg.Server.ListenAddr)
	cfg.Server.MaxConcurrentJobs = l.envInt("ADSCAN_MAX_CONCURRENT_JOBS", cfg.Server.MaxConcurrentJobs)
	cfg.Server.RateLimitPerMin = l.envInt("ADSCAN_RATE_LIMIT_PER_MIN", cfg.Server.RateLimitPerMin)
	cfg.Server.ResultDir = l.envString("ADSCAN_RESULT_DIR", cfg.Server.ResultDir)
	cfg.Server.Sources.AllowFiles = l.envBool("ADSCAN_SOURCE_ALLOW_FILES", cfg.Server.Sources.AllowFiles)
	cfg.Server.Sources.Hosts = l.envList("ADSCAN_SOURCE_HOSTS", cfg.Server.Sources.Hosts)
	cfg.Server.Sources.CIDRs = l.envList("ADSCAN_SOURCE_CIDRS", cfg.Server.Sources.CIDRs)

	cfg.Store.Backend = l.envString("ADSCAN_STORE", cfg.Store.Backend)
	cfg.Store.RedisAddr = l.envString("ADSCAN_REDIS_ADDR", cfg.Store.RedisAddr)
	cfg.Store.RedisPassword = l.envString("ADSCAN_REDIS_PASSWORD", cfg.Store.RedisPassword)
	cfg.Store.RedisDB = l.envInt("ADSCAN_REDIS_DB", cfg.Store.RedisDB)
	cfg.Store.SQLitePath = l.envString("ADSCAN_SQLITE_PATH", cfg.Store.SQLitePath)
	cfg.Store.BadgerPath = l.envString("ADSCAN_BADGER_PATH", cfg.Store.BadgerPath)

	cfg.Telemetry.Enabled = l.envBool("ADSCAN_OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("ADSCAN_OTEL_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("ADSCAN_OTEL_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("ADSCAN_OTEL_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
}

// LoadFile decodes a YAML file onto the defaults without applying env or validation.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	err := NewLoader(path, "").loadFile(path, &cfg)
	return cfg, err
}
