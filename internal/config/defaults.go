// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Strategy names accepted by Detect.Strategy.
const (
	StrategyDistance = "distance"
	StrategyDBSCAN   = "dbscan"
	StrategyLOF      = "lof"
	StrategyKNN      = "knn"
	StrategyTemplate = "template"
)

// Strategies lists every accepted strategy name.
var Strategies = []string{StrategyDistance, StrategyDBSCAN, StrategyLOF, StrategyKNN, StrategyTemplate}

// DefaultDetect returns the detection defaults.
func DefaultDetect() Detect {
	return Detect{
		Output:            "ads.json",
		ROIWidthPct:       0.15,
		SampleEverySec:    5,
		K:                 2,
		MinAdSec:          60,
		Threads:           0,
		Strategy:          StrategyDistance,
		SmoothWindow:      3,
		EnterMult:         1.25,
		ExitMult:          1.0,
		EnterConsecutive:  1,
		ExitConsecutive:   1,
		DBSCANEps:         0,
		DBSCANMinPts:      5,
		LOFK:              10,
		LOFThreshold:      1.6,
		KNNK:              10,
		KNNQuantile:       0.95,
		TemplateThreshold: 0.5,
		Refine:            true,
		RefineStepSec:     5,
		RefineWindowSec:   30,
		DebugDir:          "logos",
	}
}

// Defaults returns a configuration populated with built-in defaults.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:   "info",
		LogService: "adscan",
		Detect:     DefaultDetect(),
		Frames: FramesConfig{
			Backend:      "ffmpeg",
			FFmpegBin:    "ffmpeg",
			FrameTimeout: 30 * time.Second,
			OpenRate:     0,
			OpenBurst:    1,
		},
		HTTP: HTTPConfig{
			Timeout: 20 * time.Second,
		},
		Server: ServerConfig{
			ListenAddr:        ":8088",
			MaxConcurrentJobs: 1,
			QueueSize:         16,
			RateLimitPerMin:   60,
			ResultDir:         "results",
			Sources:           SourcePolicyConfig{AllowFiles: true},
		},
		Store: StoreConfig{
			Backend:    "memory",
			RedisAddr:  "localhost:6379",
			SQLitePath: "adscan.db",
			BadgerPath: "adscan.badger",
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			Environment:  "production",
			SamplingRate: 1.0,
		},
	}
}
