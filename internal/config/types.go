// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	netpolicy "github.com/ManuGH/adscan/internal/platform/net"
)

// AppConfig is the fully resolved configuration.
type AppConfig struct {
	Version    string `yaml:"-" json:"-"`
	LogLevel   string `yaml:"logLevel" json:"logLevel"`
	LogService string `yaml:"logService" json:"logService"`

	Detect    Detect          `yaml:"detect" json:"detect"`
	Frames    FramesConfig    `yaml:"frames" json:"frames"`
	HTTP      HTTPConfig      `yaml:"http" json:"http"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

// Detect holds the options of one detection run. The API decodes job
// submissions onto a copy of the configured defaults, so the JSON tags are
// part of the job contract.
type Detect struct {
	Source  string `yaml:"source" json:"source"`
	Channel string `yaml:"channel" json:"channel,omitempty"`
	Output  string `yaml:"output" json:"output,omitempty"`

	Corner         string  `yaml:"corner" json:"corner"`
	ROIWidthPct    float64 `yaml:"roiWidthPct" json:"roiWidthPct"`
	SampleEverySec float64 `yaml:"sampleEverySec" json:"sampleEverySec"`
	K              int     `yaml:"k" json:"k"`
	MinAdSec       float64 `yaml:"minAdSec" json:"minAdSec"`
	Threads        int     `yaml:"threads" json:"threads"`

	Strategy         string  `yaml:"strategy" json:"strategy"`
	SmoothWindow     int     `yaml:"smoothWindow" json:"smoothWindow"`
	EnterMult        float64 `yaml:"enterMult" json:"enterMult"`
	ExitMult         float64 `yaml:"exitMult" json:"exitMult"`
	EnterConsecutive int     `yaml:"enterConsecutive" json:"enterConsecutive"`
	ExitConsecutive  int     `yaml:"exitConsecutive" json:"exitConsecutive"`

	DBSCANEps         float64 `yaml:"dbscanEps" json:"dbscanEps"`
	DBSCANMinPts      int     `yaml:"dbscanMinPts" json:"dbscanMinPts"`
	LOFK              int     `yaml:"lofK" json:"lofK"`
	LOFThreshold      float64 `yaml:"lofThreshold" json:"lofThreshold"`
	KNNK              int     `yaml:"knnK" json:"knnK"`
	KNNQuantile       float64 `yaml:"knnQuantile" json:"knnQuantile"`
	TemplateThreshold float64 `yaml:"templateThreshold" json:"templateThreshold"`

	Refine          bool    `yaml:"refine" json:"refine"`
	RefineStepSec   float64 `yaml:"refineStepSec" json:"refineStepSec"`
	RefineWindowSec float64 `yaml:"refineWindowSec" json:"refineWindowSec"`

	Debug    bool   `yaml:"debug" json:"debug"`
	DebugDir string `yaml:"debugDir" json:"debugDir,omitempty"`

	MetricsTextfile string `yaml:"metricsTextfile" json:"-"`
}

// FramesConfig selects and tunes the frame decoding backend.
type FramesConfig struct {
	Backend      string        `yaml:"backend" json:"backend"` // ffmpeg | gocv
	FFmpegBin    string        `yaml:"ffmpegBin" json:"ffmpegBin"`
	FrameTimeout time.Duration `yaml:"frameTimeout" json:"frameTimeout"`
	// OpenRate limits how many decode sessions may be opened per second
	// across all workers (0 disables the limiter).
	OpenRate  float64 `yaml:"openRate" json:"openRate"`
	OpenBurst int     `yaml:"openBurst" json:"openBurst"`
}

// HTTPConfig tunes playlist fetching.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"userAgent" json:"userAgent"`
}

// ServerConfig configures `adscan serve`.
type ServerConfig struct {
	ListenAddr        string `yaml:"listenAddr" json:"listenAddr"`
	MaxConcurrentJobs int    `yaml:"maxConcurrentJobs" json:"maxConcurrentJobs"`
	QueueSize         int    `yaml:"queueSize" json:"queueSize"`
	RateLimitPerMin   int    `yaml:"rateLimitPerMin" json:"rateLimitPerMin"`
	ResultDir         string `yaml:"resultDir" json:"resultDir"`

	// Sources restricts the playlist locators jobs may name.
	Sources SourcePolicyConfig `yaml:"sources" json:"sources"`
}

// SourcePolicyConfig lists where submitted jobs may read playlists from.
// Empty host and CIDR lists allow any remote host except loopback,
// link-local and multicast addresses.
type SourcePolicyConfig struct {
	AllowFiles bool     `yaml:"allowFiles" json:"allowFiles"`
	Hosts      []string `yaml:"hosts" json:"hosts"`
	CIDRs      []string `yaml:"cidrs" json:"cidrs"`
}

// StoreConfig selects the per-channel ad interval store.
type StoreConfig struct {
	Backend       string `yaml:"backend" json:"backend"` // memory | redis | sqlite | badger
	RedisAddr     string `yaml:"redisAddr" json:"redisAddr"`
	RedisPassword string `yaml:"redisPassword" json:"-"`
	RedisDB       int    `yaml:"redisDB" json:"redisDB"`
	SQLitePath    string `yaml:"sqlitePath" json:"sqlitePath"`
	BadgerPath    string `yaml:"badgerPath" json:"badgerPath"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"` // grpc | http
	Endpoint     string  `yaml:"endpoint" json:"endpoint"`
	Environment  string  `yaml:"environment" json:"environment"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
}

// Policy converts the configuration into the runtime source policy.
func (c SourcePolicyConfig) Policy() netpolicy.SourcePolicy {
	return netpolicy.SourcePolicy{AllowFiles: c.AllowFiles, Hosts: c.Hosts, CIDRs: c.CIDRs}
}
