// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package classify turns training samples into per-sample logo
// presence decisions. Each strategy fits once on the training set and
// then answers probes for single new observations with the same model.
package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/frames"
	"github.com/ManuGH/adscan/internal/logo"
)

// Strategy names.
const (
	Distance = "distance"
	DBSCAN   = "dbscan"
	LOF      = "lof"
	KNN      = "knn"
	Template = "template"
)

// ErrUnknownStrategy is returned by New for an unrecognised name.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Decision is the verdict for one sample. Binary strategies set
// Absent = !Present; the distance strategy leaves a hysteresis gap where
// both are false.
type Decision struct {
	Present bool
	Absent  bool
	Score   float64
}

func binary(present bool, score float64) Decision {
	return Decision{Present: present, Absent: !present, Score: score}
}

// Params carries every strategy knob. Only the fields of the selected
// strategy are read.
type Params struct {
	Strategy string

	SmoothWindow int
	EnterMult    float64
	ExitMult     float64

	DBSCANEps    float64
	DBSCANMinPts int

	LOFK         int
	LOFThreshold float64

	KNNK        int
	KNNQuantile float64

	// TemplateThreshold of 0 selects the threshold automatically.
	TemplateThreshold float64
}

// Input is the training set a classifier fits on. Histograms and ROIs are
// indexed like the training projection.
type Input struct {
	Training   *logo.Training
	Histograms [][]float64
	// ROIs holds PNG-encoded corner regions; required by the template
	// strategy only.
	ROIs [][]byte
}

// Classifier is a fitted strategy.
type Classifier interface {
	// Name is the strategy actually in use, which differs from the
	// requested one after a fallback.
	Name() string
	Decisions() []Decision
	// Probe classifies one observation taken outside the training set.
	Probe(obs frames.Observation) bool
	Detection() Detection
}

// Rect is an axis-aligned rectangle in ROI pixel coordinates.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Detection describes the parameters a run actually used.
type Detection struct {
	Strategy          string          `json:"strategy"`
	RequestedStrategy string          `json:"requestedStrategy,omitempty"`
	Distance          *DistanceReport `json:"distance,omitempty"`
	DBSCAN            *DBSCANReport   `json:"dbscan,omitempty"`
	LOF               *LOFReport      `json:"lof,omitempty"`
	KNN               *KNNReport      `json:"knn,omitempty"`
	Template          *TemplateReport `json:"template,omitempty"`
	EnterConsecutive  int             `json:"enterConsecutive"`
	ExitConsecutive   int             `json:"exitConsecutive"`
}

type DistanceReport struct {
	SmoothWindow   int     `json:"smoothWindow"`
	EnterMult      float64 `json:"enterMult"`
	ExitMult       float64 `json:"exitMult"`
	EnterThreshold float64 `json:"enterThreshold"`
	ExitThreshold  float64 `json:"exitThreshold"`
}

type DBSCANReport struct {
	Eps              float64 `json:"eps"`
	MinPts           int     `json:"minPts"`
	LogoClusterLabel int     `json:"logoClusterLabel"`
}

type LOFReport struct {
	K         int     `json:"k"`
	Threshold float64 `json:"threshold"`
}

type KNNReport struct {
	K         int     `json:"k"`
	Quantile  float64 `json:"quantile"`
	Threshold float64 `json:"threshold"`
	SeedCount int     `json:"seedCount"`
}

type TemplateReport struct {
	Method       string     `json:"method"`
	NCCThreshold float64    `json:"nccThreshold"`
	LogoSubRect  Rect       `json:"logoSubRect"`
	MCD          *MCDReport `json:"mcd,omitempty"`
}

type MCDReport struct {
	Center      [2]float64 `json:"center"`
	Determinant float64    `json:"determinant"`
	SupportSize int        `json:"supportSize"`
}

// New fits the strategy named by p.Strategy on in.
func New(p Params, in Input) (Classifier, error) {
	if in.Training == nil {
		return nil, fmt.Errorf("classify: missing training")
	}
	if len(in.Histograms) != len(in.Training.Projection) {
		return nil, fmt.Errorf("classify: %d histograms for %d projected samples", len(in.Histograms), len(in.Training.Projection))
	}

	switch strings.ToLower(strings.TrimSpace(p.Strategy)) {
	case "", Distance:
		return newDistance(p, in), nil
	case DBSCAN:
		return newDBSCAN(p, in), nil
	case LOF:
		return newLOF(p, in), nil
	case KNN:
		if len(in.Training.Model.Seeds) < minKNNSeeds {
			c := newDBSCAN(p, in)
			c.requested = KNN
			return c, nil
		}
		return newKNN(p, in), nil
	case Template:
		c, err := newTemplate(p, in)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %w %q", faults.ErrConfiguration, ErrUnknownStrategy, p.Strategy)
	}
}

// PresentCount counts decisions with Present set.
func PresentCount(ds []Decision) int {
	n := 0
	for _, d := range ds {
		if d.Present {
			n++
		}
	}
	return n
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
