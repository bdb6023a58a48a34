// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package classify

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ManuGH/adscan/internal/frames"
)

const (
	templatePad         = 2
	templateMorphSize   = 5
	defaultNCCThreshold = 0.5
)

// ErrNoLogoRegion is returned when the per-pixel variance analysis finds
// no stable region in the corner.
var ErrNoLogoRegion = errors.New("no logo region found in pixel variance")

// templateClassifier locates the logo as the low-variance region of the
// corner across all samples and matches samples against the median image
// of that region.
type templateClassifier struct {
	template  *Gray
	sub       Rect
	roiW      int
	roiH      int
	threshold float64
	mcd       *MCD
	mahal     []float64
	decisions []Decision
}

func newTemplate(p Params, in Input) (*templateClassifier, error) {
	n := len(in.Histograms)
	if len(in.ROIs) != n {
		return nil, fmt.Errorf("template: %d ROIs for %d samples", len(in.ROIs), n)
	}
	grays := make([]*Gray, n)
	for i, data := range in.ROIs {
		if len(data) == 0 {
			return nil, fmt.Errorf("template: missing ROI image for sample %d", i)
		}
		g, err := decodeGray(data)
		if err != nil {
			return nil, fmt.Errorf("template: sample %d: %w", i, err)
		}
		if i > 0 && (g.W != grays[0].W || g.H != grays[0].H) {
			return nil, fmt.Errorf("template: sample %d ROI is %dx%d, want %dx%d", i, g.W, g.H, grays[0].W, grays[0].H)
		}
		grays[i] = g
	}

	c := &templateClassifier{roiW: grays[0].W, roiH: grays[0].H}
	median, stddev := PixelStats(grays)
	norm := NormalizeMinMax(stddev, c.roiW, c.roiH)
	mask := CloseOpen(ThresholdInv(norm, Otsu(norm)), templateMorphSize)
	box, ok := LargestComponent(mask)
	if !ok {
		return nil, fmt.Errorf("template: %w", ErrNoLogoRegion)
	}
	c.sub = box.Pad(templatePad, c.roiW, c.roiH)
	c.template = median.Sub(c.sub)

	scores := make([]float64, n)
	for i, g := range grays {
		scores[i] = NCC(g.Sub(c.sub), c.template)
	}
	c.threshold = p.TemplateThreshold
	if c.threshold <= 0 {
		c.threshold = AutoThreshold(scores)
	}

	c.decisions = make([]Decision, n)
	for i, s := range scores {
		c.decisions[i] = binary(s >= c.threshold, s)
	}

	c.mcd = FitMCD(in.Training.Projection, mcdSupportFraction)
	c.mahal = c.mcd.Distances(in.Training.Projection)
	return c, nil
}

func decodeGray(data []byte) (*Gray, error) {
	img, err := frames.DecodeROI(data)
	if err != nil {
		return nil, err
	}
	return Blur3(ToGray(img)), nil
}

// AutoThreshold is the midpoint of the widest gap between consecutive
// sorted scores, or 0.5 when that midpoint is not positive.
func AutoThreshold(scores []float64) float64 {
	s := slices.Clone(scores)
	slices.Sort(s)
	th, bestGap := 0.0, 0.0
	for i := 1; i < len(s); i++ {
		if gap := s[i] - s[i-1]; gap > bestGap {
			bestGap = gap
			th = (s[i] + s[i-1]) / 2
		}
	}
	if th <= 0 {
		return defaultNCCThreshold
	}
	return th
}

func (c *templateClassifier) Name() string          { return Template }
func (c *templateClassifier) Decisions() []Decision { return c.decisions }

// Mahalanobis returns the robust-covariance distance of every training
// sample in the projection. It does not influence decisions.
func (c *templateClassifier) Mahalanobis() []float64 { return c.mahal }

// Probe needs obs.ROI. Frames whose corner region is smaller than the
// logo rectangle are treated as absent.
func (c *templateClassifier) Probe(obs frames.Observation) bool {
	if len(obs.ROI) == 0 {
		return false
	}
	g, err := decodeGray(obs.ROI)
	if err != nil || !c.sub.Fits(g.W, g.H) {
		return false
	}
	return NCC(g.Sub(c.sub), c.template) >= c.threshold
}

func (c *templateClassifier) Detection() Detection {
	return Detection{
		Strategy: Template,
		Template: &TemplateReport{
			Method:       "pixel-median + NCC",
			NCCThreshold: c.threshold,
			LogoSubRect:  c.sub,
			MCD: &MCDReport{
				Center:      [2]float64(c.mcd.Center),
				Determinant: c.mcd.Det,
				SupportSize: len(c.mcd.Support),
			},
		},
	}
}
