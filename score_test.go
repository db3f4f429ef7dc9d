package tamperfy

import (
	"math"
	"testing"
)

func TestLabelFor_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		top   Label
		want  Label
	}{
		{0, LabelLikelyTampered, LabelAuthentic},
		{0.349999, LabelLikelyTampered, LabelAuthentic},
		{0.35, LabelLikelyTampered, LabelSuspicious},
		{0.649999, LabelLikelyTampered, LabelSuspicious},
		{0.65, LabelLikelyTampered, LabelLikelyTampered},
		{0.65, LabelLikelyManipulated, LabelLikelyManipulated},
		{1, LabelLikelyManipulated, LabelLikelyManipulated},
		{0.349999, LabelLikelyManipulated, LabelAuthentic},
	}

	for _, tc := range tests {
		if got := labelFor(tc.score, tc.top); got != tc.want {
			t.Errorf("labelFor(%v, %q) = %q, want %q", tc.score, tc.top, got, tc.want)
		}
	}
}

func TestFusionWeights_SumToOne(t *testing.T) {
	t.Parallel()

	sums := map[string]float64{
		"image with model": imageWeightsWithModel.sum(),
		"image heuristic":  imageWeightsHeuristic.sum(),
		"text with model":  textWeightsWithModel.sum(),
		"text heuristic":   textWeightsHeuristic.sum(),
	}
	for name, s := range sums {
		if math.Abs(s-1) > 1e-12 {
			t.Errorf("%s weights sum = %v, want 1", name, s)
		}
	}
}

func TestClamp01(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want float64
	}{
		{-0.2, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{3.5, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
		{math.Inf(-1), 0},
	}
	for _, tc := range tests {
		if got := clamp01(tc.in); got != tc.want {
			t.Errorf("clamp01(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFinalize_LabelsUnroundedScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw       float64
		wantScore float64
		wantLabel Label
	}{
		{0.349999, 0.35, LabelAuthentic},
		{0.35, 0.35, LabelSuspicious},
		{0.649999, 0.65, LabelSuspicious},
		{0.65, 0.65, LabelLikelyManipulated},
		{1.7, 1, LabelLikelyManipulated},
		{-0.2, 0, LabelAuthentic},
	}
	for _, tc := range tests {
		score, label := finalize(tc.raw, LabelLikelyManipulated)
		if score != tc.wantScore || label != tc.wantLabel {
			t.Errorf("finalize(%v) = (%v, %q), want (%v, %q)", tc.raw, score, label, tc.wantScore, tc.wantLabel)
		}
	}
}

func TestShouldFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		img, text float64
		wantFlag  bool
	}{
		{"both low", 0.2, 0.3, false},
		{"image at threshold", 0.65, 0, false},
		{"image above", 0.66, 0, true},
		{"text above", 0, 0.9, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ShouldFlag(Result{Score: tc.img}, Result{Score: tc.text})
			if got != tc.wantFlag {
				t.Errorf("ShouldFlag() = %v, want %v", got, tc.wantFlag)
			}
		})
	}
}
