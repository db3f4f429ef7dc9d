package tamperfy

import "math"

// Label thresholds shared by both pipelines.
const (
	SuspiciousThreshold = 0.35
	TamperedThreshold   = 0.65
)

// FlagThreshold is the reference cut-off a caller uses to flag a post for
// review: either score strictly above it.
const FlagThreshold = 0.65

// Signal names.
const (
	SignalELA        = "ela"
	SignalNoise      = "noise"
	SignalMetadata   = "metadata"
	SignalCNN        = "cnn"
	SignalRules      = "rules"
	SignalLinguistic = "linguistic"
	SignalClassifier = "classifier"
)

type imageWeights struct {
	cnn, ela, noise, meta float64
}

func (w imageWeights) sum() float64 { return w.cnn + w.ela + w.noise + w.meta }

type textWeights struct {
	model, rules, ling float64
}

func (w textWeights) sum() float64 { return w.model + w.rules + w.ling }

var (
	imageWeightsWithModel = imageWeights{cnn: 0.50, ela: 0.30, noise: 0.15, meta: 0.05}
	imageWeightsHeuristic = imageWeights{ela: 0.50, noise: 0.35, meta: 0.15}

	textWeightsWithModel = textWeights{model: 0.40, rules: 0.35, ling: 0.25}
	textWeightsHeuristic = textWeights{rules: 0.55, ling: 0.45}
)

// labelFor maps a fused score to a verdict; top is the pipeline's
// highest-suspicion label.
func labelFor(score float64, top Label) Label {
	switch {
	case score < SuspiciousThreshold:
		return LabelAuthentic
	case score < TamperedThreshold:
		return LabelSuspicious
	default:
		return top
	}
}

// clamp01 bounds v to [0,1]; NaN maps to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// finalize clamps a fused score and labels it. Only the reported score is
// rounded; the label is taken from the unrounded value.
func finalize(raw float64, top Label) (float64, Label) {
	v := clamp01(raw)
	return round4(v), labelFor(v, top)
}

// ShouldFlag reports whether either result crosses FlagThreshold.
func ShouldFlag(image, text Result) bool {
	return FlagsAt(FlagThreshold, image, text)
}

// FlagsAt reports whether any result scores strictly above threshold.
func FlagsAt(threshold float64, results ...Result) bool {
	for _, r := range results {
		if r.Score > threshold {
			return true
		}
	}
	return false
}
