package tamperfy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	textModelMaxRunes = 512
	textModelFallback = 0.3

	negativeWeight    = 0.6
	otherWeight       = 0.3
	modelFindingFloor = 0.38
	modelHighFloor    = 0.55

	negativeLabel = "NEGATIVE"
)

// DetectText scores caption text for manipulative language. Blank text
// returns a terminal zero-score LabelNoText result without findings.
// Never returns an error.
func (d *Detector) DetectText(ctx context.Context, text string) Result {
	res := d.detectText(ctx, text)
	d.emit(DetectionEvent{Kind: "text", Source: "text", Score: res.Score, Label: res.Label})
	return res
}

func (d *Detector) detectText(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return sentinel(LabelNoText)
	}

	var ruleFindings, lingFindings []Finding
	rules := d.guard(SignalRules, 0, func() (float64, error) {
		s, f := ScoreRules(text)
		ruleFindings = f
		return s, nil
	})
	ling := d.guard(SignalLinguistic, 0, func() (float64, error) {
		s, f := ScoreLinguistics(text)
		lingFindings = f
		return s, nil
	})

	findings := make([]Finding, 0, len(ruleFindings)+len(lingFindings)+1)
	findings = append(findings, ruleFindings...)
	findings = append(findings, lingFindings...)
	signals := []Signal{rules, ling}

	var raw float64
	if model, ok := d.text.Model(); ok {
		var modelFinding *Finding
		cls := d.guard(SignalClassifier, textModelFallback, func() (float64, error) {
			s, f, err := classifyText(ctx, model, text)
			modelFinding = f
			return s, err
		})
		if modelFinding != nil && !cls.Degraded {
			findings = append(findings, *modelFinding)
		}
		signals = append(signals, cls)
		w := textWeightsWithModel
		raw = w.model*cls.Value + w.rules*rules.Value + w.ling*ling.Value
	} else {
		w := textWeightsHeuristic
		raw = w.rules*rules.Value + w.ling*ling.Value
	}

	score, label := finalize(raw, LabelLikelyManipulated)
	slog.Debug("tamperfy: text scored", "score", score, "label", string(label), "findings", len(findings))
	return Result{
		Score:    score,
		Label:    label,
		Findings: findings,
		Signals:  signals,
	}
}

// classifyText runs model on text truncated to textModelMaxRunes and converts
// the prediction to a manipulation signal. Negative sentiment is treated as
// a weak manipulation proxy.
func classifyText(ctx context.Context, model TextModel, text string) (float64, *Finding, error) {
	pred, err := model.Classify(ctx, truncateRunes(text, textModelMaxRunes))
	if err != nil {
		return 0, nil, fmt.Errorf("classify: %w", err)
	}
	return modelSignal(pred)
}

func modelSignal(pred TextPrediction) (float64, *Finding, error) {
	var s float64
	if strings.EqualFold(pred.Label, negativeLabel) {
		s = pred.Score * negativeWeight
	} else {
		s = (1 - pred.Score) * otherWeight
	}

	if s <= modelFindingFloor {
		return s, nil, nil
	}
	sev := SeverityMedium
	if s > modelHighFloor {
		sev = SeverityHigh
	}
	return s, &Finding{
		Rule:     fmt.Sprintf("Model Flag (%s, conf=%.0f%%)", pred.Label, pred.Score*100),
		Severity: sev,
		Excerpt:  "Semantic analysis detected potentially manipulative content.",
	}, nil
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
