package tamperfy

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DetectImage scores the image file at path for tampering.
// Missing input, a nonexistent path and undecodable content return terminal
// zero-score results labelled LabelNoImage, LabelFileNotFound and
// LabelCannotOpen. Never returns an error.
func (d *Detector) DetectImage(ctx context.Context, path string) Result {
	res := d.detectImagePath(ctx, path)
	d.emit(DetectionEvent{Kind: "image", Source: path, Score: res.Score, Label: res.Label})
	return res
}

// DetectImageBytes is like DetectImage but takes the encoded image in memory.
// Nil data means no image was supplied (LabelNoImage); an empty upload cannot
// be decoded (LabelCannotOpen).
func (d *Detector) DetectImageBytes(ctx context.Context, data []byte) Result {
	var res Result
	if data == nil {
		res = sentinel(LabelNoImage)
	} else {
		res = d.detectImageData(ctx, data)
	}
	d.emit(DetectionEvent{Kind: "image", Source: "bytes", Score: res.Score, Label: res.Label})
	return res
}

func (d *Detector) detectImagePath(ctx context.Context, path string) Result {
	if strings.TrimSpace(path) == "" {
		return sentinel(LabelNoImage)
	}

	data, err := os.ReadFile(path) //nolint:gosec // caller saves uploads to this path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sentinel(LabelFileNotFound)
		}
		slog.Debug("tamperfy: cannot read image", "path", path, "error", err.Error())
		return sentinel(LabelCannotOpen)
	}
	return d.detectImageData(ctx, data)
}

// detectImageData runs every image analyzer over data and fuses the signals.
func (d *Detector) detectImageData(ctx context.Context, data []byte) Result {
	if len(data) == 0 {
		return sentinel(LabelCannotOpen)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Debug("tamperfy: cannot decode image", "error", err.Error())
		return sentinel(LabelCannotOpen)
	}
	rgb := toRGB(src)

	ela := d.guard(SignalELA, elaFallback, func() (float64, error) { return errorLevel(rgb) })
	noise := d.guard(SignalNoise, noiseFallback, func() (float64, error) { return noiseInconsistency(rgb) })
	meta := d.guard(SignalMetadata, metaFallback, func() (float64, error) { return metadataSignal(data) })
	signals := []Signal{ela, noise, meta}

	var raw float64
	if model, ok := d.image.Model(); ok {
		cnn := d.guard(SignalCNN, cnnFallback, func() (float64, error) { return cnnSignal(ctx, model, rgb) })
		signals = append(signals, cnn)
		w := imageWeightsWithModel
		raw = w.cnn*cnn.Value + w.ela*ela.Value + w.noise*noise.Value + w.meta*meta.Value
	} else {
		w := imageWeightsHeuristic
		raw = w.ela*ela.Value + w.noise*noise.Value + w.meta*meta.Value
	}

	score, label := finalize(raw, LabelLikelyTampered)
	res := Result{
		Score:    score,
		Label:    label,
		Findings: []Finding{},
		Signals:  signals,
	}
	res.setFingerprint(src)

	slog.Debug("tamperfy: image scored", "format", format, "score", score, "label", string(label))
	return res
}
