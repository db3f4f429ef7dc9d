package tamperfy

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

const (
	cnnInputSize = 224
	cnnFallback  = 0.5 // inference error: no opinion
)

// Tensor is an H×W×3 RGB input normalized to [0,1].
type Tensor [][][3]float32

// cnnInput resizes img to cnnInputSize² with bilinear sampling and normalizes
// each channel to [0,1].
func cnnInput(img image.Image) Tensor {
	dst := image.NewRGBA(image.Rect(0, 0, cnnInputSize, cnnInputSize))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	t := make(Tensor, cnnInputSize)
	for y := range t {
		row := make([][3]float32, cnnInputSize)
		for x := range row {
			i := dst.PixOffset(x, y)
			row[x] = [3]float32{
				float32(dst.Pix[i]) / 255,
				float32(dst.Pix[i+1]) / 255,
				float32(dst.Pix[i+2]) / 255,
			}
		}
		t[y] = row
	}
	return t
}

// cnnSignal returns the tampered-class probability reported by model.
func cnnSignal(ctx context.Context, model ImageModel, img image.Image) (float64, error) {
	probs, err := model.Predict(ctx, cnnInput(img))
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	if len(probs) < 2 {
		return 0, ErrEmptyPrediction
	}
	return probs[1], nil
}
