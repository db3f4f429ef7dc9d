package tamperfy

import (
	"errors"
	"image"
	"math"
)

const (
	noiseSigma    = 2.0
	noiseFallback = 0.2
	noiseScale    = 8.0
)

var errImageTooSmall = errors.New("image too small for quadrant analysis")

// luma converts to 8-bit grayscale with ITU-R 601-2 weights, rounded the way
// most imaging libraries produce an "L" channel.
func luma(img *image.RGBA) []float64 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			r, g, b := uint32(img.Pix[i]), uint32(img.Pix[i+1]), uint32(img.Pix[i+2])
			gray[y*w+x] = float64((r*19595 + g*38470 + b*7471 + 0x8000) >> 16)
		}
	}
	return gray
}

func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	k := make([]float64, 2*radius+1)
	var sum float64
	for i := range k {
		x := float64(i - radius)
		k[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// gaussianBlur applies a separable blur with clamped edges and rounds the
// result back to 8-bit levels.
func gaussianBlur(plane []float64, w, h int, sigma float64) []float64 {
	k := gaussianKernel(sigma)
	r := len(k) / 2

	tmp := make([]float64, len(plane))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range k {
				xx := min(max(x+i-r, 0), w-1)
				acc += plane[y*w+xx] * kv
			}
			tmp[y*w+x] = acc
		}
	}

	out := make([]float64, len(plane))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range k {
				yy := min(max(y+i-r, 0), h-1)
				acc += tmp[yy*w+x] * kv
			}
			out[y*w+x] = math.Min(math.Max(math.Round(acc), 0), 255)
		}
	}
	return out
}

// noiseInconsistency measures how much the high-frequency noise floor differs
// between the four image quadrants. Composites from different sources tend
// to disagree.
func noiseInconsistency(img *image.RGBA) (float64, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w < 2 || h < 2 {
		return 0, errImageTooSmall
	}

	gray := luma(img)
	blurred := gaussianBlur(gray, w, h, noiseSigma)

	hw, hh := w/2, h/2
	quads := [4]image.Rectangle{
		image.Rect(0, 0, hw, hh),
		image.Rect(hw, 0, w, hh),
		image.Rect(0, hh, hw, h),
		image.Rect(hw, hh, w, h),
	}

	var means [4]float64
	for qi, q := range quads {
		var sum float64
		for y := q.Min.Y; y < q.Max.Y; y++ {
			for x := q.Min.X; x < q.Max.X; x++ {
				sum += math.Abs(gray[y*w+x] - blurred[y*w+x])
			}
		}
		means[qi] = sum / float64(q.Dx()*q.Dy())
	}

	return clamp01(stddev(means[:]) / noiseScale), nil
}

// stddev is the population standard deviation.
func stddev(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	var sq float64
	for _, v := range vals {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(vals)))
}
