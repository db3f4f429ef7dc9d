package tamperfy

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
)

const (
	elaQuality  = 90
	elaFallback = 0.3
	elaAmplify  = 10
)

var errDimensionMismatch = errors.New("recompressed image dimensions differ")

// toRGB flattens any decoded image to an opaque RGBA raster anchored at (0,0).
// Alpha is dropped, not composited.
func toRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			i := dst.PixOffset(x-b.Min.X, y-b.Min.Y)
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = 0xff
		}
	}
	return dst
}

// elaDiff re-encodes img as JPEG at elaQuality and returns the per-channel
// absolute difference (R,G,B interleaved, alpha excluded).
func elaDiff(img *image.RGBA) ([]uint8, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: elaQuality}); err != nil {
		return nil, fmt.Errorf("recompress: %w", err)
	}
	decoded, err := jpeg.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode recompressed: %w", err)
	}
	resaved := toRGB(decoded)
	if resaved.Bounds() != img.Bounds() {
		return nil, errDimensionMismatch
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	diff := make([]uint8, 0, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				a, b := img.Pix[i+c], resaved.Pix[i+c]
				if a > b {
					diff = append(diff, a-b)
				} else {
					diff = append(diff, b-a)
				}
			}
		}
	}
	return diff, nil
}

// errorLevel scores recompression inconsistency from the mean, population
// standard deviation and maximum of the ELA difference map.
func errorLevel(img *image.RGBA) (float64, error) {
	diff, err := elaDiff(img)
	if err != nil {
		return 0, err
	}
	if len(diff) == 0 {
		return 0, errors.New("empty image")
	}

	var sum float64
	var peak uint8
	for _, v := range diff {
		sum += float64(v)
		if v > peak {
			peak = v
		}
	}
	mean := sum / float64(len(diff))

	var sq float64
	for _, v := range diff {
		d := float64(v) - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(diff)))

	return clamp01(mean/15*0.4 + std/20*0.4 + float64(peak)/255*0.2), nil
}

// WriteELAMap writes the ELA difference of the image at srcPath, amplified
// for visual inspection, as a PNG at dstPath. Bright regions are likely edits.
func WriteELAMap(srcPath, dstPath string) error {
	f, err := os.Open(srcPath) //nolint:gosec // caller-supplied path
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode source: %w", err)
	}
	rgb := toRGB(src)
	diff, err := elaDiff(rgb)
	if err != nil {
		return err
	}

	out := image.NewRGBA(rgb.Bounds())
	w := rgb.Bounds().Dx()
	for i, v := range diff {
		px, c := i/3, i%3
		amp := int(v) * elaAmplify
		if amp > 0xff {
			amp = 0xff
		}
		o := out.PixOffset(px%w, px/w)
		out.Pix[o+c] = uint8(amp)
		out.Pix[o+3] = 0xff
	}

	dst, err := os.Create(dstPath) //nolint:gosec // caller-supplied path
	if err != nil {
		return fmt.Errorf("create map: %w", err)
	}
	if err := png.Encode(dst, out); err != nil {
		_ = dst.Close()
		return fmt.Errorf("encode map: %w", err)
	}
	return dst.Close()
}
