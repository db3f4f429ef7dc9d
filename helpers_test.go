package tamperfy

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// gradientImage returns a deterministic smooth test picture.
func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

// splicedImage is smooth except for a noisy top-left quadrant.
func splicedImage(w, h int) *image.RGBA {
	img := gradientImage(w, h)
	rng := rand.New(rand.NewPCG(1, 2))
	for y := 0; y < h/2; y++ {
		for x := 0; x < w/2; x++ {
			v := uint8(rng.IntN(256))
			img.Set(x, y, color.RGBA{R: v, G: 255 - v, B: v / 2, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

// withSoftwareEXIF inserts an APP1 segment carrying a little-endian TIFF
// IFD0 with a single Software (0x0131) ASCII tag right after the JPEG SOI.
func withSoftwareEXIF(t *testing.T, jpg []byte, software string) []byte {
	t.Helper()
	if len(jpg) < 2 || jpg[0] != 0xFF || jpg[1] != 0xD8 {
		t.Fatal("not a JPEG")
	}

	val := append([]byte(software), 0)
	const ifdOffset = 8
	const dataOffset = ifdOffset + 2 + 12 + 4

	var tiff bytes.Buffer
	le := binary.LittleEndian
	tiff.WriteString("II")
	_ = binary.Write(&tiff, le, uint16(42))
	_ = binary.Write(&tiff, le, uint32(ifdOffset))
	_ = binary.Write(&tiff, le, uint16(1))      // entry count
	_ = binary.Write(&tiff, le, uint16(0x0131)) // Software
	_ = binary.Write(&tiff, le, uint16(2))      // ASCII
	_ = binary.Write(&tiff, le, uint32(len(val)))
	_ = binary.Write(&tiff, le, uint32(dataOffset))
	_ = binary.Write(&tiff, le, uint32(0)) // next IFD
	tiff.Write(val)

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	var out bytes.Buffer
	out.Write(jpg[:2])
	out.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(jpg[2:])
	return out.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

type fakeImageModel struct {
	probs []float64
	err   error

	mu  sync.Mutex
	got Tensor
}

func (m *fakeImageModel) Predict(_ context.Context, input Tensor) ([]float64, error) {
	m.mu.Lock()
	m.got = input
	m.mu.Unlock()
	return m.probs, m.err
}

type fakeTextModel struct {
	pred  TextPrediction
	err   error
	panic string

	mu  sync.Mutex
	got string
}

func (m *fakeTextModel) Classify(_ context.Context, text string) (TextPrediction, error) {
	if m.panic != "" {
		panic(m.panic)
	}
	m.mu.Lock()
	m.got = text
	m.mu.Unlock()
	return m.pred, m.err
}
