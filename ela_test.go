package tamperfy

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestErrorLevel_Range(t *testing.T) {
	t.Parallel()

	for name, img := range map[string]*image.RGBA{
		"gradient": gradientImage(48, 48),
		"spliced":  splicedImage(48, 48),
		"tiny":     gradientImage(1, 1),
	} {
		v, err := errorLevel(img)
		if err != nil {
			t.Errorf("%s: errorLevel: %v", name, err)
			continue
		}
		if v < 0 || v > 1 {
			t.Errorf("%s: errorLevel = %v, out of [0,1]", name, v)
		}
	}
}

func TestErrorLevel_NoisyRegionScoresHigher(t *testing.T) {
	t.Parallel()

	smooth, err := errorLevel(gradientImage(64, 64))
	if err != nil {
		t.Fatal(err)
	}
	noisy, err := errorLevel(splicedImage(64, 64))
	if err != nil {
		t.Fatal(err)
	}
	if noisy <= smooth {
		t.Errorf("spliced ELA %v <= smooth ELA %v", noisy, smooth)
	}
}

func TestToRGB_DropsAlphaAndOffset(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	src.SetNRGBA(5, 5, color.NRGBA{R: 200, G: 100, B: 50, A: 0})
	src.SetNRGBA(6, 5, color.NRGBA{R: 10, G: 20, B: 30, A: 128})

	got := toRGB(src)
	if got.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Fatalf("bounds = %v", got.Bounds())
	}
	if c := got.RGBAAt(0, 0); c != (color.RGBA{R: 200, G: 100, B: 50, A: 255}) {
		t.Errorf("pixel 0 = %v", c)
	}
	if c := got.RGBAAt(1, 0); c != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("pixel 1 = %v", c)
	}
}

func TestWriteELAMap(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "in.png", encodePNG(t, splicedImage(40, 30)))
	dst := filepath.Join(t.TempDir(), "ela.png")
	if err := WriteELAMap(src, dst); err != nil {
		t.Fatalf("WriteELAMap: %v", err)
	}

	f, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	out, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode map: %v", err)
	}
	if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 30 {
		t.Errorf("map bounds = %v, want 40x30", out.Bounds())
	}
}

func TestWriteELAMap_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := WriteELAMap(filepath.Join(dir, "missing.jpg"), filepath.Join(dir, "out.png")); err == nil {
		t.Error("missing source: want error")
	}
	bad := writeFile(t, "bad.jpg", []byte("nope"))
	if err := WriteELAMap(bad, filepath.Join(dir, "out.png")); err == nil {
		t.Error("undecodable source: want error")
	}
}
