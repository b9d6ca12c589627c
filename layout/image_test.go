package layout

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// 2000×1000 像素的图片放在 595pt 宽、左右 50pt 边距的页面上，自动适配为 495×247.5。
func TestImageAutoFit(t *testing.T) {
	cfg := testConfig(t, func(b *ConfigBuilder) { b.PageSize(595, 842) })
	img := NewImageBytes("wide.png", pngBytes(t, 2000, 1000))
	res := compose(t, cfg, Furniture{}, img)
	ops := res.Pages[0].Images(LayerBody)
	if len(ops) != 1 {
		t.Fatalf("images = %d", len(ops))
	}
	if !near(ops[0].Width, 495) || !near(ops[0].Height, 247.5) {
		t.Fatalf("size = %gx%g, want 495x247.5", ops[0].Width, ops[0].Height)
	}
	if ops[0].X != 50 || !near(ops[0].Y, 842-50-247.5) {
		t.Fatalf("origin = (%g, %g)", ops[0].X, ops[0].Y)
	}
}

func TestFitWidth(t *testing.T) {
	if w, h := FitWidth(2000, 1000, 495); w != 495 || !near(h, 247.5) {
		t.Fatalf("FitWidth = %gx%g", w, h)
	}
	if w, h := FitWidth(100, 50, 495); w != 100 || h != 50 {
		t.Fatalf("small image changed: %gx%g", w, h)
	}
}

func TestImageAutoFitDisabled(t *testing.T) {
	cfg := testConfig(t, func(b *ConfigBuilder) { b.ImageAutoFit(false) })
	img := NewImageBytes("wide.png", pngBytes(t, 600, 100))
	sz, err := img.Measure(cfg, 495)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if sz.Width != 600 || sz.Height != 100 {
		t.Fatalf("size = %gx%g", sz.Width, sz.Height)
	}
}

func TestImageDeclaredSideKeepsAspect(t *testing.T) {
	cfg := testConfig(t)
	img := NewImageBytes("box.png", pngBytes(t, 400, 200))
	img.Width = 100
	sz, err := img.Measure(cfg, 495)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if sz.Width != 100 || sz.Height != 50 {
		t.Fatalf("size = %gx%g, want 100x50", sz.Width, sz.Height)
	}
}

func TestImageResample(t *testing.T) {
	cfg := testConfig(t, func(b *ConfigBuilder) { b.ImageDPI(72).Resample(ResampleCatmullRom) })
	img := NewImageBytes("big.png", pngBytes(t, 1000, 500))
	img.Width = 72
	res := compose(t, cfg, Furniture{}, img)
	op := res.Pages[0].Images(LayerBody)[0]
	if b := op.Image.Bounds(); b.Dx() != 72 || b.Dy() != 36 {
		t.Fatalf("resampled bitmap = %dx%d, want 72x36", b.Dx(), b.Dy())
	}

	keep := testConfig(t, func(b *ConfigBuilder) { b.ImageDPI(72).Resample(ResampleNone) })
	raw := NewImageBytes("big.png", pngBytes(t, 1000, 500))
	raw.Width = 72
	res = compose(t, keep, Furniture{}, raw)
	if b := res.Pages[0].Images(LayerBody)[0].Image.Bounds(); b.Dx() != 1000 {
		t.Fatalf("ResampleNone changed bitmap width to %d", b.Dx())
	}
}

func TestParseResample(t *testing.T) {
	cases := map[string]Resample{"none": ResampleNone, "nearest": ResampleNearest, "bicubic": ResampleCatmullRom, "whatever": ResampleBilinear}
	for in, want := range cases {
		if got := ParseResample(in); got != want {
			t.Fatalf("ParseResample(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestImageDecodeError(t *testing.T) {
	cfg := testConfig(t)
	c, err := NewComposer(cfg, Furniture{})
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	err = c.Add(NewImageBytes("broken.png", []byte("not a png")))
	if !errors.Is(err, ErrImageDecode) {
		t.Fatalf("err = %v, want ErrImageDecode", err)
	}
}

func TestImageNegativeSize(t *testing.T) {
	cfg := testConfig(t)
	img := NewImageBytes("x.png", pngBytes(t, 10, 10))
	img.Height = -1
	if _, err := img.Measure(cfg, 100); !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("err = %v, want ErrInvalidGeometry", err)
	}
}

func TestImageMissingFile(t *testing.T) {
	cfg := testConfig(t, func(b *ConfigBuilder) { b.BaseDir(t.TempDir()) })
	if _, err := NewImage("missing.png").Measure(cfg, 100); err == nil {
		t.Fatalf("missing file should fail")
	}
}
