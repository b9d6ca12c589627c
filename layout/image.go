package layout

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Resample 是自动缩放图片时使用的重采样策略。
type Resample int

const (
	ResampleNone Resample = iota
	ResampleNearest
	ResampleBilinear
	ResampleCatmullRom
)

// ParseResample 解析重采样关键字，未知值返回 ResampleBilinear。
func ParseResample(v string) Resample {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none", "off":
		return ResampleNone
	case "nearest":
		return ResampleNearest
	case "catmull-rom", "catmullrom", "bicubic":
		return ResampleCatmullRom
	default:
		return ResampleBilinear
	}
}

func (r Resample) scaler() xdraw.Scaler {
	switch r {
	case ResampleNearest:
		return xdraw.NearestNeighbor
	case ResampleCatmullRom:
		return xdraw.CatmullRom
	case ResampleBilinear:
		return xdraw.ApproxBiLinear
	default:
		return nil
	}
}

// Image 是一张位图。未声明宽高时以像素数作为 pt 尺寸，只声明一边时按比例推算另一边。
type Image struct {
	Request
	Src       string
	Data      []byte
	Opacity   float64
	NoAutoFit bool

	decoded image.Image
	scaled  image.Image
}

// NewImage 创建一张从路径加载的图片。
func NewImage(src string) *Image {
	return &Image{Request: Request{CheckPageBreak: true}, Src: src, Opacity: 1}
}

// NewImageBytes 创建一张从内存数据解码的图片，name 只用于调试输出。
func NewImageBytes(name string, data []byte) *Image {
	img := NewImage(name)
	img.Data = data
	return img
}

func (im *Image) decode(cfg Config) (image.Image, error) {
	if im.decoded != nil {
		return im.decoded, nil
	}
	data := im.Data
	if len(data) == 0 {
		if im.Src == "" {
			return nil, fmt.Errorf("image 缺少 src")
		}
		path := im.Src
		if !filepath.IsAbs(path) && cfg.BaseDir != "" {
			path = filepath.Join(cfg.BaseDir, path)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取图片 %s 失败: %w", im.Src, err)
		}
		data = raw
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageDecode, im.Src, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s 尺寸为空", ErrImageDecode, im.Src)
	}
	im.decoded = img
	return img, nil
}

// resolveSize 计算最终宽高；开启自动适配且宽度超过 limit 时按原始宽高比缩小。
func (im *Image) resolveSize(cfg Config, limit float64) (float64, float64, error) {
	if im.Width < 0 || im.Height < 0 {
		return 0, 0, errorf(ErrInvalidGeometry, "image 尺寸 %gx%g", im.Width, im.Height)
	}
	img, err := im.decode(cfg)
	if err != nil {
		return 0, 0, err
	}
	pxW, pxH := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	w, h := im.Width, im.Height
	switch {
	case w == 0 && h == 0:
		w, h = pxW, pxH
	case w == 0:
		w = h * pxW / pxH
	case h == 0:
		h = w * pxH / pxW
	}
	if cfg.ImageAutoFit && !im.NoAutoFit && limit > 0 {
		w, h = FitWidth(w, h, limit)
	}
	return w, h, nil
}

// FitWidth 在 width 超过 limit 时把宽度钳到 limit，并保持宽高比缩放高度。
func FitWidth(width, height, limit float64) (float64, float64) {
	if width <= limit {
		return width, height
	}
	return limit, limit / width * height
}

// bitmap 返回用于输出的位图：像素多于目标分辨率所需时按配置的策略缩小。
func (im *Image) bitmap(cfg Config, w, h float64) image.Image {
	src := im.decoded
	scaler := cfg.Resample.scaler()
	if src == nil || scaler == nil {
		return src
	}
	tw := int(math.Ceil(w / 72 * cfg.ImageDPI))
	th := int(math.Ceil(h / 72 * cfg.ImageDPI))
	b := src.Bounds()
	if tw <= 0 || th <= 0 || (b.Dx() <= tw && b.Dy() <= th) {
		return src
	}
	if im.scaled != nil && im.scaled.Bounds().Dx() == tw && im.scaled.Bounds().Dy() == th {
		return im.scaled
	}
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	scaler.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	im.scaled = dst
	return dst
}

func (im *Image) op(cfg Config, r Rect) *ImageOp {
	return &ImageOp{
		Path:    im.Src,
		X:       r.X,
		Y:       r.Y,
		Width:   r.Width,
		Height:  r.Height,
		Opacity: im.Opacity,
		Image:   im.bitmap(cfg, r.Width, r.Height),
	}
}

func (im *Image) Measure(cfg Config, width float64) (Size, error) {
	w, h, err := im.resolveSize(cfg, width-im.Margin.Horizontal())
	if err != nil {
		return Size{}, err
	}
	return Size{Width: w + im.Margin.Horizontal(), Height: h + im.Margin.Vertical()}, nil
}

func (im *Image) Commit(cfg Config, s Sink, area Rect) error {
	w, h, err := im.resolveSize(cfg, area.Width-im.Margin.Horizontal())
	if err != nil {
		return err
	}
	x := alignX(area, w, im.Align, im.Margin)
	y := area.Top() - im.Margin.Top - h
	s.Emit(Op{Image: im.op(cfg, Rect{X: x, Y: y, Width: w, Height: h})})
	return nil
}

func (im *Image) Flow(c *Composer, cur Cursor) (Cursor, Rect, error) {
	w, h, err := im.resolveSize(c.cfg, c.BodyWidth()-im.Margin.Horizontal())
	if err != nil {
		return cur, Rect{}, err
	}
	req := im.Request
	req.Width, req.Height = w, h
	rect, next, err := c.place("image", cur, req)
	if err != nil {
		return cur, Rect{}, err
	}
	c.body().Emit(Op{Image: im.op(c.cfg, rect)})
	return next, rect, nil
}
