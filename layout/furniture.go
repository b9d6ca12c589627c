package layout

import (
	"fmt"
	"math"
	"strings"
)

// 水印默认值。
const (
	defaultWatermarkSize    = 40.0
	defaultWatermarkAngle   = 45.0
	defaultWatermarkOpacity = 0.2
	defaultWatermarkSpacing = 40.0
	// watermarkLineFactor 是水印行数相对 pageHeight/(size+leading) 的倍数，保证旋转后仍铺满页面。
	watermarkLineFactor = 2.0
)

// binder 由内容中可能包含 ${...} 占位符的组件实现。
type binder interface {
	bind(data any) Component
}

// Band 是页眉或页脚：一组纵向堆叠的组件，使用自己的边距，不参与正文光标。
type Band struct {
	Content []Component
	Margin  Margin
}

// NewBand 用给定组件创建页眉或页脚。
func NewBand(content ...Component) *Band {
	return &Band{Content: content}
}

func (b *Band) bind(data any) []Component { return bindAll(b.Content, data) }

// bindAll 返回插值后的组件副本，未实现 binder 的组件原样保留。
func bindAll(comps []Component, data any) []Component {
	out := make([]Component, len(comps))
	for i, comp := range comps {
		if bd, ok := comp.(binder); ok {
			out[i] = bd.bind(data)
			continue
		}
		out[i] = comp
	}
	return out
}

// Height 返回在 width 宽度内、以 data 插值后的占用高度，包含自身上下边距。
func (b *Band) Height(cfg Config, width float64, data any) (float64, error) {
	if b == nil {
		return 0, nil
	}
	total, _, err := measureStack(cfg, b.bind(data), width-b.Margin.Horizontal())
	if err != nil {
		return 0, err
	}
	return total + b.Margin.Vertical(), nil
}

// PageFurniture 覆盖某一页的页眉、页脚或水印，nil 字段沿用文档默认值。
type PageFurniture struct {
	Header    *Band
	Footer    *Band
	Watermark *Watermark
}

// Furniture 是文档级的页眉、页脚与水印配置。
type Furniture struct {
	Header    *Band
	Footer    *Band
	Watermark *Watermark

	SkipFirstHeader bool
	SkipFirstFooter bool
	Pages           map[int]PageFurniture
}

// forPage 返回第 n 页实际使用的页眉、页脚与水印。
func (f Furniture) forPage(n int) (*Band, *Band, *Watermark) {
	header, footer, watermark := f.Header, f.Footer, f.Watermark
	if n == 1 && f.SkipFirstHeader {
		header = nil
	}
	if n == 1 && f.SkipFirstFooter {
		footer = nil
	}
	if p, ok := f.Pages[n]; ok {
		if p.Header != nil {
			header = p.Header
		}
		if p.Footer != nil {
			footer = p.Footer
		}
		if p.Watermark != nil {
			watermark = p.Watermark
		}
	}
	return header, footer, watermark
}

// pageData 是页眉页脚插值时可用的数据。
func pageData(n int) map[string]any {
	return map[string]any{"page": map[string]any{"number": n}}
}

// drawBand 在页眉或页脚区域绘制 band 并返回其高度。
// 页眉紧贴上边距之下，页脚紧贴下边距之上，二者都不移动正文光标。
func (c *Composer) drawBand(page *Page, band *Band, layer Layer, data any) (float64, error) {
	if band == nil {
		return 0, nil
	}
	g := c.cfg.Geometry
	h, err := band.Height(c.cfg, g.ContentWidth(), data)
	if err != nil {
		return 0, err
	}
	total := h - band.Margin.Vertical()
	width := g.ContentWidth() - band.Margin.Horizontal()
	top := g.Height - g.Margin.Top
	if layer == LayerFooter {
		top = g.Margin.Bottom + h
	}
	area := Rect{
		X:      g.Margin.Left + band.Margin.Left,
		Y:      top - band.Margin.Top - total,
		Width:  width,
		Height: total,
	}
	if err := commitStack(c.cfg, pageSink{page: page, layer: layer}, band.bind(data), area, AlignTop); err != nil {
		return 0, err
	}
	return h, nil
}

// Watermark 是旋转平铺在整页上的半透明文字。
type Watermark struct {
	Text    string
	Font    string
	Size    float64
	Color   Color
	Opacity float64
	Angle   float64 // 角度，逆时针
	Spacing float64 // 同一行相邻文字之间的间距
	Leading float64 // 行与行之间的额外间距
}

// NewWatermark 创建带默认样式的水印：40pt、灰色、45°、不透明度 0.2。
func NewWatermark(text string) *Watermark {
	return &Watermark{
		Text:    text,
		Size:    defaultWatermarkSize,
		Color:   Gray,
		Opacity: defaultWatermarkOpacity,
		Angle:   defaultWatermarkAngle,
		Spacing: defaultWatermarkSpacing,
		Leading: defaultWatermarkSize * 0.5,
	}
}

func (w *Watermark) size() float64 {
	if w.Size > 0 {
		return w.Size
	}
	return defaultWatermarkSize
}

// tiles 计算一页水印：每一行是重复若干次的文字，整组行绕页面中心旋转。
// 每行的列数由页面对角线与单个文字宽度加间距决定，
// 行数为 watermarkLineFactor * pageHeight / (size + leading)。
func (w *Watermark) tiles(cfg Config, pageW, pageH float64) ([]WatermarkOp, error) {
	if strings.TrimSpace(w.Text) == "" {
		return nil, nil
	}
	font, err := cfg.font(w.Font)
	if err != nil {
		return nil, err
	}
	size := w.size()
	textW, err := cfg.Metrics.Measure(w.Text, font, size)
	if err != nil {
		return nil, fmt.Errorf("测量水印失败: %w", err)
	}
	spaceW, err := cfg.Metrics.Measure(" ", font, size)
	if err != nil {
		return nil, fmt.Errorf("测量水印失败: %w", err)
	}
	gap := 1
	if spaceW > 0 {
		gap = max(1, int(math.Ceil(w.Spacing/spaceW)))
	}
	tileW := textW + float64(gap)*spaceW
	cols := 1
	if tileW > 0 {
		cols = int(math.Ceil(math.Hypot(pageW, pageH)/tileW)) + 1
	}
	pitch := size + w.Leading
	rows := max(1, int(math.Ceil(watermarkLineFactor*pageH/pitch)))

	sep := strings.Repeat(" ", gap)
	content := strings.Repeat(w.Text+sep, cols-1) + w.Text
	lineW := float64(cols)*tileW - float64(gap)*spaceW

	rad := w.Angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	cx, cy := pageW/2, pageH/2
	u := -lineW / 2
	ops := make([]WatermarkOp, 0, rows)
	for i := 0; i < rows; i++ {
		v := (float64(i) - float64(rows-1)/2) * pitch
		ops = append(ops, WatermarkOp{
			Content:  content,
			X:        cx + u*cos - v*sin,
			Y:        cy + u*sin + v*cos,
			Angle:    w.Angle,
			Font:     font.Name,
			FontSize: size,
			Color:    w.Color,
			Opacity:  w.Opacity,
		})
	}
	return ops, nil
}
