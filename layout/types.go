package layout

import (
	"image"
	"strings"
)

// 该文件定义排版结果与几何类型，供分页引擎、渲染器与调试 JSON 共用。
// 所有长度单位均为 pt，坐标系原点位于页面左下角，Y 轴向上。

// Result 保存排版后的页面、字体与文档元信息。
type Result struct {
	Pages []Page                  `json:"pages"`
	Fonts map[string]FontResource `json:"fonts"`
	Meta  DocumentMeta            `json:"meta"`
}

// Page 记录页面尺寸、边距与按绘制顺序排列的图元。
type Page struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
	Ops    []Op    `json:"ops"`
}

// Texts 返回指定图层上的文本图元。
func (p Page) Texts(layer Layer) []TextOp {
	var out []TextOp
	for _, op := range p.Ops {
		if op.Layer == layer && op.Text != nil {
			out = append(out, *op.Text)
		}
	}
	return out
}

// Rects 返回指定图层上的矩形图元。
func (p Page) Rects(layer Layer) []RectOp {
	var out []RectOp
	for _, op := range p.Ops {
		if op.Layer == layer && op.Rect != nil {
			out = append(out, *op.Rect)
		}
	}
	return out
}

// Images 返回指定图层上的图片图元。
func (p Page) Images(layer Layer) []ImageOp {
	var out []ImageOp
	for _, op := range p.Ops {
		if op.Layer == layer && op.Image != nil {
			out = append(out, *op.Image)
		}
	}
	return out
}

// Watermarks 返回页面上的水印行。
func (p Page) Watermarks() []WatermarkOp {
	var out []WatermarkOp
	for _, op := range p.Ops {
		if op.Watermark != nil {
			out = append(out, *op.Watermark)
		}
	}
	return out
}

// Layer 标记图元所属的区域。
type Layer int

const (
	LayerBody Layer = iota
	LayerHeader
	LayerFooter
	LayerWatermark
)

func (l Layer) String() string {
	switch l {
	case LayerHeader:
		return "header"
	case LayerFooter:
		return "footer"
	case LayerWatermark:
		return "watermark"
	default:
		return "body"
	}
}

// MarshalText 让调试 JSON 输出可读的图层名。
func (l Layer) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Op 是一个已定位的绘制指令，只有一个字段非空。
type Op struct {
	Layer     Layer        `json:"layer"`
	Text      *TextOp      `json:"text,omitempty"`
	Image     *ImageOp     `json:"image,omitempty"`
	Line      *LineOp      `json:"line,omitempty"`
	Rect      *RectOp      `json:"rect,omitempty"`
	Watermark *WatermarkOp `json:"watermark,omitempty"`
}

// TextOp 表示一行已折好的文本，(X, Y) 为行框左下角。
type TextOp struct {
	Content  string  `json:"content"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Font     string  `json:"font"`
	FontSize float64 `json:"fontSize"`
	Color    Color   `json:"color"`
}

// ImageOp 描述图片位置与尺寸；Image 为解码（可能已重采样）后的位图。
type ImageOp struct {
	Path    string      `json:"path"`
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	Width   float64     `json:"width"`
	Height  float64     `json:"height"`
	Opacity float64     `json:"opacity"`
	Image   image.Image `json:"-"`
}

// LineOp 表示一条线段。
type LineOp struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"`
}

// RectOp 表示一个矩形，Fill 为空表示不填充，Stroke 为空表示不描边。
type RectOp struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Fill        *Color  `json:"fill,omitempty"`
	Stroke      *Color  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

// Top 返回矩形上边缘的 Y。
func (r RectOp) Top() float64 { return r.Y + r.Height }

// WatermarkOp 是一行平铺的水印文本，绕 (X, Y) 旋转 Angle 度。
type WatermarkOp struct {
	Content  string  `json:"content"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Angle    float64 `json:"angle"`
	Font     string  `json:"font"`
	FontSize float64 `json:"fontSize"`
	Color    Color   `json:"color"`
	Opacity  float64 `json:"opacity"`
}

// Point 是页面坐标中的一个点。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size 是组件测量得到的宽高。
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect 以左下角 (X, Y) 与宽高描述一个区域。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Top 返回矩形上边缘的 Y。
func (r Rect) Top() float64 { return r.Y + r.Height }

// Right 返回矩形右边缘的 X。
func (r Rect) Right() float64 { return r.X + r.Width }

// Margin 以 pt 为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Horizontal 返回左右边距之和。
func (m Margin) Horizontal() float64 { return m.Left + m.Right }

// Vertical 返回上下边距之和。
func (m Margin) Vertical() float64 { return m.Top + m.Bottom }

func (m Margin) add(o Margin) Margin {
	return Margin{Top: m.Top + o.Top, Right: m.Right + o.Right, Bottom: m.Bottom + o.Bottom, Left: m.Left + o.Left}
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
	Gray  = Color{R: 200, G: 200, B: 200}
)

// Align 同时用于水平（left/center/right）与单元格垂直（top/center/bottom）对齐。
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
	AlignTop
	AlignBottom
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignTop:
		return "top"
	case AlignBottom:
		return "bottom"
	default:
		return "left"
	}
}

// MarshalText 让调试 JSON 输出可读的对齐方式。
func (a Align) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// ParseAlign 解析对齐关键字，支持 start/end/middle 别名，未知值返回 AlignLeft。
func ParseAlign(v string) Align {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "center", "middle":
		return AlignCenter
	case "right", "end":
		return AlignRight
	case "top":
		return AlignTop
	case "bottom":
		return AlignBottom
	default:
		return AlignLeft
	}
}

// FontResource 描述字体资源，src 可以是文件路径、embed:<name> 或 builtin:<name>。
type FontResource struct {
	Name     string `json:"name"`
	Src      string `json:"src"`
	Style    string `json:"style"`
	Family   string `json:"family"`
	Fallback string `json:"fallback"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
