package layout

import (
	"fmt"
	"math"

	"github.com/ByLCY/folio/binding"
)

// Text 是一个文本块。折行结果按宽度缓存在组件实例上，
// 同一实例在生命周期内宽度不变时只折行一次。
type Text struct {
	Content     string
	Font        string
	Size        float64 // 0 表示使用配置中的默认字号
	LineSpacing float64 // 行距倍数，0 表示使用配置中的默认值
	Align       Align
	Wrap        WrapMode
	Color       Color
	Margin      Margin

	cache  *lineCache
	preset bool // cache 来自拆分，不再重新折行
}

type lineCache struct {
	width float64
	lines []TextLine
}

// NewText 创建默认样式的文本块。
func NewText(content string) *Text {
	return &Text{Content: content}
}

func (t *Text) size(cfg Config) float64 {
	if t.Size > 0 {
		return t.Size
	}
	return cfg.FontSize
}

func (t *Text) spacing(cfg Config) float64 {
	if t.LineSpacing > 0 {
		return t.LineSpacing
	}
	return cfg.LineSpacing
}

// fontName 返回实际使用的字体名，未注册的名称按注册表的规则回退。
func (t *Text) fontName(cfg Config) string {
	if font, err := cfg.font(t.Font); err == nil {
		return font.Name
	}
	if t.Font != "" {
		return t.Font
	}
	return cfg.DefaultFont
}

// Lines 返回在给定可用宽度下的折行结果。
func (t *Text) Lines(cfg Config, width float64) ([]TextLine, error) {
	if t.cache != nil && (t.preset || t.cache.width == width) {
		return t.cache.lines, nil
	}
	font, err := cfg.font(t.Font)
	if err != nil {
		return nil, err
	}
	lines, err := Wrap(cfg.Metrics, t.Content, font, t.size(cfg), width, t.Wrap)
	if err != nil {
		return nil, fmt.Errorf("文本折行失败: %w", err)
	}
	t.cache = &lineCache{width: width, lines: lines}
	return lines, nil
}

func (t *Text) Measure(cfg Config, width float64) (Size, error) {
	lines, err := t.Lines(cfg, width-t.Margin.Horizontal())
	if err != nil {
		return Size{}, err
	}
	if len(lines) == 0 {
		return Size{Width: width}, nil
	}
	h := BlockHeight(len(lines), t.size(cfg), t.spacing(cfg)) + t.Margin.Vertical()
	return Size{Width: width, Height: h}, nil
}

func (t *Text) Commit(cfg Config, s Sink, area Rect) error {
	width := area.Width - t.Margin.Horizontal()
	lines, err := t.Lines(cfg, width)
	if err != nil {
		return err
	}
	size := t.size(cfg)
	step := size * t.spacing(cfg)
	y := area.Top() - t.Margin.Top - size
	for _, ln := range lines {
		s.Emit(Op{Text: t.op(cfg, ln, area.X+t.Margin.Left, y, width)})
		y -= step
	}
	return nil
}

// Flow 逐行放置文本：某一行放不下时换页，其余行在新页继续，
// 因此一个文本块可以跨越多页。
func (t *Text) Flow(c *Composer, cur Cursor) (Cursor, Rect, error) {
	cfg := c.cfg
	left := cfg.Geometry.Margin.Left + t.Margin.Left
	width := c.BodyWidth() - t.Margin.Horizontal()
	lines, err := t.Lines(cfg, width)
	if err != nil {
		return cur, Rect{}, err
	}
	if len(lines) == 0 {
		return cur, Rect{}, nil
	}
	size := t.size(cfg)
	leading := size * (t.spacing(cfg) - 1)
	sink := c.body()

	fresh := cur.Fresh()
	y := c.StartY(cur) - t.Margin.Top
	top := y
	lastWidth := 0.0
	for i, ln := range lines {
		gap := 0.0
		if i > 0 {
			gap = leading
		}
		beginY := y - gap - size
		if !c.Fits(beginY) {
			if fresh {
				c.overflow("text line", size)
			} else {
				next, err := c.Break()
				if err != nil {
					return cur, Rect{}, err
				}
				cur = next
				sink = c.body()
				y = c.TopY()
				top = y
				beginY = y - size
				if !c.Fits(beginY) {
					c.overflow("text line", size)
				}
			}
		}
		s := t.op(cfg, ln, left, beginY, width)
		sink.Emit(Op{Text: s})
		y = beginY
		fresh = false
		lastWidth = ln.Width
	}
	rect := Rect{X: left, Y: y, Width: width, Height: top - y}
	next := Cursor{
		X:      left + math.Min(lastWidth, width),
		Y:      y - t.Margin.Bottom,
		HasX:   true,
		HasY:   true,
		RowTop: y + size,
	}
	return next, rect, nil
}

func (t *Text) op(cfg Config, ln TextLine, left, y, width float64) *TextOp {
	x := left
	switch t.Align {
	case AlignCenter:
		x = left + (width-ln.Width)/2
	case AlignRight:
		x = left + width - ln.Width
	}
	return &TextOp{
		Content:  ln.Content,
		X:        x,
		Y:        y,
		Width:    ln.Width,
		Font:     t.fontName(cfg),
		FontSize: t.size(cfg),
		Color:    t.Color,
	}
}

// Split 把文本拆成 head（高度不超过 limit）与 tail 两部分，二者共享已折好的行。
func (t *Text) Split(cfg Config, width, limit float64) (Component, Component, error) {
	lines, err := t.Lines(cfg, width-t.Margin.Horizontal())
	if err != nil {
		return nil, nil, err
	}
	size, spacing := t.size(cfg), t.spacing(cfg)
	k := 0
	for k < len(lines) && t.Margin.Top+BlockHeight(k+1, size, spacing) <= limit {
		k++
	}
	switch {
	case k == len(lines):
		return t, nil, nil
	case k == 0:
		return nil, t, nil
	}
	head := t.withLines(lines[:k])
	head.Margin.Bottom = 0
	tail := t.withLines(lines[k:])
	tail.Margin.Top = 0
	return head, tail, nil
}

func (t *Text) withLines(lines []TextLine) *Text {
	cp := *t
	cp.cache = &lineCache{lines: lines}
	cp.preset = true
	return &cp
}

// bind 返回用 data 插值后的副本，供页眉页脚填入页码。
func (t *Text) bind(data any) Component {
	content := binding.Interpolate(t.Content, data)
	if content == t.Content {
		return t
	}
	cp := *t
	cp.Content = content
	cp.cache = nil
	cp.preset = false
	return &cp
}
