package layout

// Request 是单次放置的排版请求。
type Request struct {
	Width  float64
	Height float64
	Margin Margin
	Align  Align
	// Position 非空时按页面坐标绝对定位（左下角），不移动光标、不触发分页。
	Position *Point
	// CheckPageBreak 为 true 时放置前检查是否需要换页。
	CheckPageBreak bool
	// Inline 为 true 时紧接上一个元素右侧放置，与其顶部对齐。
	Inline bool
}

// alignX 返回宽度为 w 的内容在 area 内按 align 对齐后的左边缘。
func alignX(area Rect, w float64, align Align, m Margin) float64 {
	switch align {
	case AlignCenter:
		return area.X + m.Left + (area.Width-m.Horizontal()-w)/2
	case AlignRight:
		return area.Right() - m.Right - w
	default:
		return area.X + m.Left
	}
}

// LineShape 是一条水平线，Height 为其占用的高度，线画在中间。
type LineShape struct {
	Request
	Color     Color
	Thickness float64
}

// NewLine 创建宽 width、线宽 thickness 的水平线。
func NewLine(width, thickness float64) *LineShape {
	return &LineShape{
		Request:   Request{Width: width, Height: thickness, CheckPageBreak: true},
		Thickness: thickness,
	}
}

func (l *LineShape) Measure(_ Config, width float64) (Size, error) {
	if err := validSize("line", l.Width, l.Height); err != nil {
		return Size{}, err
	}
	return Size{Width: l.Width + l.Margin.Horizontal(), Height: l.Height + l.Margin.Vertical()}, nil
}

func (l *LineShape) Commit(_ Config, s Sink, area Rect) error {
	if err := validSize("line", l.Width, l.Height); err != nil {
		return err
	}
	w := l.Width
	if avail := area.Width - l.Margin.Horizontal(); w > avail {
		w = avail
	}
	x := alignX(area, w, l.Align, l.Margin)
	y := area.Top() - l.Margin.Top - l.Height
	s.Emit(Op{Line: l.op(Rect{X: x, Y: y, Width: w, Height: l.Height})})
	return nil
}

func (l *LineShape) Flow(c *Composer, cur Cursor) (Cursor, Rect, error) {
	rect, next, err := c.place("line", cur, l.Request)
	if err != nil {
		return cur, Rect{}, err
	}
	c.body().Emit(Op{Line: l.op(rect)})
	return next, rect, nil
}

func (l *LineShape) op(r Rect) *LineOp {
	mid := r.Y + r.Height/2
	return &LineOp{X1: r.X, Y1: mid, X2: r.Right(), Y2: mid, Color: l.Color, Width: l.Thickness}
}

// RectShape 是一个矩形，可选填充与描边。
type RectShape struct {
	Request
	Fill        *Color
	Stroke      *Color
	StrokeWidth float64
}

// NewRect 创建宽 width、高 height 的矩形。
func NewRect(width, height float64) *RectShape {
	return &RectShape{Request: Request{Width: width, Height: height, CheckPageBreak: true}}
}

func (r *RectShape) Measure(_ Config, width float64) (Size, error) {
	if err := validSize("rect", r.Width, r.Height); err != nil {
		return Size{}, err
	}
	return Size{Width: r.Width + r.Margin.Horizontal(), Height: r.Height + r.Margin.Vertical()}, nil
}

func (r *RectShape) Commit(_ Config, s Sink, area Rect) error {
	if err := validSize("rect", r.Width, r.Height); err != nil {
		return err
	}
	x := alignX(area, r.Width, r.Align, r.Margin)
	y := area.Top() - r.Margin.Top - r.Height
	s.Emit(Op{Rect: r.op(Rect{X: x, Y: y, Width: r.Width, Height: r.Height})})
	return nil
}

func (r *RectShape) Flow(c *Composer, cur Cursor) (Cursor, Rect, error) {
	rect, next, err := c.place("rect", cur, r.Request)
	if err != nil {
		return cur, Rect{}, err
	}
	c.body().Emit(Op{Rect: r.op(rect)})
	return next, rect, nil
}

func (r *RectShape) op(rect Rect) *RectOp {
	return &RectOp{
		X:           rect.X,
		Y:           rect.Y,
		Width:       rect.Width,
		Height:      rect.Height,
		Fill:        r.Fill,
		Stroke:      r.Stroke,
		StrokeWidth: r.StrokeWidth,
	}
}

func validSize(kind string, w, h float64) error {
	if w <= 0 || h <= 0 {
		return errorf(ErrInvalidGeometry, "%s 尺寸 %gx%g", kind, w, h)
	}
	return nil
}
