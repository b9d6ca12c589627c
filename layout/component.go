package layout

import "fmt"

// Component 是可以先测量、再在给定区域内提交绘制的内容单元。
// Measure 不产生任何绘制效果；Commit 在 area 顶部开始绘制，不触发分页。
type Component interface {
	Measure(cfg Config, width float64) (Size, error)
	Commit(cfg Config, s Sink, area Rect) error
}

// Flowable 是可以放入正文流的内容：接收当前光标，返回新的光标与占用区域。
// 放不下时可以通过 Composer 换页。
type Flowable interface {
	Flow(c *Composer, cur Cursor) (Cursor, Rect, error)
}

// Splitter 由可以按高度拆分的组件实现。head 的高度不超过 limit；
// 任何一侧为空时返回 nil。
type Splitter interface {
	Split(cfg Config, width, limit float64) (head, tail Component, err error)
}

// Sink 接收已定位的绘制指令。
type Sink interface {
	Emit(op Op)
}

// pageSink 把指令写入某一页的某一图层。
type pageSink struct {
	page  *Page
	layer Layer
}

func (s pageSink) Emit(op Op) {
	op.Layer = s.layer
	s.page.Ops = append(s.page.Ops, op)
}

// measureStack 返回纵向堆叠的组件总高度与各自高度。
func measureStack(cfg Config, comps []Component, width float64) (float64, []float64, error) {
	total := 0.0
	heights := make([]float64, len(comps))
	for i, comp := range comps {
		sz, err := comp.Measure(cfg, width)
		if err != nil {
			return 0, nil, err
		}
		heights[i] = sz.Height
		total += sz.Height
	}
	return total, heights, nil
}

// commitStack 在 area 内自上而下依次提交组件，valign 控制整体的垂直位置。
func commitStack(cfg Config, s Sink, comps []Component, area Rect, valign Align) error {
	total, heights, err := measureStack(cfg, comps, area.Width)
	if err != nil {
		return err
	}
	top := area.Top()
	switch valign {
	case AlignCenter:
		top -= (area.Height - total) / 2
	case AlignBottom:
		top -= area.Height - total
	}
	for i, comp := range comps {
		h := heights[i]
		if err := comp.Commit(cfg, s, Rect{X: area.X, Y: top - h, Width: area.Width, Height: h}); err != nil {
			return err
		}
		top -= h
	}
	return nil
}

// splitStack 按 limit 拆分纵向堆叠的组件：能整体放下的进入 head，
// 第一个放不下的组件若可拆分则一分为二，其余全部进入 tail。
func splitStack(cfg Config, comps []Component, width, limit float64) (head, tail []Component, err error) {
	used := 0.0
	for i, comp := range comps {
		sz, err := comp.Measure(cfg, width)
		if err != nil {
			return nil, nil, err
		}
		if used+sz.Height <= limit {
			head = append(head, comp)
			used += sz.Height
			continue
		}
		if sp, ok := comp.(Splitter); ok {
			h, t, err := sp.Split(cfg, width, limit-used)
			if err != nil {
				return nil, nil, err
			}
			if h != nil {
				head = append(head, h)
			}
			if t != nil {
				tail = append(tail, t)
			}
		} else {
			tail = append(tail, comp)
		}
		tail = append(tail, comps[i+1:]...)
		break
	}
	return head, tail, nil
}

// Spacer 在正文流中留出固定高度的空白；换页后位于页顶的空白会被丢弃。
type Spacer struct {
	Height float64
}

func (sp *Spacer) Measure(_ Config, width float64) (Size, error) {
	if sp.Height < 0 {
		return Size{}, fmt.Errorf("%w: spacer 高度 %g", ErrInvalidGeometry, sp.Height)
	}
	return Size{Width: width, Height: sp.Height}, nil
}

func (sp *Spacer) Commit(Config, Sink, Rect) error { return nil }

func (sp *Spacer) Flow(c *Composer, cur Cursor) (Cursor, Rect, error) {
	if _, err := sp.Measure(c.cfg, 0); err != nil {
		return cur, Rect{}, err
	}
	top := c.StartY(cur)
	y := top - sp.Height
	if !c.Fits(y) {
		// 已在页顶时直接丢弃，避免连续产生空白页。
		if cur.Fresh() {
			return cur, Rect{}, nil
		}
		next, err := c.Break()
		return next, Rect{}, err
	}
	rect := Rect{X: c.cfg.Geometry.Margin.Left, Y: y, Width: c.BodyWidth(), Height: sp.Height}
	return cur.after(rect, Margin{}, top), rect, nil
}

// PageBreak 强制换页；位于新页顶部时不再产生空白页。
type PageBreak struct{}

func (PageBreak) Flow(c *Composer, cur Cursor) (Cursor, Rect, error) {
	if cur.Fresh() {
		return cur, Rect{}, nil
	}
	next, err := c.Break()
	return next, Rect{}, err
}

// Absolute 把一组组件放在正文区域左上角偏移 (X, Y) 处（Y 向下为正），
// 不移动光标，也不触发分页。
type Absolute struct {
	X, Y    float64
	Width   float64
	Content []Component
}

func (a *Absolute) Flow(c *Composer, cur Cursor) (Cursor, Rect, error) {
	width := a.Width
	if width <= 0 {
		width = c.BodyWidth() - a.X
	}
	total, _, err := measureStack(c.cfg, a.Content, width)
	if err != nil {
		return cur, Rect{}, err
	}
	top := c.TopY() - a.Y
	area := Rect{X: c.cfg.Geometry.Margin.Left + a.X, Y: top - total, Width: width, Height: total}
	if err := commitStack(c.cfg, c.body(), a.Content, area, AlignTop); err != nil {
		return cur, Rect{}, err
	}
	return cur, area, nil
}
