package layout

// Cursor 是当前页上的绘制位置，按值在各组件之间显式传递。
// HasY 为 false 表示处于新页顶部，尚未放置任何正文内容。
type Cursor struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	HasX   bool    `json:"hasX"`
	HasY   bool    `json:"hasY"`
	RowTop float64 `json:"rowTop"` // 当前行的顶部，供 inline 元素在同一行继续排列
}

// Advance 返回向右移动 dx、向下移动 dy 后的光标。
func (c Cursor) Advance(dx, dy float64) Cursor {
	c.X += dx
	c.Y -= dy
	return c
}

// Fresh 报告光标是否位于尚无正文的新页顶部。
func (c Cursor) Fresh() bool { return !c.HasY }

// after 返回放置 rect 之后的光标。
func (c Cursor) after(rect Rect, m Margin, rowTop float64) Cursor {
	return Cursor{
		X:      rect.Right() + m.Right,
		Y:      rect.Y - m.Bottom,
		HasX:   true,
		HasY:   true,
		RowTop: rowTop,
	}
}

// clamped 把溢出放置后落到页面之下的 Y 截断为 0。
// 截断后任何有高度的内容都放不下，下一个内容仍会换页。
func (c Cursor) clamped() Cursor {
	if c.HasY && c.Y < 0 {
		c.Y = 0
	}
	return c
}

// WillFit 判断底边落在 beginY 的内容在扣除页脚后是否仍高于下边距。
// 恰好落在边界上视为放不下。
func WillFit(beginY, footerHeight, marginBottom float64) bool {
	return beginY-footerHeight > marginBottom
}
