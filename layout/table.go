package layout

import "fmt"

// 表格默认值（pt）。
const (
	DefaultCellPadding = 3.0
	DefaultBorderWidth = 0.5
)

// Cell 是表格中的一个单元格。Width 只在第一行中参与列宽计算。
type Cell struct {
	Width      float64
	Content    []Component
	Border     bool
	Background *Color
	VAlign     Align
}

// Row 是一行单元格。MinHeight 为该行的最小高度。
type Row struct {
	Cells     []*Cell
	MinHeight float64
}

// Table 按行排版单元格。列宽由第一行决定并用于所有行；
// 放不下的行会被拆成当前页的部分与下一页的续行。
type Table struct {
	Rows        []*Row
	Width       float64 // 0 表示占满可用宽度
	Margin      Margin
	Padding     float64
	BorderWidth float64
	BorderColor Color
	// HeaderRows 是表头行数，表格跨页时在每个续页顶部重复。
	HeaderRows int
}

// NewTable 创建带默认内边距与边框宽度的表格。
func NewTable(rows ...*Row) *Table {
	return &Table{
		Rows:        rows,
		Padding:     DefaultCellPadding,
		BorderWidth: DefaultBorderWidth,
		BorderColor: Black,
	}
}

// NewRow 用给定单元格创建一行。
func NewRow(cells ...*Cell) *Row {
	return &Row{Cells: cells}
}

// NewCell 创建声明宽度为 width 的单元格。
func NewCell(width float64, content ...Component) *Cell {
	return &Cell{Width: width, Content: content, VAlign: AlignTop}
}

// bind 返回单元格内容插值后的副本，页眉页脚中的表格也能填入页码。
func (t *Table) bind(data any) Component {
	cp := *t
	cp.Rows = make([]*Row, len(t.Rows))
	for i, row := range t.Rows {
		r := *row
		r.Cells = make([]*Cell, len(row.Cells))
		for j, cell := range row.Cells {
			cc := *cell
			cc.Content = bindAll(cell.Content, data)
			r.Cells[j] = &cc
		}
		cp.Rows[i] = &r
	}
	return &cp
}

// validate 检查每一行的单元格数都与第一行一致。
func (t *Table) validate() error {
	if len(t.Rows) == 0 {
		return nil
	}
	n := len(t.Rows[0].Cells)
	if n == 0 {
		return errorf(ErrCellCount, "第 1 行没有单元格")
	}
	for i, row := range t.Rows[1:] {
		if len(row.Cells) != n {
			return errorf(ErrCellCount, "第 %d 行有 %d 个单元格，第 1 行有 %d 个", i+2, len(row.Cells), n)
		}
	}
	if t.Padding < 0 || t.BorderWidth < 0 {
		return errorf(ErrInvalidGeometry, "table padding %g border %g", t.Padding, t.BorderWidth)
	}
	return nil
}

// ColumnWidths 按第一行的声明宽度把 total 按比例分给各列。
// 最后一列取剩余宽度，因此各列之和恰好等于 total。
// 声明宽度全为 0 时平均分配。
func (t *Table) ColumnWidths(total float64) ([]float64, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	if len(t.Rows) == 0 {
		return nil, nil
	}
	if total <= 0 {
		return nil, errorf(ErrInvalidGeometry, "table 宽度 %g", total)
	}
	cells := t.Rows[0].Cells
	sum := 0.0
	for i, cell := range cells {
		if cell.Width < 0 {
			return nil, errorf(ErrInvalidGeometry, "第 %d 列宽度 %g", i+1, cell.Width)
		}
		sum += cell.Width
	}
	widths := make([]float64, len(cells))
	used := 0.0
	for i, cell := range cells[:len(cells)-1] {
		if sum > 0 {
			widths[i] = cell.Width / sum * total
		} else {
			widths[i] = total / float64(len(cells))
		}
		used += widths[i]
	}
	widths[len(cells)-1] = total - used
	return widths, nil
}

func (t *Table) innerWidth(available float64) float64 {
	if t.Width > 0 {
		return t.Width
	}
	return available - t.Margin.Horizontal()
}

// rowHeight 在不绘制的前提下测量一行：各单元格内容高度的最大值加上下内边距。
func (t *Table) rowHeight(cfg Config, row *Row, widths []float64) (float64, error) {
	maxH := 0.0
	for i, cell := range row.Cells {
		h, _, err := measureStack(cfg, cell.Content, widths[i]-2*t.Padding)
		if err != nil {
			return 0, fmt.Errorf("测量第 %d 列失败: %w", i+1, err)
		}
		if h > maxH {
			maxH = h
		}
	}
	h := maxH + 2*t.Padding
	if h < row.MinHeight {
		h = row.MinHeight
	}
	return h, nil
}

// commitRow 在左上角 (x, top) 处绘制高度为 h 的一行。
func (t *Table) commitRow(cfg Config, s Sink, row *Row, widths []float64, x, top, h float64) error {
	for i, cell := range row.Cells {
		w := widths[i]
		box := Rect{X: x, Y: top - h, Width: w, Height: h}
		t.paintCell(s, cell, box)
		inner := Rect{
			X:      box.X + t.Padding,
			Y:      box.Y + t.Padding,
			Width:  w - 2*t.Padding,
			Height: h - 2*t.Padding,
		}
		if err := commitStack(cfg, s, cell.Content, inner, cell.VAlign); err != nil {
			return fmt.Errorf("绘制第 %d 列失败: %w", i+1, err)
		}
		x += w
	}
	return nil
}

// paintCell 绘制单元格背景与边框。边框由两个嵌套的填充矩形构成：
// 外层为边框颜色，内层按边框宽度内缩并填充背景色。
func (t *Table) paintCell(s Sink, cell *Cell, box Rect) {
	if cell.Border && t.BorderWidth > 0 {
		border := t.BorderColor
		s.Emit(Op{Rect: &RectOp{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height, Fill: &border}})
		bg := White
		if cell.Background != nil {
			bg = *cell.Background
		}
		bw := t.BorderWidth
		s.Emit(Op{Rect: &RectOp{
			X:      box.X + bw,
			Y:      box.Y + bw,
			Width:  box.Width - 2*bw,
			Height: box.Height - 2*bw,
			Fill:   &bg,
		}})
		return
	}
	if cell.Background != nil {
		bg := *cell.Background
		s.Emit(Op{Rect: &RectOp{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height, Fill: &bg}})
	}
}

// splitRow 让每个单元格在 limit 高度内重新排版，放不下的内容进入续行。
// 续行沿用原单元格的边框、背景与对齐方式。整行都放得下时 tail 为 nil，
// 任何单元格都放不下内容时 head 为 nil。
func (t *Table) splitRow(cfg Config, row *Row, widths []float64, limit float64) (*Row, *Row, error) {
	contentLimit := limit - 2*t.Padding
	if contentLimit <= 0 {
		return nil, row, nil
	}
	head := &Row{Cells: make([]*Cell, len(row.Cells))}
	tail := &Row{Cells: make([]*Cell, len(row.Cells)), MinHeight: row.MinHeight}
	anyHead, anyTail := false, false
	for i, cell := range row.Cells {
		h, tl, err := splitStack(cfg, cell.Content, widths[i]-2*t.Padding, contentLimit)
		if err != nil {
			return nil, nil, fmt.Errorf("拆分第 %d 列失败: %w", i+1, err)
		}
		hc, tc := *cell, *cell
		hc.Content, tc.Content = h, tl
		head.Cells[i], tail.Cells[i] = &hc, &tc
		anyHead = anyHead || len(h) > 0
		anyTail = anyTail || len(tl) > 0
	}
	switch {
	case !anyTail:
		return row, nil, nil
	case !anyHead:
		return nil, row, nil
	}
	return head, tail, nil
}

// Flow 把表格放入正文流。放不下的行先尝试拆分，剩余部分在新页继续，
// 新页顶部重复表头行。在空白新页上也放不下且无法拆分的行会溢出放置。
func (t *Table) Flow(c *Composer, cur Cursor) (Cursor, Rect, error) {
	cfg := c.cfg
	if len(t.Rows) == 0 {
		return cur, Rect{}, nil
	}
	width := t.innerWidth(c.BodyWidth())
	widths, err := t.ColumnWidths(width)
	if err != nil {
		return cur, Rect{}, err
	}
	x := cfg.Geometry.Margin.Left + t.Margin.Left
	headers := t.Rows[:min(t.HeaderRows, len(t.Rows))]

	y := c.StartY(cur) - t.Margin.Top
	top := y
	fresh := cur.Fresh()
	pending := append([]*Row(nil), t.Rows...)
	done := 0
	for len(pending) > 0 {
		row := pending[0]
		h, err := t.rowHeight(cfg, row, widths)
		if err != nil {
			return cur, Rect{}, err
		}
		if c.Fits(y - h) {
			if err := t.commitRow(cfg, c.body(), row, widths, x, y, h); err != nil {
				return cur, Rect{}, err
			}
			y -= h
			fresh = false
			pending = pending[1:]
			done++
			continue
		}

		head, tail, err := t.splitRow(cfg, row, widths, c.Remaining(Cursor{Y: y, HasY: true}))
		if err != nil {
			return cur, Rect{}, err
		}
		var headH float64
		if head != nil {
			if headH, err = t.rowHeight(cfg, head, widths); err != nil {
				return cur, Rect{}, err
			}
			if !c.Fits(y - headH) {
				head, tail = nil, row
			}
		}
		switch {
		case head != nil:
			if err := t.commitRow(cfg, c.body(), head, widths, x, y, headH); err != nil {
				return cur, Rect{}, err
			}
			y -= headH
			if tail == nil {
				pending = pending[1:]
				done++
				continue
			}
			pending[0] = tail
		case fresh:
			c.overflow("table row", h)
			if err := t.commitRow(cfg, c.body(), row, widths, x, y, h); err != nil {
				return cur, Rect{}, err
			}
			y -= h
			fresh = false
			pending = pending[1:]
			done++
			continue
		}

		if cur, err = c.Break(); err != nil {
			return cur, Rect{}, err
		}
		y = c.TopY()
		top = y
		if done >= len(headers) {
			for _, hr := range headers {
				hh, err := t.rowHeight(cfg, hr, widths)
				if err != nil {
					return cur, Rect{}, err
				}
				if err := t.commitRow(cfg, c.body(), hr, widths, x, y, hh); err != nil {
					return cur, Rect{}, err
				}
				y -= hh
			}
		}
		fresh = true
	}

	rect := Rect{X: x, Y: y, Width: width, Height: top - y}
	next := Cursor{X: rect.Right() + t.Margin.Right, Y: y - t.Margin.Bottom, HasX: true, HasY: true, RowTop: top}
	return next, rect, nil
}

// Measure 返回表格作为嵌套内容时的尺寸。
func (t *Table) Measure(cfg Config, width float64) (Size, error) {
	inner := t.innerWidth(width)
	widths, err := t.ColumnWidths(inner)
	if err != nil {
		return Size{}, err
	}
	total := 0.0
	for _, row := range t.Rows {
		h, err := t.rowHeight(cfg, row, widths)
		if err != nil {
			return Size{}, err
		}
		total += h
	}
	return Size{Width: inner + t.Margin.Horizontal(), Height: total + t.Margin.Vertical()}, nil
}

func (t *Table) Commit(cfg Config, s Sink, area Rect) error {
	inner := t.innerWidth(area.Width)
	widths, err := t.ColumnWidths(inner)
	if err != nil {
		return err
	}
	x := area.X + t.Margin.Left
	y := area.Top() - t.Margin.Top
	for _, row := range t.Rows {
		h, err := t.rowHeight(cfg, row, widths)
		if err != nil {
			return err
		}
		if err := t.commitRow(cfg, s, row, widths, x, y, h); err != nil {
			return err
		}
		y -= h
	}
	return nil
}

// Split 按行拆分嵌套表格；第一个放不下的行按单元格内容拆分。
// tail 在开头重复表头行。
func (t *Table) Split(cfg Config, width, limit float64) (Component, Component, error) {
	inner := t.innerWidth(width)
	widths, err := t.ColumnWidths(inner)
	if err != nil {
		return nil, nil, err
	}
	used := t.Margin.Top
	for i, row := range t.Rows {
		h, err := t.rowHeight(cfg, row, widths)
		if err != nil {
			return nil, nil, err
		}
		if used+h <= limit {
			used += h
			continue
		}
		headRows := append([]*Row(nil), t.Rows[:i]...)
		tailRows := append([]*Row(nil), t.Rows[i+1:]...)
		hr, tr, err := t.splitRow(cfg, row, widths, limit-used)
		if err != nil {
			return nil, nil, err
		}
		if hr != nil {
			headRows = append(headRows, hr)
		}
		if tr != nil {
			tailRows = append([]*Row{tr}, tailRows...)
		}
		if len(headRows) == 0 {
			return nil, t, nil
		}
		if n := min(t.HeaderRows, len(t.Rows)); i >= n && n > 0 {
			tailRows = append(append([]*Row(nil), t.Rows[:n]...), tailRows...)
		}
		head, tail := *t, *t
		head.Rows, head.Margin.Bottom = headRows, 0
		tail.Rows, tail.Margin.Top = tailRows, 0
		return &head, &tail, nil
	}
	return t, nil, nil
}
