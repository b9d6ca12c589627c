package layout

import (
	"fmt"
	"log/slog"
)

// Composer 是分页控制器：持有已完成的页面、当前页的页眉/页脚占用高度，
// 负责判断内容是否放得下并在需要时换页。页面严格按顺序完成，决定不会回滚。
type Composer struct {
	cfg       Config
	log       *slog.Logger
	furniture Furniture
	pages     []*Page
	cursor    Cursor
	headerH   float64
	footerH   float64
	watermark *Watermark
	finished  bool
}

// NewComposer 创建分页控制器并打开第一页（同时绘制该页的页眉与页脚）。
func NewComposer(cfg Config, furniture Furniture) (*Composer, error) {
	if cfg.Metrics == nil {
		return nil, ErrMissingMetrics
	}
	c := &Composer{
		cfg:       cfg,
		log:       cfg.logger(),
		furniture: furniture,
	}
	if err := c.NewPage(); err != nil {
		return nil, err
	}
	return c, nil
}

// Config 返回排版配置快照。
func (c *Composer) Config() Config { return c.cfg }

// Cursor 返回当前光标。
func (c *Composer) Cursor() Cursor { return c.cursor }

// PageCount 返回已经创建的页数。
func (c *Composer) PageCount() int { return len(c.pages) }

// Add 依次把内容放入正文流，并把每次返回的光标传给下一个内容。
func (c *Composer) Add(items ...Flowable) error {
	if c.finished {
		return fmt.Errorf("layout: 排版已结束，不能继续添加内容")
	}
	for _, item := range items {
		next, _, err := item.Flow(c, c.cursor)
		if err != nil {
			return err
		}
		c.cursor = next.clamped()
	}
	return nil
}

// Finish 为最后一页补上水印并返回排版结果。
func (c *Composer) Finish() (*Result, error) {
	if !c.finished {
		if err := c.finalizePage(); err != nil {
			return nil, err
		}
		c.finished = true
	}
	pages := make([]Page, len(c.pages))
	for i, p := range c.pages {
		pages[i] = *p
	}
	return &Result{Pages: pages, Fonts: c.cfg.Fonts.All()}, nil
}

// NewPage 结束当前页，新建一页，重置光标并依次重绘页眉与页脚。
func (c *Composer) NewPage() error {
	if len(c.pages) > 0 {
		if err := c.finalizePage(); err != nil {
			return err
		}
	}
	if c.PageCount() >= c.cfg.MaxPages {
		return fmt.Errorf("%w: %d", ErrTooManyPages, c.cfg.MaxPages)
	}
	g := c.cfg.Geometry
	page := &Page{
		Number: c.PageCount() + 1,
		Width:  g.Width,
		Height: g.Height,
		Margin: g.Margin,
	}
	c.pages = append(c.pages, page)

	header, footer, watermark := c.furniture.forPage(page.Number)
	c.watermark = watermark
	data := pageData(page.Number)
	var err error
	if c.headerH, err = c.drawBand(page, header, LayerHeader, data); err != nil {
		return fmt.Errorf("绘制第 %d 页页眉失败: %w", page.Number, err)
	}
	if c.footerH, err = c.drawBand(page, footer, LayerFooter, data); err != nil {
		return fmt.Errorf("绘制第 %d 页页脚失败: %w", page.Number, err)
	}

	c.cursor = Cursor{X: g.Margin.Left, HasX: true}
	c.log.Debug("layout: new page", slog.Int("page", page.Number),
		slog.Float64("header", c.headerH), slog.Float64("footer", c.footerH))
	return nil
}

// Break 换页并返回新页的光标，供组件在放不下时调用。
func (c *Composer) Break() (Cursor, error) {
	if err := c.NewPage(); err != nil {
		return Cursor{}, err
	}
	return c.cursor, nil
}

// TopY 返回当前页正文区域顶部：页面高度减去上边距与页眉高度。
func (c *Composer) TopY() float64 {
	g := c.cfg.Geometry
	return g.Height - g.Margin.Top - c.HeaderHeight()
}

// StartY 返回下一个内容的起始 Y：新页时为正文顶部，否则为光标位置。
func (c *Composer) StartY(cur Cursor) float64 {
	if cur.HasY {
		return cur.Y
	}
	return c.TopY()
}

// FooterHeight 返回当前页页脚占用的高度。
func (c *Composer) FooterHeight() float64 { return c.footerH }

// HeaderHeight 返回当前页页眉占用的高度。
func (c *Composer) HeaderHeight() float64 { return c.headerH }

// BodyWidth 返回正文区域宽度。
func (c *Composer) BodyWidth() float64 { return c.cfg.Geometry.ContentWidth() }

// Fits 判断底边落在 beginY 的内容能否留在当前页。
func (c *Composer) Fits(beginY float64) bool {
	return WillFit(beginY, c.footerH, c.cfg.Geometry.Margin.Bottom)
}

// WillFit 判断从 cur 开始、高度为 height 的内容能否放在当前页。
func (c *Composer) WillFit(cur Cursor, height float64) bool {
	return c.Fits(c.StartY(cur) - height)
}

// Remaining 返回 cur 之下、页脚之上仍可使用的高度。
func (c *Composer) Remaining(cur Cursor) float64 {
	return c.StartY(cur) - c.footerH - c.cfg.Geometry.Margin.Bottom
}

// body 返回写入当前页正文图层的 Sink。
func (c *Composer) body() Sink {
	return pageSink{page: c.pages[len(c.pages)-1], layer: LayerBody}
}

// overflow 记录一个在空白新页上也放不下、只能溢出放置的内容。
func (c *Composer) overflow(kind string, height float64) {
	c.log.Warn("layout: content taller than usable page height, placed with overflow",
		slog.String("kind", kind),
		slog.Float64("height", height),
		slog.Int("page", c.PageCount()))
}

// place 为一个块级请求解析左下角坐标；放不下时最多换页一次。
// 显式给出 Position 时直接定位，不移动光标也不触发分页。
func (c *Composer) place(kind string, cur Cursor, req Request) (Rect, Cursor, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return Rect{}, cur, fmt.Errorf("%w: %s 尺寸 %gx%g", ErrInvalidGeometry, kind, req.Width, req.Height)
	}
	if req.Position != nil {
		return Rect{X: req.Position.X, Y: req.Position.Y, Width: req.Width, Height: req.Height}, cur, nil
	}
	rect, rowTop := c.resolve(cur, req)
	if req.CheckPageBreak && !c.Fits(rect.Y) {
		if cur.Fresh() {
			c.overflow(kind, req.Height)
		} else {
			next, err := c.Break()
			if err != nil {
				return Rect{}, cur, err
			}
			cur = next
			rect, rowTop = c.resolve(cur, req)
			if !c.Fits(rect.Y) {
				c.overflow(kind, req.Height)
			}
		}
	}
	next := cur.after(rect, req.Margin, rowTop)
	if req.Inline && cur.HasY && cur.Y < next.Y {
		next.Y = cur.Y
	}
	return rect, next, nil
}

// resolve 根据对齐方式、边距与光标计算矩形位置，并返回所在行的顶部。
func (c *Composer) resolve(cur Cursor, req Request) (Rect, float64) {
	g := c.cfg.Geometry
	inline := req.Inline && cur.HasX && cur.HasY

	var x float64
	switch {
	case inline:
		x = cur.X + req.Margin.Left
	case req.Align == AlignCenter:
		x = (g.Width - req.Width) / 2
	case req.Align == AlignRight:
		x = g.Width - req.Width - g.Margin.Right - req.Margin.Right
	default:
		x = g.Margin.Left + req.Margin.Left
	}

	rowTop := c.StartY(cur)
	if inline {
		rowTop = cur.RowTop
	}
	y := rowTop - req.Margin.Top - req.Height
	return Rect{X: x, Y: y, Width: req.Width, Height: req.Height}, rowTop
}

// finalizePage 在当前页所有内容完成后平铺水印，每页只执行一次。
func (c *Composer) finalizePage() error {
	if len(c.pages) == 0 || c.watermark == nil {
		return nil
	}
	page := c.pages[len(c.pages)-1]
	ops, err := c.watermark.tiles(c.cfg, page.Width, page.Height)
	if err != nil {
		return fmt.Errorf("绘制第 %d 页水印失败: %w", page.Number, err)
	}
	sink := pageSink{page: page, layer: LayerWatermark}
	for i := range ops {
		sink.Emit(Op{Watermark: &ops[i]})
	}
	c.watermark = nil
	return nil
}
