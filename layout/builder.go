package layout

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ByLCY/folio/binding"
	"github.com/ByLCY/folio/dsl"
)

var defaultTextColor = Color{R: 30, G: 30, B: 30}

// Build 根据 DSL AST 生成组件，交给 Composer 分页，返回排版结果。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Metrics == nil {
		return nil, ErrMissingMetrics
	}

	res, err := collectResources(doc)
	if err != nil {
		return nil, err
	}
	section := firstPage(doc)
	if section == nil {
		return nil, fmt.Errorf("文档中缺少 page 段落")
	}
	if section.Block == nil {
		return nil, fmt.Errorf("page 段落缺少内容")
	}

	width, height, err := resolvePageSize(section.Spec)
	if err != nil {
		return nil, err
	}
	cb := NewConfigBuilder().
		PageSize(width, height).
		Margins(resolveMargin(section.Spec.Options)).
		Metrics(opts.Metrics).
		Fonts(res.registry()).
		BaseDir(opts.BaseDir).
		Logger(opts.Logger)
	if err := applySettings(doc, cb); err != nil {
		return nil, err
	}
	if opts.MaxPages > 0 {
		cb.MaxPages(opts.MaxPages)
	}
	cfg, err := cb.Build()
	if err != nil {
		return nil, err
	}

	b := &builder{res: res, data: data, cfg: cfg}
	statements, err := pageStatements(doc, section)
	if err != nil {
		return nil, err
	}
	furniture, body, err := b.page(statements)
	if err != nil {
		return nil, err
	}
	composer, err := NewComposer(cfg, furniture)
	if err != nil {
		return nil, err
	}
	if err := composer.Add(body...); err != nil {
		return nil, err
	}
	result, err := composer.Finish()
	if err != nil {
		return nil, err
	}
	result.Meta = collectMeta(doc)
	return result, nil
}

// builder 把 DSL 语句翻译为组件。
type builder struct {
	res  ResourceSet
	data any
	cfg  Config
}

// scope 是 flow 传给子元素的继承属性。
type scope struct {
	width float64 // 可用宽度
	inset Margin  // flow 宽度与对齐产生的左右缩进
	align string
	wrap  string
}

func (b *builder) page(statements []*dsl.Statement) (Furniture, []Flowable, error) {
	var f Furniture
	root := scope{width: b.cfg.Geometry.ContentWidth()}
	var body []Flowable
	for _, stmt := range statements {
		switch {
		case stmt.Band != nil:
			if err := b.band(stmt.Band, &f); err != nil {
				return f, nil, err
			}
		case stmt.Watermark != nil:
			if err := b.watermark(stmt.Watermark, &f); err != nil {
				return f, nil, err
			}
		default:
			items, err := b.flowables(stmt, root)
			if err != nil {
				return f, nil, err
			}
			body = append(body, items...)
		}
	}
	return f, body, nil
}

// band 解析页眉或页脚。`page N` 只覆盖第 N 页，`skip-first true` 在首页省略。
func (b *builder) band(node *dsl.Band, f *Furniture) error {
	attrs := map[string]string{}
	page, skip := "", false
	for _, opt := range node.Options {
		switch {
		case opt.Page != "":
			page = opt.Page
		case opt.SkipFirst != "":
			skip = opt.SkipFirst == "true"
		case opt.Attr != nil:
			attrs[opt.Attr.Key] = opt.Attr.Value.Value
		}
	}
	band := &Band{Margin: b.margin(attrs)}
	content, err := b.components(node.Block, scope{width: b.cfg.Geometry.ContentWidth() - band.Margin.Horizontal()})
	if err != nil {
		return fmt.Errorf("%s: %w", node.Kind, err)
	}
	band.Content = content

	if page != "" {
		n, err := pageNumber(page)
		if err != nil {
			return fmt.Errorf("%s: %w", node.Kind, err)
		}
		if f.Pages == nil {
			f.Pages = map[int]PageFurniture{}
		}
		p := f.Pages[n]
		if node.Kind == "header" {
			p.Header = band
		} else {
			p.Footer = band
		}
		f.Pages[n] = p
		return nil
	}
	if node.Kind == "header" {
		f.Header, f.SkipFirstHeader = band, skip
	} else {
		f.Footer, f.SkipFirstFooter = band, skip
	}
	return nil
}

// watermark 支持 `watermark "TEXT" size 40pt angle 45 ...` 与 `watermark { "TEXT" }` 两种写法。
func (b *builder) watermark(node *dsl.Watermark, f *Furniture) error {
	attrs := attrMap(node.Attrs)
	text := string(node.Label)
	if v := attrs["text"]; v != "" {
		text = v
	}
	if text == "" {
		text = extractText(node.Block)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("watermark 缺少文本")
	}
	wm := NewWatermark(binding.Interpolate(text, b.data))
	wm.Font = attrs["font"]
	if v := attrs["size"]; v != "" {
		wm.Size = parseLength(v)
	}
	if v := attrs["angle"]; v != "" {
		a, err := strconv.ParseFloat(strings.TrimSuffix(v, "deg"), 64)
		if err != nil {
			return fmt.Errorf("watermark angle %q: %w", v, err)
		}
		wm.Angle = a
	}
	if v := attrs["opacity"]; v != "" {
		o, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("watermark opacity %q: %w", v, err)
		}
		wm.Opacity = o
	}
	if v := attrs["spacing"]; v != "" {
		wm.Spacing = parseLength(v)
	}
	if v := attrs["leading"]; v != "" {
		wm.Leading = parseLength(v)
	}
	if v := attrs["color"]; v != "" {
		c, err := b.res.resolveColor(v)
		if err != nil {
			return err
		}
		wm.Color = c
	}
	if v := attrs["page"]; v != "" {
		n, err := pageNumber(v)
		if err != nil {
			return fmt.Errorf("watermark: %w", err)
		}
		if f.Pages == nil {
			f.Pages = map[int]PageFurniture{}
		}
		p := f.Pages[n]
		p.Watermark = wm
		f.Pages[n] = p
		return nil
	}
	f.Watermark = wm
	return nil
}

// flowables 处理正文流中的一条语句，flow 会展开为其子元素。
func (b *builder) flowables(stmt *dsl.Statement, sc scope) ([]Flowable, error) {
	switch {
	case stmt.Text != nil:
		return []Flowable{b.newText("", map[string]string{}, string(stmt.Text.Value), sc)}, nil
	case stmt.PageBreak:
		return []Flowable{PageBreak{}}, nil
	case stmt.Table != nil:
		t, err := b.table(stmt.Table, sc)
		if err != nil {
			return nil, err
		}
		return []Flowable{t}, nil
	case stmt.Band != nil, stmt.Watermark != nil:
		return nil, fmt.Errorf("页眉、页脚与水印只能位于 page 或 page-set 顶层")
	case stmt.Command == nil:
		return nil, nil
	}
	cmd := stmt.Command
	switch cmd.Name {
	case "flow":
		if cmd.Block == nil {
			return nil, fmt.Errorf("flow 语句缺少子内容")
		}
		child := b.flowScope(cmd, sc)
		var out []Flowable
		for _, inner := range cmd.Block.Statements {
			items, err := b.flowables(inner, child)
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
		}
		return out, nil
	case "absolute":
		abs, err := b.absolute(cmd, sc)
		if err != nil {
			return nil, err
		}
		return []Flowable{abs}, nil
	}
	comp, err := b.component(cmd, sc)
	if err != nil || comp == nil {
		return nil, err
	}
	fl, ok := comp.(Flowable)
	if !ok {
		return nil, fmt.Errorf("%s 不能直接放入正文流", cmd.Name)
	}
	return []Flowable{fl}, nil
}

// flowScope 计算 flow 的宽度、对齐缩进以及可继承的 align/wrap。
func (b *builder) flowScope(cmd *dsl.Command, parent scope) scope {
	styleName, attrs := parseArgs(cmd.Args, false)
	attrs = mergeStyleAttributes(styleName, attrs, b.res.Styles)
	width := parent.width
	if v := attrs["width"]; v != "" {
		if w := parseDimension(v, parent.width); w > 0 && w <= parent.width {
			width = w
		}
	}
	offset := alignOffset(parent.width, width, attrs["align"])
	child := parent
	child.width = width
	child.inset.Left += offset
	child.inset.Right += parent.width - width - offset
	if v := strings.TrimSpace(attrs["align"]); v != "" {
		child.align = v
	}
	if v := strings.TrimSpace(attrs["wrap"]); v != "" {
		child.wrap = v
	}
	return child
}

func (b *builder) absolute(cmd *dsl.Command, sc scope) (*Absolute, error) {
	if cmd.Block == nil {
		return nil, fmt.Errorf("absolute 语句缺少子内容")
	}
	_, attrs := parseArgs(cmd.Args, false)
	abs := &Absolute{
		X: sc.inset.Left + parseDimension(attrs["x"], sc.width),
		Y: parseDimension(attrs["y"], sc.width),
	}
	width := sc.width - abs.X + sc.inset.Left
	if v := attrs["width"]; v != "" {
		if w := parseDimension(v, sc.width); w > 0 {
			width = w
		}
	}
	abs.Width = width
	content, err := b.components(cmd.Block, scope{width: width, align: sc.align, wrap: sc.wrap})
	if err != nil {
		return nil, err
	}
	abs.Content = content
	return abs, nil
}

// components 处理页眉、页脚、absolute 与单元格中的内容，这些区域不分页。
func (b *builder) components(block *dsl.Block, sc scope) ([]Component, error) {
	if block == nil {
		return nil, nil
	}
	var out []Component
	for _, stmt := range block.Statements {
		switch {
		case stmt.Text != nil:
			out = append(out, b.newText("", map[string]string{}, string(stmt.Text.Value), sc))
			continue
		case stmt.Table != nil:
			t, err := b.table(stmt.Table, sc)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
			continue
		case stmt.PageBreak:
			return nil, fmt.Errorf("page-break 只能用于正文流")
		case stmt.Band != nil, stmt.Watermark != nil:
			return nil, fmt.Errorf("页眉、页脚与水印不能嵌套")
		case stmt.Command == nil:
			continue
		}
		cmd := stmt.Command
		switch cmd.Name {
		case "flow":
			if cmd.Block == nil {
				return nil, fmt.Errorf("flow 语句缺少子内容")
			}
			inner, err := b.components(cmd.Block, b.flowScope(cmd, sc))
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
			continue
		case "absolute":
			return nil, fmt.Errorf("%s 只能用于正文流", cmd.Name)
		}
		comp, err := b.component(cmd, sc)
		if err != nil {
			return nil, err
		}
		if comp != nil {
			out = append(out, comp)
		}
	}
	return out, nil
}

// component 构造单个组件；未实现的命令被忽略。
func (b *builder) component(cmd *dsl.Command, sc scope) (Component, error) {
	switch strings.ToLower(cmd.Name) {
	case "text":
		return b.text(cmd, sc)
	case "image":
		return b.image(cmd, sc)
	case "line":
		return b.line(cmd, sc)
	case "rect":
		return b.rect(cmd, sc)
	case "spacer":
		return b.spacer(cmd)
	default:
		return nil, nil
	}
}

func (b *builder) text(cmd *dsl.Command, sc scope) (*Text, error) {
	if cmd.Block == nil {
		return nil, fmt.Errorf("text 语句缺少文本块")
	}
	styleName, attrs := parseArgs(cmd.Args, true)
	attrs = mergeStyleAttributes(styleName, attrs, b.res.Styles)
	t := b.newText(styleName, attrs, extractText(cmd.Block), sc)
	if v := attrs["color"]; v != "" {
		c, err := b.res.resolveColor(v)
		if err != nil {
			return nil, fmt.Errorf("text color: %w", err)
		}
		t.Color = c
	}
	if v := attrs["line-height"]; v != "" {
		spec, ok := ParseLineHeight(v)
		if !ok {
			return nil, fmt.Errorf("%w: line-height %q", ErrInvalidGeometry, v)
		}
		size := t.Size
		if size <= 0 {
			size = b.cfg.FontSize
		}
		t.LineSpacing = spec.Spacing(size)
	}
	return t, nil
}

// newText 用合并后的样式属性创建文本，align/wrap 未声明时继承自 flow。
func (b *builder) newText(styleName string, attrs map[string]string, content string, sc scope) *Text {
	t := NewText(binding.Interpolate(content, b.data))
	t.Color = defaultTextColor
	switch {
	case attrs["font"] != "":
		t.Font = attrs["font"]
	case styleName != "":
		if _, ok := b.res.Fonts[styleName]; ok {
			t.Font = styleName
		}
	}
	if v := attrs["size"]; v != "" {
		t.Size = parseLength(v)
	}
	align := attrs["align"]
	if strings.TrimSpace(align) == "" {
		align = sc.align
	}
	t.Align = ParseAlign(align)
	wrap := attrs["wrap"]
	if strings.TrimSpace(wrap) == "" {
		wrap = sc.wrap
	}
	t.Wrap = ParseWrap(wrap)
	t.Margin = b.margin(attrs).add(sc.inset)
	return t
}

func (b *builder) image(cmd *dsl.Command, sc scope) (*Image, error) {
	args, name := cmd.Args, ""
	if len(args) > 0 && args[0].Type == "String" {
		name, args = args[0].Value, args[1:]
	}
	styleName, attrs := parseArgs(args, true)
	attrs = mergeStyleAttributes(styleName, attrs, b.res.Styles)
	if styleName != "" {
		name = styleName
	}
	if attrs["image"] != "" {
		name = attrs["image"]
	}
	if attrs["src"] != "" {
		name = attrs["src"]
	}

	img := NewImage(name)
	if r, ok := b.res.Images[name]; ok {
		if r.Src != "" {
			img.Src = r.Src
		}
		img.Width, img.Height = r.Width, r.Height
	}
	if img.Src == "" {
		return nil, fmt.Errorf("image 语句缺少资源或 src")
	}
	if v := attrs["width"]; v != "" {
		img.Width = parseDimension(v, sc.width)
	}
	if v := attrs["height"]; v != "" {
		img.Height = parseDimension(v, sc.width)
	}
	if v := attrs["opacity"]; v != "" {
		o, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("image opacity %q: %w", v, err)
		}
		img.Opacity = o
	}
	img.NoAutoFit = strings.EqualFold(attrs["fit"], "none")
	img.Align = ParseAlign(firstNonEmpty(attrs["align"], sc.align))
	img.Margin = b.margin(attrs).add(sc.inset)
	img.Inline = parseBool(attrs["inline"], false)
	img.Position = position(attrs)
	return img, nil
}

func (b *builder) line(cmd *dsl.Command, sc scope) (*LineShape, error) {
	_, attrs := parseArgs(cmd.Args, false)
	width := sc.width
	if v := attrs["width"]; v != "" {
		width = parseDimension(v, sc.width)
	}
	if v := attrs["length"]; v != "" {
		width = parseDimension(v, sc.width)
	}
	thickness := 0.5
	if v := attrs["thickness"]; v != "" {
		thickness = parseLength(v)
	}
	ln := NewLine(width, thickness)
	if v := attrs["height"]; v != "" {
		ln.Height = parseLength(v)
	}
	ln.Color = Black
	if v := attrs["color"]; v != "" {
		c, err := b.res.resolveColor(v)
		if err != nil {
			return nil, fmt.Errorf("line color: %w", err)
		}
		ln.Color = c
	}
	ln.Align = ParseAlign(firstNonEmpty(attrs["align"], sc.align))
	ln.Margin = b.margin(attrs).add(sc.inset)
	ln.Position = position(attrs)
	return ln, nil
}

func (b *builder) rect(cmd *dsl.Command, sc scope) (*RectShape, error) {
	_, attrs := parseArgs(cmd.Args, false)
	width := sc.width
	if v := attrs["width"]; v != "" {
		width = parseDimension(v, sc.width)
	}
	r := NewRect(width, parseLength(attrs["height"]))
	if v := attrs["fill"]; v != "" {
		c, err := b.res.resolveColor(v)
		if err != nil {
			return nil, fmt.Errorf("rect fill: %w", err)
		}
		r.Fill = &c
	}
	if v := attrs["stroke"]; v != "" {
		c, err := b.res.resolveColor(v)
		if err != nil {
			return nil, fmt.Errorf("rect stroke: %w", err)
		}
		r.Stroke = &c
		r.StrokeWidth = 0.5
	}
	if v := attrs["stroke-width"]; v != "" {
		r.StrokeWidth = parseLength(v)
	}
	r.Align = ParseAlign(firstNonEmpty(attrs["align"], sc.align))
	r.Margin = b.margin(attrs).add(sc.inset)
	r.Inline = parseBool(attrs["inline"], false)
	r.Position = position(attrs)
	return r, nil
}

// spacer 支持 `spacer 10pt` 与 `spacer height 10pt`。
func (b *builder) spacer(cmd *dsl.Command) (*Spacer, error) {
	v := ""
	if len(cmd.Args) == 1 {
		v = cmd.Args[0].Value
	} else {
		_, attrs := parseArgs(cmd.Args, false)
		v = attrs["height"]
	}
	l, ok := ParseLength(v)
	if !ok || l.Value < 0 {
		return nil, fmt.Errorf("%w: spacer 高度 %q", ErrInvalidGeometry, v)
	}
	return &Spacer{Height: l.ToPT()}, nil
}

// table 解析表格。header 行计入 HeaderRows，在续页顶部重复。
// `style NAME` 先合并具名样式中的表格属性。
func (b *builder) table(node *dsl.Table, sc scope) (*Table, error) {
	attrs := attrMap(node.Attrs)
	attrs = mergeStyleAttributes(attrs["style"], attrs, b.res.Styles)

	t := NewTable()
	t.BorderColor = Color{R: 200, G: 200, B: 200}
	width := sc.width
	if v := attrs["width"]; v != "" {
		if w := parseDimension(v, sc.width); w > 0 {
			width = w
			t.Width = w
		}
	}
	t.Margin = b.margin(attrs).add(sc.inset)
	if v := attrs["padding"]; v != "" {
		t.Padding = parseLength(v)
	}
	if v := attrs["border-width"]; v != "" {
		t.BorderWidth = parseLength(v)
	}
	if v := attrs["border-color"]; v != "" {
		c, err := b.res.resolveColor(v)
		if err != nil {
			return nil, fmt.Errorf("table border-color: %w", err)
		}
		t.BorderColor = c
	}
	border := parseBool(attrs["border"], true)

	headers := 0
	for _, r := range node.Rows {
		row, err := b.row(r, border, width)
		if err != nil {
			return nil, fmt.Errorf("table 第 %d 行: %w", len(t.Rows)+1, err)
		}
		if r.Kind == "header" && headers == len(t.Rows) {
			headers++
		}
		t.Rows = append(t.Rows, row)
	}
	t.HeaderRows = headers
	if v := attrs["header-rows"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("table header-rows %q 无效", v)
		}
		t.HeaderRows = n
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (b *builder) row(node *dsl.Row, border bool, tableWidth float64) (*Row, error) {
	if len(node.Cells) == 0 {
		return nil, fmt.Errorf("%s 中至少需要一个 cell", node.Kind)
	}
	attrs := attrMap(node.Attrs)
	row := &Row{MinHeight: parseLength(attrs["min-height"])}
	for _, c := range node.Cells {
		cell, err := b.cell(c, border, tableWidth)
		if err != nil {
			return nil, fmt.Errorf("第 %d 列: %w", len(row.Cells)+1, err)
		}
		row.Cells = append(row.Cells, cell)
	}
	return row, nil
}

// cell 中的字符串字面量按单元格样式生成文本，其余语句按普通组件处理（可嵌套表格）。
func (b *builder) cell(node *dsl.Cell, border bool, tableWidth float64) (*Cell, error) {
	styleName, attrs := parseArgs(node.Args, true)
	attrs = mergeStyleAttributes(styleName, attrs, b.res.Styles)
	cell := NewCell(parseDimension(attrs["width"], tableWidth))
	cell.Border = parseBool(attrs["border"], border)
	cell.VAlign = ParseAlign(firstNonEmpty(attrs["valign"], "top"))
	if v := attrs["background"]; v != "" {
		c, err := b.res.resolveColor(v)
		if err != nil {
			return nil, fmt.Errorf("cell background: %w", err)
		}
		cell.Background = &c
	}
	if node.Block == nil {
		return cell, nil
	}
	textAttrs := map[string]string{}
	for k, v := range attrs {
		switch k {
		case "width", "border", "background", "valign":
		default:
			textAttrs[k] = v
		}
	}
	sc := scope{width: tableWidth}
	for _, stmt := range node.Block.Statements {
		if stmt.Text != nil {
			t := b.newText(styleName, textAttrs, string(stmt.Text.Value), sc)
			if v := textAttrs["color"]; v != "" {
				c, err := b.res.resolveColor(v)
				if err != nil {
					return nil, err
				}
				t.Color = c
			}
			cell.Content = append(cell.Content, t)
			continue
		}
		inner, err := b.components(&dsl.Block{Statements: []*dsl.Statement{stmt}}, sc)
		if err != nil {
			return nil, err
		}
		cell.Content = append(cell.Content, inner...)
	}
	return cell, nil
}

// margin 读取 margin 与 margin-top/right/bottom/left 属性（pt）。
func (b *builder) margin(attrs map[string]string) Margin {
	var m Margin
	if v := attrs["margin"]; v != "" {
		l := parseLength(v)
		m = Margin{Top: l, Right: l, Bottom: l, Left: l}
	}
	if v := attrs["margin-top"]; v != "" {
		m.Top = parseLength(v)
	}
	if v := attrs["margin-right"]; v != "" {
		m.Right = parseLength(v)
	}
	if v := attrs["margin-bottom"]; v != "" {
		m.Bottom = parseLength(v)
	}
	if v := attrs["margin-left"]; v != "" {
		m.Left = parseLength(v)
	}
	return m
}

// position 解析绝对定位坐标（页面左下角为原点）。
func position(attrs map[string]string) *Point {
	if attrs["x"] == "" || attrs["y"] == "" {
		return nil
	}
	return &Point{X: parseLength(attrs["x"]), Y: parseLength(attrs["y"])}
}

func resolvePageSize(spec dsl.PageSpec) (float64, float64, error) {
	size, ok := pagePresets[strings.ToUpper(spec.Size)]
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", spec.Size)
	}
	for _, opt := range spec.Options {
		switch opt.Orientation {
		case "landscape":
			size = size.Landscape()
		case "portrait":
			size = PageSize{Width: math.Min(size.Width, size.Height), Height: math.Max(size.Width, size.Height)}
		}
	}
	return size.Width, size.Height, nil
}

var pagePresets = map[string]PageSize{
	"A3":     PageA3,
	"A4":     PageA4,
	"A5":     PageA5,
	"LETTER": PageLetter,
	"LEGAL":  PageLegal,
}

// resolveMargin 解析 page 头部的 margin 参数（默认四边 20mm），多次出现时以最后一次为准：
// 1 个值四边相同；2 个值为上下、左右；3 个值为上、右、下且左为 0；
// 4 个及以上取前四个，依次为上、右、下、左。
func resolveMargin(opts []*dsl.PageOption) Margin {
	d := 20 * MmToPt
	margin := Margin{Top: d, Right: d, Bottom: d, Left: d}
	for _, opt := range opts {
		if len(opt.Margin) == 0 {
			continue
		}
		var vals []float64
		for _, raw := range opt.Margin {
			l, ok := ParseLength(raw)
			if !ok || len(vals) == 4 {
				break
			}
			vals = append(vals, l.ToPT())
		}
		switch len(vals) {
		case 1:
			v := vals[0]
			margin = Margin{Top: v, Right: v, Bottom: v, Left: v}
		case 2:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
		case 3:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: 0}
		case 4:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
		}
	}
	return margin
}

// pageStatements 返回页面语句；`page A4 use NAME` 先展开同名 page-set 的语句，
// page 自身的页眉页脚与水印随后覆盖模板。
func pageStatements(doc *dsl.Document, page *dsl.PageSection) ([]*dsl.Statement, error) {
	name := ""
	for _, opt := range page.Spec.Options {
		if opt.Use != "" {
			name = opt.Use
		}
	}
	if name == "" {
		return page.Block.Statements, nil
	}
	for _, section := range doc.Sections {
		set := section.PageSet
		if set == nil || set.Name != name || set.Block == nil {
			continue
		}
		out := make([]*dsl.Statement, 0, len(set.Block.Statements)+len(page.Block.Statements))
		out = append(out, set.Block.Statements...)
		return append(out, page.Block.Statements...), nil
	}
	return nil, fmt.Errorf("page-set %s 未定义", name)
}

func firstPage(doc *dsl.Document) *dsl.PageSection {
	for _, section := range doc.Sections {
		if section.Page != nil {
			return section.Page
		}
	}
	return nil
}

// parseArgs 把 `style key value key value` 形式的参数拆成样式名与属性表。
// 参数个数为奇数时第一个标识符才是样式名，`cell width 2` 不含样式。
func parseArgs(args []*dsl.Lexeme, allowStyle bool) (string, map[string]string) {
	result := map[string]string{}
	if len(args) == 0 {
		return "", result
	}
	cursor := 0
	var style string
	if allowStyle && args[0].Type == "Ident" && len(args)%2 == 1 {
		style = args[0].Value
		cursor = 1
	}
	for cursor < len(args)-1 {
		result[args[cursor].Value] = args[cursor+1].Value
		cursor += 2
	}
	return style, result
}

// attrMap 把 `key value` 属性列表转成属性表，重复的键以最后一次为准。
func attrMap(attrs []*dsl.Attr) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[a.Key] = a.Value.Value
	}
	return out
}

func pageNumber(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("page %q 不是有效页码", v)
	}
	return n, nil
}

func mergeStyleAttributes(style string, inline map[string]string, styles map[string]Style) map[string]string {
	out := make(map[string]string)
	if s, ok := styles[style]; ok && style != "" {
		for k, v := range s.Props {
			out[k] = v
		}
	}
	for k, v := range inline {
		out[k] = v
	}
	return out
}

func extractText(block *dsl.Block) string {
	if block == nil {
		return ""
	}
	var builder strings.Builder
	for _, stmt := range block.Statements {
		if stmt.Text != nil {
			builder.WriteString(string(stmt.Text.Value))
		}
	}
	return builder.String()
}

func alignOffset(container, width float64, align string) float64 {
	if container <= width {
		return 0
	}
	switch ParseAlign(align) {
	case AlignCenter:
		return (container - width) / 2
	case AlignRight:
		return container - width
	default:
		return 0
	}
}

func parseBool(v string, def bool) bool {
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
